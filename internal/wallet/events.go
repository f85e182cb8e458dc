package wallet

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind tells what changed on the wallet side.
type EventKind string

const (
	AccountChanged EventKind = "accountChanged"
	ChainChanged   EventKind = "chainChanged"
)

// Event is a wallet notification. `Account` is the zero address after a disconnect.
type Event struct {
	Kind    EventKind
	Account common.Address
	ChainID *big.Int
}

// Handler receives wallet notifications. Handlers are called synchronously and must not block.
type Handler func(Event)

// Subscribe registers `handler` and returns the function that removes it. The returned function may be called more
// than once.
func (s *Session) Subscribe(handler Handler) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = handler
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Session) emit(event Event) {
	s.subsMu.Lock()
	handlers := make([]Handler, 0, len(s.subs))
	for _, h := range s.subs {
		handlers = append(handlers, h)
	}
	s.subsMu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}
