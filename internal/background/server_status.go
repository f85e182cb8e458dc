package background

import "sync"

type serverState int

const (
	stateStopped serverState = iota
	stateStarting
	stateStarted
	stateStopping
)

// backgroundServerStatus 记录后台服务器所处的阶段。阶段之间只能通过 `transit` 切换。
type backgroundServerStatus struct {
	mu    sync.RWMutex
	state serverState
}

func newBackgroundServerStatus() *backgroundServerStatus {
	return &backgroundServerStatus{state: stateStopped}
}

func (s *backgroundServerStatus) get() serverState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// transit 仅当当前阶段为 `from` 时切换到 `to`，并返回是否切换成功。
func (s *backgroundServerStatus) transit(from, to serverState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != from {
		return false
	}
	s.state = to

	return true
}
