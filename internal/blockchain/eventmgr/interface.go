package eventmgr

type IEventManager interface {
	// RegisterEvent starts watching for the event identified by `eventID`. On Ethereum the event ID is a transaction
	// hash and the event fires once the transaction is mined.
	//
	// Returns:
	//   the registration (used to unregister the event)
	//   the event channel, closed when the registration is dropped
	RegisterEvent(eventID string) (IEventRegistration, <-chan IEvent, error)

	// UnregisterEvent stops watching. The registration must be produced by the same event manager instance.
	UnregisterEvent(reg IEventRegistration) error
}

// EventManagerBase keeps a quit channel per live registration.
type EventManagerBase struct {
	QuitChanMap map[IEventRegistration]chan struct{}
}

type IEventRegistration interface {
	GetEventID() string
}

type IEvent interface {
	GetEventName() string
	GetPayload() []byte
	GetBlockNumber() uint64
	GetTxID() string
}
