package domain

// ConversationStore is the append-only transcript a chat service writes to.
type ConversationStore interface {
	AppendMessage(origin Origin, text string)
	SetPending(pending bool)
}

type EventKind int

const (
	EventMessage EventKind = iota
	EventPending
)

// Event describes a single store mutation. Index is the position of Message
// in the transcript and is only set for EventMessage.
type Event struct {
	Kind    EventKind
	Message Message
	Index   int
	Pending bool
}

type Listener func(Event)
