package domain

import "time"

type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

type Message struct {
	Origin    Origin
	Text      string
	Timestamp time.Time
}

func (m Message) FromUser() bool {
	return m.Origin == OriginUser
}
