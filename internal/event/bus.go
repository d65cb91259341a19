package event

import (
	"time"
)

type (
	bus struct {
		q chan Queueable
	}

	Queueable interface {
		Process()
		IsProcessed() bool
		Drop()
		IsDropped() bool
		Expired() bool
		Type() string
	}

	Base struct {
		processed bool
		dropped   bool
		expireAt  time.Time
		eventType string
	}

	// DeleteMessage asks the cleanup worker to remove a message. Used for
	// the silent-delete path of the guard layer; failures are swallowed.
	DeleteMessage struct {
		*Base
		ChatID    int64
		MessageID int
	}
)

const TypeDeleteMessage = "delete_message"

func CreateBase(eventType string, expiresAt time.Time) *Base {
	return &Base{
		expireAt:  expiresAt,
		eventType: eventType,
	}
}

func NewDeleteMessage(chatID int64, messageID int) *DeleteMessage {
	return &DeleteMessage{
		Base:      CreateBase(TypeDeleteMessage, time.Now().Add(time.Minute)),
		ChatID:    chatID,
		MessageID: messageID,
	}
}

func (b *Base) Process() {
	b.processed = true
}

func (b *Base) IsProcessed() bool {
	return b.processed
}

func (b *Base) Drop() {
	b.dropped = true
}

func (b *Base) IsDropped() bool {
	return b.dropped
}

func (b *Base) Expired() bool {
	return time.Until(b.expireAt) < 0
}

func (b *Base) Type() string {
	return b.eventType
}

var Bus = &bus{q: make(chan Queueable, 10000)}

func (b *bus) NQ(event Queueable) {
	select {
	case b.q <- event:
	default:
	}
}

func (b *bus) DQ() Queueable {
	select {
	case q := <-b.q:
		return q
	default:
		return nil
	}
}
