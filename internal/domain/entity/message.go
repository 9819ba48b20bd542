package entity

import "time"

type SenderType string

const (
	SenderUser   SenderType = "USER"
	SenderVendor SenderType = "VENDOR"
)

func (t SenderType) Valid() bool {
	return t == SenderUser || t == SenderVendor
}

type MessageStatus string

const (
	StatusSent MessageStatus = "SENT"
	StatusSeen MessageStatus = "SEEN"
)

// Sender identifies who wrote a message. ID is a user id for SenderUser and a
// vendor entity id for SenderVendor, never a user id.
type Sender struct {
	Type SenderType `json:"senderType" firestore:"senderType"`
	ID   string     `json:"senderId" firestore:"senderId"`
}

func (s Sender) Is(actor Actor) bool {
	return s.ID != "" && s.ID == actor.ID && string(s.Type) == string(actor.Kind)
}

// Actor returns the identity that wrote the message.
func (s Sender) Actor() Actor {
	return Actor{Kind: ActorKind(s.Type), ID: s.ID}
}

// Message is immutable once written except for Status, which only moves
// from SENT to SEEN.
type Message struct {
	ID     string `json:"id" firestore:"id"`
	ChatID string `json:"chatId" firestore:"chatId"`
	Sender
	Content   string        `json:"content" firestore:"content"`
	Status    MessageStatus `json:"status,omitempty" firestore:"status"`
	Seq       int64         `json:"seq" firestore:"seq"`
	CreatedAt time.Time     `json:"createdAt" firestore:"createdAt"`
}

// MarkSeen advances the status. It never reverts a seen message.
func (m *Message) MarkSeen() bool {
	if m.Status == StatusSeen {
		return false
	}
	m.Status = StatusSeen
	return true
}

// Before orders messages by creation time, then by insertion sequence.
func (m *Message) Before(other *Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	if m.Seq != other.Seq {
		return m.Seq < other.Seq
	}
	return m.ID < other.ID
}

// NewMessage is the send payload.
type NewMessage struct {
	ChatID string `json:"chatId"`
	Sender
	Content string `json:"content"`
}
