package tablesession

import (
	"time"

	"holdem-server/internal/registry"
)

// ChatCapacity is the per-table chat history cap; the oldest message is
// evicted first.
const ChatCapacity = 100

// ChatMessage is one table chat entry.
type ChatMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	Timestamp  time.Time `json:"timestamp"`
}

// ChatRing is a FIFO ring of the table's most recent chat messages.
// Only the owning table actor mutates it.
type ChatRing struct {
	msgs []ChatMessage
}

func NewChatRing() *ChatRing {
	return &ChatRing{msgs: make([]ChatMessage, 0, ChatCapacity)}
}

// Append adds a message, evicting the oldest when full, and returns the
// stored message with its assigned ID.
func (r *ChatRing) Append(senderID, senderName, text string, now time.Time) ChatMessage {
	msg := ChatMessage{
		ID:         registry.NewID(),
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
		Timestamp:  now,
	}
	if len(r.msgs) == ChatCapacity {
		copy(r.msgs, r.msgs[1:])
		r.msgs = r.msgs[:ChatCapacity-1]
	}
	r.msgs = append(r.msgs, msg)
	return msg
}

// History returns the buffered messages oldest-first. The returned
// slice is a copy.
func (r *ChatRing) History() []ChatMessage {
	out := make([]ChatMessage, len(r.msgs))
	copy(out, r.msgs)
	return out
}

func (r *ChatRing) Len() int { return len(r.msgs) }
