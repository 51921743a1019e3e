package state

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/rojitobot/internal/kv"
)

// HistoryLimit is the number of messages kept per conversation.
const HistoryLimit = 5

// Role is the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// HistoryStore keeps the last HistoryLimit messages of every conversation.
type HistoryStore struct {
	rec *record
}

// NewHistoryStore creates a HistoryStore on top of store.
func NewHistoryStore(store kv.Store, log *slog.Logger, opts ...Option) *HistoryStore {
	return &HistoryStore{rec: newRecord(store, log, "history_store", opts)}
}

// Read returns the stored messages oldest first. Missing or unreadable
// history is an empty slice.
func (h *HistoryStore) Read(ctx context.Context, key ConversationKey) []Message {
	return bound(read[[]Message](ctx, h.rec, historyKey(key)))
}

// Append adds msg as the newest message, evicting the oldest ones past the limit.
func (h *HistoryStore) Append(ctx context.Context, key ConversationKey, msg Message) error {
	_, err := mutate(ctx, h.rec, historyKey(key), func(msgs *[]Message) error {
		*msgs = bound(append(*msgs, msg))
		return nil
	})
	if err != nil {
		return fmt.Errorf("append history for %s: %w", key, err)
	}
	return nil
}

func bound(msgs []Message) []Message {
	if msgs == nil {
		return []Message{}
	}
	if len(msgs) > HistoryLimit {
		return msgs[len(msgs)-HistoryLimit:]
	}
	return msgs
}
