package messaging

import (
	"context"
	"strconv"

	"eventcraft/internal/domain/entity"
	"eventcraft/pkg/logger"
)

const badgeCap = 9

// UnreadCounter reads unread counts from persisted state. Nothing is kept
// between calls.
type UnreadCounter struct {
	store Store
}

func NewUnreadCounter(store Store) *UnreadCounter {
	return &UnreadCounter{store: store}
}

func (u *UnreadCounter) Count(ctx context.Context, chatID string, actor entity.Actor) (int, error) {
	if actor.ID == "" {
		return 0, nil
	}
	n, err := u.store.UnreadCount(ctx, chatID, actor.ID)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

// RefreshAll counts every chat one after another. A chat whose count fails
// reports 0 and the rest carry on.
func (u *UnreadCounter) RefreshAll(ctx context.Context, chats []*entity.Chat, actor entity.Actor) map[string]int {
	counts := make(map[string]int, len(chats))
	for _, chat := range chats {
		if ctx.Err() != nil {
			break
		}
		n, err := u.Count(ctx, chat.ID, actor)
		if err != nil {
			logger.Warn("Unread count failed for chat %s: %v", chat.ID, err)
			n = 0
		}
		counts[chat.ID] = n
	}
	return counts
}

// MarkSeen marks the actor's incoming messages as seen and recounts. A failed
// mark is logged and swallowed; only the recount can return an error.
func (u *UnreadCounter) MarkSeen(ctx context.Context, chatID string, actor entity.Actor) (int, error) {
	if actor.ID == "" {
		return 0, nil
	}
	if err := u.store.MarkSeen(ctx, chatID, actor.ID); err != nil {
		logger.Warn("Mark seen failed for chat %s: %v", chatID, err)
	}
	return u.Count(ctx, chatID, actor)
}

// Badge renders a count for display: empty for zero, "9+" past nine.
func Badge(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > badgeCap:
		return strconv.Itoa(badgeCap) + "+"
	}
	return strconv.Itoa(n)
}

func Total(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
