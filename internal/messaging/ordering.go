package messaging

import (
	"sort"

	"eventcraft/internal/domain/entity"
)

// Order returns a new slice with pinned and system chats first, each group
// newest activity first. Ties keep their input order, so Order is idempotent.
// The input slice is never modified.
func Order(chats []*entity.Chat) []*entity.Chat {
	ordered := make([]*entity.Chat, 0, len(chats))
	for _, c := range chats {
		if c != nil {
			ordered = append(ordered, c)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Pinned() != b.Pinned() {
			return a.Pinned()
		}
		return a.ActivityAt().After(b.ActivityAt())
	})
	return ordered
}
