// Package messaging is the client side of Event Craft chat: it resolves who
// the session acts as, keeps the chat list ordered with unread badges, polls
// the open chat for messages and decides how each message and chat is shown.
package messaging

import (
	"context"

	"eventcraft/internal/domain/entity"
)

// Store is the persistence API the messaging core runs against. Calls fail
// with NETWORK_ERROR or NOT_FOUND app errors.
type Store interface {
	// ListChats returns the chats where the actor is the user, or for vendor
	// actors either vendor slot.
	ListChats(ctx context.Context, actor entity.Actor) ([]*entity.Chat, error)
	GetChat(ctx context.Context, chatID string) (*entity.Chat, error)
	// FindOrCreateChat is idempotent for a user and vendor pair.
	FindOrCreateChat(ctx context.Context, userID, vendorID string) (*entity.Chat, error)
	// ListMessages returns a chat's messages in creation order.
	ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error)
	SendMessage(ctx context.Context, message entity.NewMessage) (*entity.Message, error)
	MarkSeen(ctx context.Context, chatID, actorID string) error
	UnreadCount(ctx context.Context, chatID, actorID string) (int, error)
}

// VendorLookup finds the vendor entity owned by a user.
type VendorLookup interface {
	VendorByUserID(ctx context.Context, userID string) (*entity.Vendor, error)
}
