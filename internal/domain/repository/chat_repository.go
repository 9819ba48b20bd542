package repository

import (
	"context"

	"eventcraft/internal/domain/entity"
)

type ChatRepository interface {
	// FindOrCreate returns the chat stored under chat.ID, creating it from
	// chat when absent. created reports whether this call wrote it.
	FindOrCreate(ctx context.Context, chat *entity.Chat) (stored *entity.Chat, created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error)
	ListByVendorID(ctx context.Context, vendorID string) ([]*entity.Chat, error)

	// Message methods

	// AppendMessage assigns the message id, seq and createdAt, stores it, and
	// updates the chat's lastMessage/lastMessageAt in the same write.
	AppendMessage(ctx context.Context, message *entity.Message) error
	ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error)
	// MarkSeen moves every SENT message in the chat not written by actorID to
	// SEEN and returns how many changed.
	MarkSeen(ctx context.Context, chatID, actorID string) (int, error)
	CountUnread(ctx context.Context, chatID, actorID string) (int, error)
}
