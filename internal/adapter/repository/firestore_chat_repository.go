package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"eventcraft/internal/domain/entity"
	"eventcraft/internal/domain/repository"
	"eventcraft/pkg/errors"
	"eventcraft/pkg/logger"
)

const (
	chatsCollection    = "chats"
	messagesCollection = "messages"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) chats() *firestore.CollectionRef {
	return r.client.Collection(chatsCollection)
}

func (r *firestoreChatRepository) FindOrCreate(ctx context.Context, chat *entity.Chat) (*entity.Chat, bool, error) {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	ref := r.chats().Doc(chat.ID)

	var stored entity.Chat
	created := false
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false
		doc, err := tx.Get(ref)
		if err == nil {
			return doc.DataTo(&stored)
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		if chat.CreatedAt.IsZero() {
			chat.CreatedAt = time.Now().UTC()
		}
		stored = *chat
		created = true
		return tx.Create(ref, chat)
	})
	if err != nil {
		return nil, false, errors.Internal("Failed to find or create chat", err)
	}

	return &stored, created, nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.chats().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", nil)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}

	return &chat, nil
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	return r.queryChats(ctx, r.chats().Where("user.id", "==", userID))
}

// ListByVendorID merges the chats where the vendor sits in either slot.
func (r *firestoreChatRepository) ListByVendorID(ctx context.Context, vendorID string) ([]*entity.Chat, error) {
	first, err := r.queryChats(ctx, r.chats().Where("vendor.id", "==", vendorID))
	if err != nil {
		return nil, err
	}
	second, err := r.queryChats(ctx, r.chats().Where("vendor2.id", "==", vendorID))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(first))
	chats := make([]*entity.Chat, 0, len(first)+len(second))
	for _, chat := range append(first, second...) {
		if seen[chat.ID] {
			continue
		}
		seen[chat.ID] = true
		chats = append(chats, chat)
	}
	return chats, nil
}

func (r *firestoreChatRepository) queryChats(ctx context.Context, query firestore.Query) ([]*entity.Chat, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var chats []*entity.Chat
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while listing chats: %v", err)
			return nil, errors.Internal("Failed to fetch chats", err)
		}

		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			logger.Warn("Skipping malformed chat %s: %v", doc.Ref.ID, err)
			continue
		}
		chat.ID = doc.Ref.ID
		chats = append(chats, &chat)
	}

	return chats, nil
}

func (r *firestoreChatRepository) AppendMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	chatRef := r.chats().Doc(message.ChatID)
	msgRef := chatRef.Collection(messagesCollection).Doc(message.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(chatRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return errors.NotFound("Chat", nil)
			}
			return err
		}

		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			return err
		}

		now := time.Now().UTC()
		message.Seq = chat.MessageCount + 1
		message.CreatedAt = now
		message.Status = entity.StatusSent

		if err := tx.Create(msgRef, message); err != nil {
			return err
		}
		return tx.Update(chatRef, []firestore.Update{
			{Path: "messageCount", Value: message.Seq},
			{Path: "lastMessage", Value: message.Content},
			{Path: "lastMessageAt", Value: now},
		})
	})
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return err
		}
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	query := r.chats().Doc(chatID).Collection(messagesCollection).
		OrderBy("createdAt", firestore.Asc).
		OrderBy("seq", firestore.Asc)

	iter := query.Documents(ctx)
	defer iter.Stop()

	messages := []*entity.Message{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for chat %s: %v", chatID, err)
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Error("Error parsing message data for chat %s: %v", chatID, err)
			return nil, errors.Internal("Failed to parse message data", err)
		}
		messages = append(messages, &message)
	}

	return messages, nil
}

// unseenFrom returns the SENT messages of a chat written by someone other than actorID.
func (r *firestoreChatRepository) unseenFrom(ctx context.Context, chatID, actorID string) ([]*firestore.DocumentSnapshot, error) {
	docs, err := r.chats().Doc(chatID).Collection(messagesCollection).
		Where("status", "==", string(entity.StatusSent)).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}

	unseen := docs[:0]
	for _, doc := range docs {
		senderID, _ := doc.Data()["senderId"].(string)
		if senderID != actorID {
			unseen = append(unseen, doc)
		}
	}
	return unseen, nil
}

func (r *firestoreChatRepository) MarkSeen(ctx context.Context, chatID, actorID string) (int, error) {
	docs, err := r.unseenFrom(ctx, chatID, actorID)
	if err != nil {
		return 0, errors.Internal("Failed to query unseen messages", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(docs))
	for _, doc := range docs {
		job, err := bw.Update(doc.Ref, []firestore.Update{{Path: "status", Value: string(entity.StatusSeen)}})
		if err != nil {
			bw.End()
			return 0, errors.Internal("Failed to queue seen update", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	updated := 0
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			logger.Warn("MarkSeen: failed to update message in chat %s: %v", chatID, err)
			continue
		}
		updated++
	}

	return updated, nil
}

func (r *firestoreChatRepository) CountUnread(ctx context.Context, chatID, actorID string) (int, error) {
	docs, err := r.unseenFrom(ctx, chatID, actorID)
	if err != nil {
		return 0, errors.Internal("Failed to count unread messages", err)
	}
	return len(docs), nil
}
