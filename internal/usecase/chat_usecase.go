package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"eventcraft/internal/domain/entity"
	"eventcraft/internal/domain/repository"
	"eventcraft/internal/infrastructure/metrics"
	"eventcraft/internal/infrastructure/ratelimit"
	"eventcraft/pkg/errors"
	"eventcraft/pkg/logger"
)

// chatNamespace scopes the name-based UUIDs that make find-or-create idempotent.
var chatNamespace = uuid.MustParse("6f1c7c2e-5d0a-4a53-9a39-4c7e0b0e6a11")

// SupportVendorID is the id given to the support vendor record when this
// service creates it. A support record created elsewhere keeps its own id;
// the reserved company name is what identifies it.
var SupportVendorID = uuid.NewSHA1(chatNamespace, []byte("vendor:support")).String()

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	vendorRepo  repository.VendorRepository
	rateLimiter *ratelimit.RateLimiter
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	vendorRepo repository.VendorRepository,
	rateLimiter *ratelimit.RateLimiter,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		vendorRepo:  vendorRepo,
		rateLimiter: rateLimiter,
	}
}

type SendMessageInput struct {
	ChatID  string
	Sender  entity.Sender
	Content string
}

func userChatID(userID, vendorID string) string {
	return uuid.NewSHA1(chatNamespace, []byte("user:"+userID+"|vendor:"+vendorID)).String()
}

// vendorChatID is symmetric in its arguments so A→B and B→A share one chat.
func vendorChatID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return uuid.NewSHA1(chatNamespace, []byte("vendor:"+a+"|vendor:"+b)).String()
}

func supportChatID(actor entity.Actor) string {
	return uuid.NewSHA1(chatNamespace, []byte("support:"+string(actor.Kind)+":"+actor.ID)).String()
}

func isSupportVendor(v *entity.Vendor) bool {
	return v.CompanyName == entity.SupportCompanyName
}

func (uc *ChatUseCase) ListChatsByUser(ctx context.Context, userID string) ([]*entity.Chat, error) {
	if userID == "" {
		return nil, errors.BadRequest("byUser is required", nil)
	}
	return uc.chatRepo.ListByUserID(ctx, userID)
}

func (uc *ChatUseCase) ListChatsByVendor(ctx context.Context, vendorID string) ([]*entity.Chat, error) {
	if vendorID == "" {
		return nil, errors.BadRequest("byVendor is required", nil)
	}
	return uc.chatRepo.ListByVendorID(ctx, vendorID)
}

func (uc *ChatUseCase) GetChat(ctx context.Context, chatID string) (*entity.Chat, error) {
	return uc.chatRepo.GetByID(ctx, chatID)
}

// FindOrCreateChat returns the single chat between a customer and a vendor,
// creating it on first contact.
func (uc *ChatUseCase) FindOrCreateChat(ctx context.Context, userID, vendorID string) (*entity.Chat, bool, error) {
	if existing, err := uc.chatRepo.GetByID(ctx, userChatID(userID, vendorID)); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, errors.CodeNotFound) {
		return nil, false, err
	}

	if allowed, _ := uc.rateLimiter.Allow(userID, ratelimit.ActionCreateChat); !allowed {
		metrics.RateLimitHits.WithLabelValues(ratelimit.ActionCreateChat).Inc()
		return nil, false, errors.TooManyRequests("Rate limit exceeded. Please wait before starting another chat")
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("FindOrCreateChat Error: user %s: %v", userID, err)
		return nil, false, err
	}
	vendor, err := uc.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		logger.Warn("FindOrCreateChat Error: vendor %s: %v", vendorID, err)
		return nil, false, err
	}

	chat, created, err := uc.chatRepo.FindOrCreate(ctx, &entity.Chat{
		ID:           userChatID(userID, vendorID),
		User:         user.Ref(),
		Vendor:       vendor.Ref(),
		IsSystemChat: isSupportVendor(vendor),
		IsPinned:     isSupportVendor(vendor),
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		metrics.ChatsCreated.WithLabelValues("user").Inc()
	}
	return chat, created, nil
}

// FindOrCreateVendorChat returns the single chat between two vendors. The
// vendor that first opens the chat takes the vendor slot.
func (uc *ChatUseCase) FindOrCreateVendorChat(ctx context.Context, vendorID, vendor2ID string) (*entity.Chat, bool, error) {
	if vendorID == vendor2ID {
		return nil, false, errors.BadRequest("A vendor cannot start a chat with itself", nil)
	}

	id := vendorChatID(vendorID, vendor2ID)
	if existing, err := uc.chatRepo.GetByID(ctx, id); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, errors.CodeNotFound) {
		return nil, false, err
	}

	first, err := uc.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, false, err
	}
	second, err := uc.vendorRepo.GetByID(ctx, vendor2ID)
	if err != nil {
		return nil, false, err
	}

	system := isSupportVendor(first) || isSupportVendor(second)
	chat, created, err := uc.chatRepo.FindOrCreate(ctx, &entity.Chat{
		ID:           id,
		Vendor:       first.Ref(),
		Vendor2:      second.Ref(),
		IsSystemChat: system,
		IsPinned:     system,
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		metrics.ChatsCreated.WithLabelValues("vendor").Inc()
	}
	return chat, created, nil
}

// EnsureSupportChat seeds the reserved support conversation for an actor.
func (uc *ChatUseCase) EnsureSupportChat(ctx context.Context, actor entity.Actor) (*entity.Chat, bool, error) {
	support, err := uc.supportVendor(ctx)
	if err != nil {
		return nil, false, err
	}

	chat := &entity.Chat{
		ID:           supportChatID(actor),
		IsSystemChat: true,
		IsPinned:     true,
	}
	switch actor.Kind {
	case entity.ActorUser:
		user, err := uc.userRepo.GetByID(ctx, actor.ID)
		if err != nil {
			return nil, false, err
		}
		chat.User = user.Ref()
		chat.Vendor = support.Ref()
	case entity.ActorVendor:
		if actor.ID == support.ID {
			return nil, false, errors.BadRequest("The support vendor has no support chat", nil)
		}
		vendor, err := uc.vendorRepo.GetByID(ctx, actor.ID)
		if err != nil {
			return nil, false, err
		}
		chat.Vendor = support.Ref()
		chat.Vendor2 = vendor.Ref()
	default:
		return nil, false, errors.BadRequest("actorKind must be USER or VENDOR", nil)
	}

	stored, created, err := uc.chatRepo.FindOrCreate(ctx, chat)
	if err != nil {
		return nil, false, err
	}
	if created {
		metrics.ChatsCreated.WithLabelValues("system").Inc()
	}
	return stored, created, nil
}

func (uc *ChatUseCase) supportVendor(ctx context.Context) (*entity.Vendor, error) {
	vendor, err := uc.vendorRepo.GetByCompanyName(ctx, entity.SupportCompanyName)
	if err == nil {
		return vendor, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	vendor = &entity.Vendor{
		ID:          SupportVendorID,
		UserID:      "system",
		CompanyName: entity.SupportCompanyName,
		Category:    "support",
	}
	if err := uc.vendorRepo.Create(ctx, vendor); err != nil {
		if errors.Is(err, errors.CodeConflict) {
			return uc.vendorRepo.GetByID(ctx, SupportVendorID)
		}
		return nil, err
	}
	logger.Info("EnsureSupportChat: created support vendor %s", vendor.ID)
	return vendor, nil
}

func (uc *ChatUseCase) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	if _, err := uc.chatRepo.GetByID(ctx, chatID); err != nil {
		return nil, err
	}
	return uc.chatRepo.ListMessages(ctx, chatID)
}

func (uc *ChatUseCase) SendMessage(ctx context.Context, input SendMessageInput) (*entity.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, errors.BadRequest("Message content cannot be empty", nil)
	}
	if !input.Sender.Type.Valid() || input.Sender.ID == "" {
		return nil, errors.BadRequest("senderType must be USER or VENDOR", nil)
	}

	chat, err := uc.chatRepo.GetByID(ctx, input.ChatID)
	if err != nil {
		return nil, err
	}

	// senderId lives in the id space named by senderType
	if !chat.Involves(input.Sender.Actor()) {
		logger.Warn("SendMessage Error: %s %s is not a participant of chat %s", input.Sender.Type, input.Sender.ID, chat.ID)
		return nil, errors.Forbidden("Sender is not a participant of this chat", nil)
	}

	if allowed, wait := uc.rateLimiter.Allow(input.Sender.ID, ratelimit.ActionSendMessage); !allowed {
		logger.Warn("SendMessage Rate Limited: sender %s must wait %v", input.Sender.ID, wait)
		metrics.RateLimitHits.WithLabelValues(ratelimit.ActionSendMessage).Inc()
		return nil, errors.TooManyRequests("Rate limit exceeded. Please slow down")
	}

	message := &entity.Message{
		ChatID:  chat.ID,
		Sender:  input.Sender,
		Content: content,
	}
	if err := uc.chatRepo.AppendMessage(ctx, message); err != nil {
		logger.Error("SendMessage Error: failed to store message in chat %s: %v", chat.ID, err)
		return nil, err
	}

	metrics.MessagesSent.WithLabelValues(string(message.Sender.Type)).Inc()
	return message, nil
}

func (uc *ChatUseCase) MarkSeen(ctx context.Context, chatID, actorID string) error {
	updated, err := uc.chatRepo.MarkSeen(ctx, chatID, actorID)
	if err != nil {
		logger.Warn("MarkSeen Error: chat %s actor %s: %v", chatID, actorID, err)
		return err
	}
	metrics.MessagesMarkedSeen.Add(float64(updated))
	return nil
}

func (uc *ChatUseCase) UnreadCount(ctx context.Context, chatID, actorID string) (int, error) {
	return uc.chatRepo.CountUnread(ctx, chatID, actorID)
}
