package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"eventcraft/internal/domain/entity"
	"eventcraft/internal/domain/repository"
	"eventcraft/pkg/errors"
)

// MemoryStore keeps chats, messages, users and vendors in process. It backs
// STORAGE_DRIVER=memory and the tests. Values are copied on the way in and out
// so callers never share mutable state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	chats    map[string]*entity.Chat
	messages map[string][]*entity.Message
	users    map[string]*entity.User
	vendors  map[string]*entity.Vendor
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats:    make(map[string]*entity.Chat),
		messages: make(map[string][]*entity.Message),
		users:    make(map[string]*entity.User),
		vendors:  make(map[string]*entity.Vendor),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source used for createdAt stamps.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Chats() repository.ChatRepository     { return memoryChatRepository{s} }
func (s *MemoryStore) Users() repository.UserRepository     { return memoryUserRepository{s} }
func (s *MemoryStore) Vendors() repository.VendorRepository { return memoryVendorRepository{s} }

type memoryChatRepository struct{ s *MemoryStore }

func copyChat(c *entity.Chat) *entity.Chat {
	out := *c
	if c.User != nil {
		u := *c.User
		out.User = &u
	}
	if c.Vendor != nil {
		v := *c.Vendor
		out.Vendor = &v
	}
	if c.Vendor2 != nil {
		v := *c.Vendor2
		out.Vendor2 = &v
	}
	if c.LastMessageAt != nil {
		t := *c.LastMessageAt
		out.LastMessageAt = &t
	}
	return &out
}

func copyMessage(m *entity.Message) *entity.Message {
	out := *m
	return &out
}

func (r memoryChatRepository) FindOrCreate(ctx context.Context, chat *entity.Chat) (*entity.Chat, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	if existing, ok := r.s.chats[chat.ID]; ok {
		return copyChat(existing), false, nil
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = r.s.now()
	}
	r.s.chats[chat.ID] = copyChat(chat)
	return copyChat(chat), true, nil
}

func (r memoryChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	chat, ok := r.s.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	return copyChat(chat), nil
}

func (r memoryChatRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	return r.list(func(c *entity.Chat) bool { return c.HasUser(userID) }), nil
}

func (r memoryChatRepository) ListByVendorID(ctx context.Context, vendorID string) ([]*entity.Chat, error) {
	return r.list(func(c *entity.Chat) bool { return c.HasVendor(vendorID) }), nil
}

func (r memoryChatRepository) list(match func(*entity.Chat) bool) []*entity.Chat {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	chats := []*entity.Chat{}
	for _, chat := range r.s.chats {
		if match(chat) {
			chats = append(chats, copyChat(chat))
		}
	}
	// map iteration order is random; keep listings reproducible
	sort.Slice(chats, func(i, j int) bool {
		if !chats[i].CreatedAt.Equal(chats[j].CreatedAt) {
			return chats[i].CreatedAt.Before(chats[j].CreatedAt)
		}
		return chats[i].ID < chats[j].ID
	})
	return chats
}

func (r memoryChatRepository) AppendMessage(ctx context.Context, message *entity.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	chat, ok := r.s.chats[message.ChatID]
	if !ok {
		return errors.NotFound("Chat", nil)
	}
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	now := r.s.now()
	chat.MessageCount++
	message.Seq = chat.MessageCount
	message.CreatedAt = now
	message.Status = entity.StatusSent
	chat.LastMessage = message.Content
	chat.LastMessageAt = &now

	r.s.messages[message.ChatID] = append(r.s.messages[message.ChatID], copyMessage(message))
	return nil
}

func (r memoryChatRepository) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stored := r.s.messages[chatID]
	messages := make([]*entity.Message, 0, len(stored))
	for _, m := range stored {
		messages = append(messages, copyMessage(m))
	}
	sort.SliceStable(messages, func(i, j int) bool { return messages[i].Before(messages[j]) })
	return messages, nil
}

func (r memoryChatRepository) MarkSeen(ctx context.Context, chatID, actorID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.chats[chatID]; !ok {
		return 0, errors.NotFound("Chat", nil)
	}
	updated := 0
	for _, m := range r.s.messages[chatID] {
		if m.Sender.ID != actorID && m.MarkSeen() {
			updated++
		}
	}
	return updated, nil
}

func (r memoryChatRepository) CountUnread(ctx context.Context, chatID, actorID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if _, ok := r.s.chats[chatID]; !ok {
		return 0, errors.NotFound("Chat", nil)
	}
	count := 0
	for _, m := range r.s.messages[chatID] {
		if m.Sender.ID != actorID && m.Status != entity.StatusSeen {
			count++
		}
	}
	return count, nil
}

type memoryUserRepository struct{ s *MemoryStore }

func (r memoryUserRepository) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.s.now()
	}
	u := *user
	r.s.users[user.ID] = &u
	return nil
}

func (r memoryUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	u := *user
	return &u, nil
}

type memoryVendorRepository struct{ s *MemoryStore }

func (r memoryVendorRepository) Create(ctx context.Context, vendor *entity.Vendor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if vendor.ID == "" {
		vendor.ID = uuid.New().String()
	}
	if _, ok := r.s.vendors[vendor.ID]; ok {
		return errors.Conflict("Vendor already exists")
	}
	if vendor.CreatedAt.IsZero() {
		vendor.CreatedAt = r.s.now()
	}
	v := *vendor
	r.s.vendors[vendor.ID] = &v
	return nil
}

func (r memoryVendorRepository) GetByID(ctx context.Context, id string) (*entity.Vendor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	vendor, ok := r.s.vendors[id]
	if !ok {
		return nil, errors.NotFound("Vendor", nil)
	}
	v := *vendor
	return &v, nil
}

func (r memoryVendorRepository) GetByUserID(ctx context.Context, userID string) (*entity.Vendor, error) {
	return r.findOne(func(v *entity.Vendor) bool { return v.UserID == userID })
}

func (r memoryVendorRepository) GetByCompanyName(ctx context.Context, companyName string) (*entity.Vendor, error) {
	return r.findOne(func(v *entity.Vendor) bool { return v.CompanyName == companyName })
}

func (r memoryVendorRepository) findOne(match func(*entity.Vendor) bool) (*entity.Vendor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *entity.Vendor
	for _, v := range r.s.vendors {
		if match(v) && (found == nil || v.CreatedAt.Before(found.CreatedAt)) {
			found = v
		}
	}
	if found == nil {
		return nil, errors.NotFound("Vendor", nil)
	}
	v := *found
	return &v, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
