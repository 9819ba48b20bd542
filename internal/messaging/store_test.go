package messaging

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"eventcraft/internal/domain/entity"
	"eventcraft/pkg/errors"
)

// fakeStore is an in-memory Store with hooks for failure and latency.
type fakeStore struct {
	mu       sync.Mutex
	chats    map[string]*entity.Chat
	messages map[string][]*entity.Message
	vendors  map[string]*entity.Vendor // by owning user id
	seen     map[string]map[string]bool
	now      time.Time
	nextID   int

	listMessagesHook func(ctx context.Context, chatID string) error
	unreadHook       func(chatID string) error
	markSeenErr      error
	vendorLookups    int
	vendorHook       func()
	sends            int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chats:    make(map[string]*entity.Chat),
		messages: make(map[string][]*entity.Message),
		vendors:  make(map[string]*entity.Vendor),
		seen:     make(map[string]map[string]bool),
		now:      time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) addChat(c *entity.Chat) *entity.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now
	}
	s.chats[c.ID] = c
	return c
}

func (s *fakeStore) addVendor(v *entity.Vendor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors[v.UserID] = v
}

// deliver appends a message as if another client had sent it.
func (s *fakeStore) deliver(chatID string, sender entity.Sender, content string) *entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(chatID, sender, content)
}

func (s *fakeStore) appendLocked(chatID string, sender entity.Sender, content string) *entity.Message {
	s.nextID++
	s.now = s.now.Add(time.Second)
	m := &entity.Message{
		ID:        fmt.Sprintf("m%d", s.nextID),
		ChatID:    chatID,
		Sender:    sender,
		Content:   content,
		Status:    entity.StatusSent,
		Seq:       int64(len(s.messages[chatID]) + 1),
		CreatedAt: s.now,
	}
	s.messages[chatID] = append(s.messages[chatID], m)
	if chat, ok := s.chats[chatID]; ok {
		at := s.now
		chat.LastMessage = content
		chat.LastMessageAt = &at
	}
	return m
}

func (s *fakeStore) ListChats(ctx context.Context, actor entity.Actor) ([]*entity.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Chat
	for _, c := range s.chats {
		if c.Involves(actor) {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) GetChat(ctx context.Context, chatID string) (*entity.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chats[chatID]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	copied := *c
	return &copied, nil
}

func (s *fakeStore) FindOrCreateChat(ctx context.Context, userID, vendorID string) (*entity.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "chat-" + userID + "-" + vendorID
	if c, ok := s.chats[id]; ok {
		return c, nil
	}
	c := &entity.Chat{
		ID:        id,
		User:      &entity.UserRef{ID: userID},
		Vendor:    &entity.VendorRef{ID: vendorID},
		CreatedAt: s.now,
	}
	s.chats[id] = c
	return c, nil
}

func (s *fakeStore) ListMessages(ctx context.Context, chatID string) ([]*entity.Message, error) {
	if s.listMessagesHook != nil {
		if err := s.listMessagesHook(ctx, chatID); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Message, 0, len(s.messages[chatID]))
	for _, m := range s.messages[chatID] {
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (s *fakeStore) SendMessage(ctx context.Context, message entity.NewMessage) (*entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[message.ChatID]; !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	s.sends++
	return s.appendLocked(message.ChatID, message.Sender, message.Content), nil
}

func (s *fakeStore) MarkSeen(ctx context.Context, chatID, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markSeenErr != nil {
		return s.markSeenErr
	}
	for _, m := range s.messages[chatID] {
		if m.Sender.ID != actorID {
			m.MarkSeen()
		}
	}
	return nil
}

func (s *fakeStore) UnreadCount(ctx context.Context, chatID, actorID string) (int, error) {
	if s.unreadHook != nil {
		if err := s.unreadHook(chatID); err != nil {
			return 0, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages[chatID] {
		if m.Sender.ID != actorID && m.Status != entity.StatusSeen {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) VendorByUserID(ctx context.Context, userID string) (*entity.Vendor, error) {
	if s.vendorHook != nil {
		s.vendorHook()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendorLookups++
	v, ok := s.vendors[userID]
	if !ok {
		return nil, errors.NotFound("Vendor", nil)
	}
	return v, nil
}

func (s *fakeStore) lookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vendorLookups
}
