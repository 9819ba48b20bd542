package messaging

import (
	"context"
	"strings"
	"sync"
	"time"

	"eventcraft/internal/domain/entity"
	"eventcraft/pkg/errors"
	"eventcraft/pkg/logger"
)

// Observer is told whenever the chat list or the open chat's messages change.
// Calls arrive from polling goroutines and must not call back into the
// session's mutating methods.
type Observer interface {
	ChatsChanged(chats []*entity.Chat, unread map[string]int)
	MessagesChanged(chatID string, messages []*entity.Message)
}

type Options struct {
	MessagePollInterval time.Duration
	UnreadPollInterval  time.Duration
	Observer            Observer
}

// ChatSession wires the messaging components together for one logged-in
// session: identity, chat list with badges, the open chat and sending.
type ChatSession struct {
	store    Store
	session  Session
	identity *IdentityResolver
	unread   *UnreadCounter
	messages *DeliveryLoop
	chats    *ChatListLoop
	observer Observer

	mu       sync.RWMutex
	actor    entity.Actor
	resolved bool
	list     []*entity.Chat
	counts   map[string]int
	selected *entity.Chat
	current  []*entity.Message
}

func NewChatSession(store Store, vendors VendorLookup, session Session, opts Options) *ChatSession {
	s := &ChatSession{
		store:    store,
		session:  session,
		identity: NewIdentityResolver(vendors),
		unread:   NewUnreadCounter(store),
		observer: opts.Observer,
		counts:   make(map[string]int),
	}
	s.messages = NewDeliveryLoop(store, opts.MessagePollInterval, s.messagesLoaded)
	s.chats = NewChatListLoop(store, s.unread, opts.UnreadPollInterval, s.chatsLoaded)
	return s
}

// Start resolves the acting identity and begins refreshing the chat list.
// A vendor session without a vendor record still starts, in view-only mode.
func (s *ChatSession) Start(ctx context.Context) error {
	actor, err := s.identity.Resolve(ctx, s.session)
	switch {
	case errors.Is(err, errors.CodeIdentityUnresolved):
		logger.Warn("Session %s: %v", s.session.UserID, err)
	case err != nil:
		return err
	}
	s.setActor(actor, err == nil)

	if err := s.chats.Start(ctx, actor); err != nil {
		logger.Warn("Initial chat list load failed: %v", err)
	}
	return nil
}

// Actor returns the acting identity and whether it is resolved.
func (s *ChatSession) Actor() (entity.Actor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actor, s.resolved
}

func (s *ChatSession) setActor(actor entity.Actor, resolved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actor = actor
	s.resolved = resolved
}

// Chats returns the chat list in display order.
func (s *ChatSession) Chats() []*entity.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Order(s.list)
}

func (s *ChatSession) Unread(chatID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counts[chatID]
}

// TotalUnread feeds the notification counter.
func (s *ChatSession) TotalUnread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Total(s.counts)
}

func (s *ChatSession) Badge(chatID string) string {
	return Badge(s.Unread(chatID))
}

// Selected returns the open chat, which may be a placeholder carrying only
// an id when the chat could not be found.
func (s *ChatSession) Selected() *entity.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

func (s *ChatSession) Messages() []*entity.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Message, len(s.current))
	copy(out, s.current)
	return out
}

// Select opens a chat: load its messages, keep polling them, then mark them
// seen and recount the badge. An unknown id is still opened.
func (s *ChatSession) Select(ctx context.Context, chatID string) error {
	if chatID == "" {
		return errors.BadRequest("Chat id is required", nil)
	}

	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		if !errors.Is(err, errors.CodeNotFound) {
			return err
		}
		logger.Warn("Chat %s not found, opening it anyway", chatID)
		chat = &entity.Chat{ID: chatID}
	}

	s.mu.Lock()
	s.selected = chat
	s.current = nil
	s.mu.Unlock()

	if err := s.messages.Open(ctx, chatID); err != nil {
		logger.Warn("Initial message load for chat %s failed: %v", chatID, err)
		return nil
	}

	actor, _ := s.Actor()
	count, err := s.unread.MarkSeen(ctx, chatID, actor)
	if err != nil {
		logger.Warn("Unread recount for chat %s failed: %v", chatID, err)
		return nil
	}

	s.mu.Lock()
	s.counts[chatID] = count
	list, counts := s.snapshot()
	s.mu.Unlock()
	s.notifyChats(list, counts)
	return nil
}

// Send posts content to the open chat as the acting identity, then refreshes
// the messages and the chat list without waiting for the next tick.
func (s *ChatSession) Send(ctx context.Context, content string) (*entity.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.BadRequest("Message cannot be empty", nil)
	}

	chat := s.Selected()
	if chat == nil {
		return nil, errors.BadRequest("No chat selected", nil)
	}

	actor, err := s.sendingActor(ctx)
	if err != nil {
		return nil, err
	}

	message, err := s.store.SendMessage(ctx, entity.NewMessage{
		ChatID:  chat.ID,
		Sender:  actor.Sender(),
		Content: content,
	})
	if err != nil {
		logger.Error("Send to chat %s failed: %v", chat.ID, err)
		return nil, err
	}

	s.messages.Refresh()
	s.chats.Refresh()
	return message, nil
}

// sendingActor retries an unresolved identity once before giving up.
func (s *ChatSession) sendingActor(ctx context.Context) (entity.Actor, error) {
	actor, resolved := s.Actor()
	if resolved {
		return actor, nil
	}

	actor, err := s.identity.Resolve(ctx, s.session)
	if err != nil {
		if errors.Is(err, errors.CodeIdentityUnresolved) {
			return entity.Actor{}, err
		}
		return entity.Actor{}, errors.IdentityUnresolved(s.session.UserID, err)
	}
	s.setActor(actor, true)

	if err := s.chats.Start(ctx, actor); err != nil {
		logger.Warn("Chat list reload after identity resolved failed: %v", err)
	}
	return actor, nil
}

// ContactVendor finds or creates the customer's chat with a vendor and opens it.
func (s *ChatSession) ContactVendor(ctx context.Context, vendorID string) (*entity.Chat, error) {
	actor, resolved := s.Actor()
	if !resolved || !actor.IsUser() {
		return nil, errors.Forbidden("Only customers can contact vendors", nil)
	}

	chat, err := s.store.FindOrCreateChat(ctx, actor.ID, vendorID)
	if err != nil {
		return nil, err
	}
	s.chats.Refresh()

	if err := s.Select(ctx, chat.ID); err != nil {
		return nil, err
	}
	return chat, nil
}

// IsMine classifies a message of the open chat.
func (s *ChatSession) IsMine(message *entity.Message) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return IsMine(message, s.selected, s.actor)
}

func (s *ChatSession) Display(chat *entity.Chat) DisplayInfo {
	actor, _ := s.Actor()
	return Display(chat, actor)
}

// Close stops both polling loops.
func (s *ChatSession) Close() {
	s.messages.Close()
	s.chats.Stop()
}

func (s *ChatSession) messagesLoaded(chatID string, messages []*entity.Message) {
	s.mu.Lock()
	if s.selected == nil || s.selected.ID != chatID {
		s.mu.Unlock()
		return
	}
	s.current = messages
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.MessagesChanged(chatID, messages)
	}
}

func (s *ChatSession) chatsLoaded(list ChatList) {
	s.mu.Lock()
	s.list = list.Chats
	s.counts = list.Unread
	if s.counts == nil {
		s.counts = make(map[string]int)
	}
	// the placeholder picks up the real chat once it shows up in the list
	if s.selected != nil {
		for _, c := range list.Chats {
			if c.ID == s.selected.ID {
				s.selected = c
				break
			}
		}
	}
	chats, counts := s.snapshot()
	s.mu.Unlock()

	s.notifyChats(chats, counts)
}

// snapshot copies the list state. Callers hold s.mu.
func (s *ChatSession) snapshot() ([]*entity.Chat, map[string]int) {
	counts := make(map[string]int, len(s.counts))
	for id, n := range s.counts {
		counts[id] = n
	}
	return Order(s.list), counts
}

func (s *ChatSession) notifyChats(chats []*entity.Chat, counts map[string]int) {
	if s.observer != nil {
		s.observer.ChatsChanged(chats, counts)
	}
}
