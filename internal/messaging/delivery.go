package messaging

import (
	"context"
	"sync"
	"time"

	"eventcraft/internal/domain/entity"
)

const (
	DefaultMessagePollInterval = 2 * time.Second
	DefaultUnreadPollInterval  = 5 * time.Second

	concernMessages = "messages"
	concernChats    = "chats"
)

// DeliveryLoop polls the open chat's messages and hands each fresh list to
// onMessages, replacing whatever was shown before. Only one chat is open at
// a time; results for a chat that is no longer open are dropped.
//
// onMessages is called with the loop's lock held and must not call back
// into the loop.
type DeliveryLoop struct {
	store      Store
	interval   time.Duration
	onMessages func(chatID string, messages []*entity.Message)

	switchMu sync.Mutex
	mu       sync.Mutex
	current  *poller[[]*entity.Message]
	chatID   string
}

func NewDeliveryLoop(store Store, interval time.Duration, onMessages func(string, []*entity.Message)) *DeliveryLoop {
	if interval <= 0 {
		interval = DefaultMessagePollInterval
	}
	if onMessages == nil {
		onMessages = func(string, []*entity.Message) {}
	}
	return &DeliveryLoop{
		store:      store,
		interval:   interval,
		onMessages: onMessages,
	}
}

// Open stops polling the previous chat, loads chatID right away and keeps
// polling it. It returns once the first load settled; a failed first load is
// reported but polling continues.
func (d *DeliveryLoop) Open(ctx context.Context, chatID string) error {
	d.switchMu.Lock()
	d.closeCurrent()

	p := newPoller(ctx, concernMessages, d.interval, func(ctx context.Context) ([]*entity.Message, error) {
		return d.store.ListMessages(ctx, chatID)
	})
	p.apply = func(messages []*entity.Message) bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.current != p {
			return false
		}
		d.onMessages(chatID, messages)
		return true
	}

	d.mu.Lock()
	d.current = p
	d.chatID = chatID
	d.mu.Unlock()
	p.start()
	d.switchMu.Unlock()

	return p.waitLoaded(ctx)
}

// Refresh fetches the open chat out of band. A refresh during an in-flight
// fetch runs right after it.
func (d *DeliveryLoop) Refresh() {
	d.mu.Lock()
	p := d.current
	d.mu.Unlock()
	if p != nil {
		p.requestRefresh()
	}
}

// ChatID returns the open chat, or "" when none is open.
func (d *DeliveryLoop) ChatID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.chatID
}

// Close stops polling. It does not wait for an in-flight fetch.
func (d *DeliveryLoop) Close() {
	d.switchMu.Lock()
	defer d.switchMu.Unlock()
	d.closeCurrent()
}

func (d *DeliveryLoop) closeCurrent() {
	d.mu.Lock()
	p := d.current
	d.current = nil
	d.chatID = ""
	d.mu.Unlock()

	if p != nil {
		p.stop()
	}
}

// ChatList is one refresh of the chat list: ordered chats and their counts.
type ChatList struct {
	Chats  []*entity.Chat
	Unread map[string]int
}

// ChatListLoop refreshes the actor's chat list and every unread count on its
// own interval, independent of which chat is open.
type ChatListLoop struct {
	store    Store
	unread   *UnreadCounter
	interval time.Duration
	onChats  func(ChatList)

	switchMu sync.Mutex
	mu       sync.Mutex
	current  *poller[ChatList]
}

func NewChatListLoop(store Store, unread *UnreadCounter, interval time.Duration, onChats func(ChatList)) *ChatListLoop {
	if interval <= 0 {
		interval = DefaultUnreadPollInterval
	}
	if onChats == nil {
		onChats = func(ChatList) {}
	}
	return &ChatListLoop{
		store:    store,
		unread:   unread,
		interval: interval,
		onChats:  onChats,
	}
}

// Start replaces any running refresh with one for actor and waits for the
// first list.
func (l *ChatListLoop) Start(ctx context.Context, actor entity.Actor) error {
	l.switchMu.Lock()
	l.stopCurrent()

	p := newPoller(ctx, concernChats, l.interval, func(ctx context.Context) (ChatList, error) {
		return l.load(ctx, actor)
	})
	p.apply = func(list ChatList) bool {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.current != p {
			return false
		}
		l.onChats(list)
		return true
	}

	l.mu.Lock()
	l.current = p
	l.mu.Unlock()
	p.start()
	l.switchMu.Unlock()

	return p.waitLoaded(ctx)
}

func (l *ChatListLoop) load(ctx context.Context, actor entity.Actor) (ChatList, error) {
	// an unresolved vendor has no chats to list
	if actor.ID == "" {
		return ChatList{Unread: map[string]int{}}, nil
	}

	chats, err := l.store.ListChats(ctx, actor)
	if err != nil {
		return ChatList{}, err
	}
	ordered := Order(chats)
	return ChatList{
		Chats:  ordered,
		Unread: l.unread.RefreshAll(ctx, ordered, actor),
	}, nil
}

func (l *ChatListLoop) Refresh() {
	l.mu.Lock()
	p := l.current
	l.mu.Unlock()
	if p != nil {
		p.requestRefresh()
	}
}

func (l *ChatListLoop) Stop() {
	l.switchMu.Lock()
	defer l.switchMu.Unlock()
	l.stopCurrent()
}

func (l *ChatListLoop) stopCurrent() {
	l.mu.Lock()
	p := l.current
	l.current = nil
	l.mu.Unlock()

	if p != nil {
		p.stop()
	}
}
