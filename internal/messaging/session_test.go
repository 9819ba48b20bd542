package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcraft/internal/domain/entity"
	"eventcraft/pkg/errors"
)

type countingObserver struct {
	mu       sync.Mutex
	chats    int
	messages map[string]int
}

func (o *countingObserver) ChatsChanged(chats []*entity.Chat, unread map[string]int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.chats++
}

func (o *countingObserver) MessagesChanged(chatID string, messages []*entity.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.messages == nil {
		o.messages = make(map[string]int)
	}
	o.messages[chatID] = len(messages)
}

func (o *countingObserver) lastCount(chatID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.messages[chatID]
}

func startSession(t *testing.T, store *fakeStore, session Session, observer Observer) *ChatSession {
	t.Helper()
	s := NewChatSession(store, store, session, Options{
		MessagePollInterval: 10 * time.Millisecond,
		UnreadPollInterval:  10 * time.Millisecond,
		Observer:            observer,
	})
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(s.Close)
	return s
}

func marketplace() *fakeStore {
	store := newFakeStore()
	store.addVendor(&entity.Vendor{ID: "V1", UserID: "owner1", CompanyName: "Bright Lights"})
	store.addVendor(&entity.Vendor{ID: "V2", UserID: "owner2", CompanyName: "Sound Co"})
	return store
}

func TestFirstContactScenario(t *testing.T) {
	store := marketplace()
	observer := &countingObserver{}
	customer := startSession(t, store, Session{UserID: "U1", Role: entity.RoleCustomer}, observer)
	ctx := context.Background()

	chat, err := customer.ContactVendor(ctx, "V1")
	require.NoError(t, err)
	assert.Equal(t, chat.ID, customer.Selected().ID)

	sent, err := customer.Send(ctx, "  Hi  ")
	require.NoError(t, err)
	assert.Equal(t, "Hi", sent.Content)
	assert.Equal(t, entity.Sender{Type: entity.SenderUser, ID: "U1"}, sent.Sender)

	assert.Eventually(t, func() bool { return observer.lastCount(chat.ID) == 1 }, time.Second, 5*time.Millisecond)
	messages := customer.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, entity.SenderUser, messages[0].Sender.Type)
	assert.True(t, customer.IsMine(messages[0]))

	vendor := startSession(t, store, Session{UserID: "owner1", Role: entity.RoleVendor}, nil)
	require.NoError(t, vendor.Select(ctx, chat.ID))
	require.Len(t, vendor.Messages(), 1)
	assert.False(t, vendor.IsMine(vendor.Messages()[0]))
}

func TestVendorToVendorDisplayScenario(t *testing.T) {
	store := marketplace()
	store.addChat(&entity.Chat{
		ID:      "vv",
		Vendor:  &entity.VendorRef{ID: "V1", CompanyName: "Bright Lights"},
		Vendor2: &entity.VendorRef{ID: "V2", CompanyName: "Sound Co"},
	})
	ctx := context.Background()

	v1 := startSession(t, store, Session{UserID: "owner1", Role: entity.RoleVendor}, nil)
	v2 := startSession(t, store, Session{UserID: "owner2", Role: entity.RoleVendor}, nil)

	require.NoError(t, v1.Select(ctx, "vv"))
	_, err := v1.Send(ctx, "Need a sound system on the 12th?")
	require.NoError(t, err)

	require.NoError(t, v2.Select(ctx, "vv"))
	assert.Equal(t, "Bright Lights", v2.Display(v2.Selected()).Name)
	assert.Equal(t, "Sound Co", v1.Display(v1.Selected()).Name)

	messages := v2.Messages()
	require.Len(t, messages, 1)
	assert.False(t, v2.IsMine(messages[0]))
	assert.True(t, v1.IsMine(messages[0]))
}

func TestSelectingChatClearsUnread(t *testing.T) {
	store := marketplace()
	store.addChat(&entity.Chat{ID: "C1", User: &entity.UserRef{ID: "U1"}, Vendor: &entity.VendorRef{ID: "V1"}})
	for i := 0; i < 3; i++ {
		store.deliver("C1", entity.Sender{Type: entity.SenderVendor, ID: "V1"}, "ping")
	}
	customer := startSession(t, store, Session{UserID: "U1", Role: entity.RoleCustomer}, nil)
	ctx := context.Background()

	assert.Equal(t, 3, customer.Unread("C1"))
	assert.Equal(t, "3", customer.Badge("C1"))
	assert.Equal(t, 3, customer.TotalUnread())

	require.NoError(t, customer.Select(ctx, "C1"))

	// a list refresh already in flight may briefly report the old count
	assert.Eventually(t, func() bool { return customer.Unread("C1") == 0 }, time.Second, 5*time.Millisecond)
	n, err := store.UnreadCount(ctx, "C1", "U1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEmptySendNeverReachesStore(t *testing.T) {
	store := marketplace()
	store.addChat(&entity.Chat{ID: "C1", User: &entity.UserRef{ID: "U1"}, Vendor: &entity.VendorRef{ID: "V1"}})
	customer := startSession(t, store, Session{UserID: "U1", Role: entity.RoleCustomer}, nil)
	require.NoError(t, customer.Select(context.Background(), "C1"))

	_, err := customer.Send(context.Background(), " \n\t ")

	assert.True(t, errors.Is(err, errors.CodeBadRequest))
	assert.Zero(t, store.sends)
}

func TestSendWithoutSelection(t *testing.T) {
	customer := startSession(t, marketplace(), Session{UserID: "U1", Role: entity.RoleCustomer}, nil)

	_, err := customer.Send(context.Background(), "hello")

	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

func TestUnresolvedVendorCanViewButNotSend(t *testing.T) {
	store := marketplace()
	store.addChat(&entity.Chat{ID: "C1", User: &entity.UserRef{ID: "U1"}, Vendor: &entity.VendorRef{ID: "V3", CompanyName: "Late Co"}})
	store.deliver("C1", entity.Sender{Type: entity.SenderUser, ID: "U1"}, "anyone there?")
	ctx := context.Background()

	vendor := startSession(t, store, Session{UserID: "owner3", Role: entity.RoleVendor}, nil)
	actor, resolved := vendor.Actor()
	assert.False(t, resolved)
	assert.Empty(t, actor.ID)
	assert.Empty(t, vendor.Chats())

	require.NoError(t, vendor.Select(ctx, "C1"))
	messages := vendor.Messages()
	require.Len(t, messages, 1)
	assert.False(t, vendor.IsMine(messages[0]))

	_, err := vendor.Send(ctx, "yes!")
	assert.True(t, errors.Is(err, errors.CodeIdentityUnresolved))
	assert.Zero(t, store.sends)

	// once the vendor record exists the next send resolves it
	store.addVendor(&entity.Vendor{ID: "V3", UserID: "owner3", CompanyName: "Late Co"})
	sent, err := vendor.Send(ctx, "yes!")
	require.NoError(t, err)
	assert.Equal(t, entity.Sender{Type: entity.SenderVendor, ID: "V3"}, sent.Sender)

	_, resolved = vendor.Actor()
	assert.True(t, resolved)
	assert.Eventually(t, func() bool { return len(vendor.Chats()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestSelectUnknownChatIsOptimistic(t *testing.T) {
	customer := startSession(t, marketplace(), Session{UserID: "U1", Role: entity.RoleCustomer}, nil)

	require.NoError(t, customer.Select(context.Background(), "deep-link"))

	selected := customer.Selected()
	require.NotNil(t, selected)
	assert.Equal(t, "deep-link", selected.ID)
	assert.Empty(t, customer.Messages())
}

func TestVendorCannotContactVendor(t *testing.T) {
	vendor := startSession(t, marketplace(), Session{UserID: "owner1", Role: entity.RoleVendor}, nil)

	_, err := vendor.ContactVendor(context.Background(), "V2")

	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestSessionChatsArePinnedFirst(t *testing.T) {
	store := marketplace()
	store.addChat(&entity.Chat{ID: "C1", User: &entity.UserRef{ID: "U1"}, Vendor: &entity.VendorRef{ID: "V1"}})
	store.addChat(&entity.Chat{
		ID:           "SUP",
		IsSystemChat: true,
		IsPinned:     true,
		User:         &entity.UserRef{ID: "U1"},
		Vendor:       &entity.VendorRef{ID: "S", CompanyName: entity.SupportCompanyName},
	})
	store.deliver("C1", entity.Sender{Type: entity.SenderVendor, ID: "V1"}, "latest")

	customer := startSession(t, store, Session{UserID: "U1", Role: entity.RoleCustomer}, nil)

	assert.Equal(t, []string{"SUP", "C1"}, ids(customer.Chats()))
	assert.Equal(t, entity.SupportCompanyName, customer.Display(customer.Chats()[0]).Name)
}

func TestStartWithoutSessionFails(t *testing.T) {
	s := NewChatSession(newFakeStore(), newFakeStore(), Session{}, Options{})
	defer s.Close()

	err := s.Start(context.Background())

	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}

func TestSendRefreshesWithoutWaitingForTick(t *testing.T) {
	store := marketplace()
	store.addChat(&entity.Chat{ID: "C1", User: &entity.UserRef{ID: "U1"}, Vendor: &entity.VendorRef{ID: "V1", CompanyName: "Bright Lights"}})
	store.addChat(&entity.Chat{ID: "C2", User: &entity.UserRef{ID: "U1"}, Vendor: &entity.VendorRef{ID: "V2", CompanyName: "Sound Co"}})
	store.deliver("C2", entity.Sender{Type: entity.SenderVendor, ID: "V2"}, "newer")

	customer := NewChatSession(store, store, Session{UserID: "U1", Role: entity.RoleCustomer}, Options{
		MessagePollInterval: time.Hour,
		UnreadPollInterval:  time.Hour,
	})
	ctx := context.Background()
	require.NoError(t, customer.Start(ctx))
	defer customer.Close()

	require.NoError(t, customer.Select(ctx, "C1"))
	require.Empty(t, customer.Messages())
	require.Equal(t, []string{"C2", "C1"}, ids(customer.Chats()))

	_, err := customer.Send(ctx, "Hi")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return len(customer.Messages()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		chats := customer.Chats()
		return len(chats) == 2 && chats[0].ID == "C1" && chats[0].LastMessage == "Hi"
	}, time.Second, 5*time.Millisecond)
}
