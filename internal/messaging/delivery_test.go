package messaging

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcraft/internal/domain/entity"
	"eventcraft/internal/infrastructure/metrics"
)

type recorder struct {
	mu      sync.Mutex
	chatIDs []string
	lengths []int
}

func (r *recorder) record(chatID string, messages []*entity.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chatIDs = append(r.chatIDs, chatID)
	r.lengths = append(r.lengths, len(messages))
}

func (r *recorder) snapshot() ([]string, []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.chatIDs...), append([]int(nil), r.lengths...)
}

func storeWithChats(ids ...string) *fakeStore {
	store := newFakeStore()
	for _, id := range ids {
		store.addChat(&entity.Chat{ID: id, User: &entity.UserRef{ID: "U1"}, Vendor: &entity.VendorRef{ID: "V1"}})
		store.deliver(id, entity.Sender{Type: entity.SenderUser, ID: "U1"}, "hello "+id)
	}
	return store
}

func TestOpenLoadsImmediately(t *testing.T) {
	store := storeWithChats("c1")
	rec := &recorder{}
	loop := NewDeliveryLoop(store, time.Hour, rec.record)
	defer loop.Close()

	require.NoError(t, loop.Open(context.Background(), "c1"))

	chatIDs, lengths := rec.snapshot()
	assert.Equal(t, []string{"c1"}, chatIDs)
	assert.Equal(t, []int{1}, lengths)
	assert.Equal(t, "c1", loop.ChatID())
}

func TestTicksWhileLoadingAreSkipped(t *testing.T) {
	store := storeWithChats("c1")
	var calls, inFlight, maxInFlight int32
	release := make(chan struct{})
	store.listMessagesHook = func(ctx context.Context, chatID string) error {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			seen := atomic.LoadInt32(&maxInFlight)
			if n <= seen || atomic.CompareAndSwapInt32(&maxInFlight, seen, n) {
				break
			}
		}
		if atomic.AddInt32(&calls, 1) == 2 {
			select {
			case <-release:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
	skipped := testutil.ToFloat64(metrics.PollTicks.WithLabelValues(concernMessages, outcomeSkipped))

	loop := NewDeliveryLoop(store, 5*time.Millisecond, nil)
	require.NoError(t, loop.Open(context.Background(), "c1"))

	// the second fetch hangs across many ticks
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Greater(t, testutil.ToFloat64(metrics.PollTicks.WithLabelValues(concernMessages, outcomeSkipped)), skipped)

	close(release)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 4 }, time.Second, 5*time.Millisecond)

	loop.Close()
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestMessageListNeverRegresses(t *testing.T) {
	store := storeWithChats("c1")
	store.listMessagesHook = func(ctx context.Context, chatID string) error {
		time.Sleep(time.Millisecond)
		return nil
	}
	rec := &recorder{}
	loop := NewDeliveryLoop(store, 2*time.Millisecond, rec.record)
	require.NoError(t, loop.Open(context.Background(), "c1"))

	for i := 0; i < 20; i++ {
		store.deliver("c1", entity.Sender{Type: entity.SenderVendor, ID: "V1"}, "tick")
		time.Sleep(3 * time.Millisecond)
	}
	loop.Close()

	_, lengths := rec.snapshot()
	require.NotEmpty(t, lengths)
	assert.True(t, sort.IntsAreSorted(lengths), "lengths went backwards: %v", lengths)
	assert.Greater(t, lengths[len(lengths)-1], 1)
}

func TestSwitchingChatsDropsLateResults(t *testing.T) {
	store := storeWithChats("a", "b")
	started := make(chan struct{})
	releaseA := make(chan struct{})
	var once sync.Once
	store.listMessagesHook = func(ctx context.Context, chatID string) error {
		if chatID == "a" {
			once.Do(func() { close(started) })
			// a hung request that ignores cancellation
			<-releaseA
		}
		return nil
	}
	rec := &recorder{}
	loop := NewDeliveryLoop(store, time.Hour, rec.record)

	openA := make(chan error, 1)
	go func() { openA <- loop.Open(context.Background(), "a") }()
	<-started

	// opening b must not wait for a's request
	done := make(chan error, 1)
	go func() { done <- loop.Open(context.Background(), "b") }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("switching chats waited on the previous chat's request")
	}
	assert.ErrorIs(t, <-openA, context.Canceled)

	close(releaseA)
	time.Sleep(20 * time.Millisecond)
	loop.Close()

	chatIDs, _ := rec.snapshot()
	assert.Equal(t, []string{"b"}, chatIDs)
}

func TestRefreshDuringFetchRunsOnceAfter(t *testing.T) {
	store := storeWithChats("c1")
	var calls int32
	blocking := make(chan struct{})
	release := make(chan struct{})
	store.listMessagesHook = func(ctx context.Context, chatID string) error {
		if atomic.AddInt32(&calls, 1) == 2 {
			close(blocking)
			<-release
		}
		return nil
	}
	loop := NewDeliveryLoop(store, time.Hour, nil)
	defer loop.Close()
	require.NoError(t, loop.Open(context.Background(), "c1"))

	loop.Refresh()
	<-blocking
	loop.Refresh()
	loop.Refresh()
	time.Sleep(20 * time.Millisecond)
	close(release)

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 3 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCloseStopsPolling(t *testing.T) {
	store := storeWithChats("c1")
	var calls int32
	store.listMessagesHook = func(ctx context.Context, chatID string) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}
	loop := NewDeliveryLoop(store, 2*time.Millisecond, nil)
	require.NoError(t, loop.Open(context.Background(), "c1"))
	time.Sleep(20 * time.Millisecond)

	loop.Close()
	time.Sleep(5 * time.Millisecond)
	after := atomic.LoadInt32(&calls)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, after, atomic.LoadInt32(&calls))
	assert.Empty(t, loop.ChatID())
	loop.Refresh()
}

func TestChatListLoopOrdersAndCounts(t *testing.T) {
	store := newFakeStore()
	store.addChat(&entity.Chat{ID: "quiet", User: &entity.UserRef{ID: "U1"}, Vendor: &entity.VendorRef{ID: "V1"}})
	store.addChat(&entity.Chat{ID: "busy", User: &entity.UserRef{ID: "U1"}, Vendor: &entity.VendorRef{ID: "V2"}})
	store.addChat(&entity.Chat{ID: "support", User: &entity.UserRef{ID: "U1"}, Vendor: &entity.VendorRef{ID: "S"}, IsSystemChat: true})
	store.deliver("busy", entity.Sender{Type: entity.SenderVendor, ID: "V2"}, "new")

	var mu sync.Mutex
	var lists []ChatList
	loop := NewChatListLoop(store, NewUnreadCounter(store), time.Hour, func(l ChatList) {
		mu.Lock()
		defer mu.Unlock()
		lists = append(lists, l)
	})
	defer loop.Stop()

	require.NoError(t, loop.Start(context.Background(), entity.UserActor("U1")))

	mu.Lock()
	first := lists[0]
	mu.Unlock()
	assert.Equal(t, []string{"support", "busy", "quiet"}, ids(first.Chats))
	assert.Equal(t, 1, first.Unread["busy"])

	store.deliver("quiet", entity.Sender{Type: entity.SenderVendor, ID: "V1"}, "newer")
	loop.Refresh()
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		last := lists[len(lists)-1]
		return len(lists) > 1 && ids(last.Chats)[1] == "quiet" && last.Unread["quiet"] == 1
	}, time.Second, 5*time.Millisecond)
}

func TestChatListLoopWithoutActorID(t *testing.T) {
	store := newFakeStore()
	var got ChatList
	loop := NewChatListLoop(store, NewUnreadCounter(store), time.Hour, func(l ChatList) { got = l })
	defer loop.Stop()

	require.NoError(t, loop.Start(context.Background(), entity.Actor{Kind: entity.ActorVendor}))

	assert.Empty(t, got.Chats)
	assert.NotNil(t, got.Unread)
}
