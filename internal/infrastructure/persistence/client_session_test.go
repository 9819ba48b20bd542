package persistence

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventcraft/internal/adapter/api"
	"eventcraft/internal/adapter/api/handler"
	"eventcraft/internal/adapter/api/middleware"
	"eventcraft/internal/adapter/api/router"
	"eventcraft/internal/adapter/repository"
	"eventcraft/internal/domain/entity"
	"eventcraft/internal/infrastructure/metrics"
	"eventcraft/internal/infrastructure/ratelimit"
	"eventcraft/internal/messaging"
	"eventcraft/internal/usecase"
)

// newProductionAPI builds the server the way cmd/api does: one limiter shared
// by the send path and the per-address middleware.
func newProductionAPI(t *testing.T) *Client {
	t.Helper()
	store := repository.NewMemoryStore()
	limiter := ratelimit.NewRateLimiter(10)
	handlers := handler.Setup(
		usecase.NewChatUseCase(store.Chats(), store.Users(), store.Vendors(), limiter),
		usecase.NewUserUseCase(store.Users()),
		usecase.NewVendorUseCase(store.Vendors(), store.Users()),
		store,
		"memory",
	)

	e := echo.New()
	e.Use(middleware.RateLimit(limiter))
	e.Validator = api.NewValidator()
	router.Setup(e, handlers, router.Options{})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/v1", 5*time.Second)
}

func TestSessionPollingIsNotThrottled(t *testing.T) {
	c := newProductionAPI(t)
	ctx := context.Background()

	_, err := c.RegisterUser(ctx, entity.User{ID: "u1", Name: "Uma", Email: "uma@example.com"})
	require.NoError(t, err)

	var chats []*entity.Chat
	for i, name := range []string{"Bright Lights", "Sound Co", "Petal Studio"} {
		owner := fmt.Sprintf("owner%d", i+1)
		_, err := c.RegisterUser(ctx, entity.User{ID: owner, Name: name, Email: owner + "@example.com", Role: entity.RoleVendor})
		require.NoError(t, err)
		vendor, err := c.RegisterVendor(ctx, owner, name, "")
		require.NoError(t, err)

		chat, err := c.FindOrCreateChat(ctx, "u1", vendor.ID)
		require.NoError(t, err)
		_, err = c.SendMessage(ctx, entity.NewMessage{
			ChatID:  chat.ID,
			Sender:  entity.Sender{Type: entity.SenderVendor, ID: vendor.ID},
			Content: "Hello from " + name,
		})
		require.NoError(t, err)
		chats = append(chats, chat)
	}

	throttled := metrics.RateLimitHits.WithLabelValues(ratelimit.ActionRequest)
	before := testutil.ToFloat64(throttled)

	// hundreds of polls in a few hundred milliseconds, well past any write budget
	session := messaging.NewChatSession(c, c, messaging.Session{UserID: "u1", Role: entity.RoleCustomer}, messaging.Options{
		MessagePollInterval: 5 * time.Millisecond,
		UnreadPollInterval:  5 * time.Millisecond,
	})
	require.NoError(t, session.Start(ctx))
	defer session.Close()

	require.NoError(t, session.Select(ctx, chats[0].ID))
	time.Sleep(300 * time.Millisecond)

	for i := 0; i < 5; i++ {
		_, err := session.Send(ctx, fmt.Sprintf("message %d", i+1))
		require.NoError(t, err)
	}

	assert.Eventually(t, func() bool { return len(session.Messages()) == 6 }, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return session.TotalUnread() == 2 && session.Unread(chats[1].ID) == 1 && session.Unread(chats[2].ID) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, session.Chats(), 3)
	assert.Equal(t, before, testutil.ToFloat64(throttled))
}
