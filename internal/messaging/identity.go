package messaging

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"eventcraft/internal/domain/entity"
	"eventcraft/pkg/errors"
	"eventcraft/pkg/logger"
)

// Session is what the session provider knows about the logged-in user.
type Session struct {
	UserID string
	Role   entity.Role
}

// IdentityResolver turns a session into the Actor used by every other
// component. Vendor ids are looked up once per user and cached; concurrent
// lookups for the same user share one request.
type IdentityResolver struct {
	vendors VendorLookup
	group   singleflight.Group

	mu    sync.RWMutex
	cache map[string]string
}

func NewIdentityResolver(vendors VendorLookup) *IdentityResolver {
	return &IdentityResolver{
		vendors: vendors,
		cache:   make(map[string]string),
	}
}

func (r *IdentityResolver) Resolve(ctx context.Context, session Session) (entity.Actor, error) {
	if session.UserID == "" {
		return entity.Actor{}, errors.Unauthorized("No active session", nil)
	}
	if session.Role != entity.RoleVendor {
		return entity.UserActor(session.UserID), nil
	}

	if vendorID, ok := r.cached(session.UserID); ok {
		return entity.VendorActor(vendorID), nil
	}

	// the lookup is shared, so one caller giving up must not fail the others
	lookupCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(session.UserID, func() (interface{}, error) {
		if vendorID, ok := r.cached(session.UserID); ok {
			return vendorID, nil
		}

		vendor, err := r.vendors.VendorByUserID(lookupCtx, session.UserID)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				return "", errors.IdentityUnresolved(session.UserID, err)
			}
			return "", err
		}

		r.mu.Lock()
		r.cache[session.UserID] = vendor.ID
		r.mu.Unlock()
		logger.Debug("Resolved vendor %s for user %s", vendor.ID, session.UserID)
		return vendor.ID, nil
	})
	if err != nil {
		return entity.Actor{Kind: entity.ActorVendor}, err
	}
	return entity.VendorActor(v.(string)), nil
}

func (r *IdentityResolver) cached(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.cache[userID]
	return id, ok
}
