package resolver

import (
	"context"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"rapidresq/resq/pkg/dispatch"
)

// DefaultStatusTTL is how long request states are remembered.
const DefaultStatusTTL = 24 * time.Hour

// StatusStore keeps request states in memory until they expire. It
// implements dispatch.StatusResolver and dispatch.StatusRecorder.
type StatusStore struct {
	cache *ttlcache.Cache[string, dispatch.StatusRecord]
	now   func() time.Time
}

// NewStatusStore creates a store whose entries live for ttl. Call Stop to
// release the expiry goroutine.
func NewStatusStore(ttl time.Duration) *StatusStore {
	if ttl <= 0 {
		ttl = DefaultStatusTTL
	}
	cache := ttlcache.New[string, dispatch.StatusRecord](
		ttlcache.WithTTL[string, dispatch.StatusRecord](ttl),
		ttlcache.WithDisableTouchOnHit[string, dispatch.StatusRecord](),
	)
	go cache.Start()

	return &StatusStore{cache: cache, now: time.Now}
}

// Record stores rec under its request ID, replacing any previous state.
func (s *StatusStore) Record(_ context.Context, rec dispatch.StatusRecord) error {
	if rec.RequestID == "" {
		return fmt.Errorf("record status: empty request id")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = rec.CreatedAt
	}
	s.cache.Set(rec.RequestID, rec, ttlcache.DefaultTTL)
	return nil
}

// Lookup returns the state of requestID or dispatch.ErrNotFound.
func (s *StatusStore) Lookup(_ context.Context, requestID string) (*dispatch.StatusRecord, error) {
	item := s.cache.Get(requestID)
	if item == nil {
		return nil, fmt.Errorf("status %s: %w", requestID, dispatch.ErrNotFound)
	}
	rec := item.Value()
	return &rec, nil
}

// Update changes the status of an existing request.
func (s *StatusStore) Update(ctx context.Context, requestID, status string) error {
	rec, err := s.Lookup(ctx, requestID)
	if err != nil {
		return err
	}
	rec.Status = status
	rec.UpdatedAt = s.now()
	s.cache.Set(requestID, *rec, ttlcache.DefaultTTL)
	return nil
}

// Len returns the number of tracked requests.
func (s *StatusStore) Len() int {
	return s.cache.Len()
}

// Stop halts expiry.
func (s *StatusStore) Stop() {
	s.cache.Stop()
}
