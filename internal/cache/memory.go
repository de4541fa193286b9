package cache

import (
	"context"
	"sync"
	"time"

	"github.com/garnizeh/staffdir/pkg/models"
)

// Memory is an in-process ListCache with a time-based expiry.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	records []models.Staff
	expires time.Time
	valid   bool
}

func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (c *Memory) WithClock(now func() time.Time) *Memory {
	c.now = now
	return c
}

func (c *Memory) Get(ctx context.Context) ([]models.Staff, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid || !c.now().Before(c.expires) {
		return nil, false
	}
	return clone(c.records), true
}

func (c *Memory) Set(ctx context.Context, records []models.Staff) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = clone(records)
	c.expires = c.now().Add(c.ttl)
	c.valid = true
	return nil
}

func (c *Memory) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
	c.valid = false
	return nil
}
