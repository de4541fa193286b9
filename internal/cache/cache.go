// Package cache holds the read cache of the full staff list.
//
// Every mutation of the teachers table must call Invalidate before it
// reports success so that the next GetAll in the same process sees the write.
package cache

import (
	"context"
	"time"

	"github.com/garnizeh/staffdir/pkg/models"
)

// DefaultTTL bounds how long a cached list is served.
const DefaultTTL = time.Hour

// ListCache caches the result of listing every staff record.
type ListCache interface {
	// Get returns the cached list and true on a hit.
	Get(ctx context.Context) ([]models.Staff, bool)
	Set(ctx context.Context, records []models.Staff) error
	Invalidate(ctx context.Context) error
}

func clone(records []models.Staff) []models.Staff {
	out := make([]models.Staff, len(records))
	copy(out, records)
	return out
}
