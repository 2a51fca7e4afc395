// Package sweeper evicts reservations whose time-to-live has elapsed.
// There is no background timer: callers sweep before every read or write
// that depends on capacity.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/studyroom/seat-tracker/internal/models"
	"github.com/studyroom/seat-tracker/internal/repository"
)

type Sweeper struct {
	store repository.ReservationStore
	ttl   time.Duration
}

func New(store repository.ReservationStore, ttl time.Duration) *Sweeper {
	return &Sweeper{store: store, ttl: ttl}
}

func (s *Sweeper) TTL() time.Duration { return s.ttl }

// Cutoff is the newest creation time that counts as expired at now.
func (s *Sweeper) Cutoff(now time.Time) time.Time {
	return now.Add(-s.ttl)
}

// Sweep removes every reservation with now >= createdAt + TTL and returns
// them. Capacity needs no separate bookkeeping since usage is a live count.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	removed, err := s.store.RemoveExpiredBefore(ctx, s.Cutoff(now))
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		log.Printf("[Sweeper] evicted %d expired reservation(s)", len(removed))
	}
	return removed, nil
}
