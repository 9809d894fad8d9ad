// Package syncer turns "persist on every change" into a coalesced
// background task: each mutation cancels any pending commit and
// reschedules one after a quiet interval, so rapid successive edits cost
// a single write.
package syncer

import (
	"context"
	"log"
	"sync"
	"time"

	"smartshop/internal/models"
	"smartshop/internal/store"
)

const DefaultDelay = 2 * time.Second

// Snapshot hands the syncer a consistent copy of the state to persist.
type Snapshot func() (products []models.Product, sales []models.Sale)

type Syncer struct {
	gateway  store.Gateway
	snapshot Snapshot
	delay    time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

func New(gateway store.Gateway, snapshot Snapshot, delay time.Duration) *Syncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Syncer{gateway: gateway, snapshot: snapshot, delay: delay}
}

// Notify schedules a commit after the quiet interval, replacing any commit
// already pending. Safe to call from the mutation path: it never blocks on
// storage.
func (s *Syncer) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		if err := s.commit(context.Background()); err != nil {
			log.Printf("syncer: background commit failed: %v", err)
		}
	})
}

// Flush commits immediately, cancelling any pending timer. Used on
// shutdown so the quiet interval cannot eat the last mutation.
func (s *Syncer) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return s.commit(ctx)
}

// Close stops the syncer; pending work is dropped (call Flush first).
func (s *Syncer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Syncer) commit(ctx context.Context) error {
	products, sales := s.snapshot()
	if err := s.gateway.SaveCatalog(ctx, products); err != nil {
		return err
	}
	return s.gateway.SaveAllSales(ctx, sales)
}
