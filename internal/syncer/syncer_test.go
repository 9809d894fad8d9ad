package syncer

import (
	"context"
	"testing"
	"time"

	"smartshop/internal/models"
	"smartshop/internal/store/memory"
)

func snapshotOf(products []models.Product, sales []models.Sale) Snapshot {
	return func() ([]models.Product, []models.Sale) {
		return products, sales
	}
}

func TestNotifyCoalescesRapidMutations(t *testing.T) {
	gw := memory.New()
	s := New(gw, snapshotOf([]models.Product{{ID: "p1"}}, nil), 30*time.Millisecond)
	defer s.Close()

	for i := 0; i < 10; i++ {
		s.Notify()
		time.Sleep(2 * time.Millisecond)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		catalog, _, _ := gw.Counters()
		if catalog > 0 {
			if catalog != 1 {
				t.Fatalf("expected exactly one coalesced catalog save, got %d", catalog)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("debounced commit never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNotifyResetsQuietInterval(t *testing.T) {
	gw := memory.New()
	s := New(gw, snapshotOf(nil, nil), 50*time.Millisecond)
	defer s.Close()

	// Keep poking more often than the delay: nothing may commit yet.
	for i := 0; i < 5; i++ {
		s.Notify()
		time.Sleep(20 * time.Millisecond)
	}
	if catalog, _, _ := gw.Counters(); catalog != 0 {
		t.Fatalf("commit fired during activity, got %d saves", catalog)
	}

	time.Sleep(120 * time.Millisecond)
	if catalog, _, _ := gw.Counters(); catalog != 1 {
		t.Fatalf("expected one commit after quiet interval, got %d", catalog)
	}
}

func TestFlushCommitsImmediatelyAndCancelsTimer(t *testing.T) {
	gw := memory.New()
	s := New(gw, snapshotOf(nil, []models.Sale{{ID: "s1"}}), time.Hour)
	defer s.Close()

	s.Notify()
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}

	catalog, _, allSales := gw.Counters()
	if catalog != 1 || allSales != 1 {
		t.Fatalf("flush did not commit: catalog=%d allSales=%d", catalog, allSales)
	}

	loaded, _ := gw.LoadSales(context.Background())
	if len(loaded) != 1 || loaded[0].ID != "s1" {
		t.Fatalf("flushed ledger wrong: %+v", loaded)
	}

	// The cancelled timer must not double-commit later.
	time.Sleep(50 * time.Millisecond)
	if catalog, _, _ := gw.Counters(); catalog != 1 {
		t.Fatalf("cancelled timer committed anyway")
	}
}

func TestNotifyAfterCloseIsNoop(t *testing.T) {
	gw := memory.New()
	s := New(gw, snapshotOf(nil, nil), 10*time.Millisecond)
	s.Close()
	s.Notify()
	time.Sleep(50 * time.Millisecond)
	if catalog, _, _ := gw.Counters(); catalog != 0 {
		t.Fatalf("closed syncer still committed")
	}
}
