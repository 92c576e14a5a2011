package maintenance

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phillarmonic/praxis/internal/store"
)

type compactingStore struct {
	*store.Memory
	compactions atomic.Int32
	fail        bool
}

func (c *compactingStore) Compact(context.Context) error {
	c.compactions.Add(1)
	if c.fail {
		return errors.New("disk full")
	}
	return nil
}

func TestRunOnceCompacts(t *testing.T) {
	st := &compactingStore{Memory: store.NewMemory()}
	s := New(st, time.Hour)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if st.compactions.Load() != 1 {
		t.Errorf("compactions = %d, want 1", st.compactions.Load())
	}
	if s.Runs() != 1 {
		t.Errorf("Runs() = %d, want 1", s.Runs())
	}
}

func TestRunOnceReportsCompactionFailure(t *testing.T) {
	st := &compactingStore{Memory: store.NewMemory(), fail: true}
	if err := New(st, 0).RunOnce(context.Background()); err == nil {
		t.Error("expected the compaction error")
	}
}

func TestRunOnceWithoutCompactor(t *testing.T) {
	if err := New(store.NewMemory(), 0).RunOnce(context.Background()); err != nil {
		t.Errorf("RunOnce on a plain store failed: %v", err)
	}
}

func TestRunOnceSQLite(t *testing.T) {
	ctx := context.Background()
	st, err := store.OpenSQL(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	_ = st.Upsert(ctx, "1", "a", "x")
	_ = st.Delete(ctx, "1", "a")

	if err := New(st, time.Minute).RunOnce(ctx); err != nil {
		t.Errorf("RunOnce failed: %v", err)
	}
}

func TestStartRunsJob(t *testing.T) {
	st := &compactingStore{Memory: store.NewMemory()}
	s := New(st, 20*time.Millisecond)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("a second Start must fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for st.compactions.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if st.compactions.Load() == 0 {
		t.Error("expected the scheduled job to run")
	}
	if err := s.Stop(); err != nil {
		t.Errorf("second Stop failed: %v", err)
	}
}

func TestDefaultInterval(t *testing.T) {
	if New(store.NewMemory(), 0).interval != DefaultInterval {
		t.Error("a zero interval must fall back to the default")
	}
}
