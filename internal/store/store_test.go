package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	solo, err := OpenSolo(filepath.Join(dir, "globals.solo"), time.Hour)
	if err != nil {
		t.Fatalf("OpenSolo: %v", err)
	}
	sql, err := OpenSQL(filepath.Join(dir, "globals.db"))
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}

	backends := map[string]Store{
		BackendMemory: NewMemory(),
		BackendSolo:   solo,
		BackendSQLite: sql,
	}
	t.Cleanup(func() {
		for _, s := range backends {
			_ = s.Close()
		}
	})
	return backends
}

func TestStoreUpsertGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, "srv", "greeting"); err != nil || ok {
				t.Fatalf("expected missing key, ok=%v err=%v", ok, err)
			}

			if err := s.Upsert(ctx, "srv", "greeting", "hello"); err != nil {
				t.Fatal(err)
			}
			if err := s.Upsert(ctx, "srv", "greeting", "hi"); err != nil {
				t.Fatal(err)
			}
			if err := s.Upsert(ctx, "other", "greeting", "yo"); err != nil {
				t.Fatal(err)
			}

			v, ok, err := s.Get(ctx, "srv", "greeting")
			if err != nil || !ok || v != "hi" {
				t.Errorf("Get = %q, %v, %v; want hi", v, ok, err)
			}

			all, err := s.List(ctx, "srv")
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 1 || all["greeting"] != "hi" {
				t.Errorf("List = %v", all)
			}

			if err := s.Delete(ctx, "srv", "greeting"); err != nil {
				t.Fatal(err)
			}
			if _, ok, _ := s.Get(ctx, "srv", "greeting"); ok {
				t.Error("expected key to be deleted")
			}
			if v, _, _ := s.Get(ctx, "other", "greeting"); v != "yo" {
				t.Errorf("delete leaked across servers, got %q", v)
			}

			// a deleted key can be written again
			if err := s.Upsert(ctx, "srv", "greeting", "back"); err != nil {
				t.Fatal(err)
			}
			if v, _, _ := s.Get(ctx, "srv", "greeting"); v != "back" {
				t.Errorf("expected re-created value, got %q", v)
			}
		})
	}
}

func TestStoreUpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			const workers = 8
			const perWorker = 10

			var wg sync.WaitGroup
			wg.Add(workers)
			for i := 0; i < workers; i++ {
				go func() {
					defer wg.Done()
					for j := 0; j < perWorker; j++ {
						_, err := s.Update(ctx, "srv", "counter", func(old string, ok bool) (string, error) {
							n, _ := strconv.Atoi(old)
							return strconv.Itoa(n + 1), nil
						})
						if err != nil {
							t.Errorf("Update: %v", err)
						}
					}
				}()
			}
			wg.Wait()

			v, _, err := s.Get(ctx, "srv", "counter")
			if err != nil {
				t.Fatal(err)
			}
			if v != fmt.Sprint(workers*perWorker) {
				t.Errorf("counter = %s, want %d", v, workers*perWorker)
			}
		})
	}
}

func TestStoreUpdateErrorKeepsValue(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_ = s.Upsert(ctx, "srv", "x", "1")
			_, err := s.Update(ctx, "srv", "x", func(string, bool) (string, error) {
				return "", boom
			})
			if !errors.Is(err, boom) {
				t.Errorf("expected boom, got %v", err)
			}
			if v, _, _ := s.Get(ctx, "srv", "x"); v != "1" {
				t.Errorf("value changed after failed update: %q", v)
			}
		})
	}
}

func TestStoreRejectsEmptyName(t *testing.T) {
	ctx := context.Background()
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Upsert(ctx, "srv", "", "v"); err == nil {
				t.Error("expected error for empty name")
			}
		})
	}
}

func TestOpen(t *testing.T) {
	s, err := Open(Options{Backend: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("expected *Memory, got %T", s)
	}

	if _, err := Open(Options{Backend: "redis"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestSQLCompactPurgesDeleted(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQL(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	_ = s.Upsert(ctx, "srv", "a", "1")
	_ = s.Upsert(ctx, "srv", "b", "2")
	_ = s.Delete(ctx, "srv", "a")

	if err := s.Compact(ctx); err != nil {
		t.Fatal(err)
	}

	var total int64
	s.db.Unscoped().Model(&Variable{}).Count(&total)
	if total != 1 {
		t.Errorf("expected 1 row after compaction, got %d", total)
	}
}
