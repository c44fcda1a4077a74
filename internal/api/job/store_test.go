package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/vcpscan/internal/core"
)

func TestStoreLifecycle(t *testing.T) {
	store := NewStore(10, time.Hour)

	j := store.Create("scan")
	if j.ID == "" {
		t.Fatal("expected a job id")
	}
	if j.Status != StatusPending {
		t.Errorf("expected pending, got %s", j.Status)
	}

	store.SetRunning(j.ID)
	got, err := store.Get(j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusRunning {
		t.Errorf("expected running, got %s", got.Status)
	}

	store.SetComplete(j.ID, []string{"AAPL"})
	got, _ = store.Get(j.ID)
	if got.Status != StatusComplete {
		t.Errorf("expected complete, got %s", got.Status)
	}
	if got.Result == nil {
		t.Error("expected a stored result")
	}
}

func TestStoreSetFailed(t *testing.T) {
	store := NewStore(10, time.Hour)

	j := store.Create("backtest")
	store.SetFailed(j.ID, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("upstream down")))

	got, err := store.Get(j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
	if got.Error == nil || got.Error.Code != "DATA_UNAVAILABLE" {
		t.Errorf("expected stored error, got %+v", got.Error)
	}
}

func TestStoreGetUnknown(t *testing.T) {
	store := NewStore(10, time.Hour)

	_, err := store.Get("nope")
	if !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestStoreEvictsOldest(t *testing.T) {
	store := NewStore(2, time.Hour)

	first := store.Create("scan")
	second := store.Create("scan")
	third := store.Create("scan")

	if _, err := store.Get(first.ID); !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("oldest job should be evicted, got %v", err)
	}
	if _, err := store.Get(second.ID); err != nil {
		t.Errorf("second job should survive: %v", err)
	}
	if _, err := store.Get(third.ID); err != nil {
		t.Errorf("third job should survive: %v", err)
	}
}

func TestStoreGetReturnsSnapshot(t *testing.T) {
	store := NewStore(10, time.Hour)
	j := store.Create("scan")

	got, err := store.Get(j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got.Status = StatusFailed

	again, _ := store.Get(j.ID)
	if again.Status != StatusPending {
		t.Errorf("mutating a snapshot leaked into the store: %s", again.Status)
	}
}

// Exercised under -race: a handler encodes the job it fetched while
// the worker goroutine keeps updating the stored one.
func TestStoreGetConcurrentWithUpdates(t *testing.T) {
	store := NewStore(10, time.Hour)
	j := store.Create("scan")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			store.SetComplete(j.ID, []string{"AAPL"})
			store.SetRunning(j.ID)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			got, err := store.Get(j.ID)
			if err != nil {
				t.Error(err)
				return
			}
			if _, err := json.Marshal(got); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	wg.Wait()
}

func TestStoreExpiresByTTL(t *testing.T) {
	store := NewStore(10, 10*time.Millisecond)

	j := store.Create("scan")
	time.Sleep(25 * time.Millisecond)

	if _, err := store.Get(j.ID); !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("expected expired job, got %v", err)
	}
}
