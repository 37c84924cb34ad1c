package batcher

import (
	"errors"
	"testing"
	"time"

	logx "github.com/21e8/telegram-batch-bot/pkg/logx"
)

func testFactory() (*Service, error) {
	return New(Config{MaxBatchSize: 10, MaxWait: time.Minute}, nil, logx.Nop(), nil)
}

func TestRegistryGetOrCreateReturnsSameInstance(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	defer r.DestroyAll()

	a, err := r.GetOrCreate("shared", testFactory)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	// A second call ignores the factory entirely.
	b, err := r.GetOrCreate("shared", func() (*Service, error) {
		return nil, errors.New("factory must not run")
	})
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if a != b {
		t.Fatal("registry returned a different instance for the same name")
	}
}

func TestRegistryRebuildsDestroyedInstance(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	defer r.DestroyAll()

	a, err := r.GetOrCreate("x", testFactory)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	a.Destroy()

	b, err := r.GetOrCreate("x", testFactory)
	if err != nil {
		t.Fatalf("GetOrCreate after destroy: %v", err)
	}
	if a == b {
		t.Fatal("registry returned a destroyed instance")
	}
	if err := b.Info("alive"); err != nil {
		t.Fatalf("rebuilt instance rejected enqueue: %v", err)
	}
}

func TestRegistryDestroy(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	s, err := r.GetOrCreate("x", testFactory)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if !r.Destroy("x") {
		t.Fatal("Destroy reported no instance")
	}
	if err := s.Info("gone"); !errors.Is(err, ErrStopped) {
		t.Fatalf("destroyed instance accepted enqueue: %v", err)
	}
	if r.Destroy("x") {
		t.Fatal("second Destroy reported an instance")
	}
}

func TestRegistryFactoryErrorNotCached(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	defer r.DestroyAll()

	boom := errors.New("bad config")
	if _, err := r.GetOrCreate("x", func() (*Service, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("factory error = %v, want %v", err, boom)
	}
	if _, err := r.GetOrCreate("x", testFactory); err != nil {
		t.Fatalf("GetOrCreate after factory failure: %v", err)
	}
}
