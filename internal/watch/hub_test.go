package watch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeSource struct {
	mu   sync.Mutex
	data []byte
	err  error
}

func (f *fakeSource) set(data []byte) {
	f.mu.Lock()
	f.data = data
	f.mu.Unlock()
}

func (f *fakeSource) query(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

var hubLogger = slog.New(slog.DiscardHandler)

func recvWithin(t *testing.T, ch <-chan []byte, d time.Duration) []byte {
	t.Helper()
	select {
	case snapshot := <-ch:
		return snapshot
	case <-time.After(d):
		t.Fatal("no snapshot delivered in time")
		return nil
	}
}

func TestSubscribeDeliversFirstSnapshotImmediately(t *testing.T) {
	hub := NewHub(time.Hour, hubLogger) // ticker never fires during the test
	src := &fakeSource{data: []byte("v1")}

	ch, cancel, err := hub.Subscribe(context.Background(), src.query)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	if got := string(recvWithin(t, ch, time.Second)); got != "v1" {
		t.Errorf("first snapshot = %q, want v1", got)
	}
}

func TestSubscribeFailsWhenQueryFails(t *testing.T) {
	hub := NewHub(time.Hour, hubLogger)
	src := &fakeSource{err: errors.New("boom")}

	if _, _, err := hub.Subscribe(context.Background(), src.query); err == nil {
		t.Fatal("expected error from failing query")
	}
}

func TestRunDeliversChanges(t *testing.T) {
	hub := NewHub(10*time.Millisecond, hubLogger)
	src := &fakeSource{data: []byte("v1")}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go hub.Run(ctx)

	ch, cancel, err := hub.Subscribe(ctx, src.query)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()
	recvWithin(t, ch, time.Second) // drain first snapshot

	src.set([]byte("v2"))
	if got := string(recvWithin(t, ch, time.Second)); got != "v2" {
		t.Errorf("snapshot = %q, want v2", got)
	}

	// Unchanged state must not produce another delivery.
	select {
	case extra := <-ch:
		t.Fatalf("unexpected snapshot %q for unchanged state", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelClosesChannel(t *testing.T) {
	hub := NewHub(10*time.Millisecond, hubLogger)
	src := &fakeSource{data: []byte("v1")}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go hub.Run(ctx)

	ch, cancel, err := hub.Subscribe(ctx, src.query)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	recvWithin(t, ch, time.Second)

	cancel()
	cancel() // idempotent

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestSlowConsumerGetsLatest(t *testing.T) {
	hub := NewHub(5*time.Millisecond, hubLogger)
	src := &fakeSource{data: []byte("v1")}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go hub.Run(ctx)

	ch, cancel, err := hub.Subscribe(ctx, src.query)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()
	recvWithin(t, ch, time.Second)

	// Never read while several versions go by; the pending slot must end
	// up holding the newest one.
	for _, v := range []string{"v2", "v3", "v4"} {
		src.set([]byte(v))
		time.Sleep(30 * time.Millisecond)
	}
	if got := string(recvWithin(t, ch, time.Second)); got != "v4" {
		t.Errorf("snapshot = %q, want v4", got)
	}
}
