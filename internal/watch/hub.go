// Package watch turns repeated storage reads into push-style updates.
// Subscribers register a query; the hub polls every registered query on
// a fixed interval and delivers a new snapshot whenever the serialized
// result changes. Polling keeps the hub oblivious to which write path
// changed the data: owner edits, confirmations and rotations all
// surface the same way.
package watch

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"sync"
	"time"
)

// Query produces the serialized state a subscriber watches. It must be
// deterministic for unchanged state or subscribers see spurious updates.
type Query func(ctx context.Context) ([]byte, error)

type subscriber struct {
	query   Query
	ch      chan []byte
	lastSum [sha256.Size]byte
}

type Hub struct {
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
}

func NewHub(interval time.Duration, logger *slog.Logger) *Hub {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Hub{
		interval: interval,
		logger:   logger,
		subs:     make(map[uint64]*subscriber),
	}
}

// Subscribe runs the query once for an immediate first snapshot, then
// enrolls it in the poll loop. The returned cancel func must be called
// when the consumer goes away; the channel closes after cancellation.
// A slow consumer misses intermediate snapshots but always receives the
// latest one eventually.
func (h *Hub) Subscribe(ctx context.Context, query Query) (<-chan []byte, func(), error) {
	snapshot, err := query(ctx)
	if err != nil {
		return nil, nil, err
	}

	sub := &subscriber{
		query:   query,
		ch:      make(chan []byte, 1),
		lastSum: sha256.Sum256(snapshot),
	}
	sub.ch <- snapshot

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[id] = sub
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
		h.mu.Unlock()
	}
	return sub.ch, cancel, nil
}

// Run polls until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.poll(ctx)
		}
	}
}

func (h *Hub) poll(ctx context.Context) {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		snapshot, err := sub.query(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			h.logger.Warn("watch query failed", "err", err)
			continue
		}
		sum := sha256.Sum256(snapshot)
		if sum == sub.lastSum {
			continue
		}
		sub.lastSum = sum
		h.deliver(sub, snapshot)
	}
}

// deliver replaces a pending undelivered snapshot instead of blocking.
func (h *Hub) deliver(sub *subscriber, snapshot []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	alive := false
	for _, s := range h.subs {
		if s == sub {
			alive = true
			break
		}
	}
	if !alive {
		return
	}
	select {
	case sub.ch <- snapshot:
	default:
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- snapshot
	}
}
