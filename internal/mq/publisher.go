package mq

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/contracts"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/tracker"
)

const (
	defaultEnqueueWait    = 5 * time.Second
	defaultResyncInterval = 10 * time.Second
)

// Lookup returns the supplier's active blacklist entry, or nil.
type Lookup func(supplierID string) *tracker.BlacklistEntry

// TransitionPublisher forwards blacklist transitions from the tracker to Kafka.
// Observe queues; Run writes. When the queue stays full for longer than the enqueue
// wait, or a write fails, the supplier is marked stale and Run republishes its
// current state once the queue has drained.
type TransitionPublisher struct {
	writer         MessageWriter
	queue          chan contracts.BlacklistTransition
	enqueueWait    time.Duration
	resyncInterval time.Duration
	logger         *zap.Logger

	mu     sync.Mutex
	stale  map[string]struct{}
	lookup Lookup
}

func NewTransitionPublisher(writer MessageWriter, buffer int, logger *zap.Logger) *TransitionPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &TransitionPublisher{
		writer:         writer,
		queue:          make(chan contracts.BlacklistTransition, buffer),
		enqueueWait:    defaultEnqueueWait,
		resyncInterval: defaultResyncInterval,
		logger:         logger,
		stale:          make(map[string]struct{}),
	}
}

// ResyncFrom sets where current state is read from for stale suppliers. Until it is
// set, stale suppliers are only logged.
func (p *TransitionPublisher) ResyncFrom(lookup Lookup) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lookup = lookup
}

func (p *TransitionPublisher) Observe(e tracker.Event) {
	t, ok := contracts.TransitionFromEvent(e)
	if !ok {
		return
	}

	select {
	case p.queue <- t:
		return
	default:
	}

	timer := time.NewTimer(p.enqueueWait)
	defer timer.Stop()
	select {
	case p.queue <- t:
	case <-timer.C:
		p.markStale(t.SupplierID)
		p.logger.Error("transition queue full, supplier marked for resync",
			zap.String("supplier_id", t.SupplierID),
			zap.String("action", string(t.Action)),
		)
	}
}

func (p *TransitionPublisher) markStale(supplierID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stale[supplierID] = struct{}{}
}

// Run publishes queued transitions until ctx is cancelled, then flushes what is left
// with a short deadline.
func (p *TransitionPublisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.resyncInterval)
	defer ticker.Stop()

	for {
		select {
		case t := <-p.queue:
			if !p.publish(ctx, t) {
				p.markStale(t.SupplierID)
			}
		case <-ticker.C:
			p.resync(ctx)
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for {
				select {
				case t := <-p.queue:
					if !p.publish(flushCtx, t) {
						p.markStale(t.SupplierID)
					}
				default:
					p.resync(flushCtx)
					return nil
				}
			}
		}
	}
}

// resync republishes the current state of stale suppliers. It waits for an empty
// queue so an older queued transition cannot land after the fresher state.
func (p *TransitionPublisher) resync(ctx context.Context) {
	if len(p.queue) > 0 {
		return
	}

	p.mu.Lock()
	lookup := p.lookup
	if lookup == nil || len(p.stale) == 0 {
		p.mu.Unlock()
		return
	}
	ids := make([]string, 0, len(p.stale))
	for id := range p.stale {
		ids = append(ids, id)
	}
	p.stale = make(map[string]struct{})
	p.mu.Unlock()

	sort.Strings(ids)
	now := time.Now().UTC()
	for _, id := range ids {
		t := contracts.TransitionFromEntry(id, lookup(id), now)
		if !p.publish(ctx, t) {
			p.markStale(id)
		}
	}
	p.logger.Info("stale suppliers resynced", zap.Int("suppliers", len(ids)))
}

func (p *TransitionPublisher) publish(ctx context.Context, t contracts.BlacklistTransition) bool {
	if err := PublishJSON(ctx, p.writer, t.Key(), t); err != nil {
		p.logger.Error("publish blacklist transition",
			zap.String("supplier_id", t.SupplierID),
			zap.String("action", string(t.Action)),
			zap.Error(err),
		)
		return false
	}
	p.logger.Debug("blacklist transition published",
		zap.String("supplier_id", t.SupplierID),
		zap.String("action", string(t.Action)),
	)
	return true
}
