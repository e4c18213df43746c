package tracker

import (
	"context"
	"time"
)

// Change is everything one mutation writes. A store must apply it atomically so the
// metrics, incident and blacklist records never drift apart.
type Change struct {
	Metrics  *SupplierMetrics
	Incident *Incident
	Put      *BlacklistEntry
	Delete   string
}

type Store interface {
	Commit(ctx context.Context, change Change) error
}

// NopStore keeps state in memory only.
type NopStore struct{}

func (NopStore) Commit(context.Context, Change) error { return nil }

type EventKind string

const (
	EventOrderTracked     EventKind = "order_tracked"
	EventIncidentReported EventKind = "incident_reported"
	EventBlacklisted      EventKind = "blacklisted"
	EventRemoved          EventKind = "removed"
	EventExpired          EventKind = "expired"
	EventScored           EventKind = "scored"
	EventReset            EventKind = "reset"
)

type Event struct {
	// Seq increases by one per event for the life of the tracker.
	Seq        uint64
	Kind       EventKind
	SupplierID string
	At         time.Time
	Success    bool
	Incident   *Incident
	Entry      *BlacklistEntry
	Auto       bool
	Score      int
	Tier       Tier
}

// Observer receives events in the order the tracker applied them, one event at a
// time. Implementations should return quickly and must not call the tracker.
type Observer interface {
	Observe(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }
