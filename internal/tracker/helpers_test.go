package tracker

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: epoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingStore struct {
	mu      sync.Mutex
	changes []Change
	fail    error
}

func (s *recordingStore) Commit(_ context.Context, c Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.changes = append(s.changes, c)
	return nil
}

type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *recordingObserver) Observe(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) kinds() []EventKind {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]EventKind, 0, len(o.events))
	for _, e := range o.events {
		out = append(out, e.Kind)
	}
	return out
}

func newTestTracker(t *testing.T, clock *fakeClock, opts ...Option) *Tracker {
	t.Helper()
	seq := 0
	opts = append([]Option{
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("inc-%03d", seq)
		}),
	}, opts...)
	tr, err := New(DefaultConfig(), opts...)
	require.NoError(t, err)
	return tr
}

func days(v float64) *float64 {
	return &v
}

var errStoreDown = errors.New("store unavailable")

// randomOutcome produces synthetic order outcomes for property tests.
func randomOutcome(rng *rand.Rand, suppliers []string, n int) OrderOutcome {
	out := OrderOutcome{
		SupplierID: suppliers[rng.Intn(len(suppliers))],
		OrderID:    fmt.Sprintf("ord-%d", n),
		Success:    rng.Intn(4) != 0,
	}
	if rng.Intn(3) != 0 {
		out.ShippingDays = days(1 + rng.Float64()*14)
	}
	return out
}

func randomMetrics(rng *rand.Rand) SupplierMetrics {
	total := rng.Intn(200)
	m := SupplierMetrics{
		SupplierID:          fmt.Sprintf("sup-%d", rng.Intn(1000)),
		TotalOrders:         total,
		QualityIncidents:    rng.Intn(30),
		CommunicationIssues: rng.Intn(10),
		LateShipments:       rng.Intn(10),
	}
	if total > 0 {
		m.SuccessfulOrders = rng.Intn(total + 1)
	}
	samples := rng.Intn(40)
	for i := 0; i < samples; i++ {
		m.ShippingDurations = append(m.ShippingDurations, 0.5+rng.Float64()*20)
	}
	return m
}

func randomIncidents(rng *rand.Rand, supplierID string, now time.Time) []Incident {
	types := []IncidentType{IncidentQuality, IncidentLateShipping, IncidentOutOfStock, IncidentCommunication, IncidentPriceChange}
	severities := []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	n := rng.Intn(25)
	out := make([]Incident, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Incident{
			ID:         fmt.Sprintf("rnd-%d", i),
			SupplierID: supplierID,
			OrderID:    fmt.Sprintf("ord-%d", i),
			Type:       types[rng.Intn(len(types))],
			Severity:   severities[rng.Intn(len(severities))],
			Impact:     1 + rng.Intn(10),
			Timestamp:  now.Add(-time.Duration(rng.Intn(120*24)) * time.Hour),
		})
	}
	return out
}
