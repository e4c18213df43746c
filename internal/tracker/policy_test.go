package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Detect(t *testing.T) {
	p := policy{cfg: DefaultConfig()}

	tests := []struct {
		name    string
		score   int
		trigger *Incident
		want    string
	}{
		{"healthy", 90, nil, ""},
		{"score at threshold", 30, nil, ""},
		{"score below threshold", 29, nil, "composite score 29 below critical threshold 30"},
		{"critical incident", 95, &Incident{Type: IncidentQuality, Severity: SeverityCritical, Impact: 2, OrderID: "o1"}, "critical quality_issue incident on order o1"},
		{"impact at threshold", 95, &Incident{Type: IncidentLateShipping, Severity: SeverityLow, Impact: 8, OrderID: "o2"}, "late_shipping incident with impact 8 on order o2"},
		{"impact below threshold", 95, &Incident{Type: IncidentLateShipping, Severity: SeverityHigh, Impact: 7, OrderID: "o3"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.detect(tt.score, tt.trigger).reason)
		})
	}
}

func TestPolicy_EscalateSuspendsThenGoesPermanent(t *testing.T) {
	cfg := DefaultConfig()
	p := policy{cfg: cfg}
	b := breach{reason: "bad"}
	m := SupplierMetrics{SupplierID: "s"}

	m, entry := p.escalate(m, nil, b, epoch)
	require.NotNil(t, entry)
	assert.Equal(t, BlacklistSuspension, entry.Severity)
	require.NotNil(t, entry.ExpiresAt)
	assert.Equal(t, epoch.Add(cfg.SuspensionDuration), *entry.ExpiresAt)
	assert.Equal(t, PolicyActor, entry.BlacklistedBy)
	assert.Equal(t, 1, m.AutoBlacklists)

	m, entry = p.escalate(m, nil, b, epoch)
	require.NotNil(t, entry)
	assert.Equal(t, BlacklistSuspension, entry.Severity)

	m, entry = p.escalate(m, nil, b, epoch)
	require.NotNil(t, entry)
	assert.Equal(t, BlacklistPermanent, entry.Severity)
	assert.Nil(t, entry.ExpiresAt)
	assert.Equal(t, 3, m.AutoBlacklists)
	assert.Contains(t, entry.Reason, "auto-blacklist #3")
}

func TestPolicy_EscalateRespectsActiveEntries(t *testing.T) {
	p := policy{cfg: DefaultConfig()}
	b := breach{reason: "bad"}
	m := SupplierMetrics{SupplierID: "s"}

	suspended := &BlacklistEntry{SupplierID: "s", Severity: BlacklistSuspension}
	got, entry := p.escalate(m, suspended, b, epoch)
	assert.Nil(t, entry)
	assert.Equal(t, 0, got.AutoBlacklists)

	warned := &BlacklistEntry{SupplierID: "s", Severity: BlacklistWarning}
	got, entry = p.escalate(m, warned, b, epoch)
	require.NotNil(t, entry)
	assert.Equal(t, BlacklistSuspension, entry.Severity)
	assert.Equal(t, 1, got.AutoBlacklists)

	got, entry = p.escalate(m, nil, breach{}, epoch)
	assert.Nil(t, entry)
	assert.Equal(t, m, got)
}

func TestPolicy_Standing(t *testing.T) {
	p := policy{cfg: DefaultConfig()}

	assert.Equal(t, StandingActive, p.standing(50, false))
	assert.Equal(t, StandingWatch, p.standing(49, false))
	assert.Equal(t, StandingWatch, p.standing(30, false))
	assert.Equal(t, StandingBlacklisted, p.standing(90, true))
}

func TestRegistry_LazyExpiry(t *testing.T) {
	r := newRegistry()
	past := epoch.Add(-time.Millisecond)
	future := epoch.Add(time.Hour)
	r.put(BlacklistEntry{SupplierID: "old", Severity: BlacklistSuspension, ExpiresAt: &past})
	r.put(BlacklistEntry{SupplierID: "new", Severity: BlacklistSuspension, ExpiresAt: &future})
	r.put(BlacklistEntry{SupplierID: "forever", Severity: BlacklistPermanent})

	_, ok, expired := r.lookup("old", epoch)
	assert.False(t, ok)
	assert.True(t, expired)

	_, ok, expired = r.lookup("old", epoch)
	assert.False(t, ok)
	assert.False(t, expired, "already dropped")

	entry, ok, _ := r.lookup("new", epoch)
	require.True(t, ok)
	entry.ExpiresAt = nil
	kept, _, _ := r.lookup("new", epoch)
	assert.NotNil(t, kept.ExpiresAt, "lookup returns a copy")

	exactly, ok, _ := r.lookup("new", future)
	assert.True(t, ok, "expiry is strict: now must be after expires_at")
	assert.Equal(t, "new", exactly.SupplierID)

	dropped := r.sweep(future.Add(time.Nanosecond))
	require.Len(t, dropped, 1)
	assert.Equal(t, "new", dropped[0].SupplierID)
	assert.Len(t, r.list(), 1)
	assert.True(t, r.remove("forever"))
	assert.False(t, r.remove("forever"))
}

func TestLedger_SinceAndCompaction(t *testing.T) {
	l := newLedger(48 * time.Hour)
	l.append(Incident{ID: "a", SupplierID: "s1", Timestamp: epoch}, epoch)
	l.append(Incident{ID: "b", SupplierID: "s2", Timestamp: epoch.Add(time.Hour)}, epoch.Add(time.Hour))
	l.append(Incident{ID: "c", SupplierID: "s1", Timestamp: epoch.Add(2 * time.Hour)}, epoch.Add(2*time.Hour))

	all := l.since("", epoch)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, ids(all))

	assert.Equal(t, []string{"c", "a"}, ids(l.since("s1", epoch)))
	assert.Equal(t, []string{"c"}, ids(l.since("s1", epoch.Add(90*time.Minute))))
	assert.Empty(t, l.since("unknown", epoch))

	later := epoch.Add(49 * time.Hour)
	l.append(Incident{ID: "d", SupplierID: "s2", Timestamp: later}, later)
	assert.Equal(t, []string{"d", "c", "b"}, ids(l.since("", epoch)))
	assert.Equal(t, []string{"c"}, ids(l.since("s1", epoch)))
}

func ids(incidents []Incident) []string {
	out := make([]string, 0, len(incidents))
	for _, inc := range incidents {
		out = append(out, inc.ID)
	}
	return out
}
