package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/tracker"
)

func TestCollector_CountsTrackerEvents(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	col, err := NewCollector(reg)
	require.NoError(t, err)

	tr, err := tracker.New(tracker.DefaultConfig(), tracker.WithObserver(col))
	require.NoError(t, err)

	require.NoError(t, tr.TrackOrder(ctx, tracker.OrderOutcome{SupplierID: "acme", OrderID: "o1", Success: true}))
	require.NoError(t, tr.TrackOrder(ctx, tracker.OrderOutcome{SupplierID: "acme", OrderID: "o2", Success: false}))
	_, err = tr.ReportIncident(ctx, tracker.IncidentInput{
		SupplierID: "acme",
		OrderID:    "o2",
		Type:       tracker.IncidentQuality,
		Severity:   tracker.SeverityCritical,
		Impact:     9,
	})
	require.NoError(t, err)
	_, err = tr.RemoveFromBlacklist(ctx, "acme")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(col.orders.WithLabelValues("acme", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(col.orders.WithLabelValues("acme", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(col.incidents.WithLabelValues("quality_issue", "critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(col.transitions.WithLabelValues("blacklisted", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(col.transitions.WithLabelValues("removed", "false")))
	assert.Equal(t, 1, testutil.CollectAndCount(col.scores), "one score series per supplier")
}

func TestNewCollector_DuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}
