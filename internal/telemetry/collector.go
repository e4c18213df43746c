package telemetry

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/tracker"
)

// Collector turns tracker events into Prometheus series. It is an Observer.
type Collector struct {
	orders      *prometheus.CounterVec
	incidents   *prometheus.CounterVec
	transitions *prometheus.CounterVec
	scores      *prometheus.GaugeVec
}

func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supplier_orders_total",
			Help: "Order outcomes tracked per supplier.",
		}, []string{"supplier_id", "outcome"}),
		incidents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supplier_incidents_total",
			Help: "Incidents reported by type and severity.",
		}, []string{"type", "severity"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "supplier_blacklist_transitions_total",
			Help: "Blacklist transitions by action and whether the policy engine made them.",
		}, []string{"action", "auto"}),
		scores: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "supplier_composite_score",
			Help: "Latest composite reliability score per supplier.",
		}, []string{"supplier_id", "tier"}),
	}

	for _, col := range []prometheus.Collector{c.orders, c.incidents, c.transitions, c.scores} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) Observe(e tracker.Event) {
	switch e.Kind {
	case tracker.EventOrderTracked:
		outcome := "failed"
		if e.Success {
			outcome = "succeeded"
		}
		c.orders.WithLabelValues(e.SupplierID, outcome).Inc()
	case tracker.EventIncidentReported:
		if e.Incident != nil {
			c.incidents.WithLabelValues(string(e.Incident.Type), string(e.Incident.Severity)).Inc()
		}
	case tracker.EventBlacklisted, tracker.EventRemoved, tracker.EventExpired:
		c.transitions.WithLabelValues(string(e.Kind), strconv.FormatBool(e.Auto)).Inc()
	case tracker.EventScored:
		c.scores.DeletePartialMatch(prometheus.Labels{"supplier_id": e.SupplierID})
		c.scores.WithLabelValues(e.SupplierID, string(e.Tier)).Set(float64(e.Score))
	}
}
