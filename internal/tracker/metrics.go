package tracker

import (
	"sort"
	"time"
)

type metricsStore struct {
	window    int
	suppliers map[string]*SupplierMetrics
}

func newMetricsStore(window int) *metricsStore {
	return &metricsStore{
		window:    window,
		suppliers: make(map[string]*SupplierMetrics),
	}
}

func (s *metricsStore) get(id string) (SupplierMetrics, bool) {
	m, ok := s.suppliers[id]
	if !ok {
		return SupplierMetrics{}, false
	}
	return m.clone(), true
}

// getOrZero returns the stored metrics or a zeroed record stamped first-seen at now.
func (s *metricsStore) getOrZero(id string, now time.Time) SupplierMetrics {
	if m, ok := s.get(id); ok {
		return m
	}
	return SupplierMetrics{SupplierID: id, FirstSeen: now, LastUpdated: now}
}

func (s *metricsStore) put(m SupplierMetrics) {
	m = m.clone()
	s.suppliers[m.SupplierID] = &m
}

func (s *metricsStore) ids() []string {
	ids := make([]string, 0, len(s.suppliers))
	for id := range s.suppliers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *metricsStore) all() []SupplierMetrics {
	out := make([]SupplierMetrics, 0, len(s.suppliers))
	for _, id := range s.ids() {
		out = append(out, s.suppliers[id].clone())
	}
	return out
}

func (s *metricsStore) recordOrder(m SupplierMetrics, success bool, shippingDays *float64, now time.Time) SupplierMetrics {
	m.TotalOrders++
	if success {
		m.SuccessfulOrders++
		if shippingDays != nil {
			m.ShippingDurations = append(m.ShippingDurations, *shippingDays)
			if len(m.ShippingDurations) > s.window {
				m.ShippingDurations = m.ShippingDurations[len(m.ShippingDurations)-s.window:]
			}
		}
	}
	m.LastUpdated = now
	return m
}

func recordIncident(m SupplierMetrics, t IncidentType, now time.Time) SupplierMetrics {
	switch t {
	case IncidentQuality:
		m.QualityIncidents++
	case IncidentLateShipping:
		m.LateShipments++
	case IncidentOutOfStock:
		m.Stockouts++
	case IncidentCommunication:
		m.CommunicationIssues++
	case IncidentPriceChange:
		m.PriceChanges++
	}
	m.LastUpdated = now
	return m
}

func resetMetrics(m SupplierMetrics, now time.Time) SupplierMetrics {
	return SupplierMetrics{
		SupplierID:  m.SupplierID,
		FirstSeen:   m.FirstSeen,
		LastUpdated: now,
	}
}
