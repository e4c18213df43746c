package tracker

import "time"

type IncidentType string

const (
	IncidentQuality       IncidentType = "quality_issue"
	IncidentLateShipping  IncidentType = "late_shipping"
	IncidentOutOfStock    IncidentType = "out_of_stock"
	IncidentCommunication IncidentType = "communication_issue"
	IncidentPriceChange   IncidentType = "price_change"
)

func (t IncidentType) Valid() bool {
	switch t {
	case IncidentQuality, IncidentLateShipping, IncidentOutOfStock, IncidentCommunication, IncidentPriceChange:
		return true
	}
	return false
}

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type BlacklistSeverity string

const (
	BlacklistWarning    BlacklistSeverity = "warning"
	BlacklistSuspension BlacklistSeverity = "suspension"
	BlacklistPermanent  BlacklistSeverity = "permanent"
)

func (s BlacklistSeverity) Valid() bool {
	switch s {
	case BlacklistWarning, BlacklistSuspension, BlacklistPermanent:
		return true
	}
	return false
}

type Tier string

const (
	TierElite Tier = "elite"
	TierGood  Tier = "good"
	TierPoor  Tier = "poor"
)

// Standing is derived at query time; only BLACKLISTED is backed by a registry entry.
type Standing string

const (
	StandingActive      Standing = "active"
	StandingWatch       Standing = "watch"
	StandingBlacklisted Standing = "blacklisted"
)

type SupplierMetrics struct {
	SupplierID          string    `json:"supplier_id"`
	TotalOrders         int       `json:"total_orders"`
	SuccessfulOrders    int       `json:"successful_orders"`
	ShippingDurations   []float64 `json:"shipping_durations"`
	QualityIncidents    int       `json:"quality_incidents"`
	LateShipments       int       `json:"late_shipments"`
	Stockouts           int       `json:"stockouts"`
	CommunicationIssues int       `json:"communication_issues"`
	PriceChanges        int       `json:"price_changes"`
	AutoBlacklists      int       `json:"auto_blacklists"`
	FirstSeen           time.Time `json:"first_seen"`
	LastUpdated         time.Time `json:"last_updated"`
}

func (m SupplierMetrics) clone() SupplierMetrics {
	m.ShippingDurations = append([]float64(nil), m.ShippingDurations...)
	return m
}

type Incident struct {
	ID          string       `json:"id"`
	SupplierID  string       `json:"supplier_id"`
	OrderID     string       `json:"order_id"`
	Type        IncidentType `json:"type"`
	Severity    Severity     `json:"severity"`
	Description string       `json:"description"`
	Impact      int          `json:"impact"`
	Timestamp   time.Time    `json:"timestamp"`
}

type BlacklistEntry struct {
	SupplierID    string            `json:"supplier_id"`
	Reason        string            `json:"reason"`
	Severity      BlacklistSeverity `json:"severity"`
	BlacklistedAt time.Time         `json:"blacklisted_at"`
	BlacklistedBy string            `json:"blacklisted_by"`
	ExpiresAt     *time.Time        `json:"expires_at,omitempty"`
}

func (e BlacklistEntry) clone() BlacklistEntry {
	if e.ExpiresAt != nil {
		t := *e.ExpiresAt
		e.ExpiresAt = &t
	}
	return e
}

func (e BlacklistEntry) expired(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

type OrderOutcome struct {
	SupplierID   string   `json:"supplier_id" validate:"required"`
	OrderID      string   `json:"order_id" validate:"required"`
	Success      bool     `json:"success"`
	ShippingDays *float64 `json:"shipping_days,omitempty" validate:"omitempty,gt=0"`
}

type IncidentInput struct {
	SupplierID  string       `json:"supplier_id" validate:"required"`
	OrderID     string       `json:"order_id" validate:"required"`
	Type        IncidentType `json:"type" validate:"required,enum"`
	Severity    Severity     `json:"severity" validate:"required,enum"`
	Description string       `json:"description"`
	Impact      int          `json:"impact" validate:"min=1,max=10"`
}

type BlacklistRequest struct {
	SupplierID    string            `json:"supplier_id" validate:"required"`
	Reason        string            `json:"reason" validate:"required"`
	Severity      BlacklistSeverity `json:"severity" validate:"required,enum"`
	ExpiresAt     *time.Time        `json:"expires_at,omitempty"`
	BlacklistedBy string            `json:"blacklisted_by"`
}

type SupplierReport struct {
	SupplierID           string          `json:"supplier_id"`
	TotalOrders          int             `json:"total_orders"`
	SuccessfulOrders     int             `json:"successful_orders"`
	SuccessRate          float64         `json:"success_rate"`
	AverageShippingDays  float64         `json:"average_shipping_days"`
	QualityScore         float64         `json:"quality_score"`
	OnTimeDelivery       float64         `json:"on_time_delivery"`
	CustomerSatisfaction float64         `json:"customer_satisfaction"`
	OverallScore         int             `json:"overall_score"`
	Tier                 Tier            `json:"tier"`
	Standing             Standing        `json:"standing"`
	QualityIncidents     int             `json:"quality_incidents"`
	LateShipments        int             `json:"late_shipments"`
	Stockouts            int             `json:"stockouts"`
	CommunicationIssues  int             `json:"communication_issues"`
	PriceChanges         int             `json:"price_changes"`
	RecentIncidents      int             `json:"recent_incidents"`
	Blacklist            *BlacklistEntry `json:"blacklist,omitempty"`
	LastUpdated          time.Time       `json:"last_updated"`
}

type Ranking struct {
	SupplierID  string `json:"supplier_id"`
	Score       int    `json:"score"`
	TotalOrders int    `json:"total_orders"`
	Tier        Tier   `json:"tier"`
}

type TierGroups struct {
	Elite []string `json:"elite"`
	Good  []string `json:"good"`
	Poor  []string `json:"poor"`
}

// Snapshot is the full tracker state, used to restore from a store and to export.
type Snapshot struct {
	Metrics   []SupplierMetrics `json:"metrics"`
	Incidents []Incident        `json:"incidents"`
	Blacklist []BlacklistEntry  `json:"blacklist"`
}
