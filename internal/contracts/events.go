package contracts

import (
	"fmt"
	"time"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/tracker"
)

type EventKind string

const (
	KindOrder    EventKind = "order"
	KindIncident EventKind = "incident"
)

// SupplierEvent is one storefront observation on the supplier.events topic.
// Exactly one of Order and Incident is set, matching Kind.
type SupplierEvent struct {
	ID         string                 `json:"id"`
	Kind       EventKind              `json:"kind"`
	ReceivedAt time.Time              `json:"received_at"`
	Order      *tracker.OrderOutcome  `json:"order,omitempty"`
	Incident   *tracker.IncidentInput `json:"incident,omitempty"`
}

func (e SupplierEvent) Key() string {
	switch {
	case e.Order != nil:
		return e.Order.SupplierID
	case e.Incident != nil:
		return e.Incident.SupplierID
	}
	return ""
}

func (e SupplierEvent) Check() error {
	switch e.Kind {
	case KindOrder:
		if e.Order == nil {
			return fmt.Errorf("order event %s has no order payload", e.ID)
		}
	case KindIncident:
		if e.Incident == nil {
			return fmt.Errorf("incident event %s has no incident payload", e.ID)
		}
	default:
		return fmt.Errorf("event %s has unknown kind %q", e.ID, e.Kind)
	}
	return nil
}

type TransitionAction string

const (
	ActionBlacklisted TransitionAction = "blacklisted"
	ActionRemoved     TransitionAction = "removed"
	ActionExpired     TransitionAction = "expired"
)

// BlacklistTransition is published on supplier.blacklist whenever an entry appears or goes away.
type BlacklistTransition struct {
	SupplierID string                    `json:"supplier_id"`
	Action     TransitionAction          `json:"action"`
	Severity   tracker.BlacklistSeverity `json:"severity,omitempty"`
	Reason     string                    `json:"reason,omitempty"`
	ExpiresAt  *time.Time                `json:"expires_at,omitempty"`
	Auto       bool                      `json:"auto"`
	At         time.Time                 `json:"at"`
}

func (t BlacklistTransition) Key() string {
	return t.SupplierID
}

// TransitionFromEvent maps a tracker event to a transition. ok is false for events
// that do not change blacklist membership.
func TransitionFromEvent(e tracker.Event) (BlacklistTransition, bool) {
	var action TransitionAction
	switch e.Kind {
	case tracker.EventBlacklisted:
		action = ActionBlacklisted
	case tracker.EventRemoved:
		action = ActionRemoved
	case tracker.EventExpired:
		action = ActionExpired
	default:
		return BlacklistTransition{}, false
	}

	t := BlacklistTransition{
		SupplierID: e.SupplierID,
		Action:     action,
		Auto:       e.Auto,
		At:         e.At.UTC(),
	}
	if e.Entry != nil {
		t.Severity = e.Entry.Severity
		t.Reason = e.Entry.Reason
		t.ExpiresAt = e.Entry.ExpiresAt
	}
	return t, true
}

// TransitionFromEntry describes the current state of one supplier: blacklisted when
// entry is set, removed otherwise. Used to resend state that failed to publish.
func TransitionFromEntry(supplierID string, entry *tracker.BlacklistEntry, at time.Time) BlacklistTransition {
	if entry == nil {
		return BlacklistTransition{SupplierID: supplierID, Action: ActionRemoved, At: at.UTC()}
	}
	return BlacklistTransition{
		SupplierID: supplierID,
		Action:     ActionBlacklisted,
		Severity:   entry.Severity,
		Reason:     entry.Reason,
		ExpiresAt:  entry.ExpiresAt,
		Auto:       entry.BlacklistedBy == tracker.PolicyActor,
		At:         at.UTC(),
	}
}
