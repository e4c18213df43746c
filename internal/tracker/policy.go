package tracker

import (
	"fmt"
	"time"
)

const PolicyActor = "policy-engine"

type policy struct {
	cfg Config
}

// breach describes why a supplier should be auto-blacklisted. A zero value means no breach.
type breach struct {
	reason string
}

func (b breach) found() bool {
	return b.reason != ""
}

// detect checks the triggering incident (if any) before the composite score, so the
// recorded reason names the most specific cause.
func (p policy) detect(score int, trigger *Incident) breach {
	if trigger != nil {
		if trigger.Severity == SeverityCritical {
			return breach{reason: fmt.Sprintf("critical %s incident on order %s", trigger.Type, trigger.OrderID)}
		}
		if trigger.Impact >= p.cfg.ImpactThreshold {
			return breach{reason: fmt.Sprintf("%s incident with impact %d on order %s", trigger.Type, trigger.Impact, trigger.OrderID)}
		}
	}
	if score < p.cfg.CriticalScore {
		return breach{reason: fmt.Sprintf("composite score %d below critical threshold %d", score, p.cfg.CriticalScore)}
	}
	return breach{}
}

// escalate decides the entry for a breach. current is the supplier's active entry, if
// any. Suspensions and permanent entries already in force are left alone; a warning is
// upgraded. The returned metrics carry the incremented strike count.
func (p policy) escalate(m SupplierMetrics, current *BlacklistEntry, b breach, now time.Time) (SupplierMetrics, *BlacklistEntry) {
	if !b.found() {
		return m, nil
	}
	if current != nil && current.Severity != BlacklistWarning {
		return m, nil
	}

	m.AutoBlacklists++
	entry := BlacklistEntry{
		SupplierID:    m.SupplierID,
		Reason:        b.reason,
		BlacklistedAt: now,
		BlacklistedBy: PolicyActor,
	}
	if m.AutoBlacklists >= p.cfg.PermanentAfter {
		entry.Severity = BlacklistPermanent
		entry.Reason = fmt.Sprintf("%s (auto-blacklist #%d)", b.reason, m.AutoBlacklists)
	} else {
		entry.Severity = BlacklistSuspension
		expires := now.Add(p.cfg.SuspensionDuration)
		entry.ExpiresAt = &expires
	}
	return m, &entry
}

func (p policy) standing(score int, blacklisted bool) Standing {
	switch {
	case blacklisted:
		return StandingBlacklisted
	case score < p.cfg.WatchScore:
		return StandingWatch
	default:
		return StandingActive
	}
}
