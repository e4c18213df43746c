package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/tracker"
)

// Repository persists tracker state. It implements tracker.Store.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Commit writes one tracker change in a single transaction.
func (r *Repository) Commit(ctx context.Context, change tracker.Change) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if change.Metrics != nil {
		if err := upsertMetrics(ctx, tx, *change.Metrics); err != nil {
			return err
		}
	}
	if change.Incident != nil {
		if err := insertIncident(ctx, tx, *change.Incident); err != nil {
			return err
		}
	}
	if change.Put != nil {
		if err := upsertBlacklist(ctx, tx, *change.Put); err != nil {
			return err
		}
	}
	if change.Delete != "" {
		if _, err := tx.Exec(ctx, `DELETE FROM supplier_blacklist WHERE supplier_id = $1`, change.Delete); err != nil {
			return fmt.Errorf("delete blacklist entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit change: %w", err)
	}
	return nil
}

func upsertMetrics(ctx context.Context, tx pgx.Tx, m tracker.SupplierMetrics) error {
	durations := m.ShippingDurations
	if durations == nil {
		durations = []float64{}
	}
	_, err := tx.Exec(ctx, `
        INSERT INTO supplier_metrics
            (supplier_id, total_orders, successful_orders, shipping_durations, quality_incidents,
             late_shipments, stockouts, communication_issues, price_changes, auto_blacklists,
             first_seen, last_updated)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        ON CONFLICT (supplier_id) DO UPDATE SET
            total_orders = EXCLUDED.total_orders,
            successful_orders = EXCLUDED.successful_orders,
            shipping_durations = EXCLUDED.shipping_durations,
            quality_incidents = EXCLUDED.quality_incidents,
            late_shipments = EXCLUDED.late_shipments,
            stockouts = EXCLUDED.stockouts,
            communication_issues = EXCLUDED.communication_issues,
            price_changes = EXCLUDED.price_changes,
            auto_blacklists = EXCLUDED.auto_blacklists,
            last_updated = EXCLUDED.last_updated
    `, m.SupplierID, m.TotalOrders, m.SuccessfulOrders, durations, m.QualityIncidents,
		m.LateShipments, m.Stockouts, m.CommunicationIssues, m.PriceChanges, m.AutoBlacklists,
		m.FirstSeen, m.LastUpdated)
	if err != nil {
		return fmt.Errorf("upsert supplier metrics: %w", err)
	}
	return nil
}

func insertIncident(ctx context.Context, tx pgx.Tx, inc tracker.Incident) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO supplier_incidents
            (id, supplier_id, order_id, type, severity, description, impact, occurred_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (id) DO NOTHING
    `, inc.ID, inc.SupplierID, inc.OrderID, string(inc.Type), string(inc.Severity), inc.Description, inc.Impact, inc.Timestamp)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

func upsertBlacklist(ctx context.Context, tx pgx.Tx, e tracker.BlacklistEntry) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO supplier_blacklist
            (supplier_id, reason, severity, blacklisted_at, blacklisted_by, expires_at)
        VALUES
            ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (supplier_id) DO UPDATE SET
            reason = EXCLUDED.reason,
            severity = EXCLUDED.severity,
            blacklisted_at = EXCLUDED.blacklisted_at,
            blacklisted_by = EXCLUDED.blacklisted_by,
            expires_at = EXCLUDED.expires_at
    `, e.SupplierID, e.Reason, string(e.Severity), e.BlacklistedAt, e.BlacklistedBy, e.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert blacklist entry: %w", err)
	}
	return nil
}

// LoadSnapshot reads the persisted state. Incidents older than retention are skipped;
// expired blacklist rows are returned and dropped by the tracker on restore.
func (r *Repository) LoadSnapshot(ctx context.Context, retention time.Duration) (tracker.Snapshot, error) {
	var snap tracker.Snapshot

	metrics, err := r.loadMetrics(ctx)
	if err != nil {
		return snap, err
	}
	incidents, err := r.loadIncidents(ctx, time.Now().UTC().Add(-retention))
	if err != nil {
		return snap, err
	}
	blacklist, err := r.loadBlacklist(ctx)
	if err != nil {
		return snap, err
	}

	snap.Metrics = metrics
	snap.Incidents = incidents
	snap.Blacklist = blacklist
	return snap, nil
}

func (r *Repository) loadMetrics(ctx context.Context) ([]tracker.SupplierMetrics, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT supplier_id, total_orders, successful_orders, shipping_durations, quality_incidents,
               late_shipments, stockouts, communication_issues, price_changes, auto_blacklists,
               first_seen, last_updated
        FROM supplier_metrics
        ORDER BY supplier_id
    `)
	if err != nil {
		return nil, fmt.Errorf("query supplier metrics: %w", err)
	}
	defer rows.Close()

	var out []tracker.SupplierMetrics
	for rows.Next() {
		var m tracker.SupplierMetrics
		if err := rows.Scan(
			&m.SupplierID,
			&m.TotalOrders,
			&m.SuccessfulOrders,
			&m.ShippingDurations,
			&m.QualityIncidents,
			&m.LateShipments,
			&m.Stockouts,
			&m.CommunicationIssues,
			&m.PriceChanges,
			&m.AutoBlacklists,
			&m.FirstSeen,
			&m.LastUpdated,
		); err != nil {
			return nil, fmt.Errorf("scan supplier metrics: %w", err)
		}
		m.FirstSeen = m.FirstSeen.UTC()
		m.LastUpdated = m.LastUpdated.UTC()
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate supplier metrics: %w", err)
	}
	return out, nil
}

func (r *Repository) loadIncidents(ctx context.Context, cutoff time.Time) ([]tracker.Incident, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, supplier_id, order_id, type, severity, description, impact, occurred_at
        FROM supplier_incidents
        WHERE occurred_at >= $1
        ORDER BY occurred_at ASC, id ASC
    `, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	defer rows.Close()

	var out []tracker.Incident
	for rows.Next() {
		var inc tracker.Incident
		var typ, severity string
		if err := rows.Scan(
			&inc.ID,
			&inc.SupplierID,
			&inc.OrderID,
			&typ,
			&severity,
			&inc.Description,
			&inc.Impact,
			&inc.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		inc.Type = tracker.IncidentType(typ)
		inc.Severity = tracker.Severity(severity)
		inc.Timestamp = inc.Timestamp.UTC()
		out = append(out, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return out, nil
}

func (r *Repository) loadBlacklist(ctx context.Context) ([]tracker.BlacklistEntry, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT supplier_id, reason, severity, blacklisted_at, blacklisted_by, expires_at
        FROM supplier_blacklist
        ORDER BY supplier_id
    `)
	if err != nil {
		return nil, fmt.Errorf("query blacklist: %w", err)
	}
	defer rows.Close()

	var out []tracker.BlacklistEntry
	for rows.Next() {
		var e tracker.BlacklistEntry
		var severity string
		if err := rows.Scan(
			&e.SupplierID,
			&e.Reason,
			&severity,
			&e.BlacklistedAt,
			&e.BlacklistedBy,
			&e.ExpiresAt,
		); err != nil {
			return nil, fmt.Errorf("scan blacklist entry: %w", err)
		}
		e.Severity = tracker.BlacklistSeverity(severity)
		e.BlacklistedAt = e.BlacklistedAt.UTC()
		if e.ExpiresAt != nil {
			t := e.ExpiresAt.UTC()
			e.ExpiresAt = &t
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blacklist: %w", err)
	}
	return out, nil
}
