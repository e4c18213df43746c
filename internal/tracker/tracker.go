package tracker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tracker owns all supplier state. A single mutex serialises every call; reads take
// it too because lazy blacklist expiry mutates the registry.
type Tracker struct {
	mu sync.Mutex

	cfg      Config
	scorer   Scorer
	policy   policy
	metrics  *metricsStore
	ledger   *ledger
	registry *registry

	store     Store
	observers []Observer
	now       func() time.Time
	newID     func() string
	logger    *zap.Logger
	snapshot  *Snapshot

	// Events are numbered under mu and delivered strictly in that order.
	seq       uint64
	dispatch  sync.Mutex
	turn      *sync.Cond
	delivered uint64
}

type Option func(*Tracker)

func WithStore(s Store) Option {
	return func(t *Tracker) { t.store = s }
}

func WithObserver(o Observer) Option {
	return func(t *Tracker) { t.observers = append(t.observers, o) }
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

func WithIDGenerator(gen func() string) Option {
	return func(t *Tracker) { t.newID = gen }
}

// WithSnapshot seeds the tracker with previously persisted state. Expired blacklist
// entries are dropped while restoring.
func WithSnapshot(s Snapshot) Option {
	return func(t *Tracker) { t.snapshot = &s }
}

func New(cfg Config, opts ...Option) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tracker config: %w", err)
	}

	t := &Tracker{
		cfg:      cfg,
		scorer:   NewScorer(cfg),
		policy:   policy{cfg: cfg},
		metrics:  newMetricsStore(cfg.ShippingWindow),
		ledger:   newLedger(cfg.IncidentRetention),
		registry: newRegistry(),
		store:    NopStore{},
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		logger:   zap.NewNop(),
	}
	t.turn = sync.NewCond(&t.dispatch)
	for _, opt := range opts {
		opt(t)
	}

	if t.snapshot != nil {
		t.restore(*t.snapshot)
		t.snapshot = nil
	}
	return t, nil
}

func (t *Tracker) restore(s Snapshot) {
	now := t.now()
	for _, m := range s.Metrics {
		if len(m.ShippingDurations) > t.cfg.ShippingWindow {
			m.ShippingDurations = m.ShippingDurations[len(m.ShippingDurations)-t.cfg.ShippingWindow:]
		}
		t.metrics.put(m)
	}
	t.ledger.restore(s.Incidents, now)
	for _, e := range s.Blacklist {
		if !e.expired(now) {
			t.registry.put(e)
		}
	}
	t.logger.Info("tracker state restored",
		zap.Int("suppliers", len(s.Metrics)),
		zap.Int("incidents", len(s.Incidents)),
		zap.Int("blacklist_entries", len(s.Blacklist)),
	)
}

func (t *Tracker) Config() Config {
	return t.cfg
}

func (t *Tracker) TrackOrder(ctx context.Context, in OrderOutcome) error {
	in.SupplierID = strings.TrimSpace(in.SupplierID)
	in.OrderID = strings.TrimSpace(in.OrderID)
	if err := in.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	now := t.now()
	m := t.metrics.getOrZero(in.SupplierID, now)
	m = t.metrics.recordOrder(m, in.Success, in.ShippingDays, now)
	events, err := t.evaluateLocked(ctx, m, nil, now)
	if err != nil {
		t.mu.Unlock()
		return fmt.Errorf("track order %s: %w", in.OrderID, err)
	}

	t.unlockAndNotify(append([]Event{{
		Kind:       EventOrderTracked,
		SupplierID: in.SupplierID,
		At:         now,
		Success:    in.Success,
	}}, events...))
	return nil
}

func (t *Tracker) ReportIncident(ctx context.Context, in IncidentInput) (string, error) {
	in.SupplierID = strings.TrimSpace(in.SupplierID)
	in.OrderID = strings.TrimSpace(in.OrderID)
	if err := in.Validate(); err != nil {
		return "", err
	}

	t.mu.Lock()
	now := t.now()
	inc := Incident{
		ID:          t.newID(),
		SupplierID:  in.SupplierID,
		OrderID:     in.OrderID,
		Type:        in.Type,
		Severity:    in.Severity,
		Description: in.Description,
		Impact:      in.Impact,
		Timestamp:   now,
	}
	m := t.metrics.getOrZero(in.SupplierID, now)
	m = recordIncident(m, in.Type, now)
	events, err := t.evaluateLocked(ctx, m, &inc, now)
	if err != nil {
		t.mu.Unlock()
		return "", fmt.Errorf("report incident: %w", err)
	}

	reported := inc
	t.unlockAndNotify(append([]Event{{
		Kind:       EventIncidentReported,
		SupplierID: inc.SupplierID,
		At:         now,
		Incident:   &reported,
	}}, events...))
	return inc.ID, nil
}

// evaluateLocked runs the policy over the pending metrics (and incident), commits the
// whole change to the store and only then applies it in memory.
func (t *Tracker) evaluateLocked(ctx context.Context, m SupplierMetrics, inc *Incident, now time.Time) ([]Event, error) {
	var events []Event

	incidents := t.ledger.since(m.SupplierID, now.Add(-t.cfg.ScoringWindow))
	if inc != nil {
		incidents = append([]Incident{*inc}, incidents...)
	}
	score := t.scorer.Score(m, incidents, now)

	var current *BlacklistEntry
	entry, ok, expired := t.registry.peek(m.SupplierID, now)
	if ok {
		current = &entry
	}

	m, put := t.policy.escalate(m, current, t.policy.detect(score.Overall, inc), now)

	change := Change{Metrics: &m, Incident: inc, Put: put}
	if err := t.store.Commit(ctx, change); err != nil {
		t.logger.Error("commit supplier change",
			zap.String("supplier_id", m.SupplierID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("commit change: %w", err)
	}

	t.metrics.put(m)
	if inc != nil {
		t.ledger.append(*inc, now)
	}
	if expired {
		t.registry.remove(m.SupplierID)
		events = append(events, Event{Kind: EventExpired, SupplierID: m.SupplierID, At: now})
	}
	if put != nil {
		t.registry.put(*put)
		t.logger.Info("supplier auto-blacklisted",
			zap.String("supplier_id", put.SupplierID),
			zap.String("severity", string(put.Severity)),
			zap.String("reason", put.Reason),
			zap.Int("score", score.Overall),
			zap.Int("strikes", m.AutoBlacklists),
		)
		entry := put.clone()
		events = append(events, Event{Kind: EventBlacklisted, SupplierID: put.SupplierID, At: now, Entry: &entry, Auto: true})
	}

	events = append(events, Event{Kind: EventScored, SupplierID: m.SupplierID, At: now, Score: score.Overall, Tier: score.Tier})
	return events, nil
}

func (t *Tracker) BlacklistSupplier(ctx context.Context, req BlacklistRequest) error {
	req.SupplierID = strings.TrimSpace(req.SupplierID)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := validateInput(req); err != nil {
		return err
	}
	if req.Severity == BlacklistPermanent && req.ExpiresAt != nil {
		return &ValidationError{Field: "expires_at", Message: "must be empty for a permanent blacklist"}
	}
	if req.BlacklistedBy == "" {
		req.BlacklistedBy = "admin"
	}

	t.mu.Lock()
	now := t.now()
	entry := BlacklistEntry{
		SupplierID:    req.SupplierID,
		Reason:        req.Reason,
		Severity:      req.Severity,
		BlacklistedAt: now,
		BlacklistedBy: req.BlacklistedBy,
	}
	if req.ExpiresAt != nil {
		expires := req.ExpiresAt.UTC()
		entry.ExpiresAt = &expires
	} else if req.Severity == BlacklistSuspension {
		expires := now.Add(t.cfg.SuspensionDuration)
		entry.ExpiresAt = &expires
	}

	if err := t.store.Commit(ctx, Change{Put: &entry}); err != nil {
		t.mu.Unlock()
		return fmt.Errorf("blacklist supplier %s: %w", req.SupplierID, err)
	}
	t.registry.put(entry)

	t.logger.Info("supplier blacklisted",
		zap.String("supplier_id", entry.SupplierID),
		zap.String("severity", string(entry.Severity)),
		zap.String("by", entry.BlacklistedBy),
	)
	t.unlockAndNotify([]Event{{Kind: EventBlacklisted, SupplierID: entry.SupplierID, At: now, Entry: &entry}})
	return nil
}

func (t *Tracker) RemoveFromBlacklist(ctx context.Context, supplierID string) (bool, error) {
	supplierID = strings.TrimSpace(supplierID)

	t.mu.Lock()
	now := t.now()
	_, ok, expired := t.registry.lookup(supplierID, now)
	if !ok {
		t.unlockAndNotify(expiredEvents(expired, supplierID, now))
		return false, nil
	}
	if err := t.store.Commit(ctx, Change{Delete: supplierID}); err != nil {
		t.mu.Unlock()
		return false, fmt.Errorf("remove %s from blacklist: %w", supplierID, err)
	}
	t.registry.remove(supplierID)

	t.logger.Info("supplier removed from blacklist", zap.String("supplier_id", supplierID))
	t.unlockAndNotify([]Event{{Kind: EventRemoved, SupplierID: supplierID, At: now}})
	return true, nil
}

// IsBlacklisted returns the active entry or nil. An entry past its expiry is removed
// by this call.
func (t *Tracker) IsBlacklisted(supplierID string) *BlacklistEntry {
	supplierID = strings.TrimSpace(supplierID)

	t.mu.Lock()
	now := t.now()
	entry, ok, expired := t.registry.lookup(supplierID, now)
	t.unlockAndNotify(expiredEvents(expired, supplierID, now))

	if !ok {
		return nil
	}
	return &entry
}

func (t *Tracker) ListBlacklistEntries() []BlacklistEntry {
	t.mu.Lock()
	now := t.now()
	dropped := t.registry.sweep(now)
	entries := t.registry.list()
	t.unlockAndNotify(sweptEvents(dropped, now))
	return entries
}

func (t *Tracker) GetRecentIncidents(supplierID string, days int) []Incident {
	if days <= 0 {
		return []Incident{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-time.Duration(days) * 24 * time.Hour)
	out := t.ledger.since(strings.TrimSpace(supplierID), cutoff)
	if out == nil {
		out = []Incident{}
	}
	return out
}

// CalculateOverallScore scores a metrics snapshot against the ledger entries recorded
// for the same supplier.
func (t *Tracker) CalculateOverallScore(m SupplierMetrics) int {
	m.SupplierID = strings.TrimSpace(m.SupplierID)

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scoreLocked(m, t.now()).Overall
}

func (t *Tracker) scoreLocked(m SupplierMetrics, now time.Time) Breakdown {
	incidents := t.ledger.since(m.SupplierID, now.Add(-t.cfg.ScoringWindow))
	return t.scorer.Score(m, incidents, now)
}

func (t *Tracker) GetSupplierRankings() []Ranking {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rankingsLocked(t.now())
}

func (t *Tracker) rankingsLocked(now time.Time) []Ranking {
	all := t.metrics.all()
	rankings := make([]Ranking, 0, len(all))
	for _, m := range all {
		b := t.scoreLocked(m, now)
		rankings = append(rankings, Ranking{
			SupplierID:  m.SupplierID,
			Score:       b.Overall,
			TotalOrders: m.TotalOrders,
			Tier:        b.Tier,
		})
	}

	sort.Slice(rankings, func(i, j int) bool {
		a, b := rankings[i], rankings[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.TotalOrders != b.TotalOrders {
			return a.TotalOrders > b.TotalOrders
		}
		return a.SupplierID < b.SupplierID
	})
	return rankings
}

func (t *Tracker) GetSuppliersByTier() TierGroups {
	groups := TierGroups{Elite: []string{}, Good: []string{}, Poor: []string{}}
	for _, r := range t.GetSupplierRankings() {
		switch r.Tier {
		case TierElite:
			groups.Elite = append(groups.Elite, r.SupplierID)
		case TierGood:
			groups.Good = append(groups.Good, r.SupplierID)
		default:
			groups.Poor = append(groups.Poor, r.SupplierID)
		}
	}
	return groups
}

func (t *Tracker) GetActiveSuppliers() []string {
	t.mu.Lock()
	now := t.now()
	dropped := t.registry.sweep(now)
	active := []string{}
	for _, r := range t.rankingsLocked(now) {
		if _, ok := t.registry.entries[r.SupplierID]; !ok {
			active = append(active, r.SupplierID)
		}
	}
	t.unlockAndNotify(sweptEvents(dropped, now))
	return active
}

func (t *Tracker) GetSupplierReport(supplierID string) *SupplierReport {
	supplierID = strings.TrimSpace(supplierID)

	t.mu.Lock()
	now := t.now()
	m, ok := t.metrics.get(supplierID)
	if !ok {
		t.mu.Unlock()
		return nil
	}
	entry, blacklisted, expired := t.registry.lookup(supplierID, now)
	b := t.scoreLocked(m, now)
	recent := len(t.ledger.since(supplierID, now.Add(-t.cfg.ScoringWindow)))
	t.unlockAndNotify(expiredEvents(expired, supplierID, now))

	report := &SupplierReport{
		SupplierID:           m.SupplierID,
		TotalOrders:          m.TotalOrders,
		SuccessfulOrders:     m.SuccessfulOrders,
		SuccessRate:          b.SuccessRate,
		AverageShippingDays:  averageShipping(m.ShippingDurations),
		QualityScore:         b.Quality,
		OnTimeDelivery:       b.OnTime,
		CustomerSatisfaction: b.Satisfaction,
		OverallScore:         b.Overall,
		Tier:                 b.Tier,
		Standing:             t.policy.standing(b.Overall, blacklisted),
		QualityIncidents:     m.QualityIncidents,
		LateShipments:        m.LateShipments,
		Stockouts:            m.Stockouts,
		CommunicationIssues:  m.CommunicationIssues,
		PriceChanges:         m.PriceChanges,
		RecentIncidents:      recent,
		LastUpdated:          m.LastUpdated,
	}
	if blacklisted {
		report.Blacklist = &entry
	}
	return report
}

// ResetSupplier zeroes the supplier's counters, samples and strike count. Incidents and
// any blacklist entry are kept.
func (t *Tracker) ResetSupplier(ctx context.Context, supplierID string) error {
	supplierID = strings.TrimSpace(supplierID)

	t.mu.Lock()
	now := t.now()
	m, ok := t.metrics.get(supplierID)
	if !ok {
		t.mu.Unlock()
		return &NotFoundError{SupplierID: supplierID}
	}
	m = resetMetrics(m, now)
	if err := t.store.Commit(ctx, Change{Metrics: &m}); err != nil {
		t.mu.Unlock()
		return fmt.Errorf("reset supplier %s: %w", supplierID, err)
	}
	t.metrics.put(m)
	b := t.scoreLocked(m, now)

	t.logger.Info("supplier metrics reset", zap.String("supplier_id", supplierID))
	t.unlockAndNotify([]Event{
		{Kind: EventReset, SupplierID: supplierID, At: now},
		{Kind: EventScored, SupplierID: supplierID, At: now, Score: b.Overall, Tier: b.Tier},
	})
	return nil
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		Metrics:   t.metrics.all(),
		Incidents: t.ledger.all(),
		Blacklist: t.registry.list(),
	}
}

func expiredEvents(expired bool, supplierID string, now time.Time) []Event {
	if !expired {
		return nil
	}
	return []Event{{Kind: EventExpired, SupplierID: supplierID, At: now}}
}

func sweptEvents(dropped []BlacklistEntry, now time.Time) []Event {
	events := make([]Event, 0, len(dropped))
	for _, e := range dropped {
		events = append(events, Event{Kind: EventExpired, SupplierID: e.SupplierID, At: now})
	}
	return events
}

// unlockAndNotify numbers events while mu is still held, releases mu and then waits
// until every earlier batch has been delivered. Readers are never blocked by a slow
// observer; a later change is only held back from observers, not from being applied.
// Observers must not call back into the tracker.
func (t *Tracker) unlockAndNotify(events []Event) {
	if len(events) == 0 {
		t.mu.Unlock()
		return
	}
	after := t.seq
	for i := range events {
		t.seq++
		events[i].Seq = t.seq
	}
	last := t.seq
	t.mu.Unlock()

	t.dispatch.Lock()
	defer func() {
		t.delivered = last
		t.turn.Broadcast()
		t.dispatch.Unlock()
	}()
	for t.delivered != after {
		t.turn.Wait()
	}
	t.notify(events)
}

func (t *Tracker) notify(events []Event) {
	for _, e := range events {
		if e.Kind == EventExpired {
			t.logger.Info("blacklist entry expired", zap.String("supplier_id", e.SupplierID))
		}
		for _, o := range t.observers {
			o.Observe(e)
		}
	}
}
