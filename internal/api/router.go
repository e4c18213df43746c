package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/httpx"
	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/tracker"
)

const defaultIncidentDays = 7

// Service is the part of the tracker the HTTP surface needs.
type Service interface {
	TrackOrder(ctx context.Context, in tracker.OrderOutcome) error
	ReportIncident(ctx context.Context, in tracker.IncidentInput) (string, error)
	GetRecentIncidents(supplierID string, days int) []tracker.Incident
	GetSupplierRankings() []tracker.Ranking
	GetSuppliersByTier() tracker.TierGroups
	GetActiveSuppliers() []string
	GetSupplierReport(supplierID string) *tracker.SupplierReport
	ResetSupplier(ctx context.Context, supplierID string) error
	IsBlacklisted(supplierID string) *tracker.BlacklistEntry
	BlacklistSupplier(ctx context.Context, req tracker.BlacklistRequest) error
	RemoveFromBlacklist(ctx context.Context, supplierID string) (bool, error)
	ListBlacklistEntries() []tracker.BlacklistEntry
}

type handler struct {
	svc    Service
	logger *zap.Logger
}

// NewRouter wires the tracker routes. metrics may be nil when exposition is served elsewhere.
func NewRouter(svc Service, logger *zap.Logger, metrics http.Handler) http.Handler {
	h := &handler{svc: svc, logger: logger}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(15 * time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "tracker-api"})
	})
	if metrics != nil {
		router.Method(http.MethodGet, "/metrics", metrics)
	}

	router.Route("/v1", func(r chi.Router) {
		r.Post("/orders", h.trackOrder)
		r.Post("/incidents", h.reportIncident)
		r.Get("/incidents", h.recentIncidents)

		r.Get("/suppliers/rankings", h.rankings)
		r.Get("/suppliers/tiers", h.tiers)
		r.Get("/suppliers/active", h.active)
		r.Get("/suppliers/{id}/report", h.report)
		r.Post("/suppliers/{id}/reset", h.reset)

		r.Get("/suppliers/{id}/blacklist", h.blacklistStatus)
		r.Put("/suppliers/{id}/blacklist", h.blacklist)
		r.Delete("/suppliers/{id}/blacklist", h.unblacklist)
		r.Get("/blacklist", h.listBlacklist)
	})

	return router
}

func (h *handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	var in tracker.OrderOutcome
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.TrackOrder(r.Context(), in); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusAccepted, map[string]any{"accepted": true})
}

func (h *handler) reportIncident(w http.ResponseWriter, r *http.Request) {
	var in tracker.IncidentInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := h.svc.ReportIncident(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *handler) recentIncidents(w http.ResponseWriter, r *http.Request) {
	supplierID := strings.TrimSpace(r.URL.Query().Get("supplier"))
	days, err := parseDays(r.URL.Query().Get("days"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": h.svc.GetRecentIncidents(supplierID, days)})
}

func (h *handler) rankings(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": h.svc.GetSupplierRankings()})
}

func (h *handler) tiers(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.svc.GetSuppliersByTier())
}

func (h *handler) active(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": h.svc.GetActiveSuppliers()})
}

func (h *handler) report(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report := h.svc.GetSupplierReport(id)
	if report == nil {
		h.fail(w, r, &tracker.NotFoundError{SupplierID: id})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

func (h *handler) reset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.ResetSupplier(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"supplier_id": id, "reset": true})
}

func (h *handler) blacklistStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	entry := h.svc.IsBlacklisted(id)
	if entry == nil {
		httpx.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "supplier " + strconv.Quote(id) + " is not blacklisted"})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, entry)
}

func (h *handler) blacklist(w http.ResponseWriter, r *http.Request) {
	var req tracker.BlacklistRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.SupplierID = chi.URLParam(r, "id")
	if err := h.svc.BlacklistSupplier(r.Context(), req); err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.svc.IsBlacklisted(req.SupplierID))
}

func (h *handler) unblacklist(w http.ResponseWriter, r *http.Request) {
	removed, err := h.svc.RemoveFromBlacklist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

func (h *handler) listBlacklist(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": h.svc.ListBlacklistEntries()})
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !tracker.IsValidation(err) && !tracker.IsNotFound(err) {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	httpx.WriteError(w, err)
}

func decode(r *http.Request, dst any) error {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		return &tracker.ValidationError{Field: "body", Message: err.Error()}
	}
	return nil
}

func parseDays(raw string) (int, error) {
	if raw == "" {
		return defaultIncidentDays, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &tracker.ValidationError{Field: "days", Message: "must be an integer"}
	}
	return n, nil
}
