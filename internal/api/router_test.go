package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/tracker"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type failingStore struct{}

func (failingStore) Commit(context.Context, tracker.Change) error {
	return errors.New("database unavailable")
}

func newTestServer(t *testing.T, opts ...tracker.Option) (*httptest.Server, *tracker.Tracker) {
	t.Helper()
	opts = append([]tracker.Option{tracker.WithClock(func() time.Time { return testNow })}, opts...)
	tr, err := tracker.New(tracker.DefaultConfig(), opts...)
	require.NoError(t, err)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	srv := httptest.NewServer(NewRouter(tr, zap.NewNop(), metrics))
	t.Cleanup(srv.Close)
	return srv, tr
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	}
	return resp, payload
}

func TestHealthzAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])

	resp, _ = do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOrders_AcceptedAndReported(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := do(t, srv, http.MethodPost, "/v1/orders", `{"supplier_id":"acme","order_id":"o1","success":true,"shipping_days":4}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp, _ = do(t, srv, http.MethodPost, "/v1/orders", `{"supplier_id":"acme","order_id":"o2","success":false}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, report := do(t, srv, http.MethodGet, "/v1/suppliers/acme/report", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), report["total_orders"])
	assert.Equal(t, float64(1), report["successful_orders"])
	assert.Equal(t, float64(50), report["success_rate"])
	assert.Equal(t, "active", report["standing"])
}

func TestOrders_RejectsBadInput(t *testing.T) {
	srv, tr := newTestServer(t)

	cases := map[string]string{
		"missing supplier": `{"order_id":"o1","success":true}`,
		"zero shipping":    `{"supplier_id":"acme","order_id":"o1","shipping_days":0}`,
		"unknown field":    `{"supplier_id":"acme","order_id":"o1","price":3}`,
		"malformed":        `{"supplier_id":`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, payload := do(t, srv, http.MethodPost, "/v1/orders", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, payload["error"])
		})
	}
	assert.Nil(t, tr.GetSupplierReport("acme"))
}

func TestIncidents_CriticalBlacklistLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, created := do(t, srv, http.MethodPost, "/v1/incidents",
		`{"supplier_id":"acme","order_id":"o9","type":"quality_issue","severity":"critical","description":"contaminated batch","impact":9}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, created["id"])

	resp, entry := do(t, srv, http.MethodGet, "/v1/suppliers/acme/blacklist", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "suspension", entry["severity"])
	assert.Equal(t, tracker.PolicyActor, entry["blacklisted_by"])

	resp, list := do(t, srv, http.MethodGet, "/v1/blacklist", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, list["items"], 1)

	resp, incidents := do(t, srv, http.MethodGet, "/v1/incidents?supplier=acme", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, incidents["items"], 1)

	resp, removed := do(t, srv, http.MethodDelete, "/v1/suppliers/acme/blacklist", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, removed["removed"])

	resp, _ = do(t, srv, http.MethodGet, "/v1/suppliers/acme/blacklist", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, removed = do(t, srv, http.MethodDelete, "/v1/suppliers/acme/blacklist", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, removed["removed"])
}

func TestIncidents_QueryValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, all := do(t, srv, http.MethodGet, "/v1/incidents", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, all["items"])

	resp, _ = do(t, srv, http.MethodGet, "/v1/incidents?supplier=acme&days=soon", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, srv, http.MethodGet, "/v1/incidents?supplier=acme&days=0", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])

	resp, _ = do(t, srv, http.MethodPost, "/v1/incidents",
		`{"supplier_id":"acme","order_id":"o1","type":"lost_parcel","severity":"low","impact":2}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestManualBlacklist(t *testing.T) {
	srv, tr := newTestServer(t)

	resp, _ := do(t, srv, http.MethodPut, "/v1/suppliers/acme/blacklist",
		`{"reason":"fraud","severity":"permanent","expires_at":"2026-06-01T00:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, entry := do(t, srv, http.MethodPut, "/v1/suppliers/acme/blacklist",
		`{"reason":"fraud under review","severity":"suspension","blacklisted_by":"ops"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ops", entry["blacklisted_by"])
	require.NotNil(t, tr.IsBlacklisted("acme"))
	assert.Equal(t, testNow.Add(30*24*time.Hour), *tr.IsBlacklisted("acme").ExpiresAt)

	resp, active := do(t, srv, http.MethodGet, "/v1/suppliers/active", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, active["items"])
}

func TestRankingsAndTiers(t *testing.T) {
	srv, tr := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, tr.TrackOrder(ctx, tracker.OrderOutcome{SupplierID: "b", OrderID: "1", Success: true}))
	require.NoError(t, tr.TrackOrder(ctx, tracker.OrderOutcome{SupplierID: "a", OrderID: "2", Success: true}))
	require.NoError(t, tr.TrackOrder(ctx, tracker.OrderOutcome{SupplierID: "c", OrderID: "3", Success: false}))

	resp, err := srv.Client().Get(srv.URL + "/v1/suppliers/rankings")
	require.NoError(t, err)
	defer resp.Body.Close()
	var rankings struct {
		Items []tracker.Ranking `json:"items"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rankings))
	require.Len(t, rankings.Items, 3)
	assert.Equal(t, "a", rankings.Items[0].SupplierID)
	assert.Equal(t, "b", rankings.Items[1].SupplierID)
	assert.Equal(t, "c", rankings.Items[2].SupplierID)

	resp2, err := srv.Client().Get(srv.URL + "/v1/suppliers/tiers")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var tiers tracker.TierGroups
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&tiers))
	assert.Equal(t, []string{"a", "b"}, tiers.Elite)
	assert.Equal(t, []string{"c"}, tiers.Good)
	assert.Empty(t, tiers.Poor)
}

func TestReportAndResetUnknownSupplier(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, srv, http.MethodGet, "/v1/suppliers/ghost/report", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "ghost")

	resp, _ = do(t, srv, http.MethodPost, "/v1/suppliers/ghost/reset", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStoreFailureIsInternalError(t *testing.T) {
	srv, tr := newTestServer(t, tracker.WithStore(failingStore{}))

	resp, body := do(t, srv, http.MethodPost, "/v1/orders", `{"supplier_id":"acme","order_id":"o1","success":true}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal error", body["error"])
	assert.Nil(t, tr.GetSupplierReport("acme"))
}
