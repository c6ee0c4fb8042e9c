package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/barcut/internal/jobs"
	"github.com/piwi3910/barcut/internal/metrics"
	"github.com/piwi3910/barcut/internal/model"
	"github.com/piwi3910/barcut/internal/store"
)

type testEnv struct {
	store  *store.Store
	queue  *jobs.Queue
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "barcut.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	q := jobs.NewQueue(s, jobs.Options{}, nil)
	noop := func(ctx context.Context, job model.Job) (any, error) { return nil, nil }
	q.Register(model.JobFullOptimization, noop)
	q.Register(model.JobSingleOptimization, noop)

	inv := model.DefaultInventory()
	inv.UpsertItem(model.CatalogItem{
		ItemCode:      "TUBE-40",
		ValuationRate: 7,
		UOMs:          []model.UOMConversion{{UOM: model.PieceUOM, ConversionFactor: 6}},
	})

	registry := prometheus.NewRegistry()
	emitter := metrics.InitMetricsAndEmitter(registry)
	srv := httptest.NewServer(New(s, q, &inv, WithMetrics(emitter, registry)).Handler())
	t.Cleanup(srv.Close)

	return &testEnv{store: s, queue: q, server: srv}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rd)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/orders/SO-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), `"error"`)

	order := map[string]any{
		"customer": "Acme",
		"items":    []model.OrderItem{{ItemCode: "TUBE-40", Qty: 2}, {ItemCode: "GHOST", Qty: 1}},
	}
	resp, _ = env.do(t, http.MethodPut, "/api/orders/SO-1", order)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = env.do(t, http.MethodPut, "/api/orders/SO-1", order)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/orders/SO-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got struct {
		Name     string                `json:"name"`
		Customer string                `json:"customer"`
		Items    []model.OrderItem     `json:"items"`
		Config   model.OptimizerConfig `json:"config"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Acme", got.Customer)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, model.ConfigVersion, got.Config.Version)

	// The synced config has a profile for every known item code.
	resp, body = env.do(t, http.MethodGet, "/api/orders/SO-1/config", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cfg model.OptimizerConfig
	require.NoError(t, json.Unmarshal(body, &cfg))
	require.Contains(t, cfg.Profiles, "TUBE-40")
	assert.NotContains(t, cfg.Profiles, "GHOST")
	assert.Equal(t, 6000.0, cfg.Profiles["TUBE-40"].StockLengthMM)

	profile := cfg.Profiles["TUBE-40"]
	profile.Parts = []model.ProfilePart{{Length: 1200, Demand: 4}}
	cfg.Profiles["TUBE-40"] = profile
	resp, _ = env.do(t, http.MethodPut, "/api/orders/SO-1/config", cfg)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stored, err := env.store.GetOrder(context.Background(), "SO-1")
	require.NoError(t, err)
	assert.Equal(t, 4, stored.Config().Profiles["TUBE-40"].TotalPieces())

	resp, _ = env.do(t, http.MethodPut, "/api/orders/SO-1/config", `{"version":"1.0","profiles":{}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = env.do(t, http.MethodPut, "/api/orders/SO-404/config", model.NewOptimizerConfig())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEnqueueFullOptimization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, _ := env.do(t, http.MethodPost, "/api/orders/SO-1/optimize", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, env.store.SaveOrder(ctx, &model.Order{Name: "SO-1"}))

	encoded, err := model.NewOptimizerConfig().Encode()
	require.NoError(t, err)
	resp, body := env.do(t, http.MethodPost, "/api/orders/SO-1/optimize",
		map[string]any{"config": encoded}, UserHeader, "alice")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out jobResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.JobID)

	job, err := env.store.GetJob(ctx, out.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFullOptimization, job.Kind)
	assert.Equal(t, "alice", job.User)
	var payload model.FullOptimizationPayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, "SO-1", payload.OrderName)
	assert.NotNil(t, payload.Config)

	// Without a body the stored config is used.
	resp, _ = env.do(t, http.MethodPost, "/api/orders/SO-1/optimize", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/orders/SO-1/optimize", map[string]any{"config": "{"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/jobs/"+out.JobID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"queued","output":null}`, string(body))

	resp, _ = env.do(t, http.MethodGet, "/api/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEnqueueSingleOptimization(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/api/optimize", model.SingleOptimizationPayload{
		DocType:         "Cutting Job",
		DocName:         "CJ-1",
		RequestDataJSON: `{"stock_data":{},"parts_data":[]}`,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Contains(t, string(body), "job_id")

	resp, _ = env.do(t, http.MethodPost, "/api/optimize", model.SingleOptimizationPayload{DocType: "Cutting Job"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/optimize", model.SingleOptimizationPayload{
		DocType: "Cutting Job", DocName: "CJ-1", RequestDataJSON: "not json",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/optimize", "{")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAttachmentsAndAlerts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	att := &model.Attachment{
		DocType:     jobs.OrderDocType,
		DocName:     "SO-1",
		FileName:    "1D-Cut-Plan_SO-1_2024-01-01_00-00-00.pdf",
		ContentType: "application/pdf",
		Private:     true,
		Content:     []byte("%PDF-1.3 test"),
	}
	require.NoError(t, env.store.AddAttachment(ctx, att))
	_, err := env.store.AddAlert(ctx, "alice", "Optimization complete.")
	require.NoError(t, err)

	resp, body := env.do(t, http.MethodGet, "/api/orders/SO-1/attachments", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var atts []model.Attachment
	require.NoError(t, json.Unmarshal(body, &atts))
	require.Len(t, atts, 1)
	assert.Equal(t, att.ID, atts[0].ID)

	resp, body = env.do(t, http.MethodGet, "/api/orders/SO-2/attachments", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, body = env.do(t, http.MethodGet, "/api/attachments/"+att.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), att.FileName)
	assert.Equal(t, att.Content, body)

	resp, _ = env.do(t, http.MethodGet, "/api/attachments/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/users/alice/alerts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var alerts []model.Alert
	require.NoError(t, json.Unmarshal(body, &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, "Optimization complete.", alerts[0].Message)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/healthz", nil)
	env.do(t, http.MethodGet, "/api/jobs/missing", nil)

	resp, body := env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `barcut_http_requests_total{code="2xx",method="GET",route="/healthz"} 1`)
	assert.Contains(t, string(body), `barcut_http_requests_total{code="4xx",method="GET",route="/api/jobs/{id}"} 1`)
}
