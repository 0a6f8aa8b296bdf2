package app

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evsales/internal/config"
	"evsales/internal/shared/testutil"
)

const salesCSV = `Year,Month,Region,Model,Estimated_Deliveries,Production_Units,Avg_Price_USD,Battery_Capacity_kWh,Range_km,Charging_Stations
2023,1,US,Model 3,1000,1200,45000.5,75,500,10
2023,1,Europe,Model Y,500,400,50000,80,520,5
2023,2,US,Model 3,1500,1500,46000,76,505,12
`

func newTestApp(t *testing.T, mutate func(*config.Config)) (*Application, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sales.csv"), []byte(salesCSV), 0644))

	cfg := config.Default()
	cfg.Input.Path = "sales.csv"
	cfg.Server.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}
	logger, _ := testutil.NewTestLogger(t)

	application, err := NewApplication(cfg, logger, Options{BaseDir: dir, TraceOut: io.Discard})
	require.NoError(t, err)
	srv := httptest.NewServer(application.Router)
	t.Cleanup(func() {
		srv.Close()
		_ = application.OTelProviders.Shutdown(context.Background())
	})
	return application, srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestApplication_Routes(t *testing.T) {
	_, srv := newTestApp(t, nil)

	tests := []struct {
		name        string
		path        string
		status      int
		contentType string
		contains    string
	}{
		{"index", "/", http.StatusOK, "text/html", "EV Sales Viewer"},
		{"liveness", "/healthz", http.StatusOK, "application/json", `"alive"`},
		{"readiness", "/readyz", http.StatusOK, "application/json", `"ready"`},
		{"dataset", "/api/dataset", http.StatusOK, "application/json", `"rows":3`},
		{"regions", "/api/regions", http.StatusOK, "application/json", `["Europe","US"]`},
		{"analysis", "/api/analyses/monthly-deliveries?region=US", http.StatusOK, "application/json", `"values":[1000,1500]`},
		{"unknown analysis", "/api/analyses/nope", http.StatusNotFound, "application/json", `"NOT_FOUND"`},
		{"unknown region", "/api/analyses/model-share?region=Mars", http.StatusNotFound, "application/json", `region \"Mars\" not found`},
		{"chart", "/charts/production-vs-deliveries", http.StatusOK, "text/html", "Production vs Deliveries"},
		{"no artifacts yet", "/artifacts", http.StatusOK, "application/json", `"count":0`},
		{"bad artifact kind", "/artifacts?kind=pdf", http.StatusBadRequest, "application/json", `"INVALID_QUERY"`},
		{"artifact pattern outside dir", "/artifacts?pattern=../*", http.StatusBadRequest, "application/json", `"pattern"`},
		{"unknown route", "/nowhere", http.StatusNotFound, "application/json", `"/errors/not-found"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, srv.URL+tt.path)
			assert.Equal(t, tt.status, resp.StatusCode, body)
			assert.Contains(t, resp.Header.Get("Content-Type"), tt.contentType)
			assert.Contains(t, body, tt.contains)
			assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		})
	}
}

func TestApplication_Artifacts(t *testing.T) {
	application, srv := newTestApp(t, nil)
	require.NoError(t, os.MkdirAll(application.Paths.ExportDir, 0755))
	require.NoError(t, os.MkdirAll(application.Paths.ChartsDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(application.Paths.ExportDir, "tesla_us.csv"), []byte("Year\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(application.Paths.ChartsDir, "model-share.png"), []byte("png"), 0644))

	resp, body := get(t, srv.URL+"/artifacts")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var payload struct {
		Count int `json:"count"`
		Data  []struct {
			Name string `json:"name"`
			Kind string `json:"kind"`
			Path string `json:"path"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Equal(t, 2, payload.Count)
	assert.Equal(t, "tesla_us.csv", payload.Data[0].Name)
	assert.Equal(t, "csv", payload.Data[0].Kind)
	assert.Empty(t, payload.Data[0].Path)

	_, body = get(t, srv.URL+"/artifacts?kind=chart")
	assert.Contains(t, body, `"model-share.png"`)
	assert.NotContains(t, body, "tesla_us.csv")

	_, body = get(t, srv.URL+"/artifacts?pattern=tesla_*")
	assert.Contains(t, body, `"count":1`)
	assert.Contains(t, body, `"tesla_us.csv"`)

	resp, body = get(t, srv.URL+"/artifacts?pattern=%5B")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	assert.Contains(t, body, `"INVALID_QUERY"`)
}

func TestApplication_ReloadDataset(t *testing.T) {
	application, srv := newTestApp(t, nil)
	path := application.Paths.InputFile

	_, body := get(t, srv.URL+"/api/dataset")
	assert.Contains(t, body, `"rows":3`)

	// same modification time, so only an explicit reload sees the new row
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(salesCSV+"2023,3,US,Model 3,900,950,44000,75,500,14\n"), 0644))
	require.NoError(t, os.Chtimes(path, info.ModTime(), info.ModTime()))

	_, body = get(t, srv.URL+"/api/dataset")
	assert.Contains(t, body, `"rows":3`)

	resp, err := http.Post(srv.URL+"/api/dataset/reload", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Contains(t, string(data), `"rows":4`)
}

func TestApplication_MethodNotAllowed(t *testing.T) {
	_, srv := newTestApp(t, nil)

	resp, err := http.Post(srv.URL+"/api/regions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	var problem map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	assert.Equal(t, "/errors/method-not-allowed", problem["type"])
}

func TestApplication_Metrics(t *testing.T) {
	_, srv := newTestApp(t, nil)

	get(t, srv.URL+"/api/analyses/average-price")
	get(t, srv.URL+"/charts/model-share")

	resp, body := get(t, srv.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "analyses_total")
	assert.Contains(t, body, "rows_loaded_total")
	assert.Contains(t, body, "charts_rendered_total")
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `route="/api/analyses/{kind}"`)
}

func TestApplication_MetricsDisabled(t *testing.T) {
	_, srv := newTestApp(t, func(c *config.Config) { c.Telemetry.Metrics = "none" })

	resp, _ := get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestApplication_RateLimit(t *testing.T) {
	_, srv := newTestApp(t, func(c *config.Config) {
		c.Server.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	})

	resp, _ := get(t, srv.URL+"/api/regions")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := get(t, srv.URL+"/api/regions")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "RATE_LIMITED")

	// health checks are not limited
	resp, _ = get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestApplication_MissingDataset(t *testing.T) {
	_, srv := newTestApp(t, func(c *config.Config) { c.Input.Path = "gone.csv" })

	resp, _ := get(t, srv.URL+"/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, body := get(t, srv.URL+"/api/regions")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "gone.csv")
}

func TestApplication_ServeAndStop(t *testing.T) {
	application, _ := newTestApp(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- application.Serve(ln) }()

	resp, _ := get(t, "http://"+ln.Addr().String()+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, application.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestApplication_ServerTimeouts(t *testing.T) {
	application, _ := newTestApp(t, nil)
	assert.Equal(t, application.Config.Server.ReadTimeout, application.Server.ReadTimeout)
	assert.Equal(t, application.Config.Server.WriteTimeout, application.Server.WriteTimeout)
	assert.Equal(t, application.Config.Server.IdleTimeout, application.Server.IdleTimeout)
	assert.Equal(t, application.Config.Server.Addr, application.Server.Addr)
}
