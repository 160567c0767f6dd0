package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/soletrack/soletrack-backend/internal/pipeline"
	"github.com/soletrack/soletrack-backend/pkg/config"
	pkgerrors "github.com/soletrack/soletrack-backend/pkg/errors"
	"github.com/soletrack/soletrack-backend/pkg/logger"
	"github.com/soletrack/soletrack-backend/pkg/storage/gcs"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubReader struct {
	objects map[string][]byte
}

func (s *stubReader) ReadObject(_ context.Context, name string) ([]byte, error) {
	body, ok := s.objects[name]
	if !ok {
		return nil, gcs.ErrObjectNotFound
	}
	return body, nil
}

type stubRunner struct {
	summary *pipeline.Summary
	err     error
	runs    int
}

func (s *stubRunner) Run(context.Context) (*pipeline.Summary, error) {
	s.runs++
	if s.err != nil {
		return nil, s.err
	}
	return s.summary, nil
}

func newTestRouter(reader *stubReader, runner *stubRunner) http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(cfg, logg, nil, stubPinger{}, reader, runner)
}

func TestHealthEndpoints(t *testing.T) {
	server := httptest.NewServer(newTestRouter(&stubReader{}, &stubRunner{}))
	defer server.Close()

	for _, path := range []string{"/healthz/live", "/healthz/ready"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s: status %d", path, resp.StatusCode)
		}
		if env := resp.Header.Get("X-SoleTrack-Env"); env != "test" {
			t.Fatalf("missing env header, got %q", env)
		}
		_ = resp.Body.Close()
	}
}

func TestArtifactEndpointServesStoredBytes(t *testing.T) {
	reader := &stubReader{objects: map[string][]byte{
		"deals.json": []byte(`{"totalDeals":5}`),
	}}
	server := httptest.NewServer(newTestRouter(reader, &stubRunner{}))
	defer server.Close()

	resp, err := http.Get(server.URL + "/v1/artifacts/deals")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), `"totalDeals":5`) {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestArtifactEndpointNotFound(t *testing.T) {
	server := httptest.NewServer(newTestRouter(&stubReader{}, &stubRunner{}))
	defer server.Close()

	resp, err := http.Get(server.URL + "/v1/artifacts/stats")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestTriggerAggregationReturnsSummary(t *testing.T) {
	runner := &stubRunner{summary: &pipeline.Summary{
		TotalDeals:   5,
		DealsByStore: map[string]int{"Source A": 5},
	}}
	server := httptest.NewServer(newTestRouter(&stubReader{}, runner))
	defer server.Close()

	resp, err := http.Post(server.URL+"/v1/aggregation/run", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if runner.runs != 1 {
		t.Fatalf("expected 1 run, got %d", runner.runs)
	}
	if !strings.Contains(string(body), `"totalDeals":5`) {
		t.Fatalf("expected run summary in response: %s", body)
	}
}

func TestTriggerAggregationConflict(t *testing.T) {
	runner := &stubRunner{err: pkgerrors.New(pkgerrors.CodeConflict, "aggregation run already in flight")}
	server := httptest.NewServer(newTestRouter(&stubReader{}, runner))
	defer server.Close()

	resp, err := http.Post(server.URL+"/v1/aggregation/run", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusConflict {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 409, got %d: %s", resp.StatusCode, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := httptest.NewServer(newTestRouter(&stubReader{}, &stubRunner{}))
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
