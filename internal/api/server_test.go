package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danmuck/kitchenctl/internal/testutil/testlog"
)

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	testlog.Start(t)
	s := New("kitchenctl-test", ":0", nil)

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health: %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "kitchenctl_http_requests_total") {
		t.Fatalf("unexpected metrics: %d", rec.Code)
	}
}

func TestPlanEndpoint(t *testing.T) {
	s := New("kitchenctl-test", ":0", nil)
	rec := doJSON(t, s, http.MethodPost, "/v1/plan", PlanRequest{
		Instance: "web-1",
		Provisioner: map[string]any{
			"root_path": "/tmp/kitchen",
			"log_level": "info",
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d %s", rec.Code, rec.Body.String())
	}

	var resp PlanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{
		"--config /tmp/kitchen/client.rb",
		"--log_level info",
		"--force-formatter",
		"--no-color",
		"--json-attributes /tmp/kitchen/dna.json",
	}
	if strings.Join(resp.RunArgs, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected run args: %q", resp.RunArgs)
	}
	if resp.Prepare != "sudo -E sh -c 'cd /tmp/kitchen && knife upload * --config /tmp/kitchen/client.rb'" {
		t.Fatalf("unexpected prepare: %q", resp.Prepare)
	}
	if !strings.HasPrefix(resp.ConfigFile, "node_name \"web-1\"\n") {
		t.Fatalf("instance not used as node_name:\n%s", resp.ConfigFile)
	}
	if !strings.Contains(resp.Attributes, `"run_list": []`) {
		t.Fatalf("unexpected attributes: %s", resp.Attributes)
	}
}

func TestPlanEndpointErrors(t *testing.T) {
	s := New("kitchenctl-test", ":0", nil)

	rec := doJSON(t, s, http.MethodPost, "/v1/plan", PlanRequest{Provisioner: map[string]any{}})
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "log_level") {
		t.Fatalf("expected 422 for missing log_level, got %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/v1/plan", PlanRequest{Provisioner: map[string]any{"bogus": 1}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown key, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/plan", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	bad := httptest.NewRecorder()
	s.Handler().ServeHTTP(bad, req)
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", bad.Code)
	}
}

func TestNormalizeOrigins(t *testing.T) {
	got := normalizeOrigins([]string{" ", "https://a.example "})
	if len(got) != 1 || got[0] != "https://a.example" {
		t.Fatalf("unexpected origins: %q", got)
	}
	if def := normalizeOrigins(nil); len(def) != 1 {
		t.Fatalf("expected default origin, got %q", def)
	}
}
