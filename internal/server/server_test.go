package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/foldview/foldview/pkg/store"
)

const sampleDocument = `{
  "name": "payments",
  "nodes": [
    {"id": "api", "label": "API"},
    {"id": "worker", "label": "Worker"},
    {"id": "db", "label": "Database"}
  ],
  "edges": [
    {"id": "e1", "source": "api", "target": "worker"},
    {"id": "e2", "source": "worker", "target": "db"}
  ],
  "containers": [
    {"id": "backend", "label": "Backend", "children": ["api", "worker"]}
  ]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := New(Options{Store: store.NewMemoryStore()})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	fields := map[string]json.RawMessage{}
	if buf.Len() > 0 {
		if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
			t.Fatalf("decode body %q: %v", buf.String(), err)
		}
	}
	return resp, fields
}

func loadSample(t *testing.T, ts *httptest.Server) {
	t.Helper()
	resp, _ := doRequest(t, ts, http.MethodPost, "/api/document", sampleDocument)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load document: status %d", resp.StatusCode)
	}
}

func decodeView(t *testing.T, fields map[string]json.RawMessage) (nodes, containers, edges []map[string]any) {
	t.Helper()
	for key, dst := range map[string]*[]map[string]any{
		"nodes": &nodes, "containers": &containers, "edges": &edges,
	} {
		if err := json.Unmarshal(fields[key], dst); err != nil {
			t.Fatalf("decode %s: %v", key, err)
		}
	}
	return nodes, containers, edges
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, fields := doRequest(t, ts, http.MethodGet, "/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if string(fields["status"]) != `"ok"` {
		t.Errorf("status field = %s", fields["status"])
	}
}

func TestLoadDocumentAndView(t *testing.T) {
	ts := newTestServer(t)
	loadSample(t, ts)

	resp, fields := doRequest(t, ts, http.MethodGet, "/api/view", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("view: status %d", resp.StatusCode)
	}
	nodes, containers, edges := decodeView(t, fields)
	if len(nodes) != 3 || len(containers) != 1 || len(edges) != 2 {
		t.Errorf("view = %d nodes / %d containers / %d edges, want 3/1/2",
			len(nodes), len(containers), len(edges))
	}
}

func TestLoadDocumentRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)
	resp, fields := doRequest(t, ts, http.MethodPost, "/api/document",
		`{"nodes": [{"id": "a"}]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var errBody struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(fields["error"], &errBody); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errBody.Code != "INVALID_DOCUMENT" {
		t.Errorf("error code = %q, want INVALID_DOCUMENT", errBody.Code)
	}
}

func TestCollapseAndExpand(t *testing.T) {
	ts := newTestServer(t)
	loadSample(t, ts)

	resp, fields := doRequest(t, ts, http.MethodPost, "/api/containers/backend/collapse", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("collapse: status %d", resp.StatusCode)
	}
	nodes, _, edges := decodeView(t, fields)
	if len(nodes) != 1 {
		t.Errorf("visible nodes after collapse = %d, want 1 (db)", len(nodes))
	}
	if len(edges) != 1 {
		t.Fatalf("visible edges after collapse = %d, want 1 aggregate", len(edges))
	}
	if agg, _ := edges[0]["aggregated"].(bool); !agg {
		t.Error("surviving edge is not aggregated")
	}

	resp, fields = doRequest(t, ts, http.MethodPost, "/api/containers/backend/expand", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expand: status %d", resp.StatusCode)
	}
	nodes, _, edges = decodeView(t, fields)
	if len(nodes) != 3 || len(edges) != 2 {
		t.Errorf("view after expand = %d nodes / %d edges, want 3/2", len(nodes), len(edges))
	}
}

func TestExpandHiddenContainerFails(t *testing.T) {
	ts := newTestServer(t)
	resp, _ := doRequest(t, ts, http.MethodPost, "/api/document", `{
  "nodes": [{"id": "n1", "label": "N1"}],
  "containers": [
    {"id": "outer", "label": "Outer", "children": ["inner"], "collapsed": true},
    {"id": "inner", "label": "Inner", "children": ["n1"]}
  ]
}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load: status %d", resp.StatusCode)
	}

	resp, _ = doRequest(t, ts, http.MethodPost, "/api/containers/inner/expand", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expand hidden: status %d, want 400", resp.StatusCode)
	}
}

func TestSearchExpansions(t *testing.T) {
	ts := newTestServer(t)
	loadSample(t, ts)

	if resp, _ := doRequest(t, ts, http.MethodPost, "/api/containers/backend/collapse", ""); resp.StatusCode != http.StatusOK {
		t.Fatal("collapse failed")
	}
	if resp, _ := doRequest(t, ts, http.MethodPost, "/api/containers/backend/expand-for-search", ""); resp.StatusCode != http.StatusOK {
		t.Fatal("expand-for-search failed")
	}

	_, fields := doRequest(t, ts, http.MethodGet, "/api/search-expansions", "")
	var ids struct {
		Expanded []string `json:"expanded_for_search"`
	}
	body, _ := json.Marshal(fields)
	if err := json.Unmarshal(body, &ids); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ids.Expanded) != 1 || ids.Expanded[0] != "backend" {
		t.Errorf("expanded_for_search = %v, want [backend]", ids.Expanded)
	}

	if resp, _ := doRequest(t, ts, http.MethodDelete, "/api/search-expansions", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatal("clear failed")
	}
	_, fields = doRequest(t, ts, http.MethodGet, "/api/search-expansions", "")
	if string(fields["expanded_for_search"]) != "[]" && string(fields["expanded_for_search"]) != "null" {
		t.Errorf("expanded_for_search after clear = %s", fields["expanded_for_search"])
	}
}

func TestSmartCollapseEndpoint(t *testing.T) {
	ts := newTestServer(t)
	loadSample(t, ts)

	resp, fields := doRequest(t, ts, http.MethodPost, "/api/smart-collapse", `{"budget": 100000}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("smart-collapse: status %d", resp.StatusCode)
	}
	if string(fields["applied"]) != "true" {
		t.Errorf("applied = %s, want true", fields["applied"])
	}
}

func TestSmartCollapseAfterUserOperation(t *testing.T) {
	ts := newTestServer(t)
	loadSample(t, ts)

	if resp, _ := doRequest(t, ts, http.MethodPost, "/api/containers/backend/collapse", ""); resp.StatusCode != http.StatusOK {
		t.Fatal("collapse failed")
	}
	resp, fields := doRequest(t, ts, http.MethodPost, "/api/smart-collapse", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("smart-collapse: status %d", resp.StatusCode)
	}
	if string(fields["applied"]) != "false" {
		t.Errorf("applied = %s after a user collapse, want false", fields["applied"])
	}

	// Re-arming restores eligibility while no layout has completed.
	_, fields = doRequest(t, ts, http.MethodPost, "/api/smart-collapse/rearm", "")
	if string(fields["eligible"]) != "true" {
		t.Errorf("eligible = %s after rearm, want true", fields["eligible"])
	}
}

func TestLayoutLifecycle(t *testing.T) {
	ts := newTestServer(t)
	loadSample(t, ts)

	_, fields := doRequest(t, ts, http.MethodPost, "/api/layout/begin", "")
	if string(fields["phase"]) != `"laying_out"` {
		t.Errorf("phase = %s, want laying_out", fields["phase"])
	}

	resp, fields := doRequest(t, ts, http.MethodPost, "/api/layout/complete", `{
  "positions": [{"id": "api", "x": 10, "y": 20, "width": 120, "height": 40}]
}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete: status %d", resp.StatusCode)
	}
	if string(fields["phase"]) != `"ready"` || string(fields["layout_count"]) != "1" {
		t.Errorf("layout state = %v, want ready / count 1", fields)
	}

	// The written-back position shows up in the projection.
	_, fields = doRequest(t, ts, http.MethodGet, "/api/view", "")
	nodes, _, _ := decodeView(t, fields)
	for _, n := range nodes {
		if n["id"] == "api" && n["x"] != 10.0 {
			t.Errorf("api.x = %v, want 10", n["x"])
		}
	}

	// A completed layout closes the smart-collapse window for good.
	_, fields = doRequest(t, ts, http.MethodPost, "/api/smart-collapse", "")
	if string(fields["applied"]) != "false" {
		t.Errorf("applied = %s after layout, want false", fields["applied"])
	}
}

func TestLayoutFail(t *testing.T) {
	ts := newTestServer(t)
	loadSample(t, ts)

	_, fields := doRequest(t, ts, http.MethodPost, "/api/layout/fail", `{"message": "solver diverged"}`)
	if string(fields["phase"]) != `"error"` {
		t.Errorf("phase = %s, want error", fields["phase"])
	}
	if string(fields["last_error"]) != `"solver diverged"` {
		t.Errorf("last_error = %s", fields["last_error"])
	}

	// A failed pass does not consume the first-layout window.
	_, fields = doRequest(t, ts, http.MethodPost, "/api/smart-collapse", "")
	if string(fields["applied"]) != "true" {
		t.Errorf("applied = %s after failed layout, want true", fields["applied"])
	}
}

func TestDocumentStoreRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	loadSample(t, ts)

	if resp, _ := doRequest(t, ts, http.MethodPut, "/api/documents/payments", ""); resp.StatusCode != http.StatusOK {
		t.Fatal("save failed")
	}

	_, fields := doRequest(t, ts, http.MethodGet, "/api/documents/", "")
	if string(fields["documents"]) != `["payments"]` {
		t.Errorf("documents = %s, want [payments]", fields["documents"])
	}

	// Mutate the live graph, then reopen the stored version.
	if resp, _ := doRequest(t, ts, http.MethodPost, "/api/containers/backend/collapse", ""); resp.StatusCode != http.StatusOK {
		t.Fatal("collapse failed")
	}
	if resp, _ := doRequest(t, ts, http.MethodPost, "/api/documents/payments/open", ""); resp.StatusCode != http.StatusOK {
		t.Fatal("open failed")
	}
	_, fields = doRequest(t, ts, http.MethodGet, "/api/view", "")
	nodes, _, _ := decodeView(t, fields)
	if len(nodes) != 3 {
		t.Errorf("visible nodes after reopen = %d, want 3", len(nodes))
	}

	if resp, _ := doRequest(t, ts, http.MethodDelete, "/api/documents/payments", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatal("delete failed")
	}
	if resp, _ := doRequest(t, ts, http.MethodGet, "/api/documents/payments", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("get deleted: status %d, want 404", resp.StatusCode)
	}
}
