package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/exprgraph/internal/config"
	"github.com/matzehuels/exprgraph/pkg/cache"
	"github.com/matzehuels/exprgraph/pkg/model"
	"github.com/matzehuels/exprgraph/pkg/render"
)

func newTestServer(t *testing.T, run bool) *httptest.Server {
	t.Helper()
	c := newTestCLI(t, config.Config{})
	ctx := context.Background()
	b, err := c.loadModel(ctx, knapsack)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := b.Graph.NewState()
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if run {
		if _, err := b.Run(ctx, s); err != nil {
			t.Fatalf("run: %v", err)
		}
	}
	srv := httptest.NewServer(c.newInspectHandler(b, s, prometheus.NewRegistry(), cache.NewNullCache()))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return resp.StatusCode, string(body)
}

func TestInspectHandler(t *testing.T) {
	srv := newTestServer(t, false)

	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/healthz", http.StatusOK, "ok"},
		{"/metrics", http.StatusOK, ""},
		{"/graph.dot", http.StatusOK, "digraph G {"},
		{"/graph.dot?detailed", http.StatusOK, "integral: true"},
		{"/nodes", http.StatusOK, `"edges"`},
		{"/nodes/take", http.StatusOK, `"kind": "variable"`},
		{"/nodes/nope", http.StatusNotFound, `unknown node "nope"`},
		{"/missing", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := get(t, srv, tt.path)
			if status != tt.status {
				t.Fatalf("status = %d, want %d", status, tt.status)
			}
			if !strings.Contains(body, tt.want) {
				t.Errorf("body missing %q:\n%s", tt.want, body)
			}
		})
	}
}

func TestInspectHandler_Values(t *testing.T) {
	srv := newTestServer(t, true)

	_, body := get(t, srv, "/nodes/gain")
	var n model.NodeValue
	if err := json.Unmarshal([]byte(body), &n); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if n.Name != "gain" || len(n.Values) != 1 || n.Values[0] != 7 {
		t.Errorf("gain = %+v, want value 7", n)
	}

	_, body = get(t, srv, "/nodes")
	var doc render.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Nodes) != 9 || len(doc.Edges) != 8 {
		t.Errorf("got %d nodes and %d edges, want 9 and 8", len(doc.Nodes), len(doc.Edges))
	}
}

func TestListenAndServe_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}

	done := make(chan error, 1)
	go func() { done <- listenAndServe(ctx, srv) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("listenAndServe: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServe_BadAddr(t *testing.T) {
	srv := &http.Server{Addr: "256.0.0.1:bad", Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
	if err := listenAndServe(context.Background(), srv); err == nil {
		t.Fatal("expected listen error")
	}
}
