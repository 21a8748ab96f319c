package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/exprgraph/internal/config"
	"github.com/matzehuels/exprgraph/pkg/cache"
	"github.com/matzehuels/exprgraph/pkg/errors"
	"github.com/matzehuels/exprgraph/pkg/model"
	"github.com/matzehuels/exprgraph/pkg/observability"
	"github.com/matzehuels/exprgraph/pkg/render"
)

var knapsack = filepath.Join("testdata", "knapsack.toml")

func newTestCLI(t *testing.T, cfg config.Config) *CLI {
	t.Helper()
	c, err := New(io.Discard, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(observability.Reset)
	return c
}

// execute runs the root command with args and returns what it wrote to stdout.
func execute(t *testing.T, c *CLI, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := c.RootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func valueOf(t *testing.T, nodes []model.NodeValue, name string) []float64 {
	t.Helper()
	for _, n := range nodes {
		if n.Name == name {
			return n.Values
		}
	}
	t.Fatalf("node %q missing", name)
	return nil
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(io.Discard, config.Config{LogLevel: "loud"}); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}

func TestEvalText(t *testing.T) {
	c := newTestCLI(t, config.Config{})
	out, err := execute(t, c, "eval", knapsack)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	for _, want := range []string{"knapsack", "2 committed", "1 reverted", "take", "[1 1 0]", "[7]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEvalJSON(t *testing.T) {
	c := newTestCLI(t, config.Config{})
	out, err := execute(t, c, "eval", knapsack, "--format", "json", "--states", "3", "--workers", "2")
	if err != nil {
		t.Fatalf("eval: %v", err)
	}

	var results []model.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for _, res := range results {
		if got := valueOf(t, res.Nodes, "gain"); len(got) != 1 || got[0] != 7 {
			t.Errorf("gain = %v, want [7]", got)
		}
		if got := valueOf(t, res.Nodes, "fits"); len(got) != 1 || got[0] != 1 {
			t.Errorf("fits = %v, want [1]", got)
		}
	}
}

func TestEvalOutputFile(t *testing.T) {
	c := newTestCLI(t, config.Config{})
	path := filepath.Join(t.TempDir(), "out", "results.json")
	out, err := execute(t, c, "eval", knapsack, "-f", "json", "-o", path)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if out != "" {
		t.Errorf("stdout should be empty when writing a file, got %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Contains(data, []byte(`"state_id"`)) {
		t.Errorf("output file is not a result document: %s", data)
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"bad format", []string{"eval", knapsack, "-f", "xml"}, errors.ErrCodeInvalidInput},
		{"no states", []string{"eval", knapsack, "-n", "0"}, ""},
		{"text to file", []string{"eval", knapsack, "-o", "x.txt"}, ""},
		{"missing file", []string{"eval", filepath.Join("testdata", "missing.toml")}, errors.ErrCodeFileNotFound},
		{"bad move", []string{"eval", filepath.Join("testdata", "bad_move.toml")}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCLI(t, config.Config{})
			_, err := execute(t, c, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.code != "" && !errors.Is(err, tt.code) {
				t.Errorf("error code = %s, want %s (%v)", errors.GetCode(err), tt.code, err)
			}
		})
	}
}

func TestEvalMetrics(t *testing.T) {
	c := newTestCLI(t, config.Config{Metrics: true})
	if _, err := execute(t, c, "eval", knapsack); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if c.registry == nil {
		t.Fatal("metrics registry not created")
	}
	// One series per action: commit and revert.
	n, err := testutil.GatherAndCount(c.registry, "exprgraph_moves_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 2 {
		t.Errorf("moves_total series = %d, want 2", n)
	}
}

func TestCheck(t *testing.T) {
	c := newTestCLI(t, config.Config{})
	out, err := execute(t, c, "check", knapsack)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	for _, want := range []string{iconSuccess, "knapsack: 9 nodes, 3 moves", "take", "[0, 1]", "integral", "take-first"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckBadMove(t *testing.T) {
	c := newTestCLI(t, config.Config{})
	out, err := execute(t, c, "check", filepath.Join("testdata", "bad_move.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if !strings.Contains(out, "invalid moves") {
		t.Errorf("output should report invalid moves:\n%s", out)
	}
}

func TestDot(t *testing.T) {
	c := newTestCLI(t, config.Config{})
	out, err := execute(t, c, "dot", knapsack, "--detailed")
	if err != nil {
		t.Fatalf("dot: %v", err)
	}
	if !strings.HasPrefix(out, "digraph G {") {
		t.Errorf("not DOT output:\n%s", out)
	}
	if !strings.Contains(out, "range: [0, 1]") {
		t.Errorf("detailed labels missing:\n%s", out)
	}
}

func TestDotJSON(t *testing.T) {
	tests := []struct {
		name string
		args []string
		gain float64
	}{
		{"initial", nil, 0},
		{"after moves", []string{"--run"}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCLI(t, config.Config{})
			args := append([]string{"dot", knapsack, "-f", "json"}, tt.args...)
			out, err := execute(t, c, args...)
			if err != nil {
				t.Fatalf("dot: %v", err)
			}
			var doc render.Document
			if err := json.Unmarshal([]byte(out), &doc); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(doc.Nodes) != 9 {
				t.Fatalf("got %d nodes, want 9", len(doc.Nodes))
			}
			for _, n := range doc.Nodes {
				if n.Label == "gain" && (len(n.Values) != 1 || n.Values[0] != tt.gain) {
					t.Errorf("gain = %v, want [%v]", n.Values, tt.gain)
				}
			}
		})
	}
}

func TestDotSVG(t *testing.T) {
	if testing.Short() {
		t.Skip("graphviz rendering is slow")
	}
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)

	c := newTestCLI(t, config.Config{})
	first, err := execute(t, c, "dot", knapsack, "-f", "svg")
	if err != nil {
		t.Fatalf("dot: %v", err)
	}
	if !strings.Contains(first, "<svg") {
		t.Fatal("output is not SVG")
	}

	entries, err := filepath.Glob(filepath.Join(cacheHome, appName, "*", "*"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one cache entry, got %v (%v)", entries, err)
	}

	second, err := execute(t, c, "dot", knapsack, "-f", "svg")
	if err != nil {
		t.Fatalf("dot: %v", err)
	}
	if first != second {
		t.Error("cached SVG differs from the first rendering")
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if want := filepath.Join("/tmp/xdg", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestNewCache_Disabled(t *testing.T) {
	c := newTestCLI(t, config.Config{})
	if _, ok := c.newCache(true).(*cache.NullCache); !ok {
		t.Error("--no-cache should give a null cache")
	}
}

func TestCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			c := newTestCLI(t, config.Config{})
			out, err := execute(t, c, "completion", shell)
			if err != nil {
				t.Fatalf("completion: %v", err)
			}
			if !strings.Contains(out, appName) {
				t.Errorf("%s completion does not mention %s", shell, appName)
			}
		})
	}

	c := newTestCLI(t, config.Config{})
	if _, err := execute(t, c, "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}
