package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/exprgraph/pkg/errors"
)

func TestPrintError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		lines []string
	}{
		{"plain", fmt.Errorf("boom"), []string{iconError + " boom"}},
		{"coded", errors.New(errors.ErrCodeFrozen, "graph is frozen"), []string{iconError + " graph is frozen"}},
		{
			"wrapped",
			errors.Wrap(errors.ErrCodeOutOfBounds, errors.New(errors.ErrCodeOutOfBounds, "9 outside [0, 3]"), "move 0 raise"),
			[]string{iconError + " move 0 raise", "OUT_OF_BOUNDS: 9 outside [0, 3]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			PrintError(&buf, tt.err)
			got := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(got) != len(tt.lines) {
				t.Fatalf("got %d lines, want %d: %q", len(got), len(tt.lines), buf.String())
			}
			for i, want := range tt.lines {
				if !strings.Contains(got[i], want) {
					t.Errorf("line %d = %q, want it to contain %q", i, got[i], want)
				}
			}
		})
	}
}

func TestPrintStats(t *testing.T) {
	var buf bytes.Buffer
	printStats(&buf, 9, 2, 1)
	for _, want := range []string{"9 nodes", "2 committed", "1 reverted"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("stats %q missing %q", buf.String(), want)
		}
	}
}
