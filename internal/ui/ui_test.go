package ui

import (
	"strings"
	"testing"
)

func TestPalette(t *testing.T) {
	tests := []struct {
		name   string
		render func(string, ...any) string
		want   string
	}{
		{"Title", Styles.Title, "Accounts"},
		{"OK", Styles.OK, "✓ Accounts"},
		{"Err", Styles.Err, "✗ Accounts"},
		{"Warn", Styles.Warn, "Accounts"},
		{"Help", Styles.Help, "Accounts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.render("%s", "Accounts"); !strings.Contains(got, tt.want) {
				t.Errorf("expected %q in %q", tt.want, got)
			}
		})
	}
}

func TestTable(t *testing.T) {
	out := Table([]string{"Identity", "Chat"}, [][]string{{"alice", "100"}, {"bob", "200"}})

	for _, want := range []string{"Identity", "Chat", "alice", "100", "bob", "200"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in table:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n"); lines < 4 {
		t.Errorf("expected a bordered table, got:\n%s", out)
	}
}
