package loader

import "testing"

// TestQuoteBracket verifies SQL Server identifier quoting, including the
// doubled closing bracket escape.
func TestQuoteBracket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "amount", want: "[amount]"},
		{name: "space", in: "unit price", want: "[unit price]"},
		{name: "closing bracket", in: "a]b", want: "[a]]b]"},
		{name: "empty", in: "", want: "[]"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := quoteBracket(tt.in); got != tt.want {
				t.Errorf("quoteBracket(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
