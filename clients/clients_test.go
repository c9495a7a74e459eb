package clients

import (
	"testing"
)

func TestKnownAdaptersComplete(t *testing.T) {
	seen := map[string]bool{}

	for _, a := range Known() {
		if a.Name == "" || a.Kind == "" || a.Library == "" {
			t.Errorf("adapter %+v has empty descriptor fields", a)
		}
		if a.Open == nil {
			t.Errorf("adapter %q has no factory", a.Name)
		}
		if seen[a.Name] {
			t.Errorf("duplicate adapter %q", a.Name)
		}
		seen[a.Name] = true
	}

	for _, want := range []string{"gorm", "sqlx", "pgwire", "pgx", "pgxasync"} {
		if !seen[want] {
			t.Errorf("missing adapter %q", want)
		}
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		names []string
		want  []string
	}{
		{nil, Names()},
		{[]string{"pgx"}, []string{"pgx"}},
		{[]string{"sqlx", " gorm "}, []string{"sqlx", "gorm"}},
		{[]string{"pq", "pq"}, []string{"pq"}},
	}

	for _, tt := range tests {
		got, err := Lookup(tt.names)
		if err != nil {
			t.Fatalf("Lookup(%q) error: %v", tt.names, err)
		}

		if len(got) != len(tt.want) {
			t.Fatalf("Lookup(%q) = %d adapters, want %d", tt.names, len(got), len(tt.want))
		}

		for i, a := range got {
			if a.Name != tt.want[i] {
				t.Errorf("Lookup(%q)[%d] = %q, want %q", tt.names, i, a.Name, tt.want[i])
			}
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup([]string{"pgx", "diesel"}); err == nil {
		t.Error("expected error for unknown client")
	}
}
