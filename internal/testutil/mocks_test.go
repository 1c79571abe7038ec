package testutil

import "testing"

func TestSequenceGenerator(t *testing.T) {
	g := &SequenceGenerator{Secrets: []string{"a", "b"}}
	got := []string{g.Generate(), g.Generate(), g.Generate()}
	if got[0] != "a" || got[1] != "b" || got[2] != "b" {
		t.Errorf("unexpected sequence: %v", got)
	}
	if g.Calls() != 3 {
		t.Errorf("expected 3 calls, got %d", g.Calls())
	}
	if (&SequenceGenerator{}).Generate() != "" {
		t.Errorf("empty generator must return empty secret")
	}
}
