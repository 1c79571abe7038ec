package testutil

import "sync"

// SequenceGenerator implements ports.SecretGenerator returning a fixed
// sequence of secrets, then repeating the last one.
type SequenceGenerator struct {
	mu      sync.Mutex
	Secrets []string
	calls   int
}

func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.Secrets) == 0 {
		return ""
	}
	i := g.calls
	if i >= len(g.Secrets) {
		i = len(g.Secrets) - 1
	}
	g.calls++
	return g.Secrets[i]
}

// Calls reports how many secrets were generated.
func (g *SequenceGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
