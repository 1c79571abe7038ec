// Package secret provides ports.SecretGenerator implementations.
package secret

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// DefaultPrefix marks secrets issued by RandomGenerator.
const DefaultPrefix = "ck_"

// DefaultSize is the number of random bytes in a RandomGenerator secret.
const DefaultSize = 24

// UUIDGenerator issues random (version 4) UUID strings.
type UUIDGenerator struct{}

// NewUUIDGenerator creates and returns a new UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate returns a new random UUID.
func (g *UUIDGenerator) Generate() string {
	return uuid.New().String()
}

// RandomGenerator issues prefixed hex secrets read from crypto/rand.
type RandomGenerator struct {
	prefix string
	size   int
}

// NewRandomGenerator returns a generator emitting prefix followed by size
// random bytes in hex. A non-positive size falls back to DefaultSize.
func NewRandomGenerator(prefix string, size int) *RandomGenerator {
	if size <= 0 {
		size = DefaultSize
	}
	return &RandomGenerator{prefix: prefix, size: size}
}

// Generate panics if the system randomness source fails, like uuid.New.
func (g *RandomGenerator) Generate() string {
	raw := make([]byte, g.size)
	if _, err := rand.Read(raw); err != nil {
		panic("secret: failed to read random bytes: " + err.Error())
	}
	return g.prefix + hex.EncodeToString(raw)
}
