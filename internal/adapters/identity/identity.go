// Package identity provides ports.IdentityProvider implementations that turn
// an incoming request into a verified tenant identifier.
package identity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
)

// DefaultTenantHeader is read by HeaderProvider when no header is configured.
const DefaultTenantHeader = "X-Tenant-ID"

var (
	// ErrMissingCredentials means the request carried no usable identity.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrInvalidCredentials means the presented identity was rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// HashToken returns the hex SHA-256 digest used to configure bearer tokens.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ExtractBearer returns the token of an "Authorization: Bearer <token>" header.
func ExtractBearer(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", ErrMissingCredentials
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrInvalidCredentials
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrMissingCredentials
	}
	return token, nil
}

type tokenEntry struct {
	hash    []byte
	subject string
}

// TokenProvider verifies bearer tokens against configured SHA-256 hashes.
// The matching token's subject becomes the tenant id.
type TokenProvider struct {
	entries []tokenEntry
}

// NewTokenProvider builds a provider from a token hash -> subject map.
func NewTokenProvider(tokens map[string]string) *TokenProvider {
	p := &TokenProvider{entries: make([]tokenEntry, 0, len(tokens))}
	for hash, subject := range tokens {
		p.entries = append(p.entries, tokenEntry{hash: []byte(strings.ToLower(hash)), subject: subject})
	}
	return p
}

// Identify compares the presented token hash with every configured hash in
// constant time.
func (p *TokenProvider) Identify(r *http.Request) (string, error) {
	token, err := ExtractBearer(r)
	if err != nil {
		return "", err
	}
	presented := []byte(HashToken(token))

	subject := ""
	for _, e := range p.entries {
		if subtle.ConstantTimeCompare(presented, e.hash) == 1 {
			subject = e.subject
		}
	}
	if subject == "" {
		return "", ErrInvalidCredentials
	}
	return subject, nil
}

// HeaderProvider trusts a header set by an upstream gateway that has already
// authenticated the caller. Only deploy it behind such a gateway.
type HeaderProvider struct {
	header string
}

// NewHeaderProvider reads the tenant from header, or DefaultTenantHeader.
func NewHeaderProvider(header string) *HeaderProvider {
	if header == "" {
		header = DefaultTenantHeader
	}
	return &HeaderProvider{header: header}
}

func (p *HeaderProvider) Identify(r *http.Request) (string, error) {
	tenant := strings.TrimSpace(r.Header.Get(p.header))
	if tenant == "" {
		return "", ErrMissingCredentials
	}
	return tenant, nil
}
