// Package domain contains the core entities and errors for cloudKeys.
package domain

// APIKey is a tenant-owned credential. The owning tenant is not part of the
// value; repositories use it as the partition key.
type APIKey struct {
	ID     string `json:"id"`
	Name   string `json:"name"`   // Human-readable label, e.g. "ci-deploy-key"
	Secret string `json:"secret"` // Only populated right after create or regenerate
}

// ProtectedAPIKey is the view of an APIKey without its secret.
type ProtectedAPIKey struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Protect drops the secret.
func (k APIKey) Protect() ProtectedAPIKey {
	return ProtectedAPIKey{ID: k.ID, Name: k.Name}
}

// KeyPrefixLen is the number of leading secret characters kept for
// identification by backends that never store the raw secret.
const KeyPrefixLen = 8

// KeyPrefix returns the first KeyPrefixLen characters of secret.
func KeyPrefix(secret string) string {
	if len(secret) <= KeyPrefixLen {
		return secret
	}
	return secret[:KeyPrefixLen]
}
