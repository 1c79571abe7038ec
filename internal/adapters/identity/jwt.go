package identity

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// JWTConfig configures a JWTProvider.
type JWTConfig struct {
	JWKSURL   string
	Issuer    string // optional; checked against "iss" when set
	Audience  string // optional; checked against "aud" when set
	ClockSkew time.Duration
	// HTTPClient fetches the key set; a client with a short timeout is used
	// when nil.
	HTTPClient *http.Client
}

// JWTProvider verifies RS256 bearer JWTs against a JWK set and uses the
// "sub" claim as the tenant id.
type JWTProvider struct {
	issuer    string
	audience  string
	clockSkew time.Duration
	jwks      *jwksCache
	now       func() time.Time
}

// NewJWTProvider returns a provider for cfg. Keys are fetched lazily.
func NewJWTProvider(cfg JWTConfig) (*JWTProvider, error) {
	url := strings.TrimSpace(cfg.JWKSURL)
	if url == "" {
		return nil, errors.New("jwks url is required")
	}
	return &JWTProvider{
		issuer:    strings.TrimSpace(cfg.Issuer),
		audience:  strings.TrimSpace(cfg.Audience),
		clockSkew: cfg.ClockSkew,
		jwks:      newJWKSCache(url, cfg.HTTPClient),
		now:       time.Now,
	}, nil
}

func (p *JWTProvider) Identify(r *http.Request) (string, error) {
	token, err := ExtractBearer(r)
	if err != nil {
		return "", err
	}

	header, claims, signingInput, signature, err := parseJWT(token)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if alg, _ := header["alg"].(string); alg != "RS256" {
		return "", ErrInvalidCredentials
	}
	if typ, ok := header["typ"].(string); ok && typ != "" && !strings.EqualFold(typ, "JWT") {
		return "", ErrInvalidCredentials
	}

	kid, _ := header["kid"].(string)
	pubKey, err := p.jwks.getKey(r.Context(), kid)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if err := verifyRS256(pubKey, signingInput, signature); err != nil {
		return "", ErrInvalidCredentials
	}
	if err := p.validateClaims(claims); err != nil {
		return "", ErrInvalidCredentials
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return "", ErrInvalidCredentials
	}
	return subject, nil
}

func (p *JWTProvider) validateClaims(claims map[string]any) error {
	now := p.now()
	if p.issuer != "" {
		if iss, _ := claims["iss"].(string); iss != p.issuer {
			return errors.New("issuer mismatch")
		}
	}
	if p.audience != "" && !audienceMatches(claims["aud"], p.audience) {
		return errors.New("audience mismatch")
	}
	exp, ok := parseNumericDate(claims["exp"])
	if !ok {
		return errors.New("exp claim required")
	}
	if now.After(exp.Add(p.clockSkew)) {
		return errors.New("token expired")
	}
	if nbf, ok := parseNumericDate(claims["nbf"]); ok && now.Add(p.clockSkew).Before(nbf) {
		return errors.New("token not yet valid")
	}
	return nil
}

func parseJWT(token string) (map[string]any, map[string]any, string, []byte, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, nil, "", nil, errors.New("invalid token format")
	}
	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, "", nil, err
	}
	claimsBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, nil, "", nil, err
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, nil, "", nil, err
	}
	var header map[string]any
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, nil, "", nil, err
	}
	var claims map[string]any
	if err := json.Unmarshal(claimsBytes, &claims); err != nil {
		return nil, nil, "", nil, err
	}
	return header, claims, parts[0] + "." + parts[1], signature, nil
}

func verifyRS256(pubKey *rsa.PublicKey, signingInput string, signature []byte) error {
	hash := sha256.Sum256([]byte(signingInput))
	return rsa.VerifyPKCS1v15(pubKey, crypto.SHA256, hash[:], signature)
}

func parseNumericDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(n, 0), true
	default:
		return time.Time{}, false
	}
}

func audienceMatches(raw any, expected string) bool {
	switch v := raw.(type) {
	case string:
		return v == expected
	case []any:
		for _, entry := range v {
			if s, ok := entry.(string); ok && s == expected {
				return true
			}
		}
	}
	return false
}
