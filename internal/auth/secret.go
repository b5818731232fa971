// Package auth checks the shared bearer secrets that guard the cron and
// email endpoints.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const bearerPrefix = "Bearer "

// SecretChecker authorizes requests that carry a shared bearer secret.
// The zero value, or one built from an empty secret, allows every request.
type SecretChecker struct {
	digest [blake2b.Size256]byte
	set    bool
}

// NewSecretChecker creates a checker for secret. An empty secret disables
// enforcement.
func NewSecretChecker(secret string) *SecretChecker {
	if secret == "" {
		return &SecretChecker{}
	}
	return &SecretChecker{
		digest: blake2b.Sum256([]byte(bearerPrefix + secret)),
		set:    true,
	}
}

// Enabled returns true if a secret is configured.
func (c *SecretChecker) Enabled() bool {
	return c != nil && c.set
}

// Allow returns true if header exactly equals "Bearer <secret>", or if no
// secret is configured. Both sides are digested first so the comparison
// takes the same time whatever the presented length.
func (c *SecretChecker) Allow(header string) bool {
	if !c.Enabled() {
		return true
	}
	presented := blake2b.Sum256([]byte(header))
	return subtle.ConstantTimeCompare(presented[:], c.digest[:]) == 1
}

// AllowRequest checks the request's Authorization header.
func (c *SecretChecker) AllowRequest(r *http.Request) bool {
	return c.Allow(r.Header.Get("Authorization"))
}

// BearerToken extracts the token from an Authorization header value.
// Returns empty string if the header is not a bearer credential.
func BearerToken(header string) string {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimPrefix(header, bearerPrefix)
}
