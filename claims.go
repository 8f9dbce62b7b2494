package tokenx

import "time"

// Wire names for the claims carried in the token payload. Subject, issuer,
// audience, and the timestamps use the registered JWT names; display name and
// roles use the gateway's private names.
const (
	claimName = "name"
	claimRole = "role"
)

// Claims represents the assertions carried inside a signed token: the caller
// identity, its roles, and the validity window. Values are immutable once
// built; verification returns a fresh copy decoded from the wire.
type Claims struct {
	Subject     string
	DisplayName string
	Roles       []string
	TokenID     string
	Issuer      string
	Audience    string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Lifetime returns the length of the validity window.
func (c Claims) Lifetime() time.Duration {
	return c.ExpiresAt.Sub(c.IssuedAt)
}

// HasRole reports whether the claims carry the given role.
func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func cloneRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	return append([]string(nil), roles...)
}
