package tokenx

import "time"

// FixtureClaims holds attributes used when issuing synthetic claims for local
// development and gateway smoke tests. The defaults reproduce the gateway's
// historical test token; they are deliberately permissive and must never reach
// a production configuration.
type FixtureClaims struct {
	Subject  string
	Roles    []string
	Issuer   string
	Audience string
}

// ToCallerClaims converts the fixture into caller claims bound to a validity
// window starting at now.
func (f FixtureClaims) ToCallerClaims(now time.Time, lifetime time.Duration) CallerClaims {
	if lifetime <= 0 {
		lifetime = defaultLifetime
	}
	issuedAt := now.UTC().Truncate(time.Second)
	claims := &Claims{
		Subject:     f.Subject,
		DisplayName: f.Subject,
		Roles:       cloneRoles(f.Roles),
		Issuer:      f.Issuer,
		Audience:    f.Audience,
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(lifetime),
	}
	return CallerClaims{
		Claims:  claims,
		Fixture: true,
	}
}

// DefaultFixtureClaims returns the baseline gateway test identity.
func DefaultFixtureClaims() FixtureClaims {
	return FixtureClaims{
		Subject:  "testuser",
		Roles:    []string{"Admin"},
		Issuer:   "ApiGateway",
		Audience: "ApiGatewayClients",
	}
}
