package tokenx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Issuer builds claim sets and signs them into compact bearer tokens using a
// shared HMAC secret. It is safe for concurrent use; the configuration and key
// are read-only after construction.
type Issuer struct {
	cfg Config
	alg algorithm
	key jwk.Key
}

// NewIssuer constructs an Issuer from the given configuration.
func NewIssuer(cfg Config) (*Issuer, error) {
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	key, err := jwk.FromRaw(cfg.SigningKey)
	if err != nil {
		return nil, newError(ErrCodeInternal, fmt.Errorf("import signing key: %w", err))
	}
	cfg.DefaultRoles = cloneRoles(cfg.DefaultRoles)
	return &Issuer{
		cfg: cfg,
		alg: algorithms[cfg.Algorithm],
		key: key,
	}, nil
}

// BuildClaims assembles a claim set for the subject at the given instant. The
// validity window and identity fields come from the configuration; the token
// ID is freshly generated. Timestamps are truncated to whole seconds, the
// precision the wire format carries. Empty roles fall back to the configured
// defaults. Pure function of its inputs apart from ID generation.
func (iss *Issuer) BuildClaims(subject string, roles []string, now time.Time) (Claims, error) {
	if strings.TrimSpace(subject) == "" {
		return Claims{}, newError(ErrCodeInvalidInput, errors.New("subject is required"))
	}
	for _, role := range roles {
		if role == "" {
			return Claims{}, newError(ErrCodeInvalidInput, errors.New("roles must not contain empty strings"))
		}
	}
	if len(roles) == 0 {
		roles = iss.cfg.DefaultRoles
	}

	issuedAt := now.UTC().Truncate(time.Second)
	return Claims{
		Subject:     subject,
		DisplayName: subject,
		Roles:       cloneRoles(roles),
		TokenID:     iss.cfg.NewTokenID(),
		Issuer:      iss.cfg.Issuer,
		Audience:    iss.cfg.Audience,
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(iss.cfg.Lifetime),
	}, nil
}

// Issue serializes the claims into a signed three-segment compact token.
func (iss *Issuer) Issue(claims Claims) (string, error) {
	switch {
	case claims.Subject == "":
		return "", newError(ErrCodeInvalidInput, errors.New("claims subject is empty"))
	case len(claims.Roles) == 0:
		return "", newError(ErrCodeInvalidInput, errors.New("claims roles are empty"))
	case claims.TokenID == "":
		return "", newError(ErrCodeInvalidInput, errors.New("claims token ID is empty"))
	case !claims.ExpiresAt.After(claims.IssuedAt):
		return "", newError(ErrCodeInvalidInput, errors.New("claims expiry is not after issuance"))
	}

	tok, err := jwt.NewBuilder().
		Issuer(claims.Issuer).
		Subject(claims.Subject).
		Audience([]string{claims.Audience}).
		IssuedAt(claims.IssuedAt).
		Expiration(claims.ExpiresAt).
		JwtID(claims.TokenID).
		Claim(claimName, claims.DisplayName).
		Claim(claimRole, claims.Roles).
		Build()
	if err != nil {
		return "", newError(ErrCodeInternal, fmt.Errorf("build token: %w", err))
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(iss.alg.sig, iss.key))
	if err != nil {
		return "", newError(ErrCodeInternal, fmt.Errorf("sign token: %w", err))
	}
	return string(signed), nil
}

// IssueFor builds claims for the subject and signs them in one step, returning
// both the compact token and the claims it carries.
func (iss *Issuer) IssueFor(subject string, roles []string, now time.Time) (string, Claims, error) {
	claims, err := iss.BuildClaims(subject, roles, now)
	if err != nil {
		return "", Claims{}, err
	}
	signed, err := iss.Issue(claims)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, claims, nil
}
