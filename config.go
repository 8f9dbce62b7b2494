package tokenx

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
)

// Supported algorithm identifiers.
const (
	AlgHS256 = "HS256"
	AlgHS384 = "HS384"
	AlgHS512 = "HS512"
)

const defaultLifetime = time.Hour

// defaultRoles mirrors the gateway's permissive test-fixture default. It is a
// configuration value, not a hardwired policy: production callers must set
// Config.DefaultRoles (or always pass roles explicitly) to override it.
var defaultRoles = []string{"Admin"}

type algorithm struct {
	sig jwa.SignatureAlgorithm
	// minKeyLen is the minimum signing key size in bytes, matching the
	// underlying hash output.
	minKeyLen int
}

var algorithms = map[string]algorithm{
	AlgHS256: {sig: jwa.HS256, minKeyLen: 32},
	AlgHS384: {sig: jwa.HS384, minKeyLen: 48},
	AlgHS512: {sig: jwa.HS512, minKeyLen: 64},
}

// Config contains issuance parameters: the shared secret, the token identity
// fields, and the validity window. It is loaded once and never mutated after
// the Issuer is constructed.
type Config struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	Lifetime   time.Duration
	Algorithm  string
	// DefaultRoles is applied when BuildClaims receives no roles.
	DefaultRoles []string
	// NewTokenID generates token identifiers. Defaults to random UUIDs.
	NewTokenID func() string
}

// normalize sets default values for optional fields.
func (c *Config) normalize() {
	if c.Algorithm == "" {
		c.Algorithm = AlgHS256
	}
	if c.Lifetime <= 0 {
		c.Lifetime = defaultLifetime
	}
	if len(c.DefaultRoles) == 0 {
		c.DefaultRoles = cloneRoles(defaultRoles)
	}
	if c.NewTokenID == nil {
		c.NewTokenID = uuid.NewString
	}
}

// validate ensures the issuance configuration is usable.
func (c Config) validate() error {
	if c.Issuer == "" {
		return newError(ErrCodeInvalidInput, errors.New("issuer is required"))
	}
	if c.Audience == "" {
		return newError(ErrCodeInvalidInput, errors.New("audience is required"))
	}
	return validateKey(c.Algorithm, c.SigningKey)
}

// VerifierConfig contains verification parameters: the shared secret, the
// expected identity fields, and the accepted clock skew.
type VerifierConfig struct {
	Key       []byte
	Algorithm string
	Issuer    string
	Audience  string
	// ClockSkew widens the validity window on both ends. Zero means exact
	// boundary checks.
	ClockSkew time.Duration
}

// normalize sets default values for optional fields.
func (c *VerifierConfig) normalize() {
	if c.Algorithm == "" {
		c.Algorithm = AlgHS256
	}
	if c.ClockSkew < 0 {
		c.ClockSkew = 0
	}
}

// validate ensures the verification configuration is usable.
func (c VerifierConfig) validate() error {
	if c.Issuer == "" {
		return newError(ErrCodeInvalidInput, errors.New("expected issuer is required"))
	}
	if c.Audience == "" {
		return newError(ErrCodeInvalidInput, errors.New("expected audience is required"))
	}
	return validateKey(c.Algorithm, c.Key)
}

func validateKey(alg string, key []byte) error {
	known, ok := algorithms[alg]
	if !ok {
		return newError(ErrCodeUnsupportedAlgorithm, fmt.Errorf("algorithm %q", alg))
	}
	if len(key) < known.minKeyLen {
		return newError(ErrCodeWeakKey, fmt.Errorf("%s requires at least %d key bytes, got %d", alg, known.minKeyLen, len(key)))
	}
	return nil
}
