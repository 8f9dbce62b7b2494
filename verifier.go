package tokenx

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
)

const tokenSegments = 3

// Verifier validates compact bearer tokens against a shared HMAC secret and
// the expected issuer and audience. It is safe for concurrent use; the
// configuration and key are read-only after construction.
type Verifier struct {
	cfg VerifierConfig
	alg algorithm
	key jwk.Key
}

// NewVerifier builds a verifier from the given configuration.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	key, err := jwk.FromRaw(cfg.Key)
	if err != nil {
		return nil, newError(ErrCodeInternal, fmt.Errorf("import key: %w", err))
	}
	return &Verifier{
		cfg: cfg,
		alg: algorithms[cfg.Algorithm],
		key: key,
	}, nil
}

// Verify checks the token through a fixed sequence — structure, signature,
// payload decoding, validity window, issuer and audience — short-circuiting at
// the first failure so the reported code always reflects the earliest broken
// check. On success it returns the decoded claims. Read-only and idempotent:
// the same token and instant always produce the same result.
func (v *Verifier) Verify(token string, now time.Time) (*Claims, error) {
	header, err := checkStructure(token)
	if err != nil {
		return nil, err
	}

	// Reject algorithm confusion before touching the MAC: the header must
	// name exactly the configured algorithm.
	if header.Alg != v.cfg.Algorithm {
		return nil, newError(ErrCodeBadSignature, fmt.Errorf("token algorithm %q, verifier expects %q", header.Alg, v.cfg.Algorithm))
	}
	payload, err := jws.Verify([]byte(token), jws.WithKey(v.alg.sig, v.key))
	if err != nil {
		return nil, newError(ErrCodeBadSignature, err)
	}

	claims, err := claimsFromPayload(payload)
	if err != nil {
		return nil, err
	}

	skew := v.cfg.ClockSkew
	if now.After(claims.ExpiresAt.Add(skew)) {
		return nil, newError(ErrCodeExpired, fmt.Errorf("expired at %s", claims.ExpiresAt.Format(time.RFC3339)))
	}
	if now.Before(claims.IssuedAt.Add(-skew)) {
		return nil, newError(ErrCodeNotYetValid, fmt.Errorf("not valid before %s", claims.IssuedAt.Format(time.RFC3339)))
	}

	if claims.Issuer != v.cfg.Issuer {
		return nil, newError(ErrCodeIssuerMismatch, fmt.Errorf("issuer %q, want %q", claims.Issuer, v.cfg.Issuer))
	}
	if claims.Audience != v.cfg.Audience {
		return nil, newError(ErrCodeAudienceMismatch, fmt.Errorf("audience %q, want %q", claims.Audience, v.cfg.Audience))
	}

	return claims, nil
}

type tokenHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// checkStructure enforces the three-segment compact form: non-empty segments,
// valid unpadded base64url, and a header object that names an algorithm.
func checkStructure(token string) (tokenHeader, error) {
	var header tokenHeader

	if token == "" {
		return header, newError(ErrCodeMalformed, errors.New("token is empty"))
	}
	parts := strings.Split(token, ".")
	if len(parts) != tokenSegments {
		return header, newError(ErrCodeMalformed, fmt.Errorf("token has %d segments, want %d", len(parts), tokenSegments))
	}
	segments := make([][]byte, tokenSegments)
	for i, part := range parts {
		if part == "" {
			return header, newError(ErrCodeMalformed, fmt.Errorf("segment %d is empty", i+1))
		}
		decoded, err := base64.RawURLEncoding.DecodeString(part)
		if err != nil {
			return header, newError(ErrCodeMalformed, fmt.Errorf("segment %d: %w", i+1, err))
		}
		segments[i] = decoded
	}

	if err := json.Unmarshal(segments[0], &header); err != nil {
		return header, newError(ErrCodeMalformed, fmt.Errorf("decode header: %w", err))
	}
	if header.Alg == "" {
		return header, newError(ErrCodeMalformed, errors.New("header names no algorithm"))
	}
	return header, nil
}

// claimsFromPayload decodes the payload segment and requires every claim the
// token contract mandates, correctly typed and internally consistent.
func claimsFromPayload(payload []byte) (*Claims, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, newError(ErrCodeMalformed, fmt.Errorf("decode payload: %w", err))
	}

	subject, err := stringClaim(raw, "sub")
	if err != nil {
		return nil, err
	}
	displayName, err := stringClaim(raw, claimName)
	if err != nil {
		return nil, err
	}
	tokenID, err := stringClaim(raw, "jti")
	if err != nil {
		return nil, err
	}
	issuer, err := stringClaim(raw, "iss")
	if err != nil {
		return nil, err
	}
	audience, err := audienceClaim(raw)
	if err != nil {
		return nil, err
	}
	roles, err := rolesClaim(raw)
	if err != nil {
		return nil, err
	}
	issuedAt, err := timeClaim(raw, "iat")
	if err != nil {
		return nil, err
	}
	expiresAt, err := timeClaim(raw, "exp")
	if err != nil {
		return nil, err
	}
	if !expiresAt.After(issuedAt) {
		return nil, newError(ErrCodeMalformed, errors.New("expiry is not after issuance"))
	}

	return &Claims{
		Subject:     subject,
		DisplayName: displayName,
		Roles:       roles,
		TokenID:     tokenID,
		Issuer:      issuer,
		Audience:    audience,
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
	}, nil
}

func stringClaim(raw map[string]any, name string) (string, error) {
	value, ok := raw[name]
	if !ok {
		return "", newError(ErrCodeMalformed, fmt.Errorf("claim %q is missing", name))
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return "", newError(ErrCodeMalformed, fmt.Errorf("claim %q is not a non-empty string", name))
	}
	return s, nil
}

// audienceClaim accepts the audience as either a bare string or a
// single-element list, the two encodings in circulation for single-audience
// tokens.
func audienceClaim(raw map[string]any) (string, error) {
	value, ok := raw["aud"]
	if !ok {
		return "", newError(ErrCodeMalformed, errors.New(`claim "aud" is missing`))
	}
	switch aud := value.(type) {
	case string:
		if aud == "" {
			return "", newError(ErrCodeMalformed, errors.New(`claim "aud" is empty`))
		}
		return aud, nil
	case []any:
		if len(aud) != 1 {
			return "", newError(ErrCodeMalformed, fmt.Errorf(`claim "aud" has %d entries, want 1`, len(aud)))
		}
		s, ok := aud[0].(string)
		if !ok || s == "" {
			return "", newError(ErrCodeMalformed, errors.New(`claim "aud" entry is not a non-empty string`))
		}
		return s, nil
	default:
		return "", newError(ErrCodeMalformed, errors.New(`claim "aud" has an unexpected type`))
	}
}

func rolesClaim(raw map[string]any) ([]string, error) {
	value, ok := raw[claimRole]
	if !ok {
		return nil, newError(ErrCodeMalformed, fmt.Errorf("claim %q is missing", claimRole))
	}
	var roles []string
	switch v := value.(type) {
	case string:
		roles = []string{v}
	case []any:
		roles = make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, newError(ErrCodeMalformed, fmt.Errorf("claim %q contains a non-string entry", claimRole))
			}
			roles = append(roles, s)
		}
	default:
		return nil, newError(ErrCodeMalformed, fmt.Errorf("claim %q has an unexpected type", claimRole))
	}
	if len(roles) == 0 {
		return nil, newError(ErrCodeMalformed, fmt.Errorf("claim %q is empty", claimRole))
	}
	for _, role := range roles {
		if role == "" {
			return nil, newError(ErrCodeMalformed, fmt.Errorf("claim %q contains an empty entry", claimRole))
		}
	}
	return roles, nil
}

func timeClaim(raw map[string]any, name string) (time.Time, error) {
	value, ok := raw[name]
	if !ok {
		return time.Time{}, newError(ErrCodeMalformed, fmt.Errorf("claim %q is missing", name))
	}
	seconds, ok := value.(float64)
	if !ok {
		return time.Time{}, newError(ErrCodeMalformed, fmt.Errorf("claim %q is not a numeric date", name))
	}
	return time.Unix(int64(seconds), 0).UTC(), nil
}
