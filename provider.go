package tokenx

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// TokenFactory allows callers to override how token sources are minted.
type TokenFactory func(subject string, params ProviderParams) (oauth2.TokenSource, error)

// ProviderConfig defines how bearer tokens should be minted by default.
type ProviderConfig struct {
	Issuer *Issuer
	Roles  []string
	// Clock supplies the issuance instant. Defaults to time.Now.
	Clock        func() time.Time
	TokenFactory TokenFactory
}

// Provider hands out bearer tokens for service-to-service calls, minting them
// through the configured Issuer. It caches a token source per (subject, roles)
// combination so a fresh token is only signed when the cached one nears expiry.
type Provider struct {
	mu       sync.RWMutex
	factory  TokenFactory
	entries  map[providerKey]*tokenSourceEntry
	defaults ProviderParams
}

type providerKey struct {
	Subject string
	Roles   string
}

type tokenSourceEntry struct {
	source oauth2.TokenSource
}

// ProviderParams carries per-mint attributes.
type ProviderParams struct {
	Roles []string
}

// TokenOption customizes the behaviour for a single Token call.
type TokenOption func(*ProviderParams)

// WithRoles overrides the roles carried by the minted token.
func WithRoles(roles ...string) TokenOption {
	return func(p *ProviderParams) {
		p.Roles = append([]string(nil), roles...)
	}
}

// NewProvider constructs a Provider using the supplied defaults.
func NewProvider(cfg ProviderConfig) *Provider {
	factory := cfg.TokenFactory
	if factory == nil {
		clock := cfg.Clock
		if clock == nil {
			clock = time.Now
		}
		issuer := cfg.Issuer
		factory = func(subject string, params ProviderParams) (oauth2.TokenSource, error) {
			if issuer == nil {
				return nil, errors.New("provider has no issuer configured")
			}
			return &mintSource{issuer: issuer, subject: subject, roles: params.Roles, clock: clock}, nil
		}
	}
	return &Provider{
		factory: factory,
		entries: make(map[providerKey]*tokenSourceEntry),
		defaults: ProviderParams{
			Roles: append([]string(nil), cfg.Roles...),
		},
	}
}

// Token returns a signed bearer token for the given subject.
func (p *Provider) Token(subject string, opts ...TokenOption) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject is required")
	}

	params := cloneParams(p.defaults)
	for _, opt := range opts {
		opt(&params)
	}

	key := providerKey{
		Subject: subject,
		Roles:   strings.Join(params.Roles, ","),
	}

	entry, err := p.getOrCreate(key, subject, params)
	if err != nil {
		return "", err
	}

	tok, err := entry.source.Token()
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("empty access token returned")
	}
	return tok.AccessToken, nil
}

func (p *Provider) getOrCreate(key providerKey, subject string, params ProviderParams) (*tokenSourceEntry, error) {
	p.mu.RLock()
	entry, ok := p.entries[key]
	p.mu.RUnlock()
	if ok {
		return entry, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if entry, ok = p.entries[key]; ok {
		return entry, nil
	}

	ts, err := p.factory(subject, params)
	if err != nil {
		return nil, err
	}
	entry = &tokenSourceEntry{source: oauth2.ReuseTokenSource(nil, ts)}
	p.entries[key] = entry
	return entry, nil
}

// mintSource signs a fresh token on every call; ReuseTokenSource layered on
// top provides the caching.
type mintSource struct {
	issuer  *Issuer
	subject string
	roles   []string
	clock   func() time.Time
}

func (m *mintSource) Token() (*oauth2.Token, error) {
	signed, claims, err := m.issuer.IssueFor(m.subject, m.roles, m.clock())
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		Expiry:      claims.ExpiresAt,
	}, nil
}

func cloneParams(in ProviderParams) ProviderParams {
	out := in
	if len(in.Roles) > 0 {
		out.Roles = append([]string(nil), in.Roles...)
	}
	return out
}
