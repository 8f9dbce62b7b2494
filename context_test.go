package tokenx

import (
	"context"
	"testing"
	"time"
)

func TestCallerClaimsContextRoundTrip(t *testing.T) {
	claims := &Claims{Subject: "testuser", Roles: []string{"Admin"}}
	ctx := BindCallerClaims(context.Background(), CallerClaims{Claims: claims})

	got, ok := CallerClaimsFromContext(ctx)
	if !ok {
		t.Fatal("caller claims not found in context")
	}
	if got.Claims.Subject != "testuser" {
		t.Fatalf("unexpected subject: %s", got.Claims.Subject)
	}
	if got.Fixture {
		t.Fatal("verified claims marked as fixture")
	}

	if _, ok := CallerClaimsFromContext(context.Background()); ok {
		t.Fatal("empty context yielded claims")
	}
}

func TestFixtureClaims(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 500, time.UTC)
	caller := DefaultFixtureClaims().ToCallerClaims(now, 0)

	if !caller.Fixture {
		t.Fatal("fixture claims not marked")
	}
	c := caller.Claims
	if c.Subject != "testuser" || c.DisplayName != "testuser" {
		t.Fatalf("unexpected subject: %s", c.Subject)
	}
	if !c.HasRole("Admin") || c.HasRole("Reader") {
		t.Fatalf("unexpected roles: %v", c.Roles)
	}
	if c.Issuer != "ApiGateway" || c.Audience != "ApiGatewayClients" {
		t.Fatalf("unexpected issuer/audience: %s/%s", c.Issuer, c.Audience)
	}
	if c.Lifetime() != time.Hour {
		t.Fatalf("unexpected lifetime: %s", c.Lifetime())
	}
	if c.IssuedAt.Nanosecond() != 0 {
		t.Fatalf("issued at not truncated: %s", c.IssuedAt)
	}
}
