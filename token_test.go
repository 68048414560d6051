package goSession

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MrEthical07/goSession/authz"
	"github.com/MrEthical07/goSession/role"
)

func sealedConfig(c *Config) {
	c.Seal.Enabled = true
	c.Seal.PrivateKey = testSecret()
	c.Seal.Issuer = "gosession-test"
}

func TestSealedTokenRoundTrip(t *testing.T) {
	et := newEngineTest(t, sealedConfig, nil)
	ctx := context.Background()

	token := et.login(t, adminID, role.Admin)
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected a signed token, got %q", token)
	}

	granted, err := et.engine.Authorize(ctx, token, authz.AdminOnly())
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if granted.ID() != adminID {
		t.Fatalf("unexpected principal %v", granted.Principal())
	}
}

func TestSealedTokenTamperedIsUnauthenticated(t *testing.T) {
	et := newEngineTest(t, sealedConfig, nil)
	ctx := context.Background()
	token := et.login(t, adminID, role.Admin)

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err := et.engine.Resolve(ctx, tampered)
	if !errors.Is(err, ErrUnauthenticated) || !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected unauthenticated invalid token, got %v", err)
	}
	if got := et.engine.MetricsSnapshot().Counters[MetricTokenInvalid]; got != 1 {
		t.Fatalf("expected token_invalid counter 1, got %d", got)
	}
}

func TestSealedEngineRejectsRawKey(t *testing.T) {
	et := newEngineTest(t, sealedConfig, nil)
	ctx := context.Background()
	token := et.login(t, adminID, role.Admin)

	info, err := et.engine.Inspect(ctx, token)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.Principal.ID != adminID {
		t.Fatalf("unexpected principal %+v", info.Principal)
	}

	key, err := et.engine.sealer.Open(token)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := et.engine.Resolve(ctx, key); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("raw key must not be accepted as a sealed token, got %v", err)
	}
	if _, err := et.engine.Store().Inspect(ctx, key); err != nil {
		t.Fatalf("raw key should still address the store: %v", err)
	}
}

func TestSealedLogoutWithBadTokenIsNoop(t *testing.T) {
	et := newEngineTest(t, sealedConfig, nil)
	ctx := context.Background()
	token := et.login(t, adminID, role.Admin)

	if err := et.engine.Logout(ctx, "garbage"); err != nil {
		t.Fatalf("Logout with bad token should succeed, got %v", err)
	}
	if _, err := et.engine.Resolve(ctx, token); err != nil {
		t.Fatalf("session must survive a bad-token logout, got %v", err)
	}
	if err := et.engine.Logout(ctx, token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := et.engine.Resolve(ctx, token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after logout, got %v", err)
	}
}

func TestSealedTokenFromOtherSecretRejected(t *testing.T) {
	issuer := newEngineTest(t, sealedConfig, nil)
	verifier := newEngineTest(t, func(c *Config) {
		sealedConfig(c)
		c.Seal.PrivateKey = []byte("another-secret-another-secret-another-secret")
	}, nil)

	token := issuer.login(t, adminID, role.Admin)
	if _, err := verifier.engine.Resolve(context.Background(), token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid across secrets, got %v", err)
	}
}
