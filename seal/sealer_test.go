package seal

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func TestSealOpenHS256(t *testing.T) {
	s, err := New(Config{PrivateKey: testSecret, Issuer: "gosession"})
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	token, err := s.Seal("abcDEF123")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	key, err := s.Open(token)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if key != "abcDEF123" {
		t.Fatalf("expected key round trip, got %q", key)
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	s, err := New(Config{PrivateKey: testSecret})
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	token, err := s.Seal("key-one")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	other, err := New(Config{PrivateKey: []byte(strings.Repeat("z", MinSecretLength))})
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	forged, err := other.Seal("key-one")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	parts := strings.Split(token, ".")
	parts[2] = strings.Repeat("A", len(parts[2]))

	for name, bad := range map[string]string{
		"empty":         "",
		"garbage":       "not.a.token",
		"bad signature": strings.Join(parts, "."),
		"wrong secret":  forged,
		"raw key":       "key-one",
	} {
		if _, err := s.Open(bad); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("%s: expected ErrTokenInvalid, got %v", name, err)
		}
	}
}

func TestOpenRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	s, err := New(Config{SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}

	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, sessionClaims{
		SID:              "k",
		RegisteredClaims: gjwt.RegisteredClaims{IssuedAt: gjwt.NewNumericDate(time.Now())},
	})
	token, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := s.Open(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected wrong algorithm rejected, got %v", err)
	}
}

func TestEd25519VerifyOnly(t *testing.T) {
	_, priv := newEdKeys(t)
	signer, err := New(Config{SigningMethod: MethodEd25519, PrivateKey: priv})
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	verifier, err := New(Config{SigningMethod: MethodEd25519, PublicKey: priv.Public().(ed25519.PublicKey)})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	if verifier.CanSeal() {
		t.Fatal("verifier without private key must not seal")
	}
	if _, err := verifier.Seal("k"); err == nil {
		t.Fatal("expected seal without private key to fail")
	}

	token, err := signer.Seal("shared-key")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	key, err := verifier.Open(token)
	if err != nil || key != "shared-key" {
		t.Fatalf("verifier open: %q %v", key, err)
	}
}

func TestKeyRotation(t *testing.T) {
	oldSecret := []byte(strings.Repeat("o", MinSecretLength))
	oldSealer, err := New(Config{PrivateKey: oldSecret, KeyID: "v1"})
	if err != nil {
		t.Fatalf("old sealer: %v", err)
	}
	token, err := oldSealer.Seal("rotating")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	current, err := New(Config{
		PrivateKey: testSecret,
		KeyID:      "v2",
		VerifyKeys: map[string][]byte{"v1": oldSecret, "v2": testSecret},
	})
	if err != nil {
		t.Fatalf("current sealer: %v", err)
	}
	if key, err := current.Open(token); err != nil || key != "rotating" {
		t.Fatalf("expected old kid accepted, got %q %v", key, err)
	}

	retired, err := New(Config{PrivateKey: testSecret, KeyID: "v2", VerifyKeys: map[string][]byte{"v2": testSecret}})
	if err != nil {
		t.Fatalf("retired sealer: %v", err)
	}
	if _, err := retired.Open(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected retired kid rejected, got %v", err)
	}
}

func TestOpenRejectsFutureIssuedAt(t *testing.T) {
	s, err := New(Config{PrivateKey: testSecret, MaxFutureIAT: time.Minute})
	if err != nil {
		t.Fatalf("new sealer: %v", err)
	}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base.Add(time.Hour) }
	token, err := s.Seal("k")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	s.now = func() time.Time { return base }
	if _, err := s.Open(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected future iat rejected, got %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	cases := map[string]Config{
		"short secret":  {PrivateKey: []byte("short")},
		"bad method":    {SigningMethod: "rs256", PrivateKey: testSecret},
		"ed no keys":    {SigningMethod: MethodEd25519},
		"ed bad key":    {SigningMethod: MethodEd25519, PublicKey: []byte("nope")},
		"empty kid":     {PrivateKey: testSecret, VerifyKeys: map[string][]byte{" ": testSecret}},
		"kid not known": {PrivateKey: testSecret, KeyID: "v3", VerifyKeys: map[string][]byte{"v1": testSecret}},
		"negative iat":  {PrivateKey: testSecret, MaxFutureIAT: -time.Second},
	}
	for name, cfg := range cases {
		if _, err := New(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
