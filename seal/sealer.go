package seal

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid is returned by [Sealer.Open] for any token that fails
// verification.
var ErrTokenInvalid = errors.New("session token invalid")

// MinSecretLength is the shortest HS256 secret accepted.
const MinSecretLength = 32

// SigningMethod selects the token signature algorithm.
type SigningMethod string

const (
	// MethodHS256 signs with a shared secret.
	MethodHS256 SigningMethod = "hs256"
	// MethodEd25519 signs with an Ed25519 private key.
	MethodEd25519 SigningMethod = "ed25519"
)

// Config configures a [Sealer].
type Config struct {
	SigningMethod SigningMethod
	// PrivateKey is the HS256 secret or the Ed25519 private key (raw or PEM).
	PrivateKey []byte
	// PublicKey is the Ed25519 verification key (raw or PEM). Optional when
	// PrivateKey is set.
	PublicKey []byte
	Issuer    string
	// KeyID is written to the token header. When VerifyKeys is set, tokens
	// are verified by the key their kid names, which allows rotation.
	KeyID      string
	VerifyKeys map[string][]byte
	// MaxFutureIAT rejects tokens issued too far ahead of the local clock.
	MaxFutureIAT time.Duration
}

type sessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// Sealer seals and opens session tokens. It is immutable after construction.
type Sealer struct {
	config Config
	now    func() time.Time
}

// New validates cfg and returns a Sealer.
func New(cfg Config) (*Sealer, error) {
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 5 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}

	switch cfg.SigningMethod {
	case "", MethodHS256:
		cfg.SigningMethod = MethodHS256
		if len(cfg.PrivateKey) < MinSecretLength {
			return nil, fmt.Errorf("hs256 secret must be at least %d bytes", MinSecretLength)
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			priv, err := parseEdPrivateKey(cfg.PrivateKey)
			if err != nil {
				return nil, err
			}
			if len(cfg.PublicKey) == 0 {
				cfg.PublicKey = priv.Public().(ed25519.PublicKey)
			}
		}
		if len(cfg.PublicKey) == 0 && len(cfg.VerifyKeys) == 0 {
			return nil, errors.New("ed25519 requires a private key, public key, or verify key set")
		}
		if len(cfg.PublicKey) > 0 {
			if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unsupported signing method %q", cfg.SigningMethod)
	}

	for kid, key := range cfg.VerifyKeys {
		if strings.TrimSpace(kid) == "" {
			return nil, errors.New("verify key map contains empty kid")
		}
		if cfg.SigningMethod == MethodEd25519 {
			if _, err := parseEdPublicKey(key); err != nil {
				return nil, fmt.Errorf("invalid ed25519 verify key for kid %q: %w", kid, err)
			}
		}
	}
	if cfg.KeyID != "" && len(cfg.VerifyKeys) > 0 {
		if _, ok := cfg.VerifyKeys[cfg.KeyID]; !ok {
			return nil, errors.New("KeyID is not present in VerifyKeys")
		}
	}

	return &Sealer{config: cfg, now: time.Now}, nil
}

// CanSeal reports whether the Sealer holds a signing key.
func (s *Sealer) CanSeal() bool {
	return len(s.config.PrivateKey) > 0
}

// Seal returns a signed token carrying key.
func (s *Sealer) Seal(key string) (string, error) {
	if key == "" {
		return "", errors.New("empty session key")
	}
	if !s.CanSeal() {
		return "", errors.New("sealer has no signing key")
	}

	claims := sessionClaims{
		SID: key,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
			Issuer:   s.config.Issuer,
		},
	}
	token := jwt.NewWithClaims(s.method(), claims)
	if s.config.KeyID != "" {
		token.Header["kid"] = s.config.KeyID
	}

	signKey, err := s.signKey()
	if err != nil {
		return "", err
	}
	return token.SignedString(signKey)
}

// Open verifies token and returns the session key it carries.
func (s *Sealer) Open(token string) (string, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{s.method().Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(token, &sessionClaims{}, s.keyFunc)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.SID == "" {
		return "", fmt.Errorf("%w: missing sid", ErrTokenInvalid)
	}
	if claims.IssuedAt == nil {
		return "", fmt.Errorf("%w: missing iat", ErrTokenInvalid)
	}
	if claims.IssuedAt.Time.After(s.now().Add(s.config.MaxFutureIAT)) {
		return "", fmt.Errorf("%w: iat too far in the future", ErrTokenInvalid)
	}
	return claims.SID, nil
}

func (s *Sealer) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method.Alg() != s.method().Alg() {
		return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
	}

	if len(s.config.VerifyKeys) > 0 {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, ok := s.config.VerifyKeys[kid]
		if !ok {
			return nil, errors.New("unknown kid")
		}
		return s.verifyKeyFromBytes(key)
	}

	if s.config.KeyID != "" {
		kid, _ := t.Header["kid"].(string)
		if kid != s.config.KeyID {
			return nil, errors.New("unknown kid")
		}
	}

	if s.config.SigningMethod == MethodHS256 {
		return s.config.PrivateKey, nil
	}
	return parseEdPublicKey(s.config.PublicKey)
}

func (s *Sealer) method() jwt.SigningMethod {
	if s.config.SigningMethod == MethodEd25519 {
		return jwt.SigningMethodEdDSA
	}
	return jwt.SigningMethodHS256
}

func (s *Sealer) signKey() (interface{}, error) {
	if s.config.SigningMethod == MethodEd25519 {
		return parseEdPrivateKey(s.config.PrivateKey)
	}
	return s.config.PrivateKey, nil
}

func (s *Sealer) verifyKeyFromBytes(key []byte) (interface{}, error) {
	if s.config.SigningMethod == MethodEd25519 {
		return parseEdPublicKey(key)
	}
	return key, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
