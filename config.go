package goSession

import (
	"bytes"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/codec"
	"github.com/MrEthical07/goSession/seal"
	"github.com/MrEthical07/goSession/session"
)

// DevelopmentSecret is the fixed HS256 secret used by development setups
// that do not provide one. [Config.Validate] rejects it in production mode.
var DevelopmentSecret = []byte("goSession-development-secret-do-not-use-in-production-0123456789")

// Config holds every engine setting. Obtain a populated value from
// [DefaultConfig] and override fields as needed.
type Config struct {
	Session  SessionConfig
	Seal     SealConfig
	Cookie   CookieConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime and storage layout.
type SessionConfig struct {
	TTL            time.Duration
	SlidingRenewal bool // renew TTL on every successful Resolve/Authorize
	KeyLength      int
	Encoding       string // "json" (default), "binary", "cbor" or "msgpack"
	WriteTimeout   time.Duration
	RedisPrefix    string
	RedisRetention time.Duration // keep expired records this long before Redis evicts them
}

/*
====================================
SEAL CONFIG
====================================
*/

// SealConfig controls signed client tokens. When disabled the raw session
// key is handed to clients.
type SealConfig struct {
	Enabled       bool
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	KeyID         string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig describes the cookie that carries the client token.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// SecurityConfig holds deployment-mode switches.
type SecurityConfig struct {
	ProductionMode bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the development defaults: 24h sessions, JSON state
// encoding, unsigned tokens and a secure HTTP-only "session-id" cookie.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			TTL:            24 * time.Hour,
			SlidingRenewal: false,
			KeyLength:      session.DefaultKeyLength,
			Encoding:       codec.NameJSON,
			WriteTimeout:   session.DefaultWriteTimeout,
			RedisPrefix:    "gs",
			RedisRetention: 0,
		},
		Seal: SealConfig{
			Enabled:       false,
			SigningMethod: string(seal.MethodHS256),
		},
		Cookie: CookieConfig{
			Name:     "session-id",
			Path:     "/",
			Secure:   true,
			HTTPOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Security: SecurityConfig{
			ProductionMode: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Seal.PrivateKey = cloneBytes(cfg.Seal.PrivateKey)
	out.Seal.PublicKey = cloneBytes(cfg.Seal.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem found, or nil.
func (c *Config) Validate() error {
	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.KeyLength < session.MinKeyLength || c.Session.KeyLength > session.MaxKeyLength {
		return errors.New("Session KeyLength must be between 22 and 4096")
	}
	if c.Session.WriteTimeout <= 0 {
		return errors.New("Session WriteTimeout must be > 0")
	}
	if c.Session.RedisRetention < 0 {
		return errors.New("Session RedisRetention must be >= 0")
	}
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if _, err := codec.ForName(c.Session.Encoding); err != nil {
		return errors.New("Session Encoding must be one of " + strings.Join(codec.Names(), ", "))
	}

	// Seal
	if c.Seal.Enabled {
		switch seal.SigningMethod(c.Seal.SigningMethod) {
		case seal.MethodHS256:
			if len(c.Seal.PrivateKey) < seal.MinSecretLength {
				return errors.New("hs256 requires PrivateKey of at least 32 bytes")
			}
		case seal.MethodEd25519:
			if len(c.Seal.PrivateKey) == 0 {
				return errors.New("ed25519 requires PrivateKey")
			}
		default:
			return errors.New("unsupported Seal signing method")
		}
	}

	// Cookie
	if strings.TrimSpace(c.Cookie.Name) == "" {
		return errors.New("Cookie Name must not be empty")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Production
	if c.Security.ProductionMode {
		if !c.Seal.Enabled {
			return errors.New("ProductionMode requires signed session tokens")
		}
		if bytes.Equal(c.Seal.PrivateKey, DevelopmentSecret) {
			return errors.New("ProductionMode must not use the development secret")
		}
		if !c.Cookie.Secure || !c.Cookie.HTTPOnly {
			return errors.New("ProductionMode requires Secure and HTTPOnly cookies")
		}
	}

	return nil
}

func (c *Config) sealConfig() seal.Config {
	return seal.Config{
		SigningMethod: seal.SigningMethod(c.Seal.SigningMethod),
		PrivateKey:    cloneBytes(c.Seal.PrivateKey),
		PublicKey:     cloneBytes(c.Seal.PublicKey),
		Issuer:        c.Seal.Issuer,
		KeyID:         c.Seal.KeyID,
	}
}
