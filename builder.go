package goSession

import (
	"errors"
	"log/slog"

	"github.com/MrEthical07/goSession/authz"
	"github.com/MrEthical07/goSession/codec"
	"github.com/MrEthical07/goSession/seal"
	"github.com/MrEthical07/goSession/session"
	"github.com/benbjohnson/clock"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

// Builder assembles an [Engine]. Configure it once, call Build, then discard
// it; a Builder can only be built once.
type Builder struct {
	config Config

	redis   redis.UniversalClient
	db      *bun.DB
	backend session.Backend

	logger    *slog.Logger
	clock     clock.Clock
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis stores sessions in Redis.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDB stores sessions in the sessions table of db. The table must exist;
// see the migrate command.
func (b *Builder) WithDB(db *bun.DB) *Builder {
	b.db = db
	return b
}

// WithBackend stores sessions in a caller-provided backend.
func (b *Builder) WithBackend(backend session.Backend) *Builder {
	b.backend = backend
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the time source. Tests pass a clock.Mock.
func (b *Builder) WithClock(c clock.Clock) *Builder {
	b.clock = c
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine. Exactly one of
// WithRedis, WithDB or WithBackend must have been called.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend, err := b.selectBackend(cfg)
	if err != nil {
		return nil, err
	}

	c, err := codec.ForName(cfg.Session.Encoding)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clk := b.clock
	if clk == nil {
		clk = clock.New()
	}

	store := session.NewStore(backend,
		session.WithCodec(c),
		session.WithClock(clk),
		session.WithLogger(logger),
		session.WithKeyLength(cfg.Session.KeyLength),
		session.WithWriteTimeout(cfg.Session.WriteTimeout),
	)

	engine := &Engine{
		config:   cloneConfig(cfg),
		store:    store,
		resolver: authz.NewResolver(store),
		clock:    clk,
		logger:   logger,
	}

	if cfg.Seal.Enabled {
		sealer, err := seal.New(cfg.sealConfig())
		if err != nil {
			return nil, err
		}
		if !sealer.CanSeal() {
			return nil, errors.New("Seal requires a signing key")
		}
		engine.sealer = sealer
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}

func (b *Builder) selectBackend(cfg Config) (session.Backend, error) {
	configured := 0
	for _, set := range []bool{b.redis != nil, b.db != nil, b.backend != nil} {
		if set {
			configured++
		}
	}
	switch {
	case configured == 0:
		return nil, errors.New("session backend required: use WithRedis, WithDB or WithBackend")
	case configured > 1:
		return nil, errors.New("exactly one session backend must be configured")
	}

	switch {
	case b.redis != nil:
		return session.NewRedisBackend(b.redis, cfg.Session.RedisPrefix, cfg.Session.RedisRetention), nil
	case b.db != nil:
		return session.NewSQLBackend(b.db), nil
	default:
		return b.backend, nil
	}
}
