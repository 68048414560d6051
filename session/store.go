package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goSession/codec"
	"github.com/MrEthical07/goSession/internal"
	"github.com/benbjohnson/clock"
)

var (
	// ErrNotFound is returned when an operation requires a live record and
	// none exists under the key.
	ErrNotFound = errors.New("session not found")
	// ErrStorage wraps failures of the backing store.
	ErrStorage = errors.New("session storage unavailable")
	// ErrKeyExists is returned by [Backend.Insert] when the key is taken.
	ErrKeyExists = errors.New("session key already exists")
	// ErrKeyGeneration is returned when no unused key could be produced.
	ErrKeyGeneration = errors.New("session key generation failed")
)

const (
	// DefaultKeyLength is the number of alphanumeric symbols in a new key
	// (about 1524 bits of entropy).
	DefaultKeyLength = 256
	// MinKeyLength keeps generated keys above 128 bits of entropy.
	MinKeyLength = 22
	// MaxKeyLength bounds accepted keys.
	MaxKeyLength = 4096

	// DefaultWriteTimeout bounds a single backend write once it has started.
	DefaultWriteTimeout = 5 * time.Second

	createAttempts = 3
)

// Store creates, reads, and mutates sessions through a [Backend].
//
// Store holds no per-session state and is safe for concurrent use. It has no
// default TTL: every call that sets an expiry takes one explicitly.
type Store struct {
	backend      Backend
	codec        codec.Codec
	clock        clock.Clock
	logger       *slog.Logger
	keyLength    int
	writeTimeout time.Duration
}

// Option configures a [Store].
type Option func(*Store)

// WithCodec selects the claim encoding. Defaults to [codec.Default].
func WithCodec(c codec.Codec) Option {
	return func(s *Store) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithClock replaces the time source used for expiry arithmetic.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithKeyLength sets the length of generated keys, clamped to
// [MinKeyLength, MaxKeyLength].
func WithKeyLength(n int) Option {
	return func(s *Store) {
		switch {
		case n < MinKeyLength:
			s.keyLength = MinKeyLength
		case n > MaxKeyLength:
			s.keyLength = MaxKeyLength
		default:
			s.keyLength = n
		}
	}
}

// WithWriteTimeout bounds each backend write. Writes are detached from caller
// cancellation so a cancelled request never abandons a write half way.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// NewStore builds a Store over backend.
func NewStore(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:      backend,
		codec:        codec.Default(),
		clock:        clock.New(),
		logger:       slog.New(slog.DiscardHandler),
		keyLength:    DefaultKeyLength,
		writeTimeout: DefaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Codec returns the codec used to encode claims.
func (s *Store) Codec() codec.Codec {
	return s.codec
}

// Create persists state under a fresh key that expires after ttl and returns
// the key with the expiry that was stored. A zero or negative ttl yields a
// record that is already expired.
func (s *Store) Create(ctx context.Context, state State, ttl time.Duration) (string, time.Time, error) {
	data, err := s.codec.Encode(state)
	if err != nil {
		return "", time.Time{}, err
	}

	now := s.now()
	rec := &Record{
		CreatedAt: now,
		Data:      data,
		ExpiresAt: now.Add(ttl),
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		key, err := internal.RandomAlphanumeric(s.keyLength)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
		}
		rec.Key = key

		err = s.write(ctx, func(wctx context.Context) error {
			return s.backend.Insert(wctx, rec)
		})
		if errors.Is(err, ErrKeyExists) {
			s.logger.WarnContext(ctx, "session key collision", "key", internal.Fingerprint(key), "attempt", attempt+1)
			continue
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "session create failed", "error", err)
			return "", time.Time{}, err
		}

		s.logger.DebugContext(ctx, "session created", "key", internal.Fingerprint(key), "ttl", ttl)
		return key, rec.ExpiresAt, nil
	}

	return "", time.Time{}, fmt.Errorf("%w: %d collisions", ErrKeyGeneration, createAttempts)
}

// Load returns the state of a live session. The boolean is false when no
// record exists or the record has expired; an expired record is deleted as a
// side effect. A live record whose blob cannot be decoded yields an error
// wrapping [codec.ErrDeserialize].
func (s *Store) Load(ctx context.Context, key string) (State, bool, error) {
	rec, err := s.lookup(ctx, key)
	if err != nil || rec == nil {
		return nil, false, err
	}

	state, err := s.codec.Decode(rec.Data)
	if err != nil {
		s.logger.ErrorContext(ctx, "session blob corrupt", "key", internal.Fingerprint(key), "error", err)
		return nil, false, err
	}
	return State(state), true, nil
}

// Inspect is like [Store.Load] but also returns record timestamps. It returns
// ErrNotFound when Load would report absence.
func (s *Store) Inspect(ctx context.Context, key string) (*Snapshot, error) {
	rec, err := s.lookup(ctx, key)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	state, err := s.codec.Decode(rec.Data)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		State:     State(state),
		CreatedAt: rec.CreatedAt,
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

// Snapshot is a decoded live session with its timestamps.
type Snapshot struct {
	State     State
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Update replaces the state of a live session and resets its expiry to
// now+ttl. It returns ErrNotFound if the session is absent or expired.
func (s *Store) Update(ctx context.Context, key string, state State, ttl time.Duration) error {
	if !ValidKey(key) {
		return ErrNotFound
	}
	data, err := s.codec.Encode(state)
	if err != nil {
		return err
	}

	now := s.now()
	err = s.write(ctx, func(wctx context.Context) error {
		return s.backend.Replace(wctx, key, data, now.Add(ttl), now)
	})
	if err != nil {
		s.logFailure(ctx, "session update failed", key, err)
		return err
	}

	s.logger.DebugContext(ctx, "session updated", "key", internal.Fingerprint(key), "ttl", ttl)
	return nil
}

// RenewTTL sets the expiry of a live session to now+ttl without touching its
// state and returns the stored expiry. It returns ErrNotFound if the session
// is absent or expired.
func (s *Store) RenewTTL(ctx context.Context, key string, ttl time.Duration) (time.Time, error) {
	if !ValidKey(key) {
		return time.Time{}, ErrNotFound
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	err := s.write(ctx, func(wctx context.Context) error {
		return s.backend.Touch(wctx, key, expiresAt, now)
	})
	if err != nil {
		s.logFailure(ctx, "session renew failed", key, err)
		return time.Time{}, err
	}

	s.logger.DebugContext(ctx, "session renewed", "key", internal.Fingerprint(key), "ttl", ttl)
	return expiresAt, nil
}

// Delete removes a session. It returns ErrNotFound when no live record was
// removed; an expired record under key is still purged.
func (s *Store) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return ErrNotFound
	}

	now := s.now()
	var live bool
	err := s.write(ctx, func(wctx context.Context) error {
		var err error
		live, err = s.backend.Remove(wctx, key, now)
		return err
	})
	if err != nil {
		s.logFailure(ctx, "session delete failed", key, err)
		return err
	}
	if !live {
		return ErrNotFound
	}

	s.logger.DebugContext(ctx, "session deleted", "key", internal.Fingerprint(key))
	return nil
}

// lookup returns the live record under key, nil if there is none, purging an
// expired record on the way.
func (s *Store) lookup(ctx context.Context, key string) (*Record, error) {
	if !ValidKey(key) {
		return nil, nil
	}

	rec, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "session load failed", "key", internal.Fingerprint(key), "error", err)
		return nil, err
	}

	now := s.now()
	if rec.Live(now) {
		return rec, nil
	}

	err = s.write(ctx, func(wctx context.Context) error {
		_, err := s.backend.Remove(wctx, key, now)
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "expired session purge failed", "key", internal.Fingerprint(key), "error", err)
		return nil, err
	}
	s.logger.DebugContext(ctx, "expired session purged", "key", internal.Fingerprint(key))
	return nil, nil
}

func (s *Store) write(ctx context.Context, fn func(context.Context) error) error {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	return fn(wctx)
}

// now is truncated to the millisecond precision every backend persists, so
// timestamps handed back to callers match what a later Inspect reads.
func (s *Store) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Millisecond)
}

func (s *Store) logFailure(ctx context.Context, msg, key string, err error) {
	if errors.Is(err, ErrNotFound) {
		s.logger.DebugContext(ctx, msg, "key", internal.Fingerprint(key), "error", err)
		return
	}
	s.logger.ErrorContext(ctx, msg, "key", internal.Fingerprint(key), "error", err)
}

// ValidKey reports whether key has an acceptable length and only printable
// ASCII characters. Invalid keys can never name a stored session.
func ValidKey(key string) bool {
	if len(key) == 0 || len(key) > MaxKeyLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 0x21 || key[i] > 0x7e {
			return false
		}
	}
	return true
}
