package goSession

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/goSession/authz"
	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var (
	adminID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	otherID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

type engineTest struct {
	engine *Engine
	mr     *miniredis.Miniredis
	clock  *clock.Mock
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func newEngineTest(t *testing.T, mutate func(*Config), sink AuditSink) *engineTest {
	t.Helper()

	mr, rdb := newTestRedis(t)
	clk := clock.NewMock()
	clk.Set(testEpoch)
	mr.SetTime(testEpoch)

	cfg := DefaultConfig()
	cfg.Session.KeyLength = 64
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithClock(clk).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &engineTest{engine: engine, mr: mr, clock: clk}
}

func (et *engineTest) login(t *testing.T, id uuid.UUID, r role.Role) string {
	t.Helper()
	res, err := et.engine.Login(context.Background(), LoginRequest{UserID: id, Role: r})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return res.Token
}

func TestEngineLoginResolveRoundTrip(t *testing.T) {
	et := newEngineTest(t, nil, nil)
	ctx := context.Background()

	res, err := et.engine.Login(ctx, LoginRequest{
		UserID: adminID,
		Role:   role.Admin,
		Extra:  map[string]string{"display": "root"},
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if len(res.Token) != 64 {
		t.Fatalf("expected 64-char raw key token, got %d", len(res.Token))
	}
	if !res.ExpiresAt.Equal(testEpoch.Add(24 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", res.ExpiresAt)
	}

	p, err := et.engine.Resolve(ctx, res.Token)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if p.ID != adminID || p.Role != role.Admin {
		t.Fatalf("unexpected principal %+v", p)
	}

	info, err := et.engine.Inspect(ctx, res.Token)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.Claims["display"] != "root" || info.Claims[authz.ClaimRoleID] != "3" {
		t.Fatalf("unexpected claims %v", info.Claims)
	}
	if !info.CreatedAt.Equal(testEpoch) {
		t.Fatalf("unexpected created_at %v", info.CreatedAt)
	}
}

func TestEngineAdminScenario(t *testing.T) {
	et := newEngineTest(t, nil, nil)
	ctx := context.Background()
	token := et.login(t, adminID, role.Admin)

	if _, err := et.engine.Authorize(ctx, token, authz.AdminOnly()); err != nil {
		t.Fatalf("AdminOnly denied admin: %v", err)
	}
	granted, err := et.engine.AuthorizeOwner(ctx, token, otherID.String())
	if err != nil {
		t.Fatalf("OwnerOrAdmin denied admin: %v", err)
	}
	if granted.ID() != adminID || granted.Role() != role.Admin {
		t.Fatalf("unexpected authorized principal %+v", granted.Principal())
	}
}

func TestEnginePolicyMatrix(t *testing.T) {
	et := newEngineTest(t, nil, nil)
	ctx := context.Background()

	guest := et.login(t, otherID, role.Guest)
	user := et.login(t, otherID, role.User)

	cases := []struct {
		name    string
		token   string
		policy  authz.Policy
		wantErr error
	}{
		{"guest any principal", guest, authz.AnyPrincipal(), nil},
		{"guest any user", guest, authz.AnyUser(), ErrUnauthorized},
		{"guest admin only", guest, authz.AdminOnly(), ErrUnauthorized},
		{"user any user", user, authz.AnyUser(), nil},
		{"user admin only", user, authz.AdminOnly(), ErrUnauthorized},
		{"user owns self", user, authz.OwnerOrAdminID(otherID), nil},
		{"user not owner", user, authz.OwnerOrAdminID(adminID), ErrUnauthorized},
		{"guest owns self", guest, authz.OwnerOrAdminID(otherID), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := et.engine.Authorize(ctx, tc.token, tc.policy)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("expected grant, got %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestEngineUnknownTokenUnauthenticated(t *testing.T) {
	et := newEngineTest(t, nil, nil)
	ctx := context.Background()

	for _, token := range []string{"", "nope", "has space", "unknownButWellFormedKey0123456789"} {
		if _, err := et.engine.Resolve(ctx, token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("token %q: expected ErrUnauthenticated, got %v", token, err)
		}
	}
}

func TestEngineExpiry(t *testing.T) {
	et := newEngineTest(t, func(cfg *Config) {
		cfg.Session.TTL = time.Hour
	}, nil)
	ctx := context.Background()
	token := et.login(t, adminID, role.User)

	et.clock.Add(59 * time.Minute)
	if _, err := et.engine.Resolve(ctx, token); err != nil {
		t.Fatalf("expected live session, got %v", err)
	}

	et.clock.Add(time.Minute)
	if _, err := et.engine.Resolve(ctx, token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated at expiry, got %v", err)
	}
}

func TestEngineTouchExtends(t *testing.T) {
	et := newEngineTest(t, func(cfg *Config) {
		cfg.Session.TTL = time.Hour
	}, nil)
	ctx := context.Background()
	token := et.login(t, adminID, role.User)

	et.clock.Add(50 * time.Minute)
	expiresAt, err := et.engine.Touch(ctx, token)
	if err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	if !expiresAt.Equal(testEpoch.Add(110 * time.Minute)) {
		t.Fatalf("unexpected expiry %v", expiresAt)
	}

	et.clock.Add(50 * time.Minute)
	if _, err := et.engine.Resolve(ctx, token); err != nil {
		t.Fatalf("expected renewed session to be live, got %v", err)
	}

	et.clock.Add(time.Hour)
	_, err = et.engine.Touch(ctx, token)
	if !errors.Is(err, ErrUnauthenticated) || !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected unauthenticated/not found on expired touch, got %v", err)
	}
}

func TestEngineReportedExpiryMatchesStoredExpiry(t *testing.T) {
	et := newEngineTest(t, nil, nil)
	ctx := context.Background()

	// Sub-millisecond offsets are dropped by the backend.
	et.clock.Add(1500 * time.Microsecond)
	res, err := et.engine.Login(ctx, LoginRequest{UserID: adminID, Role: role.User})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	info, err := et.engine.Inspect(ctx, res.Token)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if !res.ExpiresAt.Equal(info.ExpiresAt) {
		t.Fatalf("login reported expiry %v, stored %v", res.ExpiresAt, info.ExpiresAt)
	}

	et.clock.Add(2*time.Minute + 700*time.Microsecond)
	touched, err := et.engine.Touch(ctx, res.Token)
	if err != nil {
		t.Fatalf("Touch failed: %v", err)
	}
	info, err = et.engine.Inspect(ctx, res.Token)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if !touched.Equal(info.ExpiresAt) {
		t.Fatalf("touch reported expiry %v, stored %v", touched, info.ExpiresAt)
	}
}

func TestEngineSlidingRenewal(t *testing.T) {
	et := newEngineTest(t, func(cfg *Config) {
		cfg.Session.TTL = time.Hour
		cfg.Session.SlidingRenewal = true
	}, nil)
	ctx := context.Background()
	token := et.login(t, adminID, role.User)

	for i := 0; i < 5; i++ {
		et.clock.Add(45 * time.Minute)
		if _, err := et.engine.Authorize(ctx, token, authz.AnyUser()); err != nil {
			t.Fatalf("step %d: expected sliding session to stay live, got %v", i, err)
		}
	}

	if got := et.engine.MetricsSnapshot().Counters[MetricSessionRenewed]; got != 5 {
		t.Fatalf("expected 5 renewals, got %d", got)
	}
}

func TestEngineLogoutIdempotent(t *testing.T) {
	et := newEngineTest(t, nil, nil)
	ctx := context.Background()
	token := et.login(t, adminID, role.Admin)

	if err := et.engine.Logout(ctx, token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if err := et.engine.Logout(ctx, token); err != nil {
		t.Fatalf("second Logout should succeed, got %v", err)
	}
	if _, err := et.engine.Resolve(ctx, token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after logout, got %v", err)
	}

	snap := et.engine.MetricsSnapshot()
	if snap.Counters[MetricLogout] != 2 || snap.Counters[MetricSessionDeleted] != 1 {
		t.Fatalf("unexpected logout metrics %v", snap.Counters)
	}
}

func TestEngineUpdateClaimsKeepsIdentity(t *testing.T) {
	et := newEngineTest(t, nil, nil)
	ctx := context.Background()
	token := et.login(t, otherID, role.User)

	if err := et.engine.UpdateClaims(ctx, token, map[string]string{"theme": "dark"}); err != nil {
		t.Fatalf("UpdateClaims failed: %v", err)
	}
	info, err := et.engine.Inspect(ctx, token)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if info.Principal.ID != otherID || info.Principal.Role != role.User || info.Claims["theme"] != "dark" {
		t.Fatalf("unexpected session after update: %+v", info)
	}

	err = et.engine.UpdateClaims(ctx, token, map[string]string{authz.ClaimRoleID: "3"})
	if !errors.Is(err, ErrReservedClaim) {
		t.Fatalf("expected ErrReservedClaim, got %v", err)
	}
	p, err := et.engine.Resolve(ctx, token)
	if err != nil || p.Role != role.User {
		t.Fatalf("role must not change through extra claims: %+v %v", p, err)
	}
}

func TestEngineLoginRejectsBadInput(t *testing.T) {
	et := newEngineTest(t, nil, nil)
	ctx := context.Background()

	if _, err := et.engine.Login(ctx, LoginRequest{UserID: uuid.Nil, Role: role.User}); !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("expected ErrInvalidIdentity for nil id, got %v", err)
	}
	if _, err := et.engine.Login(ctx, LoginRequest{UserID: adminID, Role: role.Role(42)}); !errors.Is(err, role.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	_, err := et.engine.Login(ctx, LoginRequest{
		UserID: adminID,
		Role:   role.User,
		Extra:  map[string]string{authz.ClaimUserID: otherID.String()},
	})
	if !errors.Is(err, ErrReservedClaim) {
		t.Fatalf("expected ErrReservedClaim, got %v", err)
	}

	if got := et.engine.MetricsSnapshot().Counters[MetricSessionCreateFailure]; got != 3 {
		t.Fatalf("expected 3 create failures, got %d", got)
	}
}

func TestEngineAuthorizeOwnerInvalidIdentity(t *testing.T) {
	et := newEngineTest(t, nil, nil)
	ctx := context.Background()
	token := et.login(t, adminID, role.Admin)

	_, err := et.engine.AuthorizeOwner(ctx, token, "not-a-uuid")
	if !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("expected ErrInvalidIdentity, got %v", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatal("invalid identity must not be reported as unauthorized")
	}

	snap := et.engine.MetricsSnapshot()
	if snap.Counters[MetricInvalidIdentity] != 1 || snap.Counters[MetricSessionLoaded] != 0 {
		t.Fatalf("invalid identity must fail before session lookup: %v", snap.Counters)
	}
}

func TestEngineMalformedClaimsHardFailure(t *testing.T) {
	et := newEngineTest(t, nil, nil)
	ctx := context.Background()

	key, _, err := et.engine.Store().Create(ctx, session.State{
		authz.ClaimUserID: adminID.String(),
		authz.ClaimRoleID: "administrator",
	}, time.Hour)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = et.engine.Authorize(ctx, key, authz.AnyPrincipal())
	if !errors.Is(err, ErrMalformedClaims) || !errors.Is(err, ErrDeserialize) {
		t.Fatalf("expected malformed claims error, got %v", err)
	}
	if errors.Is(err, ErrUnauthenticated) {
		t.Fatal("malformed claims must not degrade to unauthenticated")
	}
	if got := et.engine.MetricsSnapshot().Counters[MetricSessionCorrupt]; got != 1 {
		t.Fatalf("expected corrupt counter 1, got %d", got)
	}
}

func TestEngineUnknownRoleCodeResolvesGuest(t *testing.T) {
	et := newEngineTest(t, nil, nil)
	ctx := context.Background()

	key, _, err := et.engine.Store().Create(ctx, session.State{
		authz.ClaimUserID: adminID.String(),
		authz.ClaimRoleID: "99",
	}, time.Hour)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	p, err := et.engine.Resolve(ctx, key)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if p.Role != role.Guest {
		t.Fatalf("expected guest for unknown role code, got %v", p.Role)
	}
	if _, err := et.engine.Authorize(ctx, key, authz.AnyUser()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected guest to be unauthorized for AnyUser, got %v", err)
	}
}

func TestEngineStorageFailure(t *testing.T) {
	et := newEngineTest(t, nil, nil)
	ctx := context.Background()
	token := et.login(t, adminID, role.Admin)

	et.mr.Close()

	_, err := et.engine.Authorize(ctx, token, authz.AnyPrincipal())
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if errors.Is(err, ErrUnauthenticated) {
		t.Fatal("storage failure must not be reported as unauthenticated")
	}
	if err := et.engine.Logout(ctx, token); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected Logout to surface ErrStorage, got %v", err)
	}
	if got := et.engine.MetricsSnapshot().Counters[MetricStorageFailure]; got < 2 {
		t.Fatalf("expected storage failures to be counted, got %d", got)
	}
}

func TestEngineCancelledReadIsNotStorageFailure(t *testing.T) {
	et := newEngineTest(t, nil, nil)
	token := et.login(t, adminID, role.Admin)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := et.engine.Authorize(ctx, token, authz.AnyPrincipal())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
	if got := et.engine.MetricsSnapshot().Counters[MetricStorageFailure]; got != 0 {
		t.Fatalf("cancelled read counted as storage failure %d times", got)
	}
}

func TestEngineNoPrincipalCaching(t *testing.T) {
	et := newEngineTest(t, nil, nil)
	ctx := context.Background()
	token := et.login(t, otherID, role.User)

	if _, err := et.engine.Authorize(ctx, token, authz.AnyUser()); err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if err := et.engine.Store().Update(ctx, token, authz.Claims(otherID, role.Guest), time.Hour); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := et.engine.Authorize(ctx, token, authz.AnyUser()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected demoted session to be unauthorized, got %v", err)
	}
}

func TestEngineSQLBackend(t *testing.T) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if err := session.CreateTable(ctx, db); err != nil {
		t.Fatalf("create table: %v", err)
	}

	engine, err := New().WithDB(db).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	res, err := engine.Login(ctx, LoginRequest{UserID: adminID, Role: role.Admin})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := engine.AuthorizeOwner(ctx, res.Token, otherID.String()); err != nil {
		t.Fatalf("AuthorizeOwner failed: %v", err)
	}
	if err := engine.Logout(ctx, res.Token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := engine.Resolve(ctx, res.Token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after logout, got %v", err)
	}
}

func TestEngineNilSafe(t *testing.T) {
	var e *Engine
	ctx := context.Background()

	if _, err := e.Resolve(ctx, "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if err := e.Logout(ctx, "x"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	e.Close()
	if e.AuditDropped() != 0 {
		t.Fatal("expected zero dropped on nil engine")
	}
	if len(e.MetricsSnapshot().Counters) != 0 {
		t.Fatal("expected empty snapshot on nil engine")
	}
}
