package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter exported for dispatcher drops.
const AuditDroppedName = "gosession_audit_dropped_total"

// AuditDroppedHelp describes [AuditDroppedName].
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

var CounterDefs = []CounterDef{
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Sessions created by login."},
	{ID: goSession.MetricSessionCreateFailure, Name: "gosession_session_create_failure_total", Help: "Failed login attempts."},
	{ID: goSession.MetricSessionLoaded, Name: "gosession_session_loaded_total", Help: "Live sessions read from the store."},
	{ID: goSession.MetricSessionMissing, Name: "gosession_session_missing_total", Help: "Reads that found no live session."},
	{ID: goSession.MetricSessionUpdated, Name: "gosession_session_updated_total", Help: "Session claim replacements."},
	{ID: goSession.MetricSessionRenewed, Name: "gosession_session_renewed_total", Help: "Session TTL renewals."},
	{ID: goSession.MetricSessionDeleted, Name: "gosession_session_deleted_total", Help: "Live sessions deleted."},
	{ID: goSession.MetricSessionNotFound, Name: "gosession_session_not_found_total", Help: "Mutations against absent or expired sessions."},
	{ID: goSession.MetricSessionCorrupt, Name: "gosession_session_corrupt_total", Help: "Stored sessions that failed to decode."},
	{ID: goSession.MetricStorageFailure, Name: "gosession_storage_failure_total", Help: "Session backend failures."},
	{ID: goSession.MetricTokenInvalid, Name: "gosession_token_invalid_total", Help: "Client tokens that failed verification."},
	{ID: goSession.MetricResolveUnauthenticated, Name: "gosession_resolve_unauthenticated_total", Help: "Resolutions without a usable session."},
	{ID: goSession.MetricAuthorizeGranted, Name: "gosession_authorize_granted_total", Help: "Granted authorization checks."},
	{ID: goSession.MetricAuthorizeDenied, Name: "gosession_authorize_denied_total", Help: "Denied authorization checks."},
	{ID: goSession.MetricInvalidIdentity, Name: "gosession_invalid_identity_total", Help: "Owner checks with a malformed identity."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Logout calls."},
}

var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricAuthorizeLatency, Name: "gosession_authorize_latency_seconds", Help: "Authorize latency histogram."},
}

// HistogramUpperBounds are the finite bucket bounds in seconds. The engine
// keeps one more bucket for +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to the engine's bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
