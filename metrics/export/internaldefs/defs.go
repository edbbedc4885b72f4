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

var CounterDefs = []CounterDef{
	{ID: goSession.MetricAuthSuccess, Name: "gosession_auth_success_total", Help: "Requests that produced an authenticated session."},
	{ID: goSession.MetricAuthTokenMissing, Name: "gosession_auth_token_missing_total", Help: "Requests rejected for a missing bearer credential."},
	{ID: goSession.MetricAuthTokenInvalid, Name: "gosession_auth_token_invalid_total", Help: "Requests rejected for a credential that failed verification."},
	{ID: goSession.MetricTokenIssued, Name: "gosession_token_issued_total", Help: "Tokens issued."},
	{ID: goSession.MetricTokenIssueFailure, Name: "gosession_token_issue_failure_total", Help: "Rejected token issuance requests."},
	{ID: goSession.MetricSessionGet, Name: "gosession_session_get_total", Help: "Session field reads."},
	{ID: goSession.MetricSessionSet, Name: "gosession_session_set_total", Help: "Session field writes."},
	{ID: goSession.MetricSessionNotFound, Name: "gosession_session_not_found_total", Help: "Session field reads of absent fields."},
	{ID: goSession.MetricSessionStoreError, Name: "gosession_session_store_error_total", Help: "Session operations rejected by the store."},
	{ID: goSession.MetricSessionConnectionError, Name: "gosession_session_connection_error_total", Help: "Session operations that could not reach the store."},
}

// The engine keeps exactly one histogram, MetricAuthenticateLatency.
const (
	LatencyName = "gosession_authenticate_latency_seconds"
	LatencyHelp = "Authenticate latency histogram."
)

// HistogramUpperBounds are the finite bucket bounds in seconds; the eighth bucket is +Inf.
var HistogramUpperBounds = []float64{
	0.001,
	0.002,
	0.005,
	0.01,
	0.025,
	0.05,
	0.1,
}

// HistogramBoundSuffix names each bucket for exporters without native histograms.
var HistogramBoundSuffix = []string{
	"0_001",
	"0_002",
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"inf",
}

const (
	AuditDroppedName = "gosession_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts to running totals; the last entry is the sample count.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
