package internaldefs

import (
	"github.com/MrEthical07/payguard"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   payguard.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram for exporters.
type HistogramDef struct {
	ID   payguard.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: payguard.MetricLoginSuccess, Name: "payguard_login_success_total", Help: "Logins that produced a stored session."},
	{ID: payguard.MetricLoginFailure, Name: "payguard_login_failure_total", Help: "Logins rejected by the backend or storage."},
	{ID: payguard.MetricLogout, Name: "payguard_logout_total", Help: "Completed logouts."},
	{ID: payguard.MetricSessionRestored, Name: "payguard_session_restored_total", Help: "Startup restores that produced a session."},
	{ID: payguard.MetricSessionRestoreEmpty, Name: "payguard_session_restore_empty_total", Help: "Startup restores with nothing persisted."},
	{ID: payguard.MetricSessionDiscarded, Name: "payguard_session_discarded_total", Help: "Persisted sessions dropped as invalid or expired."},
	{ID: payguard.MetricSessionRevoked, Name: "payguard_session_revoked_total", Help: "Sessions cleared by a 401 response."},
	{ID: payguard.MetricNavigationAllowed, Name: "payguard_navigation_allowed_total", Help: "Navigations allowed by the route guard."},
	{ID: payguard.MetricNavigationLogin, Name: "payguard_navigation_login_redirect_total", Help: "Navigations redirected to login."},
	{ID: payguard.MetricNavigationUnauthorized, Name: "payguard_navigation_unauthorized_total", Help: "Navigations redirected to the unauthorized page."},
	{ID: payguard.MetricNavigationHome, Name: "payguard_navigation_home_redirect_total", Help: "Authenticated navigations to auth pages redirected home."},
	{ID: payguard.MetricRequestSigned, Name: "payguard_request_signed_total", Help: "Outbound requests carrying a bearer token."},
	{ID: payguard.MetricRequestAnonymous, Name: "payguard_request_anonymous_total", Help: "Outbound requests sent without a session."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: payguard.MetricLoginLatency, Name: "payguard_login_latency_seconds", Help: "Login round-trip latency."},
}

// AuditDroppedName and AuditDroppedHelp describe the dispatcher drop counter.
const (
	AuditDroppedName = "payguard_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// HistogramUpperBounds are the finite bucket bounds in seconds. The eighth
// bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// HistogramBoundSuffix names each bucket in instrument names.
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

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
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
