package internaldefs

import (
	goEstate "github.com/MrEthical07/goEstate"
)

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   goEstate.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   goEstate.MetricID
	Name string
	Help string
}

// AuditDroppedName is exported next to the engine counters by every exporter.
const AuditDroppedName = "goestate_audit_dropped_total"

// AuditDroppedHelp describes [AuditDroppedName].
const AuditDroppedHelp = "Audit events dropped under dispatcher backpressure."

// CounterDefs lists every engine counter in export order.
var CounterDefs = []CounterDef{
	{ID: goEstate.MetricLoginSuccess, Name: "goestate_login_success_total", Help: "Logins that unlocked an account and opened a session."},
	{ID: goEstate.MetricLoginFailure, Name: "goestate_login_failure_total", Help: "Logins the node refused."},
	{ID: goEstate.MetricLoginRateLimited, Name: "goestate_login_rate_limited_total", Help: "Logins refused by the attempt limiter."},
	{ID: goEstate.MetricRegisterSuccess, Name: "goestate_register_success_total", Help: "Registrations that minted and unlocked an account."},
	{ID: goEstate.MetricRegisterPolicyRejected, Name: "goestate_register_policy_rejected_total", Help: "Registrations refused by the password policy."},
	{ID: goEstate.MetricRegisterRateLimited, Name: "goestate_register_rate_limited_total", Help: "Registrations refused by the registration limiter."},
	{ID: goEstate.MetricRateLimitHit, Name: "goestate_rate_limit_hit_total", Help: "Limiter checks that denied a request."},
	{ID: goEstate.MetricSessionCreated, Name: "goestate_session_created_total", Help: "Sessions opened."},
	{ID: goEstate.MetricSessionInvalidated, Name: "goestate_session_invalidated_total", Help: "Tokens presented for a session that no longer exists."},
	{ID: goEstate.MetricSessionBindingRejected, Name: "goestate_session_binding_rejected_total", Help: "Sessions presented from a different client."},
	{ID: goEstate.MetricLogout, Name: "goestate_logout_total", Help: "Single-session logouts."},
	{ID: goEstate.MetricLogoutAll, Name: "goestate_logout_all_total", Help: "Address-wide session revocations."},
	{ID: goEstate.MetricAccountLocked, Name: "goestate_account_locked_total", Help: "Node accounts locked."},
	{ID: goEstate.MetricAccountLockFailure, Name: "goestate_account_lock_failure_total", Help: "Node account locks that failed."},
	{ID: goEstate.MetricTxSubmitted, Name: "goestate_tx_submitted_total", Help: "Contract transactions accepted by the node."},
	{ID: goEstate.MetricCallSuccess, Name: "goestate_call_success_total", Help: "Read-only contract calls that returned."},
	{ID: goEstate.MetricContractRejected, Name: "goestate_contract_rejected_total", Help: "Contract operations reverted by the contract."},
	{ID: goEstate.MetricArgumentInvalid, Name: "goestate_argument_invalid_total", Help: "Contract operations refused before reaching the node."},
	{ID: goEstate.MetricNodeFailure, Name: "goestate_node_failure_total", Help: "Operations that failed on node transport."},
}

// HistogramDefs lists every engine histogram in export order.
var HistogramDefs = []HistogramDef{
	{ID: goEstate.MetricNodeCallLatency, Name: "goestate_node_call_latency_seconds", Help: "Latency of node JSON-RPC calls."},
}

// HistogramBounds are the upper bounds of the engine's latency buckets, in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
