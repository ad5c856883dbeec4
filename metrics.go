package goEstate

import (
	"sync/atomic"
	"time"
)

// MetricID names one Engine counter or histogram.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that unlocked an account and created a session.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts logins the node rejected.
	MetricLoginFailure
	// MetricLoginRateLimited counts logins refused by the limiter.
	MetricLoginRateLimited
	// MetricRegisterSuccess counts accounts minted by Register.
	MetricRegisterSuccess
	// MetricRegisterPolicyRejected counts registrations refused by the password policy.
	MetricRegisterPolicyRejected
	// MetricRegisterRateLimited counts registrations refused by the limiter.
	MetricRegisterRateLimited
	// MetricRateLimitHit counts every limiter denial.
	MetricRateLimitHit
	// MetricSessionCreated counts persisted sessions.
	MetricSessionCreated
	// MetricSessionInvalidated counts tokens whose session was missing or expired.
	MetricSessionInvalidated
	// MetricSessionBindingRejected counts sessions presented from another client.
	MetricSessionBindingRejected
	// MetricLogout counts single-session logouts.
	MetricLogout
	// MetricLogoutAll counts address-wide revocations.
	MetricLogoutAll
	// MetricAccountLocked counts personal_lockAccount calls that succeeded.
	MetricAccountLocked
	// MetricAccountLockFailure counts personal_lockAccount calls that failed.
	MetricAccountLockFailure
	// MetricTxSubmitted counts transactions accepted by the node.
	MetricTxSubmitted
	// MetricCallSuccess counts read-only contract calls that returned data.
	MetricCallSuccess
	// MetricContractRejected counts contract reverts on reads and writes.
	MetricContractRejected
	// MetricArgumentInvalid counts operations refused before reaching the node.
	MetricArgumentInvalid
	// MetricNodeFailure counts node errors that were neither a revert nor a password rejection.
	MetricNodeFailure
	// MetricNodeCallLatency is the latency histogram of every node JSON-RPC call.
	MetricNodeCallLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters plus the node latency histogram.
// A disabled Metrics ignores every update.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every metric. Histogram buckets are
// non-cumulative, bounded at 5, 10, 25, 50, 100, 250 and 500 ms plus overflow.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns a Metrics honouring cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to counter id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram id. Only [MetricNodeCallLatency] is a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricNodeCallLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of counter id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when enabled, the latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricNodeCallLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricNodeCallLatency].buckets[i])
		}
		s.Histograms[MetricNodeCallLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
