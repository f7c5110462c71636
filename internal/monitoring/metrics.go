package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds engine and HTTP metrics
type Metrics struct {
	RequestCount int64
	ErrorCount   int64
	CacheHits    int64
	CacheMisses  int64
	StartTime    time.Time

	// Engine counters
	BidsScored          int64
	AnalysesRun         int64
	AnalysesSuperseded  int64
	SkippedBids         int64
	CollusionGroupsSeen int64

	// Dumping cases by severity
	DumpingCases      map[string]int64
	DumpingCasesMutex sync.RWMutex

	// Rate limit counters
	RateLimitBlocks      int64
	RateLimitRedisErrors int64
	RateLimitFallbacks   int64

	// Response time percentiles
	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	// Status code tracking
	RequestCountByStatus map[int]int64
	StatusMutex          sync.RWMutex
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:            time.Now(),
		ResponseTimes:        make([]time.Duration, 0, 1000),
		RequestCountByStatus: make(map[int]int64),
		DumpingCases:         make(map[string]int64),
	}
}

func (m *Metrics) IncrementRequest() { atomic.AddInt64(&m.RequestCount, 1) }
func (m *Metrics) IncrementError()   { atomic.AddInt64(&m.ErrorCount, 1) }

func (m *Metrics) IncrementCacheHit()  { atomic.AddInt64(&m.CacheHits, 1) }
func (m *Metrics) IncrementCacheMiss() { atomic.AddInt64(&m.CacheMisses, 1) }

func (m *Metrics) IncrementBidsScored()         { atomic.AddInt64(&m.BidsScored, 1) }
func (m *Metrics) IncrementAnalyses()           { atomic.AddInt64(&m.AnalysesRun, 1) }
func (m *Metrics) IncrementAnalysesSuperseded() { atomic.AddInt64(&m.AnalysesSuperseded, 1) }

// AddSkippedBids records bids excluded from an analysis run
func (m *Metrics) AddSkippedBids(n int) { atomic.AddInt64(&m.SkippedBids, int64(n)) }

// AddCollusionGroups records reported collusion groups
func (m *Metrics) AddCollusionGroups(n int) { atomic.AddInt64(&m.CollusionGroupsSeen, int64(n)) }

// RecordDumpingCases tallies dumping cases by severity
func (m *Metrics) RecordDumpingCases(severity string, n int) {
	if n == 0 {
		return
	}
	m.DumpingCasesMutex.Lock()
	defer m.DumpingCasesMutex.Unlock()
	m.DumpingCases[severity] += int64(n)
}

func (m *Metrics) IncrementRateLimitBlock()      { atomic.AddInt64(&m.RateLimitBlocks, 1) }
func (m *Metrics) IncrementRateLimitRedisError() { atomic.AddInt64(&m.RateLimitRedisErrors, 1) }
func (m *Metrics) IncrementRateLimitFallback()   { atomic.AddInt64(&m.RateLimitFallbacks, 1) }

// RecordResponseTime stores a response time sample, keeping the window
// bounded
func (m *Metrics) RecordResponseTime(d time.Duration) {
	m.ResponseTimesMutex.Lock()
	defer m.ResponseTimesMutex.Unlock()

	m.ResponseTimes = append(m.ResponseTimes, d)
	if len(m.ResponseTimes) > 1000 {
		m.ResponseTimes = m.ResponseTimes[len(m.ResponseTimes)-1000:]
	}
}

// RecordRequestByStatus tracks request counts per status code
func (m *Metrics) RecordRequestByStatus(status int) {
	m.StatusMutex.Lock()
	defer m.StatusMutex.Unlock()
	m.RequestCountByStatus[status]++
}

// percentile returns the given percentile over the sampled response times
func (m *Metrics) percentile(p float64) time.Duration {
	m.ResponseTimesMutex.RLock()
	defer m.ResponseTimesMutex.RUnlock()

	if len(m.ResponseTimes) == 0 {
		return 0
	}

	sorted := append([]time.Duration(nil), m.ResponseTimes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}

// GetStats returns a snapshot of all metrics for the /metrics endpoint
func (m *Metrics) GetStats() map[string]interface{} {
	m.StatusMutex.RLock()
	byStatus := make(map[int]int64, len(m.RequestCountByStatus))
	for k, v := range m.RequestCountByStatus {
		byStatus[k] = v
	}
	m.StatusMutex.RUnlock()

	m.DumpingCasesMutex.RLock()
	dumping := make(map[string]int64, len(m.DumpingCases))
	for k, v := range m.DumpingCases {
		dumping[k] = v
	}
	m.DumpingCasesMutex.RUnlock()

	return map[string]interface{}{
		"uptime_seconds":          time.Since(m.StartTime).Seconds(),
		"request_count":           atomic.LoadInt64(&m.RequestCount),
		"error_count":             atomic.LoadInt64(&m.ErrorCount),
		"cache_hits":              atomic.LoadInt64(&m.CacheHits),
		"cache_misses":            atomic.LoadInt64(&m.CacheMisses),
		"bids_scored":             atomic.LoadInt64(&m.BidsScored),
		"analyses_run":            atomic.LoadInt64(&m.AnalysesRun),
		"analyses_superseded":     atomic.LoadInt64(&m.AnalysesSuperseded),
		"skipped_bids":            atomic.LoadInt64(&m.SkippedBids),
		"collusion_groups":        atomic.LoadInt64(&m.CollusionGroupsSeen),
		"dumping_cases":           dumping,
		"rate_limit_blocks":       atomic.LoadInt64(&m.RateLimitBlocks),
		"rate_limit_redis_errors": atomic.LoadInt64(&m.RateLimitRedisErrors),
		"rate_limit_fallbacks":    atomic.LoadInt64(&m.RateLimitFallbacks),
		"response_time_p50_ms":    m.percentile(0.50).Milliseconds(),
		"response_time_p95_ms":    m.percentile(0.95).Milliseconds(),
		"response_time_p99_ms":    m.percentile(0.99).Milliseconds(),
		"requests_by_status":      byStatus,
	}
}
