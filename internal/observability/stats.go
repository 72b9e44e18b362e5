package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

type StatsSnapshot struct {
	SummariesTotal      uint64            `json:"summaries_total"`
	SummariesFailed     uint64            `json:"summaries_failed"`
	PoliciesLocated     uint64            `json:"policies_located"`
	PoliciesNotFound    uint64            `json:"policies_not_found"`
	PagesFetched        uint64            `json:"pages_fetched"`
	AICalls             uint64            `json:"ai_calls"`
	ErrorsTotal         uint64            `json:"errors_total"`
	SummarizeSecondsAvg float64           `json:"summarize_seconds_avg"`
	StrategyHits        map[string]uint64 `json:"strategy_hits,omitempty"`
	ErrorsByType        map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByComponent   map[string]uint64 `json:"errors_by_component,omitempty"`
}

var (
	summariesTotal   uint64
	summariesFailed  uint64
	policiesLocated  uint64
	policiesNotFound uint64
	pagesFetched     uint64
	aiCalls          uint64
	errorsTotal      uint64

	summarizeCount uint64
	summarizeNanos uint64

	statsMu           sync.Mutex
	strategyHits      = map[string]uint64{}
	errorsByType      = map[string]uint64{}
	errorsByComponent = map[string]uint64{}
)

func IncPagesFetched(_ string) {
	atomic.AddUint64(&pagesFetched, 1)
}

func IncAICall(_ string) {
	atomic.AddUint64(&aiCalls, 1)
}

// IncLocateResult records which strategy found the policy; an empty strategy
// counts as not found.
func IncLocateResult(strategy string) {
	if strategy == "" {
		atomic.AddUint64(&policiesNotFound, 1)
		return
	}
	atomic.AddUint64(&policiesLocated, 1)
	statsMu.Lock()
	strategyHits[strategy]++
	statsMu.Unlock()
}

func ObserveSummarize(d time.Duration, err error) {
	atomic.AddUint64(&summariesTotal, 1)
	if err != nil {
		atomic.AddUint64(&summariesFailed, 1)
	}
	if d <= 0 {
		return
	}
	atomic.AddUint64(&summarizeCount, 1)
	atomic.AddUint64(&summarizeNanos, uint64(d.Nanoseconds()))
}

func IncError(errType, component string) {
	if errType == "" {
		errType = ErrorUnknown
	}
	if component == "" {
		component = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByComponent[component]++
	statsMu.Unlock()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	strategyCopy := copyMap(strategyHits)
	errorsTypeCopy := copyMap(errorsByType)
	errorsComponentCopy := copyMap(errorsByComponent)
	statsMu.Unlock()

	count := atomic.LoadUint64(&summarizeCount)
	avg := 0.0
	if count > 0 {
		avg = float64(atomic.LoadUint64(&summarizeNanos)) / float64(count) / 1e9
	}

	return StatsSnapshot{
		SummariesTotal:      atomic.LoadUint64(&summariesTotal),
		SummariesFailed:     atomic.LoadUint64(&summariesFailed),
		PoliciesLocated:     atomic.LoadUint64(&policiesLocated),
		PoliciesNotFound:    atomic.LoadUint64(&policiesNotFound),
		PagesFetched:        atomic.LoadUint64(&pagesFetched),
		AICalls:             atomic.LoadUint64(&aiCalls),
		ErrorsTotal:         atomic.LoadUint64(&errorsTotal),
		SummarizeSecondsAvg: avg,
		StrategyHits:        strategyCopy,
		ErrorsByType:        errorsTypeCopy,
		ErrorsByComponent:   errorsComponentCopy,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
