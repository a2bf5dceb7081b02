package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/OldStager01/fleet-value-engine/internal/logger"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	runsTotal      map[string]int64            // model -> count
	runErrors      map[string]int64            // model -> count
	assetErrors    map[string]int64            // model -> count
	episodesTotal  map[string]int64            // model -> count
	outcomesTotal  map[string]map[string]int64 // model -> category -> count

	// Gauges
	netValue         map[string]float64 // model -> dollars, last run
	optimalThreshold map[string]float64 // model -> threshold, last sweep
	unmatchedMotion  map[string]int64   // model -> samples, last run

	// Histograms (simplified - just track last values)
	runLatency   map[string]time.Duration
	alignLatency map[string]time.Duration
}

var (
	instance *Metrics
	once     sync.Once
)

func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			runsTotal:        make(map[string]int64),
			runErrors:        make(map[string]int64),
			assetErrors:      make(map[string]int64),
			episodesTotal:    make(map[string]int64),
			outcomesTotal:    make(map[string]map[string]int64),
			netValue:         make(map[string]float64),
			optimalThreshold: make(map[string]float64),
			unmatchedMotion:  make(map[string]int64),
			runLatency:       make(map[string]time.Duration),
			alignLatency:     make(map[string]time.Duration),
		}
	})
	return instance
}

func (m *Metrics) IncRuns(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runsTotal[model]++
}

func (m *Metrics) IncRunErrors(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runErrors[model]++
}

func (m *Metrics) AddAssetErrors(model string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assetErrors[model] += int64(count)
}

func (m *Metrics) AddEpisodes(model string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.episodesTotal[model] += int64(count)
}

func (m *Metrics) AddOutcomes(model, category string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomesTotal[model] == nil {
		m.outcomesTotal[model] = make(map[string]int64)
	}
	m.outcomesTotal[model][category] += int64(count)
}

func (m *Metrics) SetNetValue(model string, dollars float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.netValue[model] = dollars
}

func (m *Metrics) SetOptimalThreshold(model string, threshold float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.optimalThreshold[model] = threshold
}

func (m *Metrics) SetUnmatchedMotion(model string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unmatchedMotion[model] = int64(count)
}

func (m *Metrics) SetRunLatency(model string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runLatency[model] = d
}

func (m *Metrics) SetAlignLatency(model string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alignLatency[model] = d
}

func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		for model, count := range m.runsTotal {
			writeMetric(w, "fleetvalue_runs_total", map[string]string{"model": model}, float64(count))
		}

		for model, count := range m.runErrors {
			writeMetric(w, "fleetvalue_run_errors_total", map[string]string{"model": model}, float64(count))
		}

		for model, count := range m.assetErrors {
			writeMetric(w, "fleetvalue_asset_errors_total", map[string]string{"model": model}, float64(count))
		}

		for model, count := range m.episodesTotal {
			writeMetric(w, "fleetvalue_episodes_total", map[string]string{"model": model}, float64(count))
		}

		for model, categories := range m.outcomesTotal {
			for category, count := range categories {
				writeMetric(w, "fleetvalue_outcomes_total", map[string]string{"model": model, "category": category}, float64(count))
			}
		}

		for model, dollars := range m.netValue {
			writeMetric(w, "fleetvalue_net_value_dollars", map[string]string{"model": model}, dollars)
		}

		for model, threshold := range m.optimalThreshold {
			writeMetric(w, "fleetvalue_optimal_threshold", map[string]string{"model": model}, threshold)
		}

		for model, count := range m.unmatchedMotion {
			writeMetric(w, "fleetvalue_unmatched_motion_samples", map[string]string{"model": model}, float64(count))
		}

		for model, latency := range m.runLatency {
			writeMetric(w, "fleetvalue_run_latency_ms", map[string]string{"model": model}, float64(latency.Milliseconds()))
		}

		for model, latency := range m.alignLatency {
			writeMetric(w, "fleetvalue_align_latency_ms", map[string]string{"model": model}, float64(latency.Milliseconds()))
		}
	})
}

func writeMetric(w http.ResponseWriter, name string, labels map[string]string, value float64) {
	labelStr := ""
	if len(labels) > 0 {
		labelStr = "{"
		first := true
		for k, v := range labels {
			if !first {
				labelStr += ","
			}
			labelStr += k + `="` + v + `"`
			first = false
		}
		labelStr += "}"
	}
	w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(value, 'f', -1, 64) + "\n"))
}

func StartServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Get().Handler())

	addr := ":" + strconv.Itoa(port)
	logger.Infof("Prometheus metrics server listening on %s", addr)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Errorf("Prometheus server error: %v", err)
		}
	}()
}
