package observability

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MatchDriftGauge exposes the current drift of average match scores from the
// configured baseline, per domain.
var MatchDriftGauge = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "match_score_drift",
		Help: "Absolute drift of the recent average match score from baseline",
	},
	[]string{"domain"},
)

// MatchDriftMonitor tracks a sliding window of overall scores per domain and
// compares the window average against a baseline. A sustained shift usually
// means a weight override or a data change upstream, not a code bug, so it
// warns instead of failing anything.
type MatchDriftMonitor struct {
	mu         sync.Mutex
	baselines  map[string]float64
	recent     map[string][]float64
	windowSize int
	threshold  float64
}

// NewMatchDriftMonitor creates a monitor with the given window and warn
// threshold in score points.
func NewMatchDriftMonitor(windowSize int, threshold float64) *MatchDriftMonitor {
	return &MatchDriftMonitor{
		baselines:  make(map[string]float64),
		recent:     make(map[string][]float64),
		windowSize: windowSize,
		threshold:  threshold,
	}
}

// SetBaseline fixes the expected average score for a domain.
func (m *MatchDriftMonitor) SetBaseline(domain string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baselines[domain] = score
}

// Record adds one score to the domain window and updates the drift gauge
// once the window is full.
func (m *MatchDriftMonitor) Record(domain string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recent[domain] = append(m.recent[domain], score)
	if len(m.recent[domain]) > m.windowSize {
		m.recent[domain] = m.recent[domain][1:]
	}
	if len(m.recent[domain]) < m.windowSize {
		return
	}
	drift := m.driftLocked(domain)
	MatchDriftGauge.WithLabelValues(domain).Set(drift)
	if drift > m.threshold {
		slog.Warn("match score drift detected",
			slog.String("domain", domain),
			slog.Float64("drift", drift),
			slog.Float64("threshold", m.threshold))
	}
}

// Drift returns the current absolute drift for a domain.
func (m *MatchDriftMonitor) Drift(domain string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driftLocked(domain)
}

func (m *MatchDriftMonitor) driftLocked(domain string) float64 {
	baseline, ok := m.baselines[domain]
	if !ok {
		return 0
	}
	window := m.recent[domain]
	if len(window) == 0 {
		return 0
	}
	avg := 0.0
	for _, s := range window {
		avg += s
	}
	avg /= float64(len(window))
	drift := avg - baseline
	if drift < 0 {
		drift = -drift
	}
	return drift
}

// Default window of 50 scores with a 15 point warn threshold.
var defaultDrift = NewMatchDriftMonitor(50, 15)

// RecordMatchScore feeds the shared drift monitor.
func RecordMatchScore(domain string, score float64) {
	defaultDrift.Record(domain, score)
}

// SetMatchBaseline sets the expected average score on the shared monitor.
func SetMatchBaseline(domain string, score float64) {
	defaultDrift.SetBaseline(domain, score)
}
