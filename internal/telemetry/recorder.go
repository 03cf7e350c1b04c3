package telemetry

import (
	"sort"
	"sync"
	"time"

	"github.com/snapcore/snapcore-health/internal/health"
)

// defaultMaxSamples bounds the per-metric series length.
const defaultMaxSamples = 60

// Reading is one raw telemetry observation before it is attached to a
// metric series.
type Reading struct {
	Metric string
	Value  float64
	Unit   string
	At     time.Time
}

// Recorder accumulates readings per metric into bounded, time-ascending
// series and emits health entries ready for scoring. It is the in-process
// stand-in for the platform's live telemetry feed.
//
// All exported methods are safe for concurrent use.
type Recorder struct {
	mu         sync.Mutex
	metrics    map[string]*metricState
	maxSamples int
	rules      []Rule
}

type metricState struct {
	unit    string
	title   string
	samples []health.Sample
}

// NewRecorder returns a Recorder keeping at most maxSamples per metric.
// maxSamples <= 0 selects the default of 60.
func NewRecorder(maxSamples int) *Recorder {
	if maxSamples <= 0 {
		maxSamples = defaultMaxSamples
	}
	return &Recorder{
		metrics:    make(map[string]*metricState),
		maxSamples: maxSamples,
	}
}

// SetRules installs the severity threshold rules applied when entries are
// emitted. Replaces any previous rule set.
func (r *Recorder) SetRules(rules []Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append([]Rule(nil), rules...)
}

// SetTitle attaches a human-readable title to a metric key.
func (r *Recorder) SetTitle(metric, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stateFor(metric).title = title
}

// Record appends one reading to its metric's series, keeping the series
// time-ascending and bounded. Out-of-order readings are inserted in
// place; the oldest sample is dropped once the bound is reached.
func (r *Recorder) Record(reading Reading) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.stateFor(reading.Metric)
	if reading.Unit != "" {
		st.unit = reading.Unit
	}

	sample := health.Sample{T: reading.At.UnixMilli(), V: reading.Value}
	st.samples = append(st.samples, sample)

	// Jittered feeds occasionally deliver out of order; a single pass of
	// insertion keeps the invariant without resorting the whole series.
	for i := len(st.samples) - 1; i > 0 && st.samples[i].T < st.samples[i-1].T; i-- {
		st.samples[i], st.samples[i-1] = st.samples[i-1], st.samples[i]
	}

	if len(st.samples) > r.maxSamples {
		st.samples = st.samples[len(st.samples)-r.maxSamples:]
	}
}

// Entries emits one live health entry per tracked metric, severity-tagged
// by the installed rules. Metrics with no samples yet are skipped.
func (r *Recorder) Entries() []health.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.metrics))
	for k := range r.metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]health.Entry, 0, len(keys))
	for _, k := range keys {
		st := r.metrics[k]
		if len(st.samples) == 0 {
			continue
		}
		last := st.samples[len(st.samples)-1]
		out = append(out, health.Entry{
			Kind:      health.KindLive,
			ID:        k,
			Title:     st.title,
			Severity:  evalRules(r.rules, k, last.V),
			Value:     last.V,
			Unit:      st.unit,
			Timestamp: last.T,
			Series:    append([]health.Sample(nil), st.samples...),
		})
	}
	return out
}

// Reset drops all accumulated series.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = make(map[string]*metricState)
}

func (r *Recorder) stateFor(metric string) *metricState {
	if st, ok := r.metrics[metric]; ok {
		return st
	}
	st := &metricState{}
	r.metrics[metric] = st
	return st
}
