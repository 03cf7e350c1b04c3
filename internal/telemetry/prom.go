package telemetry

import (
	"fmt"
	"io"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// ParseExposition decodes a Prometheus text-exposition document — the
// format Snapcore gateways dump their sensor snapshot in — into readings,
// one per metric family, stamped with at. Families that carry multiple
// series are summed; counters, gauges, and untyped values all count.
func ParseExposition(r io.Reader, at time.Time) ([]Reading, error) {
	mfs, err := parseMetricFamilies(r)
	if err != nil {
		return nil, err
	}
	out := make([]Reading, 0, len(mfs))
	for name, mf := range mfs {
		out = append(out, Reading{
			Metric: name,
			Value:  sumFamily(mf),
			Unit:   mf.GetUnit(),
			At:     at,
		})
	}
	return out, nil
}

// parseMetricFamilies decodes the exposition text from r. A partial
// result with a non-fatal parse warning is still returned successfully.
func parseMetricFamilies(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("telemetry: parse exposition text: %w", err)
	}
	return mfs, nil
}

// sumFamily adds up all counter, gauge, or untyped values in a family.
// Returns 0 if mf is nil.
func sumFamily(mf *dto.MetricFamily) float64 {
	if mf == nil {
		return 0
	}
	var total float64
	for _, m := range mf.GetMetric() {
		switch {
		case m.Counter != nil:
			total += m.Counter.GetValue()
		case m.Gauge != nil:
			total += m.Gauge.GetValue()
		case m.Untyped != nil:
			total += m.Untyped.GetValue()
		}
	}
	return total
}
