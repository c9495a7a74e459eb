package harness

import (
	"errors"
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
)

// Summary condenses the per-sample timings of one measurement.
type Summary struct {
	Mean       time.Duration `json:"mean_ns"`
	StdDev     time.Duration `json:"stddev_ns"`
	Min        time.Duration `json:"min_ns"`
	Median     time.Duration `json:"median_ns"`
	P95        time.Duration `json:"p95_ns"`
	Max        time.Duration `json:"max_ns"`
	Samples    int           `json:"samples"`
	Iterations int           `json:"iterations"`
}

func p95(data stats.Float64Data) (float64, error) {
	return stats.Percentile(data, 95)
}

// Summarize computes the summary statistics of m. The standard deviation
// is the sample deviation, zero for a single sample.
func Summarize(m Measurement) (Summary, error) {
	s := Summary{Samples: len(m.Samples), Iterations: m.Iterations}

	switch len(m.Samples) {
	case 0:
		return Summary{}, errors.New("summarize: no samples")
	case 1:
		d := m.Samples[0]
		s.Mean, s.Min, s.Median, s.P95, s.Max = d, d, d, d, d

		return s, nil
	}

	data := make(stats.Float64Data, len(m.Samples))
	for i, d := range m.Samples {
		data[i] = float64(d)
	}

	fields := []struct {
		name string
		dst  *time.Duration
		fn   func(stats.Float64Data) (float64, error)
	}{
		{"mean", &s.Mean, stats.Mean},
		{"stddev", &s.StdDev, stats.StandardDeviationSample},
		{"min", &s.Min, stats.Min},
		{"median", &s.Median, stats.Median},
		{"p95", &s.P95, p95},
		{"max", &s.Max, stats.Max},
	}

	for _, f := range fields {
		v, err := f.fn(data)
		if err != nil {
			return Summary{}, fmt.Errorf("summarize %s: %w", f.name, err)
		}
		*f.dst = time.Duration(v)
	}

	return s, nil
}
