package harness

import (
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	m := Measurement{
		Samples: []time.Duration{
			4 * time.Millisecond,
			1 * time.Millisecond,
			3 * time.Millisecond,
			2 * time.Millisecond,
		},
		Iterations: 12,
	}

	s, err := Summarize(m)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	checks := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"mean", s.Mean, 2500 * time.Microsecond},
		{"min", s.Min, time.Millisecond},
		{"median", s.Median, 2500 * time.Microsecond},
		{"max", s.Max, 4 * time.Millisecond},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}

	// Sample standard deviation of {1,2,3,4} ms is about 1.291 ms.
	if s.StdDev < 1290*time.Microsecond || s.StdDev > 1292*time.Microsecond {
		t.Errorf("stddev = %s, want ~1.291ms", s.StdDev)
	}

	if s.P95 < s.Median || s.P95 > s.Max {
		t.Errorf("p95 = %s, want between median %s and max %s", s.P95, s.Median, s.Max)
	}

	if s.Samples != 4 || s.Iterations != 12 {
		t.Errorf("samples/iterations = %d/%d, want 4/12", s.Samples, s.Iterations)
	}
}

func TestSummarizeSingleSample(t *testing.T) {
	s, err := Summarize(Measurement{Samples: []time.Duration{time.Second}, Iterations: 1})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if s.Mean != time.Second || s.P95 != time.Second || s.StdDev != 0 {
		t.Errorf("summary = %+v", s)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if _, err := Summarize(Measurement{}); err == nil {
		t.Error("expected error for no samples")
	}
}
