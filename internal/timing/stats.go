package timing

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Average returns the arithmetic mean, or 0 for an empty slice.
func Average(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return stat.Mean(samples, nil)
}

// StdDev returns the population standard deviation, or 0 for an empty slice.
func StdDev(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return stat.PopStdDev(samples, nil)
}

// Sum returns the total, or 0 for an empty slice.
func Sum(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return floats.Sum(samples)
}

// Summary aggregates one bucket. All fields are in seconds except Count.
type Summary struct {
	Count  int
	Sum    float64
	Mean   float64
	StdDev float64
	P50    float64
	P95    float64
	P99    float64
	// CI95 is the half-width of the 95% Student-t confidence interval of the
	// mean. Zero with fewer than two samples.
	CI95 float64
}

// Summarize computes a Summary. An empty slice gives the zero Summary.
func Summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	s := Summary{
		Count:  len(samples),
		Sum:    Sum(samples),
		Mean:   Average(samples),
		StdDev: StdDev(samples),
		P50:    stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
		P99:    stat.Quantile(0.99, stat.Empirical, sorted, nil),
	}

	if n := len(samples); n > 1 {
		sem := stat.StdDev(samples, nil) / math.Sqrt(float64(n))
		t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}.Quantile(0.975)
		s.CI95 = t * sem
	}
	return s
}

// Summaries summarizes every tag of the recorder, keyed by tag, plus the
// unlabeled bucket under the empty key.
func (r *Recorder) Summaries() map[string]Summary {
	out := make(map[string]Summary, r.byTag.Len()+1)
	out[""] = Summarize(r.all)
	for el := r.byTag.Front(); el != nil; el = el.Next() {
		out[el.Key] = Summarize(el.Value)
	}
	return out
}
