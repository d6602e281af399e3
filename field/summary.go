package field

import (
	"github.com/montanaflynn/stats"
)

// Summary describes the distribution of a field's samples.
type Summary struct {
	Count      int       `json:"count"`
	Min        float64   `json:"min"`
	Max        float64   `json:"max"`
	Mean       float64   `json:"mean"`
	Median     float64   `json:"median"`
	StdDev     float64   `json:"stddev"`
	P05        float64   `json:"p05"`
	P95        float64   `json:"p95"`
	Degenerate bool      `json:"degenerate"`
	TimeMeans  []float64 `json:"time_means"`
}

// Summarize computes summary statistics over the whole buffer, plus the
// unweighted mean of each timestep.
func (f *ScalarField) Summarize() Summary {
	statsMustFloat := func(fn func() (float64, error), def float64) float64 {
		out, err := fn()
		if err != nil {
			return def
		}
		return out
	}
	data := stats.Float64Data(f.values)
	s := Summary{
		Count:      len(f.values),
		Min:        f.min,
		Max:        f.max,
		Mean:       statsMustFloat(data.Mean, f.min),
		Median:     statsMustFloat(data.Median, f.min),
		StdDev:     statsMustFloat(data.StandardDeviation, 0),
		P05:        statsMustFloat(func() (float64, error) { return data.Percentile(5) }, f.min),
		P95:        statsMustFloat(func() (float64, error) { return data.Percentile(95) }, f.max),
		Degenerate: f.Degenerate(),
	}

	l := f.layout
	timeExt := l.ExtentOf(Time)
	tStride := l.strides[l.dims[Time]]
	present := l.axes[Time].Present()
	// One pass: each sample adds to the sum of its timestep. When time is
	// absent there is one step covering the whole buffer.
	sums := make([]float64, timeExt)
	for i, v := range f.values {
		t := 0
		if present {
			t = (i / tStride) % timeExt
		}
		sums[t] += v
	}
	perStep := float64(len(f.values) / timeExt)
	s.TimeMeans = make([]float64, timeExt)
	for t, sum := range sums {
		if perStep > 0 {
			s.TimeMeans[t] = sum / perStep
		}
	}
	return s
}
