package forecast

import (
	"math"

	"github.com/montanaflynn/stats"

	"packline-analytics/internal/timeseries"
)

// Smoothing constants for level and trend. The seasonal factor is the
// caller-supplied responsiveness knob; level and trend react conservatively
// so the seasonal pattern dominates short-horizon projections.
const (
	levelSmoothing = 0.2
	trendSmoothing = 0.05
)

// seasonalModel is an additive Holt-Winters state fitted over a gap-aware
// grid. Undefined grid entries advance the level by the trend without
// touching the seasonal state, so gaps do not act as artificial zeros.
type seasonalModel struct {
	period    int
	level     float64
	trend     float64
	seasonal  []float64
	steps     int
	residuals []float64
}

func fitSeasonal(values []timeseries.Value, period int, seasonalSmoothing float64) (*seasonalModel, error) {
	cycles := len(values) / period
	if cycles < 2 {
		return nil, &ModelFitError{Reason: "need at least two full seasonal cycles", Cycles: cycles}
	}

	firstMean, ok := cycleMean(values[:period])
	if !ok {
		return nil, &ModelFitError{Reason: "first seasonal cycle has no defined values", Cycles: cycles}
	}
	secondMean, ok := cycleMean(values[period : 2*period])
	if !ok {
		return nil, &ModelFitError{Reason: "second seasonal cycle has no defined values", Cycles: cycles}
	}

	m := &seasonalModel{
		period:   period,
		level:    firstMean,
		trend:    (secondMean - firstMean) / float64(period),
		seasonal: make([]float64, period),
	}
	for i := 0; i < period; i++ {
		sum, n := 0.0, 0
		if v, defined := values[i].Float64(); defined {
			sum += v - firstMean
			n++
		}
		if v, defined := values[period+i].Float64(); defined {
			sum += v - secondMean
			n++
		}
		if n == 0 {
			return nil, &ModelFitError{Reason: "seasonal position observed in neither initial cycle", Cycles: cycles}
		}
		m.seasonal[i] = sum / float64(n)
	}

	for t, v := range values {
		y, defined := v.Float64()
		if !defined {
			m.level += m.trend
			m.steps++
			continue
		}
		pos := t % period
		predicted := m.level + m.trend + m.seasonal[pos]
		// Residuals from the first cycle would echo the initialization, so
		// the band is built from later one-step errors only.
		if t >= period {
			m.residuals = append(m.residuals, y-predicted)
		}
		level := levelSmoothing*(y-m.seasonal[pos]) + (1-levelSmoothing)*(m.level+m.trend)
		m.trend = trendSmoothing*(level-m.level) + (1-trendSmoothing)*m.trend
		m.seasonal[pos] = seasonalSmoothing*(y-level) + (1-seasonalSmoothing)*m.seasonal[pos]
		m.level = level
		m.steps++

		if math.IsNaN(m.level) || math.IsInf(m.level, 0) || math.IsNaN(m.trend) || math.IsInf(m.trend, 0) {
			return nil, &ModelFitError{Reason: "smoothing state diverged", Cycles: cycles}
		}
	}

	if len(m.residuals) == 0 {
		return nil, &ModelFitError{Reason: "no observations beyond the first cycle", Cycles: cycles}
	}
	return m, nil
}

// predict returns the central estimate k steps past the fitted grid, k >= 1.
func (m *seasonalModel) predict(k int) float64 {
	pos := (m.steps + k - 1) % m.period
	return m.level + float64(k)*m.trend + m.seasonal[pos]
}

// residualBand returns the lower/upper one-step-error quantiles for the
// given two-sided confidence level.
func (m *seasonalModel) residualBand(confidence float64) (lo, hi float64, err error) {
	tail := (1 - confidence) / 2 * 100
	data := stats.Float64Data(m.residuals)
	lo, err = stats.Percentile(data, tail)
	if err != nil {
		return 0, 0, &ModelFitError{Reason: "residual quantile: " + err.Error(), Cycles: m.steps / m.period}
	}
	hi, err = stats.Percentile(data, 100-tail)
	if err != nil {
		return 0, 0, &ModelFitError{Reason: "residual quantile: " + err.Error(), Cycles: m.steps / m.period}
	}
	// The band must contain the central estimate.
	lo = math.Min(lo, 0)
	hi = math.Max(hi, 0)
	return lo, hi, nil
}

func cycleMean(values []timeseries.Value) (float64, bool) {
	sum, n := 0.0, 0
	for _, v := range values {
		if f, defined := v.Float64(); defined {
			sum += f
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
