package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"packline-analytics/internal/forecast"
	"packline-analytics/internal/observability/metrics"
	"packline-analytics/internal/timeseries"
)

const forecastReport = "production_forecast"

// ForecastParams parameterize the production forecast pipeline.
type ForecastParams struct {
	// SeasonalPeriod in shifts, e.g. 15 for 5 workdays of 3 shifts.
	SeasonalPeriod int
	// Smoothing is the seasonal responsiveness in (0, 1].
	Smoothing float64
	// Horizon is the number of future shifts to project.
	Horizon int
	// Confidence of the uncertainty band; zero means 0.90.
	Confidence float64
	// ShiftLength is the fitting granularity, e.g. 8h.
	ShiftLength time.Duration
	// ReportingWindow re-buckets the projection for the report, e.g. 5 days.
	ReportingWindow time.Duration
	// CalendarStart is the first reporting label. When zero, labels start
	// on the first Monday on or after the first projected shift.
	CalendarStart time.Time
}

// ForecastService projects good-pack output per shift over the coming
// weeks. Weekend shifts are excluded from fitting so the workweek
// seasonality is not biased by production-free days.
type ForecastService struct {
	packs  RecordSource
	sink   ReportSink
	params ForecastParams
	logger *log.Logger
}

// NewForecastService constructs the service.
func NewForecastService(packs RecordSource, sink ReportSink, params ForecastParams, logger *log.Logger) (*ForecastService, error) {
	if packs == nil {
		return nil, errors.New("application: nil source")
	}
	if sink == nil {
		return nil, errors.New("application: nil sink")
	}
	if params.ShiftLength <= 0 {
		return nil, errors.New("application: shift length required")
	}
	if params.ReportingWindow < params.ShiftLength {
		return nil, errors.New("application: reporting window shorter than a shift")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ForecastService{packs: packs, sink: sink, params: params, logger: logger}, nil
}

// Run fits the seasonal model to historical shift totals, projects the
// horizon and writes both the per-shift series and the realigned report.
func (s *ForecastService) Run(ctx context.Context) (err error) {
	runID := uuid.NewString()
	started := time.Now()
	defer func() {
		metrics.ObserveReportRun(forecastReport, err, time.Since(started))
	}()

	raw, err := s.packs.Load(ctx)
	if err != nil {
		return fmt.Errorf("application: load packs: %w", err)
	}
	// Reject packs are irrelevant for capacity planning; only good packs
	// enter the model.
	packs, err := timeseries.Normalize(raw, timeseries.Schema{
		Stream: "packs",
		Fields: []timeseries.Field{{Name: FieldGoodPacks, Kind: timeseries.KindNumeric}},
	})
	if err != nil {
		return err
	}

	shifts, err := timeseries.Resample(packs, timeseries.FixedWindows{Width: s.params.ShiftLength}, []timeseries.Reduction{
		{Field: FieldGoodPacks, Op: timeseries.ReduceSum},
	})
	if err != nil {
		return err
	}

	series, err := forecast.Project(shifts, forecast.Options{
		Field:          FieldGoodPacks,
		SeasonalPeriod: s.params.SeasonalPeriod,
		Smoothing:      s.params.Smoothing,
		Horizon:        s.params.Horizon,
		Confidence:     s.params.Confidence,
		Exclude:        weekendShift,
	})
	if err != nil {
		var fitErr *forecast.ModelFitError
		if errors.As(err, &fitErr) {
			metrics.IncForecastFitFailure()
		}
		return err
	}

	calendar := s.reportingCalendar(series)
	table, err := forecast.Realign(series, s.params.ReportingWindow, calendar)
	if err != nil {
		return err
	}

	if err = s.sink.WriteSeries(ctx, forecastReport, series); err != nil {
		return fmt.Errorf("application: write %s series: %w", forecastReport, err)
	}
	if err = s.sink.WriteTable(ctx, forecastReport, table); err != nil {
		return fmt.Errorf("application: write %s: %w", forecastReport, err)
	}
	metrics.AddReportRows(forecastReport, table.Len())
	s.logger.Printf("run=%s report=%s shifts=%d reporting_windows=%d elapsed=%s",
		runID, forecastReport, len(series.Points), table.Len(), time.Since(started))
	return nil
}

// reportingCalendar builds one label per reporting window, weekly from the
// configured start or from the first Monday on or after the projection.
func (s *ForecastService) reportingCalendar(series *forecast.Series) []time.Time {
	n := 0
	if len(series.Points) > 0 {
		last := series.Points[len(series.Points)-1].At
		n = int(last.Sub(series.Points[0].At)/s.params.ReportingWindow) + 1
	}

	start := s.params.CalendarStart
	if start.IsZero() && len(series.Points) > 0 {
		first := series.Points[0].At
		start = time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, first.Location())
		for start.Weekday() != time.Monday {
			start = start.AddDate(0, 0, 1)
		}
	}

	calendar := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		calendar = append(calendar, start.AddDate(0, 0, 7*i))
	}
	return calendar
}

func weekendShift(start time.Time) bool {
	d := start.Weekday()
	return d == time.Saturday || d == time.Sunday
}
