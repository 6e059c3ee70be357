package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"packline-analytics/internal/observability/metrics"
	"packline-analytics/internal/timeseries"
)

const (
	rejectReport    = "rejects"
	rejectRateField = "reject_rate"
)

// RejectService answers where and when reject packs pile up: by hour of
// day, by weekday, by calendar week, by active recipe, and which error
// codes cost the most downtime.
type RejectService struct {
	packs     RecordSource
	recipes   RecordSource
	errsource RecordSource
	sink      ReportSink
	logger    *log.Logger
}

// NewRejectService constructs the service.
func NewRejectService(packs, recipes, errsource RecordSource, sink ReportSink, logger *log.Logger) (*RejectService, error) {
	if packs == nil || recipes == nil || errsource == nil {
		return nil, errors.New("application: nil source")
	}
	if sink == nil {
		return nil, errors.New("application: nil sink")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RejectService{
		packs:     packs,
		recipes:   recipes,
		errsource: errsource,
		sink:      sink,
		logger:    logger,
	}, nil
}

// Run executes all reject breakdowns and writes one target per dimension.
func (s *RejectService) Run(ctx context.Context) (err error) {
	runID := uuid.NewString()
	started := time.Now()
	defer func() {
		metrics.ObserveReportRun(rejectReport, err, time.Since(started))
	}()

	rawPacks, err := s.packs.Load(ctx)
	if err != nil {
		return fmt.Errorf("application: load packs: %w", err)
	}
	packs, err := timeseries.Normalize(rawPacks, packSchema())
	if err != nil {
		return err
	}

	packSums := []timeseries.Reduction{
		{Field: FieldGoodPacks, Op: timeseries.ReduceSum},
		{Field: FieldRejectPacks, Op: timeseries.ReduceSum},
	}

	if err = s.writeBreakdown(ctx, "rejects_hourly", packs, timeseries.HourOfDayWindows{}, packSums, 0); err != nil {
		return err
	}
	if err = s.writeBreakdown(ctx, "rejects_weekday", packs, timeseries.WeekdayWindows{}, packSums, 0); err != nil {
		return err
	}
	if err = s.writeBreakdown(ctx, "rejects_weekly", packs, timeseries.CalendarWeekWindows{}, packSums, -6*24*time.Hour); err != nil {
		return err
	}

	if err = s.writeRecipeBreakdown(ctx, packs, packSums); err != nil {
		return err
	}
	if err = s.writeErrorBreakdown(ctx); err != nil {
		return err
	}

	s.logger.Printf("run=%s report=%s elapsed=%s", runID, rejectReport, time.Since(started))
	return nil
}

func (s *RejectService) writeBreakdown(
	ctx context.Context,
	target string,
	packs *timeseries.Stream,
	spec timeseries.WindowSpec,
	sums []timeseries.Reduction,
	labelShift time.Duration,
) error {
	table, err := timeseries.Resample(packs, spec, sums)
	if err != nil {
		return err
	}
	if table, err = timeseries.DeriveMetric(table, rejectRate()); err != nil {
		return err
	}
	if labelShift != 0 {
		if table, err = table.ShiftTimeLabels(labelShift); err != nil {
			return err
		}
	}
	if err = s.sink.WriteTable(ctx, target, table); err != nil {
		return fmt.Errorf("application: write %s: %w", target, err)
	}
	metrics.AddReportRows(target, table.Len())
	return nil
}

// writeRecipeBreakdown pins every pack event to the recipe active at its
// timestamp and totals per recipe. Packs produced before the first recipe
// change carry no recipe and stay out of all groups.
func (s *RejectService) writeRecipeBreakdown(ctx context.Context, packs *timeseries.Stream, sums []timeseries.Reduction) error {
	rawRecipes, err := s.recipes.Load(ctx)
	if err != nil {
		return fmt.Errorf("application: load recipes: %w", err)
	}
	recipes, err := timeseries.Normalize(rawRecipes, timeseries.Schema{
		Stream: "recipes",
		Fields: []timeseries.Field{{Name: FieldRecipe, Kind: timeseries.KindText}},
	})
	if err != nil {
		return err
	}

	joined, err := timeseries.AsofJoin(packs, recipes, []string{FieldRecipe})
	if err != nil {
		return err
	}
	table, err := timeseries.Resample(joined, timeseries.GroupByField{Field: FieldRecipe}, sums)
	if err != nil {
		return err
	}
	if table, err = timeseries.DeriveMetric(table, rejectRate()); err != nil {
		return err
	}
	if err = s.sink.WriteTable(ctx, "rejects_by_recipe", table); err != nil {
		return fmt.Errorf("application: write rejects_by_recipe: %w", err)
	}
	metrics.AddReportRows("rejects_by_recipe", table.Len())
	return nil
}

func (s *RejectService) writeErrorBreakdown(ctx context.Context) error {
	raw, err := s.errsource.Load(ctx)
	if err != nil {
		return fmt.Errorf("application: load errors: %w", err)
	}
	stream, err := timeseries.Normalize(raw, timeseries.Schema{
		Stream: "errors",
		Fields: []timeseries.Field{
			{Name: FieldErrorCode, Kind: timeseries.KindText},
			{Name: FieldErrorDuration, Kind: timeseries.KindNumeric},
		},
	})
	if err != nil {
		return err
	}

	table, err := timeseries.Resample(stream, timeseries.GroupByField{Field: FieldErrorCode}, []timeseries.Reduction{
		{Field: FieldErrorCode, Op: timeseries.ReduceCount, As: "occurrences"},
		{Field: FieldErrorDuration, Op: timeseries.ReduceSum, As: "total_downtime_s"},
	})
	if err != nil {
		return err
	}
	if err = s.sink.WriteTable(ctx, "error_codes", table); err != nil {
		return fmt.Errorf("application: write error_codes: %w", err)
	}
	metrics.AddReportRows("error_codes", table.Len())
	return nil
}

func rejectRate() timeseries.Derivation {
	return timeseries.Derivation{
		Name: rejectRateField,
		Op:   timeseries.OpRatio,
		Left: FieldRejectPacks, Right: FieldGoodPacks,
	}
}
