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
	throughputReport = "throughput"
	// deviationField is computed per record before weekly averaging and
	// used for diagnostics; the exported sales view drops it again.
	deviationField = "deviation_from_programmed_throughput"
	plannedField   = "planned_cycles_per_minute"
)

// ThroughputService builds the weekly throughput report: mean programmed
// and measured cycle rates per calendar week, with weekly pack totals
// joined in and the planned rate as reference column.
type ThroughputService struct {
	oee     RecordSource
	packs   RecordSource
	sink    ReportSink
	planned float64
	logger  *log.Logger
}

// NewThroughputService constructs the service.
func NewThroughputService(oee, packs RecordSource, sink ReportSink, plannedCyclesPerMinute float64, logger *log.Logger) (*ThroughputService, error) {
	if oee == nil || packs == nil {
		return nil, errors.New("application: nil source")
	}
	if sink == nil {
		return nil, errors.New("application: nil sink")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ThroughputService{
		oee:     oee,
		packs:   packs,
		sink:    sink,
		planned: plannedCyclesPerMinute,
		logger:  logger,
	}, nil
}

// Run executes the full pipeline and writes the throughput_weekly target.
func (s *ThroughputService) Run(ctx context.Context) (err error) {
	runID := uuid.NewString()
	started := time.Now()
	defer func() {
		metrics.ObserveReportRun(throughputReport, err, time.Since(started))
	}()

	raw, err := s.oee.Load(ctx)
	if err != nil {
		return fmt.Errorf("application: load oee: %w", err)
	}
	oee, err := timeseries.Normalize(raw, timeseries.Schema{
		Stream: "oee",
		Fields: []timeseries.Field{
			// The programmed rate is only logged on change; carry it
			// forward and drop the leading records before the first
			// known value.
			{Name: FieldExpectedCycles, Kind: timeseries.KindNumeric, Fill: timeseries.FillForward},
			{Name: FieldActualCycles, Kind: timeseries.KindNumeric, Fill: timeseries.FillDrop},
		},
	})
	if err != nil {
		return err
	}

	oee, err = timeseries.DeriveField(oee, timeseries.Derivation{
		Name: deviationField,
		Op:   timeseries.OpAbsDiff,
		Left: FieldExpectedCycles, Right: FieldActualCycles,
	})
	if err != nil {
		return err
	}

	weekly, err := timeseries.Resample(oee, timeseries.CalendarWeekWindows{}, []timeseries.Reduction{
		{Field: FieldExpectedCycles, Op: timeseries.ReduceMean},
		{Field: FieldActualCycles, Op: timeseries.ReduceMean},
		{Field: deviationField, Op: timeseries.ReduceMean},
	})
	if err != nil {
		return err
	}
	s.logDeviation(runID, weekly)

	rawPacks, err := s.packs.Load(ctx)
	if err != nil {
		return fmt.Errorf("application: load packs: %w", err)
	}
	packs, err := timeseries.Normalize(rawPacks, packSchema())
	if err != nil {
		return err
	}
	packsWeekly, err := timeseries.Resample(packs, timeseries.CalendarWeekWindows{}, []timeseries.Reduction{
		{Field: FieldGoodPacks, Op: timeseries.ReduceSum},
		{Field: FieldRejectPacks, Op: timeseries.ReduceSum},
	})
	if err != nil {
		return err
	}

	table, err := weekly.Join(packsWeekly)
	if err != nil {
		return err
	}
	if table, err = table.DropColumn(deviationField); err != nil {
		return err
	}
	// Rows are keyed by week end; the report reads better labeled by the
	// Monday the week starts on.
	if table, err = table.ShiftTimeLabels(-6 * 24 * time.Hour); err != nil {
		return err
	}
	if table, err = table.InsertConstant(0, plannedField, timeseries.Num(s.planned)); err != nil {
		return err
	}

	if err = s.sink.WriteTable(ctx, "throughput_weekly", table); err != nil {
		return fmt.Errorf("application: write throughput_weekly: %w", err)
	}
	metrics.AddReportRows("throughput_weekly", table.Len())
	s.logger.Printf("run=%s report=%s weeks=%d elapsed=%s", runID, throughputReport, table.Len(), time.Since(started))
	return nil
}

func (s *ThroughputService) logDeviation(runID string, weekly *timeseries.Table) {
	worst := 0.0
	defined := false
	for i := 0; i < weekly.Len(); i++ {
		if v, ok := weekly.Row(i).Value(deviationField).Float64(); ok && (!defined || v > worst) {
			worst = v
			defined = true
		}
	}
	if defined {
		s.logger.Printf("run=%s report=%s worst weekly rate deviation=%.2f cycles/min", runID, throughputReport, worst)
	}
}

func packSchema() timeseries.Schema {
	return timeseries.Schema{
		Stream: "packs",
		Fields: []timeseries.Field{
			{Name: FieldGoodPacks, Kind: timeseries.KindNumeric},
			{Name: FieldRejectPacks, Kind: timeseries.KindNumeric},
		},
	}
}
