package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/roombook/internal/events"
	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/series"
)

// SeriesService exposes inspection and repair of stored weekly series.
type SeriesService struct {
	analyzer     *series.Analyzer
	materializer *series.Materializer
	broker       *events.Broker
	now          func() time.Time
	logger       *slog.Logger
}

// NewSeriesService wires the series engine against the persistence layer.
func NewSeriesService(reservations persistence.ReservationRepository, counters persistence.CounterRepository, broker *events.Broker, now func() time.Time, logger *slog.Logger) *SeriesService {
	if now == nil {
		now = time.Now
	}
	store := NewSeriesStore(reservations, counters)
	return &SeriesService{
		analyzer:     series.NewAnalyzer(store, now),
		materializer: series.NewMaterializer(store, now),
		broker:       broker,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// InspectSeries reports the week-by-week state of a series without changing
// anything.
func (s *SeriesService) InspectSeries(ctx context.Context, seriesID string, opts SeriesRepairOptions) (series.Analysis, error) {
	if s == nil || s.analyzer == nil {
		return series.Analysis{}, fmt.Errorf("series analyzer not configured")
	}

	analysis, err := s.analyzer.AnalyzeByID(ctx, seriesID, analyzeOptions(opts))
	if err != nil {
		return series.Analysis{}, mapSeriesServiceError(err)
	}
	return analysis, nil
}

// RepairSeries fills the missing weeks of a series. In dry-run mode the
// candidate occurrences are computed but nothing is written.
func (s *SeriesService) RepairSeries(ctx context.Context, seriesID string, opts SeriesRepairOptions) (SeriesReport, error) {
	if s == nil || s.analyzer == nil {
		return SeriesReport{}, fmt.Errorf("series analyzer not configured")
	}

	logger := serviceLogger(ctx, s.logger, "SeriesService", "RepairSeries", "series_id", seriesID, "dry_run", opts.DryRun)

	analysis, err := s.analyzer.AnalyzeByID(ctx, seriesID, analyzeOptions(opts))
	if err != nil {
		return SeriesReport{}, mapSeriesServiceError(err)
	}

	result, err := s.materializer.Materialize(ctx, analysis, series.MaterializeOptions{DryRun: opts.DryRun})
	if err != nil {
		return SeriesReport{}, err
	}

	if !opts.DryRun && result.InsertedCount > 0 {
		s.publishRepair(analysis, result)
	}

	present, missing, conflict, past := analysis.Counts()
	logger.With(
		"weeks_present", present,
		"weeks_missing", missing,
		"weeks_conflict", conflict,
		"weeks_past", past,
		"inserted", result.InsertedCount,
	).InfoContext(ctx, "series repair finished")

	return SeriesReport{Analysis: analysis, Result: result, DryRun: opts.DryRun}, nil
}

// ExtendSeries grows a series to a new total week count and fills the added
// weeks. Shrinking below an existing member index is rejected. In dry-run
// mode the stored totals are left untouched and the added weeks are only
// reported.
func (s *SeriesService) ExtendSeries(ctx context.Context, seriesID string, newTotal int, opts SeriesRepairOptions) (SeriesReport, error) {
	if s == nil || s.materializer == nil {
		return SeriesReport{}, fmt.Errorf("series materializer not configured")
	}

	logger := serviceLogger(ctx, s.logger, "SeriesService", "ExtendSeries",
		"series_id", seriesID, "new_total", newTotal, "dry_run", opts.DryRun)

	if !opts.DryRun {
		if _, err := s.materializer.RewriteSeriesTotal(ctx, seriesID, newTotal); err != nil {
			return SeriesReport{}, mapSeriesServiceError(err)
		}
	}

	opts.AssumedTotal = newTotal
	report, err := s.RepairSeries(ctx, seriesID, opts)
	if err != nil {
		return SeriesReport{}, err
	}

	logger.With("inserted", report.Result.InsertedCount).InfoContext(ctx, "series extended")
	return report, nil
}

func (s *SeriesService) publishRepair(analysis series.Analysis, result series.MaterializeResult) {
	if s.broker == nil {
		return
	}
	s.broker.Publish(events.Event{
		Type: events.SeriesRepaired,
		Payload: map[string]any{
			"series_id": analysis.SeriesID,
			"inserted":  result.InsertedCount,
		},
		OccurredAt: s.now().UTC(),
	})
}

func analyzeOptions(opts SeriesRepairOptions) series.AnalyzeOptions {
	mode := series.ModeAll
	if opts.FutureOnly {
		mode = series.ModeFuture
	}
	return series.AnalyzeOptions{Mode: mode, AssumedTotal: opts.AssumedTotal}
}

func mapSeriesServiceError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, series.ErrNoMembers):
		return ErrNotFound
	case errors.Is(err, series.ErrInvalidWeekCount), errors.Is(err, series.ErrTotalShrink):
		vErr := &ValidationError{}
		vErr.add("total", err.Error())
		return vErr
	case errors.Is(err, series.ErrAnchorWindow), errors.Is(err, series.ErrAnchorDate):
		vErr := &ValidationError{}
		vErr.add("series", err.Error())
		return vErr
	}
	return err
}
