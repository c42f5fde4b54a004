// Package pipeline sequences the sync cycle: discover resources on the
// open-data server, download and parse them, and persist normalized
// records. Parsing is delegated to the domain package, I/O to the
// adapters; the pipeline wires them together and reports progress.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/climatehub/dwd-cdc-etl/internal/domain"
	"github.com/climatehub/dwd-cdc-etl/internal/observability"
)

// ObservationSource discovers and downloads observation resources.
type ObservationSource interface {
	GatherResources(ctx context.Context, resolution, parameter string) ([]domain.Resource, error)
	FetchStations(ctx context.Context, uri string) ([]domain.Station, error)
	FetchArchive(ctx context.Context, uri, destDir string) ([]string, error)
}

// ForecastSource lists and downloads MOSMIX forecast bundles.
type ForecastSource interface {
	ForecastIndex(ctx context.Context) ([]domain.Resource, error)
	FetchForecast(ctx context.Context, uri string) ([]byte, error)
}

// Sink persists normalized records.
type Sink interface {
	WriteStations(dataset string, stations []domain.Station) error
	WriteMeasurements(dataset string, records []domain.MeasurementRecord) error
	WriteForecastRecords(records []domain.ForecastRecord) error
	WriteForecastStations(stations []domain.ForecastStation) error
}

// Publisher streams normalized measurements to consumers beyond the sink.
type Publisher interface {
	PublishMeasurements(ctx context.Context, resolution, parameter string, records []domain.MeasurementRecord) error
}

// Pipeline runs observation and forecast jobs on a fixed interval.
type Pipeline struct {
	observations *ObservationJob
	forecasts    *ForecastJob
	interval     time.Duration
	clock        clockwork.Clock
	logger       *slog.Logger
	metrics      *observability.Metrics
	ready        atomic.Bool
}

// New creates a Pipeline. Either job may be nil to disable that half of
// the sync.
func New(obs *ObservationJob, fc *ForecastJob, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		observations: obs,
		forecasts:    fc,
		interval:     interval,
		clock:        clock,
		logger:       logger,
		metrics:      metrics,
	}
}

// CheckReadiness returns nil once at least one sync cycle has completed
// without error.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no sync cycle has completed yet")
	}
	return nil
}

// Run executes sync cycles until the context is cancelled. The first cycle
// starts immediately; subsequent ones follow the configured interval. A
// failed cycle is logged and retried on the next tick rather than aborting
// the loop.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.runCycle(ctx)

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

func (p *Pipeline) runCycle(ctx context.Context) {
	start := p.clock.Now()

	var errs []error
	if p.observations != nil {
		if err := p.observations.Run(ctx); err != nil {
			p.logger.Error("observation sync failed", "error", err)
			errs = append(errs, err)
		}
	}
	if p.forecasts != nil {
		if err := p.forecasts.Run(ctx); err != nil {
			p.logger.Error("forecast sync failed", "error", err)
			errs = append(errs, err)
		}
	}

	elapsed := p.clock.Since(start)
	p.metrics.SyncDuration.Observe(elapsed.Seconds())

	if len(errs) == 0 {
		p.ready.Store(true)
		p.logger.Info("sync cycle complete", "duration", elapsed)
	}
}
