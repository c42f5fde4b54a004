package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/climatehub/dwd-cdc-etl/internal/domain"
	"github.com/climatehub/dwd-cdc-etl/internal/observability"
)

// ForecastJob syncs the newest MOSMIX bundle from the forecast index.
type ForecastJob struct {
	source  ForecastSource
	sink    Sink
	options domain.ForecastOptions
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewForecastJob creates a job that filters parsed documents by options.
func NewForecastJob(source ForecastSource, sink Sink, options domain.ForecastOptions, logger *slog.Logger, metrics *observability.Metrics) *ForecastJob {
	return &ForecastJob{
		source:  source,
		sink:    sink,
		options: options,
		logger:  logger,
		metrics: metrics,
	}
}

// Run executes one forecast sync. Bundle names embed the model run
// timestamp, so the lexicographically greatest URI is the newest run.
func (j *ForecastJob) Run(ctx context.Context) error {
	index, err := j.source.ForecastIndex(ctx)
	if err != nil {
		j.metrics.Fetches.WithLabelValues("listing", "error").Inc()
		return fmt.Errorf("forecast index: %w", err)
	}
	j.metrics.Fetches.WithLabelValues("listing", "success").Inc()
	j.metrics.ResourcesDiscovered.Add(float64(len(index)))

	if len(index) == 0 {
		j.logger.Warn("forecast index is empty")
		return nil
	}

	newest := index[0]
	for _, r := range index[1:] {
		if r.URI > newest.URI {
			newest = r
		}
	}

	raw, err := j.source.FetchForecast(ctx, newest.URI)
	if err != nil {
		j.metrics.Fetches.WithLabelValues("forecast", "error").Inc()
		return fmt.Errorf("forecast %s: %w", newest.URI, err)
	}
	j.metrics.Fetches.WithLabelValues("forecast", "success").Inc()

	doc, err := domain.ParseForecastDocument(raw, j.options)
	if err != nil {
		var perr *domain.StructuralParseError
		if errors.As(err, &perr) {
			j.metrics.ParseErrors.Inc()
		}
		return fmt.Errorf("forecast %s: %w", newest.URI, err)
	}

	records := doc.Records()
	j.metrics.RecordsParsed.WithLabelValues("forecast").Add(float64(len(records)))

	if err := j.sink.WriteForecastRecords(records); err != nil {
		return fmt.Errorf("write forecast records: %w", err)
	}
	if err := j.sink.WriteForecastStations(doc.StationRows()); err != nil {
		return fmt.Errorf("write forecast stations: %w", err)
	}

	j.logger.Info("forecast synced", "uri", newest.URI,
		"issued", doc.DateIssued, "records", len(records), "stations", len(doc.Stations))
	return nil
}
