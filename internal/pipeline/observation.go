package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/jonboulle/clockwork"

	"github.com/climatehub/dwd-cdc-etl/internal/domain"
	"github.com/climatehub/dwd-cdc-etl/internal/observability"
)

// ObservationJob syncs one measurement series: station descriptions plus
// the zipped measurement archives of every time bucket.
type ObservationJob struct {
	source    ObservationSource
	sink      Sink
	publisher Publisher // nil disables publishing
	request   domain.FetchRequest
	workDir   string
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewObservationJob creates a job for the series named by request.
func NewObservationJob(source ObservationSource, sink Sink, publisher Publisher, request domain.FetchRequest, workDir string, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *ObservationJob {
	return &ObservationJob{
		source:    source,
		sink:      sink,
		publisher: publisher,
		request:   request,
		workDir:   workDir,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes one observation sync. A failing archive does not abort the
// rest; all failures are joined into the returned error after the
// successfully parsed records have been persisted.
func (j *ObservationJob) Run(ctx context.Context) error {
	if err := j.request.Validate(); err != nil {
		return fmt.Errorf("observation sync: %w", err)
	}

	resources, err := j.source.GatherResources(ctx, j.request.Resolution, j.request.Parameter)
	if err != nil {
		j.metrics.Fetches.WithLabelValues("listing", "error").Inc()
		return fmt.Errorf("gather %s/%s: %w", j.request.Resolution, j.request.Parameter, err)
	}
	j.metrics.Fetches.WithLabelValues("listing", "success").Inc()
	j.metrics.ResourcesDiscovered.Add(float64(len(resources)))

	dataset := path.Join(j.request.Resolution, j.request.Parameter)

	var errs []error
	if err := j.syncStations(ctx, dataset, resources); err != nil {
		errs = append(errs, err)
	}
	if err := j.syncMeasurements(ctx, dataset, resources); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// syncStations fetches every station description in the listing, merges and
// dedups them, and writes one station dataset.
func (j *ObservationJob) syncStations(ctx context.Context, dataset string, resources []domain.Resource) error {
	descriptions := domain.SelectStationDescriptions(resources)

	var stations []domain.Station
	var errs []error
	seen := make(map[string]bool)
	for _, desc := range descriptions {
		if seen[desc.URI] {
			continue
		}
		seen[desc.URI] = true

		parsed, err := j.source.FetchStations(ctx, desc.URI)
		if err != nil {
			j.metrics.Fetches.WithLabelValues("stations", "error").Inc()
			j.countParseError(err)
			errs = append(errs, fmt.Errorf("stations %s: %w", desc.URI, err))
			continue
		}
		j.metrics.Fetches.WithLabelValues("stations", "success").Inc()
		stations = append(stations, parsed...)
	}

	deduped := domain.DedupStations(stations)
	j.metrics.RecordsParsed.WithLabelValues("station").Add(float64(len(stations)))
	j.metrics.DedupDropped.Add(float64(len(stations) - len(deduped)))

	if err := j.sink.WriteStations(dataset, deduped); err != nil {
		errs = append(errs, fmt.Errorf("write stations: %w", err))
	} else {
		j.logger.Info("stations synced", "dataset", dataset, "count", len(deduped))
	}
	return errors.Join(errs...)
}

// syncMeasurements downloads the archives selected for the configured
// window, parses their members, and persists one deduplicated batch.
func (j *ObservationJob) syncMeasurements(ctx context.Context, dataset string, resources []domain.Resource) error {
	archives := domain.SelectArchives(resources)
	selected := domain.SelectForWindow(archives, j.request.Start, j.request.End, j.clock.Now())
	j.logger.Info("archives selected", "dataset", dataset,
		"available", len(archives), "selected", len(selected))

	var records []domain.MeasurementRecord
	var errs []error
	for _, archive := range selected {
		parsed, err := j.processArchive(ctx, archive.URI)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, parsed...)
	}
	j.metrics.RecordsParsed.WithLabelValues("measurement").Add(float64(len(records)))

	deduped := domain.DedupMeasurements(records, domain.DedupOptions{
		Start: j.request.Start,
		End:   j.request.End,
	})
	j.metrics.DedupDropped.Add(float64(len(records) - len(deduped)))

	if err := j.sink.WriteMeasurements(dataset, deduped); err != nil {
		errs = append(errs, fmt.Errorf("write measurements: %w", err))
		return errors.Join(errs...)
	}
	j.logger.Info("measurements synced", "dataset", dataset,
		"parsed", len(records), "kept", len(deduped))

	if j.publisher != nil && len(deduped) > 0 {
		if err := j.publisher.PublishMeasurements(ctx, j.request.Resolution, j.request.Parameter, deduped); err != nil {
			errs = append(errs, fmt.Errorf("publish measurements: %w", err))
		}
	}
	return errors.Join(errs...)
}

// processArchive downloads one archive into the work directory and parses
// every extracted member. Members are removed once parsed.
func (j *ObservationJob) processArchive(ctx context.Context, uri string) ([]domain.MeasurementRecord, error) {
	paths, err := j.source.FetchArchive(ctx, uri, j.workDir)
	if err != nil {
		j.metrics.Fetches.WithLabelValues("archive", "error").Inc()
		j.countParseError(err)
		return nil, fmt.Errorf("archive %s: %w", uri, err)
	}
	j.metrics.Fetches.WithLabelValues("archive", "success").Inc()

	var records []domain.MeasurementRecord
	var errs []error
	for _, p := range paths {
		parsed, err := j.parseMemberFile(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("archive %s: %w", uri, err))
			continue
		}
		records = append(records, parsed...)
	}
	return records, errors.Join(errs...)
}

func (j *ObservationJob) parseMemberFile(path string) ([]domain.MeasurementRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)
	defer f.Close()

	records, err := domain.ParseMeasurementTable(f)
	if err != nil {
		j.countParseError(err)
		return nil, err
	}
	return records, nil
}

func (j *ObservationJob) countParseError(err error) {
	var perr *domain.StructuralParseError
	if errors.As(err, &perr) {
		j.metrics.ParseErrors.Inc()
	}
}
