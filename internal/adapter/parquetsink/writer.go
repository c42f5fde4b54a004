// Package parquetsink persists normalized records as partitioned Parquet
// datasets. The layout mirrors the dataset conventions of the upstream
// climate tooling: one directory per dataset, hive-style partition
// directories derived from the primary timestamp, and a date_accessed stamp
// on every row.
package parquetsink

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/parquet-go/parquet-go"

	"github.com/climatehub/dwd-cdc-etl/internal/domain"
)

// Writer writes datasets under a root directory. Callers must ensure
// at most one writer per target path at a time; files are not locked.
type Writer struct {
	root   string
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a dataset writer rooted at dir.
func NewWriter(dir string, clock clockwork.Clock, logger *slog.Logger) *Writer {
	return &Writer{root: dir, clock: clock, logger: logger}
}

type stationRow struct {
	StationID    string    `parquet:"station_id"`
	DateStart    time.Time `parquet:"date_start,timestamp"`
	DateEnd      time.Time `parquet:"date_end,timestamp"`
	Height       *int64    `parquet:"height,optional"`
	GeoLat       *float64  `parquet:"geo_lat,optional"`
	GeoLon       *float64  `parquet:"geo_lon,optional"`
	Name         string    `parquet:"name"`
	State        string    `parquet:"state"`
	DateAccessed time.Time `parquet:"date_accessed,timestamp"`
}

type measurementRow struct {
	StationID    string     `parquet:"station_id"`
	DateStart    *time.Time `parquet:"date_start,optional,timestamp"`
	QN           int64      `parquet:"qn"`
	PP10         *float64   `parquet:"pp_10,optional"`
	TT10         *float64   `parquet:"tt_10,optional"`
	TM510        *float64   `parquet:"tm5_10,optional"`
	RF10         *float64   `parquet:"rf_10,optional"`
	TD10         *float64   `parquet:"td_10,optional"`
	DateAccessed time.Time  `parquet:"date_accessed,timestamp"`
}

type forecastRow struct {
	StationID         string    `parquet:"station_id"`
	DateStart         time.Time `parquet:"date_start,timestamp"`
	Parameter         string    `parquet:"parameter"`
	Value             *float64  `parquet:"value,optional"`
	ProductID         string    `parquet:"product_id"`
	GeneratingProcess string    `parquet:"generating_process"`
	DateIssued        time.Time `parquet:"date_issued,timestamp"`
	DateAccessed      time.Time `parquet:"date_accessed,timestamp"`
}

type forecastStationRow struct {
	StationID    string    `parquet:"station_id"`
	StationName  string    `parquet:"station_name"`
	GeoLat       float64   `parquet:"geo_lat"`
	GeoLon       float64   `parquet:"geo_lon"`
	Height       float64   `parquet:"height"`
	DateAccessed time.Time `parquet:"date_accessed,timestamp"`
}

// WriteStations writes a station dataset under <root>/stations/<dataset>,
// unpartitioned.
func (w *Writer) WriteStations(dataset string, stations []domain.Station) error {
	stamp := w.clock.Now().UTC()
	rows := make([]stationRow, len(stations))
	for i, s := range stations {
		rows[i] = stationRow{
			StationID:    s.StationID,
			DateStart:    s.DateStart,
			DateEnd:      s.DateEnd,
			Height:       s.Height,
			GeoLat:       s.GeoLat,
			GeoLon:       s.GeoLon,
			Name:         s.Name,
			State:        s.State,
			DateAccessed: stamp,
		}
	}
	return writeRows(w, filepath.Join(w.root, "stations", dataset), rows)
}

// WriteMeasurements writes measurement records under
// <root>/measurements/<dataset>, partitioned by the calendar date of
// date_start. Records with a null timestamp land in the year=0 partition
// rather than being dropped.
func (w *Writer) WriteMeasurements(dataset string, records []domain.MeasurementRecord) error {
	stamp := w.clock.Now().UTC()
	partitions := make(map[string][]measurementRow)
	for _, rec := range records {
		row := measurementRow{
			StationID:    rec.StationID,
			QN:           rec.QN,
			PP10:         rec.PP10,
			TT10:         rec.TT10,
			TM510:        rec.TM510,
			RF10:         rec.RF10,
			TD10:         rec.TD10,
			DateAccessed: stamp,
		}
		var year, month, day int
		if rec.DateStart.Valid {
			ts := rec.DateStart.Time
			row.DateStart = &ts
			year, month, day = domain.DatePartition(ts)
		}
		dir := partitionDir(year, month, day)
		partitions[dir] = append(partitions[dir], row)
	}

	base := filepath.Join(w.root, "measurements", dataset)
	for dir, rows := range partitions {
		if err := writeRows(w, filepath.Join(base, dir), rows); err != nil {
			return err
		}
	}
	return nil
}

// WriteForecastRecords writes long-form forecast rows under
// <root>/forecasts, partitioned by the calendar date of the timestep.
func (w *Writer) WriteForecastRecords(records []domain.ForecastRecord) error {
	stamp := w.clock.Now().UTC()
	partitions := make(map[string][]forecastRow)
	for _, rec := range records {
		year, month, day := domain.DatePartition(rec.DateStart)
		dir := partitionDir(year, month, day)
		partitions[dir] = append(partitions[dir], forecastRow{
			StationID:         rec.StationID,
			DateStart:         rec.DateStart,
			Parameter:         rec.Parameter,
			Value:             rec.Value,
			ProductID:         rec.ProductID,
			GeneratingProcess: rec.GeneratingProcess,
			DateIssued:        rec.DateIssued,
			DateAccessed:      stamp,
		})
	}

	base := filepath.Join(w.root, "forecasts")
	for dir, rows := range partitions {
		if err := writeRows(w, filepath.Join(base, dir), rows); err != nil {
			return err
		}
	}
	return nil
}

// WriteForecastStations writes the station rows derived from forecast
// placemarks under <root>/forecast_stations, unpartitioned.
func (w *Writer) WriteForecastStations(stations []domain.ForecastStation) error {
	stamp := w.clock.Now().UTC()
	rows := make([]forecastStationRow, len(stations))
	for i, s := range stations {
		rows[i] = forecastStationRow{
			StationID:    s.StationID,
			StationName:  s.StationName,
			GeoLat:       s.GeoLat,
			GeoLon:       s.GeoLon,
			Height:       s.Height,
			DateAccessed: stamp,
		}
	}
	return writeRows(w, filepath.Join(w.root, "forecast_stations"), rows)
}

func partitionDir(year, month, day int) string {
	return filepath.Join(
		fmt.Sprintf("date_start__year=%d", year),
		fmt.Sprintf("date_start__month=%d", month),
		fmt.Sprintf("date_start__day=%d", day),
	)
}

// writeRows writes one parquet file into dir. File names carry the write
// timestamp so that successive syncs never clobber each other.
func writeRows[T any](w *Writer, dir string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("part-%d.parquet", w.clock.Now().UnixNano()))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	pw := parquet.NewGenericWriter[T](f)
	if _, err := pw.Write(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := pw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	w.logger.Debug("wrote dataset file", "path", path, "rows", len(rows))
	return nil
}
