package domain

import (
	"fmt"
	"sort"
	"time"
)

// DedupStations collapses exact duplicate rows, which occur because the same
// station description table is published in each time-bucket subdirectory.
// First occurrence order is preserved.
func DedupStations(stations []Station) []Station {
	seen := make(map[string]struct{}, len(stations))
	out := stations[:0:0]
	for _, s := range stations {
		key := stationKey(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

func stationKey(s Station) string {
	return fmt.Sprintf("%s|%d|%d|%v|%v|%v|%s|%s",
		s.StationID, s.DateStart.Unix(), s.DateEnd.Unix(),
		derefInt(s.Height), derefFloat(s.GeoLat), derefFloat(s.GeoLon),
		s.Name, s.State)
}

func derefInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func derefFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// DedupOptions bounds the deduplicated output. A zero Start or End leaves
// that side unbounded; the window is [Start, End).
type DedupOptions struct {
	Start time.Time
	End   time.Time
}

// DedupMeasurements resolves the overlap between the historical archive and
// the rolling recent/now windows, which legitimately cover the same
// timestamps at different quality levels. Rows outside the window are
// dropped, then within each (station_id, date_start) group only the
// highest-QN row survives, later rows winning ties. Output is sorted by
// station id and timestamp for deterministic writes.
func DedupMeasurements(records []MeasurementRecord, opts DedupOptions) []MeasurementRecord {
	type groupKey struct {
		station string
		date    time.Time
	}

	best := make(map[groupKey]MeasurementRecord)
	order := make([]groupKey, 0, len(records))
	for _, rec := range records {
		if !inWindow(rec.DateStart, opts) {
			continue
		}
		key := groupKey{station: rec.StationID}
		if rec.DateStart.Valid {
			key.date = rec.DateStart.Time
		}
		prev, ok := best[key]
		if !ok {
			order = append(order, key)
			best[key] = rec
			continue
		}
		if rec.QN >= prev.QN {
			best[key] = rec
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].station != order[j].station {
			return order[i].station < order[j].station
		}
		return order[i].date.Before(order[j].date)
	})

	out := make([]MeasurementRecord, len(order))
	for i, key := range order {
		out[i] = best[key]
	}
	return out
}

func inWindow(t ObsTimestamp, opts DedupOptions) bool {
	if opts.Start.IsZero() && opts.End.IsZero() {
		return true
	}
	if !t.Valid {
		// Null timestamps cannot be placed inside any window.
		return false
	}
	if !opts.Start.IsZero() && t.Time.Before(opts.Start) {
		return false
	}
	if !opts.End.IsZero() && !t.Time.Before(opts.End) {
		return false
	}
	return true
}

// recentWindow approximates how far back the rolling "recent" bucket
// reaches on the CDC server.
const recentWindow = 500 * 24 * time.Hour

// SelectForWindow narrows the candidate archive list for a requested date
// range so that whole-history downloads are avoided when the range is near
// the present, and the churning recent/now files are skipped for purely
// historical requests. When the range spans the recent-window boundary the
// heuristic is disabled entirely: correctness wins over saved downloads.
func SelectForWindow(resources []Resource, start, end, now time.Time) []Resource {
	startRecent := !start.IsZero() && now.Sub(start) <= recentWindow
	endPastYear := !end.IsZero() && end.Year() < now.Year()

	spansBoundary := !start.IsZero() && !end.IsZero() &&
		now.Sub(start) > recentWindow && end.Year() >= now.Year()
	if spansBoundary {
		return resources
	}

	switch {
	case startRecent:
		return filterResources(resources, func(r Resource) bool {
			return r.Bucket == BucketRecent || r.Bucket == BucketNow
		})
	case endPastYear:
		return filterResources(resources, func(r Resource) bool {
			return r.Bucket != BucketRecent && r.Bucket != BucketNow
		})
	default:
		return resources
	}
}
