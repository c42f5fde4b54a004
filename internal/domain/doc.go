// Package domain models bulk data published by the German Weather Service
// (Deutscher Wetterdienst, DWD) on its Climate Data Center (CDC) open-data
// server, and the pure parsing and normalization rules applied to it.
//
// # Data Sources
//
// Observation series live under
// https://opendata.dwd.de/climate_environment/CDC/observations_germany/climate/,
// organized as resolution/parameter/time-bucket directory listings served as
// plain HTML. Each series is split into three overlapping buckets:
//
//	historical/  multi-decade archive, repacked yearly
//	recent/      rolling window of roughly the last 500 days
//	now/         snapshot of the current day
//
// Archive file names repeat the bucket as a suffix marker (_hist, _akt,
// _now). The overlap is intentional upstream: the same timestamp appears in
// several buckets at different quality levels and is resolved here by
// keeping the highest QN (Qualitätsniveau) row per station and timestamp.
//
// # Source Format Conventions
//
// Station description tables (Beschreibung_Stationen.txt) are fixed-width
// Latin-1 text: a space-delimited header row, a separator line, a legend
// line, then data rows. Station names may contain spaces. Dates are 8-digit
// YYYYMMDD, interpreted as UTC midnight.
//
// Measurement series are semicolon-delimited UTF-8 with a trailing
// end-of-record column (eor) and left-padded fields. Timestamps are 12-digit
// YYYYMMDDHHMM UTC; some legacy low-resolution series use a 10-digit form
// with a 2-digit year, pivoted at 69 per the Unix convention. The missing
// value sentinel is -999, occasionally with trailing spaces.
//
// MOSMIX forecast bundles are zipped KML with a DWD extension namespace:
// product metadata and a shared timestep axis once per document, then one
// Placemark per station whose packed value strings must align positionally
// with the timesteps. The missing value placeholder is "-". Placemark
// coordinates are a longitude-first comma triple.
//
// Station ids are zero-padded to five characters across all parsers; this is
// the join key between station lists, measurement series, and forecasts.
//
// # Error Taxonomy
//
// Failed fetches raise [ResourceFetchError] and invariant violations raise
// [StructuralParseError]; both are fatal for their unit and surface to the
// caller. Malformed legacy timestamps and sentinel values are downgraded to
// nulls so that one bad field never discards an otherwise valid record.
package domain
