package domain

import (
	"path"
	"strings"
)

// TimeBucket identifies which subdivision of a CDC data series a resource
// belongs to. The server splits every series into a historical archive, a
// rolling ~500-day "recent" window, and a "now" snapshot of the current day;
// the three legitimately overlap in time.
type TimeBucket int

const (
	BucketNone TimeBucket = iota
	BucketHistorical
	BucketRecent
	BucketNow
)

func (b TimeBucket) String() string {
	switch b {
	case BucketHistorical:
		return "historical"
	case BucketRecent:
		return "recent"
	case BucketNow:
		return "now"
	default:
		return "none"
	}
}

// Resource is a resolvable location of a downloadable artifact or
// subdirectory listing, tagged with its time-bucket classification.
type Resource struct {
	URI    string
	Bucket TimeBucket
}

// IsListing reports whether the resource points at a directory listing
// rather than a downloadable file.
func (r Resource) IsListing() bool {
	return strings.HasSuffix(r.URI, "/")
}

// ClassifyTimeBucket tags a resource path with its time bucket. Directory
// names match exactly (historical/, recent/, now/); archive file names carry
// the bucket as a suffix marker (_hist, _akt, _now).
func ClassifyTimeBucket(uri string) TimeBucket {
	base := path.Base(strings.TrimSuffix(uri, "/"))
	switch base {
	case "historical":
		return BucketHistorical
	case "recent":
		return BucketRecent
	case "now":
		return BucketNow
	}
	switch {
	case strings.Contains(base, "_hist"):
		return BucketHistorical
	case strings.Contains(base, "_akt"):
		return BucketRecent
	case strings.Contains(base, "_now"):
		return BucketNow
	}
	return BucketNone
}

// SelectArchives keeps the downloadable data archives from a gathered
// resource list.
func SelectArchives(resources []Resource) []Resource {
	return filterResources(resources, func(r Resource) bool {
		return strings.Contains(r.URI, ".zip")
	})
}

// SelectStationDescriptions keeps the station metadata tables from a
// gathered resource list.
func SelectStationDescriptions(resources []Resource) []Resource {
	return filterResources(resources, func(r Resource) bool {
		return strings.Contains(r.URI, "Beschreibung_Stationen.txt")
	})
}

func filterResources(resources []Resource, keep func(Resource) bool) []Resource {
	var out []Resource
	for _, r := range resources {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
