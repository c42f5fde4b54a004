package domain

import (
	"errors"
	"fmt"
	"time"
)

// FetchRequest describes one observation sync: which series to pull and an
// optional date window.
type FetchRequest struct {
	Resolution string
	Parameter  string
	Start      time.Time
	End        time.Time
}

// Validate checks the request before any network activity. A zero Start or
// End leaves that side of the window open.
func (r FetchRequest) Validate() error {
	if r.Resolution == "" {
		return errors.New("resolution must not be empty")
	}
	if r.Parameter == "" {
		return errors.New("parameter must not be empty")
	}
	if !r.Start.IsZero() && !r.End.IsZero() && !r.Start.Before(r.End) {
		return fmt.Errorf("date window start %s is not before end %s",
			r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
	}
	return nil
}

// ValidateStationFilter rejects station ids absent from the authoritative
// lookup, before anything is fetched. Ids are canonicalized first.
func ValidateStationFilter(ids []string, known func(string) bool) error {
	for _, id := range ids {
		if !known(PadStationID(id)) {
			return fmt.Errorf("unknown station id %q", id)
		}
	}
	return nil
}
