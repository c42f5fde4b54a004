package domain

import "fmt"

// ResourceFetchError reports a failed resolution or download of a CDC
// resource: either a transport failure or a non-2xx HTTP response. It is
// fatal for that resource; retry policy belongs to the caller.
type ResourceFetchError struct {
	URI        string
	StatusCode int
	Err        error
}

func (e *ResourceFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URI, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URI, e.StatusCode)
}

func (e *ResourceFetchError) Unwrap() error {
	return e.Err
}

// StructuralParseError reports a document that violates a required invariant,
// such as a forecast series whose length does not match the shared timesteps
// or a station table missing a mandatory column. It is fatal for the unit
// being parsed but does not corrupt units parsed before it.
type StructuralParseError struct {
	Source string
	Reason string
}

func (e *StructuralParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Source, e.Reason)
}

func structuralErrorf(source, format string, args ...any) error {
	return &StructuralParseError{Source: source, Reason: fmt.Sprintf(format, args...)}
}
