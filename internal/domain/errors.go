package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTargets is returned when a scrape run is started without any website target
	ErrNoTargets = errors.New("no website targets configured")

	// ErrUnreachable is the kind of a fetch that failed at the connection level on every attempt
	ErrUnreachable = errors.New("url unreachable")

	// ErrTimeout is the kind of a fetch whose last attempt timed out
	ErrTimeout = errors.New("request timed out")

	// ErrBadStatus is the kind of a fetch that completed with a non-2xx status
	ErrBadStatus = errors.New("unexpected http status")

	// ErrCacheMiss is returned when a page is not present in the page cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrNotFound is returned by storage lookups with no result
	ErrNotFound = errors.New("not found")
)

// FetchError is surfaced by the fetcher after retries are exhausted, or by
// FetchOK for a non-2xx page.
type FetchError struct {
	Kind   error
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Kind.Error(), e.URL, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind.Error(), e.URL, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.URL)
	}
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ParseError marks malformed markup or JSON met by one extraction tier.
// The pipeline falls through to the next tier.
type ParseError struct {
	Tier string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Tier, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError names the rule a candidate broke.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
