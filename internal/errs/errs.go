// Package errs defines the error taxonomy shared by the storage, sync and
// serving layers. Read paths never retry; only the ingestion pipeline retries,
// and only errors classified as transient.
package errs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ConfigurationError is a missing or invalid required setting. Fatal at
// startup, never retried.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Key, e.Reason)
}

// TransientStoreError wraps a timeout or connection-level datastore failure.
// The ingestion pipeline retries these with backoff; everywhere else they
// surface immediately.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("transient store error in %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error { return e.Err }

// DataIntegrityError is an unparseable date or numeric field in a feed row.
// The offending row is the unit of failure: during ingestion this aborts the
// whole job rather than silently dropping records.
type DataIntegrityError struct {
	Protocol string
	Field    string
	Value    string
	Err      error
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("bad %s value %q for protocol %s: %v", e.Field, e.Value, e.Protocol, e.Err)
}

func (e *DataIntegrityError) Unwrap() error { return e.Err }

// UpstreamFeedError is an analytics-provider failure: non-success status or an
// empty payload for a query.
type UpstreamFeedError struct {
	QueryID int
	Status  int
	Reason  string
}

func (e *UpstreamFeedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream feed: query %d returned status %d: %s", e.QueryID, e.Status, e.Reason)
	}
	return fmt.Sprintf("upstream feed: query %d: %s", e.QueryID, e.Reason)
}

// transientMarkers are substrings of driver errors that indicate a
// connection-level failure worth retrying during ingestion.
var transientMarkers = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"timeout",
	"timed out",
	"too many connections",
	"EOF",
}

// IsTransient reports whether err looks like a temporary datastore failure.
// Caller cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var tse *TransientStoreError
	if errors.As(err, &tse) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
