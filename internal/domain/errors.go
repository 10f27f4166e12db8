package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidCoordinate marks malformed latitude/longitude input reaching a
// resolver. Callers either filter upstream or catch it per event and treat
// the event as unresolved.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// FetchError reports a failed live-feed fetch: source unreachable, non-2xx
// response, or an unparseable body. It carries the endpoint and query
// parameters so callers can retry or report. An empty-but-valid feed is not
// a FetchError.
type FetchError struct {
	Endpoint string
	Params   string
	Timeout  bool
	Err      error
}

func (e *FetchError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("feed fetch timed out: %s?%s: %v", e.Endpoint, e.Params, e.Err)
	}
	return fmt.Sprintf("feed fetch failed: %s?%s: %v", e.Endpoint, e.Params, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
