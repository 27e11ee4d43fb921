package source

import (
	"context"
	"fmt"
)

// Gateway fetches the raw lines of the transactions file that match a
// date pattern. Implementations must be safe for concurrent use.
type Gateway interface {
	// FetchMonth returns every line of remotePath containing datePattern,
	// newline separated. No match is an empty string, not an error.
	FetchMonth(ctx context.Context, remotePath, datePattern string) (string, error)
}

// GatewayError reports a failed fetch. It is fatal for the whole run.
type GatewayError struct {
	Month string
	Path  string
	Err   error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("fetching %s from %s: %v", e.Month, e.Path, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// FilterStats counts what the status filter saw in one month of raw text.
type FilterStats struct {
	Lines     int // non-empty lines read
	Kept      int // lines with an allowed status
	Rejected  int // well-formed lines with any other status
	Malformed int // lines that failed to decode
}
