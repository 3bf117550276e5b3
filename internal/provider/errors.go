package provider

import (
	"errors"
	"fmt"
)

// ErrStatus indicates the data API answered with a non-2xx status.
var ErrStatus = errors.New("provider: unexpected status")

// FetchError wraps a failed request with the URL it was made against.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
