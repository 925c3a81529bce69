package fetcher

import "fmt"

// HttpError is raised for any response status other than 2xx/304.
type HttpError struct {
	Status int
	URL    string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.URL)
}

// Retryable reports whether the fetcher's retry policy should retry a
// request that failed with this status.
func (e *HttpError) Retryable() bool {
	switch e.Status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
