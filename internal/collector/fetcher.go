package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Fetcher defines the interface for downloading archive documents.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error)
	Name() string
}

// StatusError is returned when the archive answers with anything but 200.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the archive.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}
