package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches any 404 response from the backend.
var ErrNotFound = errors.New("backend: not found")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Path string
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend: %s returned %d %s", e.Path, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("backend: %s returned %d: %s", e.Path, e.Code, e.Body)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}
