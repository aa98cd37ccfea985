package llm

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned without any network I/O when no API key is configured.
var ErrUnavailable = errors.New("model gateway unavailable: no api key configured")

// ModelCallError describes one failed model call: transport failure, timeout,
// non-2xx status or an empty response.
type ModelCallError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *ModelCallError) Error() string {
	switch {
	case e.StatusCode > 0:
		return fmt.Sprintf("model call failed: http %d: %s", e.StatusCode, e.Detail)
	case e.Err != nil:
		return fmt.Sprintf("model call failed: %s: %v", e.Detail, e.Err)
	}
	return "model call failed: " + e.Detail
}

func (e *ModelCallError) Unwrap() error { return e.Err }

// HTTPStatusCode lets httpx classify retryability.
func (e *ModelCallError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}
