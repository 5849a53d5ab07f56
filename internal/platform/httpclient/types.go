package httpclient

import (
	"fmt"
	stdhttp "net/http"
	"slices"

	"repairguide/internal/shared"
)

// Request is an immutable description of one logical HTTP call.
type Request struct {
	Method string
	URL    string
	Header stdhttp.Header
	Body   []byte
}

// NewRequest copies header and body so later changes by the caller are not observed.
func NewRequest(method, rawURL string, header stdhttp.Header, body []byte) Request {
	return Request{
		Method: method,
		URL:    rawURL,
		Header: header.Clone(),
		Body:   slices.Clone(body),
	}
}

// Response is the fully read result of a successful attempt.
type Response struct {
	StatusCode int
	Header     stdhttp.Header
	Body       []byte
}

// HTTPError reports a non-2xx status. A 429 unwraps to shared.ErrRateLimited,
// everything else to shared.ErrHTTPStatus.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	if e.StatusCode == stdhttp.StatusTooManyRequests {
		return shared.ErrRateLimited
	}
	return shared.ErrHTTPStatus
}

// TransportError reports a request that produced no usable response.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{shared.ErrTransport, e.Err}
}
