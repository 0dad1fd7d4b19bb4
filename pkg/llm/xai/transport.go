// HTTP transport with bounded connection-level retries.
//
// Mirrors the transport the xAI utility has always used: a failed
// connection attempt is retried a fixed number of times, while any
// received HTTP response is returned to the caller as-is, whatever
// its status code.

package xai

import "net/http"

// retryTransport оборачивает базовый RoundTripper и повторяет запрос
// при ошибках соединения, когда ответ не был получен вовсе.
type retryTransport struct {
	base    http.RoundTripper
	retries int
}

func newRetryTransport(base http.RoundTripper, retries int) *retryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &retryTransport{base: base, retries: retries}
}

// RoundTrip implements http.RoundTripper.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= t.retries; attempt++ {
		r := req
		if attempt > 0 {
			if req.Context().Err() != nil {
				break
			}
			if req.Body != nil && req.GetBody == nil {
				// Request body cannot be replayed.
				break
			}
			r = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				r.Body = body
			}
		}

		resp, err := t.base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
