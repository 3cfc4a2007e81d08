package awslambda

import (
	"bytes"
	"net/http"
)

// responseRecorder captures the router's response for conversion into a Lambda response.
type responseRecorder struct {
	Headers       http.Header
	Body          bytes.Buffer
	StatusCode    int
	writtenStatus bool
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{Headers: make(http.Header)}
}

func (r *responseRecorder) Header() http.Header {
	return r.Headers
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	if !r.writtenStatus {
		r.WriteHeader(http.StatusOK)
	}
	return r.Body.Write(data)
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if r.writtenStatus {
		return
	}
	r.StatusCode = statusCode
	r.writtenStatus = true
}
