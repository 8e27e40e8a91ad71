package middleware

import (
	"net/http"
	"time"
)

// Response headers the chat handler sets; logged and tagged per request.
const (
	cacheHeader  = "X-Cache"
	intentHeader = "X-RAG-Intent"
	toolsHeader  = "X-RAG-Tools"
)

// responseRecorder tracks status, size and time to first byte. Unwrap keeps
// http.ResponseController able to flush streamed answers through it.
type responseRecorder struct {
	http.ResponseWriter
	start      time.Time
	status     int
	bytes      int
	firstWrite time.Time
}

func newResponseRecorder(w http.ResponseWriter, start time.Time) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, start: start}
}

func (r *responseRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	if r.firstWrite.IsZero() {
		r.firstWrite = time.Now()
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (r *responseRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *responseRecorder) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// ttfb is the time until the first body byte, or zero if nothing was written.
func (r *responseRecorder) ttfb() time.Duration {
	if r.firstWrite.IsZero() {
		return 0
	}
	return r.firstWrite.Sub(r.start)
}
