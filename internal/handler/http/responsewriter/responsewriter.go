// Package responsewriter records the status and size of API responses for
// request logs, metrics and spans.
package responsewriter

import (
	"net/http"
)

// Recorder wraps an http.ResponseWriter and records what was sent.
type Recorder struct {
	http.ResponseWriter
	status    int
	bytes     int
	committed bool
}

// Wrap returns a Recorder for w. A w that already is a Recorder is returned
// as is, so stacked middleware share one set of counters.
func Wrap(w http.ResponseWriter) *Recorder {
	if rec, ok := w.(*Recorder); ok {
		return rec
	}
	return &Recorder{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader sends the status line once; later calls are ignored.
func (r *Recorder) WriteHeader(status int) {
	if r.committed {
		return
	}
	r.status = status
	r.committed = true
	r.ResponseWriter.WriteHeader(status)
}

// Write sends b, committing a 200 status first if none was written.
func (r *Recorder) Write(b []byte) (int, error) {
	if !r.committed {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Status returns the status sent, or 200 when the handler wrote nothing.
func (r *Recorder) Status() int { return r.status }

// Bytes returns the number of body bytes written.
func (r *Recorder) Bytes() int { return r.bytes }

// Committed reports whether the status line has been sent. Once it has, an
// error response can no longer replace it.
func (r *Recorder) Committed() bool { return r.committed }

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *Recorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
