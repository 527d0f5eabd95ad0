package favorites

import (
	"fmt"
	"io"
)

// Tracer receives a human readable account of every fetch, probe and decision.
type Tracer interface {
	Tracef(format string, args ...any)
}

type nopTracer struct{}

func (nopTracer) Tracef(string, ...any) {}

// WriterTracer writes one line per trace event to w.
type WriterTracer struct {
	w io.Writer
}

// NewWriterTracer returns a tracer writing to w.
func NewWriterTracer(w io.Writer) *WriterTracer {
	return &WriterTracer{w: w}
}

func (t *WriterTracer) Tracef(format string, args ...any) {
	fmt.Fprintf(t.w, format+"\n", args...)
}

func ensureTracer(t Tracer) Tracer {
	if t == nil {
		return nopTracer{}
	}
	return t
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
