// Package stream serializes progress events onto a newline-delimited wire
// format and decodes them back on the consumer side. Each record is one line:
// a fixed "data:" prefix, a JSON object with a "type" discriminator, and a
// single trailing newline. Events are written individually in emission order.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kwhite/imagerefine/internal/refine"
)

// linePrefix starts every encoded record.
const linePrefix = "data:"

type statusPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type imagePayload struct {
	Type      string `json:"type"`
	Iteration int    `json:"iteration"`
	Base64    string `json:"base64"`
	MediaType string `json:"mediaType"`
}

type evaluationPayload struct {
	Type         string `json:"type"`
	Iteration    int    `json:"iteration"`
	Feedback     string `json:"feedback"`
	IsAcceptable bool   `json:"isAcceptable"`
}

type completePayload struct {
	Type string `json:"type"`
}

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Encoder writes events to an underlying writer, one line per event. If the
// writer is an http.Flusher the line is flushed immediately so consumers see
// events as they happen rather than in batches.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
}

// NewEncoder wraps w. Flushing is enabled automatically when w implements
// http.Flusher.
func NewEncoder(w io.Writer) *Encoder {
	enc := &Encoder{w: w}
	if f, ok := w.(http.Flusher); ok {
		enc.flusher = f
	}
	return enc
}

// Encode serializes one event and writes it as a single line.
func (e *Encoder) Encode(ev refine.Event) error {
	payload, err := marshalEvent(ev)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(e.w, "%s%s\n", linePrefix, payload); err != nil {
		return err
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}

func marshalEvent(ev refine.Event) ([]byte, error) {
	switch e := ev.(type) {
	case refine.StatusEvent:
		return json.Marshal(statusPayload{Type: "status", Message: e.Message})
	case refine.ImageEvent:
		return json.Marshal(imagePayload{Type: "image", Iteration: e.Iteration, Base64: e.Base64, MediaType: e.MIMEType})
	case refine.EvaluationEvent:
		return json.Marshal(evaluationPayload{Type: "evaluation", Iteration: e.Iteration, Feedback: e.Feedback, IsAcceptable: e.Acceptable})
	case refine.CompleteEvent:
		return json.Marshal(completePayload{Type: "complete"})
	case refine.ErrorEvent:
		return json.Marshal(errorPayload{Type: "error", Message: e.Message})
	default:
		return nil, fmt.Errorf("unknown event type %T", ev)
	}
}
