package stream

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kwhite/imagerefine/internal/refine"
)

// envelope is the union of all wire payload shapes, used for decoding.
type envelope struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	Iteration    int    `json:"iteration"`
	Base64       string `json:"base64"`
	MediaType    string `json:"mediaType"`
	Feedback     string `json:"feedback"`
	IsAcceptable bool   `json:"isAcceptable"`
}

// Decoder reconstructs events from a chunked byte stream. Transport delivery
// may split a line across chunk boundaries, so the decoder buffers the final
// incomplete fragment between Feed calls and only parses complete lines.
// A line that fails to parse is dropped with a diagnostic; it never fails
// the stream.
type Decoder struct {
	buf []byte
}

// Feed appends a chunk of raw bytes and returns the events completed by it,
// in wire order.
func (d *Decoder) Feed(chunk []byte) []refine.Event {
	d.buf = append(d.buf, chunk...)

	var events []refine.Event
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := d.buf[:i]
		d.buf = d.buf[i+1:]

		if ev, ok := decodeLine(line); ok {
			events = append(events, ev)
		}
	}
	return events
}

// decodeLine parses one complete line into an event.
func decodeLine(line []byte) (refine.Event, bool) {
	text := strings.TrimRight(string(line), "\r")
	if strings.TrimSpace(text) == "" {
		return nil, false
	}

	if !strings.HasPrefix(text, linePrefix) {
		log.Debug().Str("line", truncate(text, 120)).Msg("Dropping stream line without record prefix")
		return nil, false
	}
	text = text[len(linePrefix):]

	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		log.Debug().Err(err).Str("line", truncate(text, 120)).Msg("Dropping unparsable stream line")
		return nil, false
	}

	switch env.Type {
	case "status":
		return refine.StatusEvent{Message: env.Message}, true
	case "image":
		return refine.ImageEvent{Iteration: env.Iteration, Base64: env.Base64, MIMEType: env.MediaType}, true
	case "evaluation", "iteration": // "iteration" is a legacy alias
		return refine.EvaluationEvent{Iteration: env.Iteration, Feedback: env.Feedback, Acceptable: env.IsAcceptable}, true
	case "complete":
		return refine.CompleteEvent{}, true
	case "error":
		return refine.ErrorEvent{Message: env.Message}, true
	default:
		log.Debug().Str("type", env.Type).Msg("Dropping stream line with unknown event type")
		return nil, false
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
