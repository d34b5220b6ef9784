// Package session folds a decoded progress-event sequence into a per-iteration
// view suitable for incremental rendering.
package session

import "github.com/kwhite/imagerefine/internal/refine"

// IterationView is the consumer-side picture of one iteration, built up as
// its Image and Evaluation events arrive.
type IterationView struct {
	// ImageBase64 and MIMEType are set once the iteration's candidate image
	// has arrived.
	ImageBase64 string
	MIMEType    string

	// Feedback is the judge's critique, set by the Evaluation event.
	Feedback string

	// Acceptable is nil until the iteration has been evaluated.
	Acceptable *bool
}

// View is the aggregate state of one session stream. Apply folds events into
// it; replaying the same sequence always yields the same view, and a prefix
// of the sequence yields a view consistent with the final one.
type View struct {
	// Iterations maps iteration index to its view. Events for the same index
	// merge: each fills only the fields it carries.
	Iterations map[int]*IterationView

	// Status is the most recent status message.
	Status string

	// Complete reports that the stream finished. It does not imply the
	// result was accepted; check the iterations' Acceptable flags.
	Complete bool

	// Error holds the terminal error message, if the session failed.
	Error string
}

// NewView returns an empty view ready to fold events.
func NewView() *View {
	return &View{Iterations: make(map[int]*IterationView)}
}

// Apply folds one event into the view.
func (v *View) Apply(ev refine.Event) {
	switch e := ev.(type) {
	case refine.StatusEvent:
		v.Status = e.Message
	case refine.ImageEvent:
		iter := v.iteration(e.Iteration)
		iter.ImageBase64 = e.Base64
		iter.MIMEType = e.MIMEType
	case refine.EvaluationEvent:
		iter := v.iteration(e.Iteration)
		iter.Feedback = e.Feedback
		acceptable := e.Acceptable
		iter.Acceptable = &acceptable
	case refine.CompleteEvent:
		v.Complete = true
	case refine.ErrorEvent:
		v.Error = e.Message
	}
}

// ApplyAll folds an event sequence in order.
func (v *View) ApplyAll(events []refine.Event) {
	for _, ev := range events {
		v.Apply(ev)
	}
}

// Accepted returns the index of the accepted iteration and true, or (0,
// false) when no iteration was accepted (yet).
func (v *View) Accepted() (int, bool) {
	for i, iter := range v.Iterations {
		if iter.Acceptable != nil && *iter.Acceptable {
			return i, true
		}
	}
	return 0, false
}

func (v *View) iteration(index int) *IterationView {
	if iter, ok := v.Iterations[index]; ok {
		return iter
	}
	iter := &IterationView{}
	v.Iterations[index] = iter
	return iter
}
