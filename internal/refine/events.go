package refine

// Event is a progress event emitted by the loop controller, exactly once per
// state transition and in strict chronological order. The type is a closed
// sum: the unexported method limits implementations to the variants below so
// consumers can switch exhaustively.
type Event interface {
	eventType() string
}

// StatusEvent reports a human-readable phase change.
type StatusEvent struct {
	Message string
}

// ImageEvent carries one normalized candidate image.
type ImageEvent struct {
	Iteration int
	Base64    string
	MIMEType  string
}

// EvaluationEvent carries the judge's verdict for one candidate.
type EvaluationEvent struct {
	Iteration  int
	Feedback   string
	Acceptable bool
}

// CompleteEvent signals that the session process finished. It is emitted on
// acceptance and on iteration-budget exhaustion alike; consumers must read
// the Evaluation events to learn whether the result was accepted.
type CompleteEvent struct{}

// ErrorEvent signals that the session terminated on a failure.
type ErrorEvent struct {
	Message string
}

func (StatusEvent) eventType() string { return "status" }
func (ImageEvent) eventType() string { return "image" }
func (EvaluationEvent) eventType() string { return "evaluation" }
func (CompleteEvent) eventType() string { return "complete" }
func (ErrorEvent) eventType() string { return "error" }
