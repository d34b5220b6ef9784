package refine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/kwhite/imagerefine/internal/imaging"
)

// testImage returns a small decodable PNG for use as generator output.
func testImage(t *testing.T) imaging.Asset {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return imaging.Asset{Data: buf.Bytes(), MIMEType: "image/png"}
}

// stubGenerator returns canned assets or errors, recording prompts it saw.
type stubGenerator struct {
	asset   imaging.Asset
	err     error
	prompts []string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string, _ []imaging.Asset) (imaging.Asset, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return imaging.Asset{}, g.err
	}
	return g.asset, nil
}

// stubJudge returns scripted verdicts in order, then repeats the last one.
type stubJudge struct {
	verdicts []Verdict
	err      error
	calls    int
}

func (j *stubJudge) Evaluate(_ context.Context, _ string, _, _ imaging.Asset) (Verdict, error) {
	if j.err != nil {
		return Verdict{}, j.err
	}
	i := j.calls
	if i >= len(j.verdicts) {
		i = len(j.verdicts) - 1
	}
	j.calls++
	return j.verdicts[i], nil
}

// collect runs one session and returns the emitted events.
func collect(t *testing.T, gen Generator, judge Judge, req EditRequest) []Event {
	t.Helper()

	var events []Event
	NewController(gen, judge).Run(context.Background(), req, func(ev Event) {
		events = append(events, ev)
	})
	return events
}

// kinds renders an event slice as a compact signature for comparisons.
func kinds(events []Event) string {
	var parts []string
	for _, ev := range events {
		switch e := ev.(type) {
		case StatusEvent:
			parts = append(parts, "status")
		case ImageEvent:
			parts = append(parts, fmt.Sprintf("image(%d)", e.Iteration))
		case EvaluationEvent:
			parts = append(parts, fmt.Sprintf("eval(%d,%v)", e.Iteration, e.Acceptable))
		case CompleteEvent:
			parts = append(parts, "complete")
		case ErrorEvent:
			parts = append(parts, "error")
		}
	}
	return strings.Join(parts, " ")
}

func editRequest(t *testing.T, maxIterations int) EditRequest {
	return EditRequest{
		Prompt:        "add sunglasses",
		References:    []imaging.Asset{testImage(t)},
		MaxIterations: maxIterations,
	}
}

func TestRunAcceptsOnThirdIteration(t *testing.T) {
	gen := &stubGenerator{asset: testImage(t)}
	judge := &stubJudge{verdicts: []Verdict{
		{Acceptable: false, Feedback: "No, the sunglasses are missing."},
		{Acceptable: false, Feedback: "No, the sunglasses are crooked."},
		{Acceptable: true, Feedback: "Yes, everything matches."},
	}}

	events := collect(t, gen, judge, editRequest(t, 3))

	want := "status image(0) status eval(0,false) status image(1) status eval(1,false) status image(2) status eval(2,true) complete"
	if got := kinds(events); got != want {
		t.Errorf("event sequence =\n  %s\nwant\n  %s", got, want)
	}
}

func TestRunStopsOnAcceptanceBeforeCap(t *testing.T) {
	gen := &stubGenerator{asset: testImage(t)}
	judge := &stubJudge{verdicts: []Verdict{{Acceptable: true, Feedback: "Yes."}}}

	events := collect(t, gen, judge, editRequest(t, 10))

	want := "status image(0) status eval(0,true) complete"
	if got := kinds(events); got != want {
		t.Errorf("event sequence = %s, want %s", got, want)
	}
}

func TestRunGenerationFailureTerminatesSession(t *testing.T) {
	gen := &stubGenerator{err: errors.New("model returned no image output")}
	judge := &stubJudge{verdicts: []Verdict{{Acceptable: true}}}

	events := collect(t, gen, judge, editRequest(t, 3))

	want := "status error complete"
	if got := kinds(events); got != want {
		t.Errorf("event sequence = %s, want %s", got, want)
	}

	errEv, ok := events[1].(ErrorEvent)
	if !ok {
		t.Fatalf("second event is %T, want ErrorEvent", events[1])
	}
	if !strings.HasPrefix(errEv.Message, "No image generated") {
		t.Errorf("error message = %q, want prefix %q", errEv.Message, "No image generated")
	}
}

func TestRunJudgeFailureTerminatesSession(t *testing.T) {
	gen := &stubGenerator{asset: testImage(t)}
	judge := &stubJudge{err: errors.New("transport fault")}

	events := collect(t, gen, judge, editRequest(t, 3))

	want := "status image(0) status error complete"
	if got := kinds(events); got != want {
		t.Errorf("event sequence = %s, want %s", got, want)
	}
}

func TestRunUndecodableCandidateTerminatesSession(t *testing.T) {
	gen := &stubGenerator{asset: imaging.Asset{Data: []byte("not an image"), MIMEType: "image/png"}}
	judge := &stubJudge{verdicts: []Verdict{{Acceptable: true}}}

	events := collect(t, gen, judge, editRequest(t, 3))

	want := "status error complete"
	if got := kinds(events); got != want {
		t.Errorf("event sequence = %s, want %s", got, want)
	}
}

// Exhaustion still ends with Complete: the stream-finished signal is distinct
// from requirement-satisfied, and callers must read the Evaluation flags.
func TestRunExhaustionStillEmitsComplete(t *testing.T) {
	gen := &stubGenerator{asset: testImage(t)}
	judge := &stubJudge{verdicts: []Verdict{{Acceptable: false, Feedback: "No, still wrong."}}}

	events := collect(t, gen, judge, editRequest(t, 2))

	want := "status image(0) status eval(0,false) status image(1) status eval(1,false) complete"
	if got := kinds(events); got != want {
		t.Errorf("event sequence = %s, want %s", got, want)
	}
}

func TestRunClampsIterationCap(t *testing.T) {
	tests := []struct {
		requested  int
		wantImages int
	}{
		{0, 1},
		{-3, 1},
		{100, 12},
	}

	for _, tt := range tests {
		gen := &stubGenerator{asset: testImage(t)}
		judge := &stubJudge{verdicts: []Verdict{{Acceptable: false, Feedback: "No."}}}

		events := collect(t, gen, judge, editRequest(t, tt.requested))

		images := 0
		for _, ev := range events {
			if _, ok := ev.(ImageEvent); ok {
				images++
			}
		}
		if images != tt.wantImages {
			t.Errorf("requested %d iterations: %d Image events, want %d", tt.requested, images, tt.wantImages)
		}
	}
}

func TestRunEvaluationIndexesMatchImages(t *testing.T) {
	gen := &stubGenerator{asset: testImage(t)}
	judge := &stubJudge{verdicts: []Verdict{{Acceptable: false, Feedback: "No."}}}

	events := collect(t, gen, judge, editRequest(t, 4))

	seen := map[int]bool{}
	for _, ev := range events {
		switch e := ev.(type) {
		case ImageEvent:
			seen[e.Iteration] = true
		case EvaluationEvent:
			if !seen[e.Iteration] {
				t.Errorf("EvaluationEvent for iteration %d has no preceding ImageEvent", e.Iteration)
			}
		}
	}
}

func TestRunFeedsCritiqueIntoNextPrompt(t *testing.T) {
	const critique = "No, the hat color is wrong."

	gen := &stubGenerator{asset: testImage(t)}
	judge := &stubJudge{verdicts: []Verdict{
		{Acceptable: false, Feedback: critique},
		{Acceptable: true, Feedback: "Yes."},
	}}

	collect(t, gen, judge, editRequest(t, 3))

	if len(gen.prompts) != 2 {
		t.Fatalf("generator called %d times, want 2", len(gen.prompts))
	}
	if strings.Contains(gen.prompts[0], critique) {
		t.Error("first prompt should not contain a critique")
	}
	if !strings.Contains(gen.prompts[1], critique) {
		t.Error("second prompt should carry the judge's critique")
	}
}
