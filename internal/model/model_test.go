package model

import (
	"context"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"modelkit/internal/runtime"
)

func testImage(w, h int, c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestStubPredictorDeterministic(t *testing.T) {
	p := NewStubPredictor()
	img := testImage(8, 8, color.NRGBA{R: 120, G: 90, B: 10, A: 255})
	a, err := p.Predict(context.Background(), img)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	b, err := p.Predict(context.Background(), img)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if a.Label != b.Label || a.Confidence != b.Confidence {
		t.Fatalf("non-deterministic: %+v vs %+v", a, b)
	}
	if a.Label != "tabby, tabby cat" {
		t.Fatalf("label=%q", a.Label)
	}
	if a.Confidence < 0.5 || a.Confidence >= 1.0 {
		t.Fatalf("confidence out of range: %v", a.Confidence)
	}
}

func TestStubPredictorScoresSumToOne(t *testing.T) {
	p := NewStubPredictor("a", "b", "c")
	pred, err := p.Predict(context.Background(), testImage(4, 4, color.NRGBA{R: 255, G: 255, B: 255, A: 255}))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	var sum float64
	for _, s := range pred.Scores {
		sum += s
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("scores sum=%v", sum)
	}
	if pred.Scores[0] <= pred.Scores[1] {
		t.Fatalf("first label must rank on top: %v", pred.Scores)
	}
}

func TestStubPredictorCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewStubPredictor().Predict(ctx, testImage(2, 2, color.NRGBA{A: 255})); err == nil {
		t.Fatal("expected context error")
	}
}

func TestSetupValidatesCheckpoint(t *testing.T) {
	fn := Setup()
	if _, err := fn(context.Background(), runtime.Options{"checkpoint": "/does/not/exist.onnx"}); err == nil {
		t.Fatal("expected error for missing checkpoint")
	}

	dir := t.TempDir()
	cp := filepath.Join(dir, "weights.onnx")
	if err := os.WriteFile(cp, []byte("w"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	handle, err := fn(context.Background(), runtime.Options{"checkpoint": cp})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, ok := handle.(Predictor); !ok {
		t.Fatalf("handle is %T, want Predictor", handle)
	}
}

func TestSetupWithoutCheckpoint(t *testing.T) {
	handle, err := Setup("x")(context.Background(), nil)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, ok := handle.(Predictor); !ok {
		t.Fatalf("handle is %T", handle)
	}
}

func TestBuiltinCommandSpecs(t *testing.T) {
	specs := Commands()
	if len(specs) != 2 {
		t.Fatalf("expected 2 builtin commands, got %d", len(specs))
	}
	byName := map[string]bool{}
	for _, s := range specs {
		byName[s.Name] = true
		if s.Handler == nil {
			t.Fatalf("%s: nil handler", s.Name)
		}
	}
	if !byName["classify"] || !byName["scores"] {
		t.Fatalf("unexpected command set: %v", byName)
	}
}
