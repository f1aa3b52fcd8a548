package model

import (
	"context"
	"image"
)

// DefaultLabels is the stub's class vocabulary. The first entry is the stub's
// fixed top class.
var DefaultLabels = []string{
	"tabby, tabby cat",
	"tiger cat",
	"Egyptian cat",
	"lynx, catamount",
	"Persian cat",
}

// StubPredictor is a deterministic, framework-free Predictor used by default
// and in tests. It always ranks the first label on top; the confidence is
// derived from the mean luminance of the input so different images still
// produce different (but reproducible) numbers.
type StubPredictor struct {
	labels []string
}

// NewStubPredictor builds a stub over the given labels, falling back to
// DefaultLabels when none are given.
func NewStubPredictor(labels ...string) *StubPredictor {
	if len(labels) == 0 {
		labels = DefaultLabels
	}
	return &StubPredictor{labels: append([]string(nil), labels...)}
}

func (p *StubPredictor) Predict(ctx context.Context, img image.Image) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	top := 0.5 + meanLuma(img)/512.0 // in [0.5, 1.0)
	scores := make([]float64, len(p.labels))
	if len(p.labels) == 1 {
		top = 1.0
	} else {
		rest := (1.0 - top) / float64(len(p.labels)-1)
		for i := 1; i < len(scores); i++ {
			scores[i] = rest
		}
	}
	scores[0] = top
	return Prediction{Label: p.labels[0], Confidence: top, Scores: scores}, nil
}

// meanLuma samples at most a 64x64 grid to keep large inputs cheap.
func meanLuma(img image.Image) float64 {
	b := img.Bounds()
	if b.Empty() {
		return 0
	}
	stepX := max(1, b.Dx()/64)
	stepY := max(1, b.Dy()/64)
	var sum, n float64
	for y := b.Min.Y; y < b.Max.Y; y += stepY {
		for x := b.Min.X; x < b.Max.X; x += stepX {
			r, g, bl, _ := img.At(x, y).RGBA()
			// 16-bit channels scaled down to 8-bit range
			sum += (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 257.0
			n++
		}
	}
	return sum / n
}
