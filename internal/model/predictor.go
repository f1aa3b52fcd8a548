// Package model defines the capability interface for the opaque pretrained
// model behind the server. The server core never depends on a concrete ML
// framework; anything that can turn an image into a prediction can serve.
package model

import (
	"context"
	"image"
)

// Prediction is the fixed output shape of the inference capability.
type Prediction struct {
	Label      string
	Confidence float64
	Scores     []float64
}

// Predictor is the single inference operation the server core needs.
// Implementations are not assumed safe for concurrent invocation; callers
// serialize through the runtime admission gate when required.
type Predictor interface {
	Predict(ctx context.Context, img image.Image) (Prediction, error)
}
