package model

import (
	"context"
	"fmt"
	"image"

	"modelkit/internal/coerce"
	"modelkit/internal/command"
	"modelkit/internal/common/fsutil"
	"modelkit/internal/runtime"
)

// Setup returns the one-time setup function for the builtin predictor. When
// the options carry a checkpoint path it must exist; a real backend would load
// weights from it, the stub only validates it.
func Setup(labels ...string) runtime.SetupFunc {
	return func(ctx context.Context, opts runtime.Options) (any, error) {
		if cp := opts["checkpoint"]; cp != "" {
			path, err := fsutil.ExpandHome(cp)
			if err != nil {
				return nil, err
			}
			if !fsutil.PathExists(path) {
				return nil, fmt.Errorf("checkpoint not found: %s", path)
			}
		}
		return Predictor(NewStubPredictor(labels...)), nil
	}
}

// Commands returns the builtin command specs wired over the Predictor handle.
func Commands() []command.Spec {
	return []command.Spec{
		{
			Name:   "classify",
			Inputs: map[string]coerce.Field{"photo": coerce.Image(224, 224)},
			Outputs: map[string]coerce.Field{
				"label":      coerce.Text(),
				"confidence": coerce.Number(),
			},
			Handler: classifyHandler,
		},
		{
			Name:    "scores",
			Inputs:  map[string]coerce.Field{"photo": coerce.Image(224, 224)},
			Outputs: map[string]coerce.Field{"scores": coerce.Vector()},
			Handler: scoresHandler,
		},
	}
}

func classifyHandler(ctx context.Context, handle any, in command.Values) (command.Values, error) {
	pred, err := predict(ctx, handle, in)
	if err != nil {
		return nil, err
	}
	return command.Values{"label": pred.Label, "confidence": pred.Confidence}, nil
}

func scoresHandler(ctx context.Context, handle any, in command.Values) (command.Values, error) {
	pred, err := predict(ctx, handle, in)
	if err != nil {
		return nil, err
	}
	return command.Values{"scores": pred.Scores}, nil
}

func predict(ctx context.Context, handle any, in command.Values) (Prediction, error) {
	p, ok := handle.(Predictor)
	if !ok {
		return Prediction{}, fmt.Errorf("model handle is %T, want Predictor", handle)
	}
	img, ok := in["photo"].(image.Image)
	if !ok {
		return Prediction{}, fmt.Errorf("decoded photo is %T, want image.Image", in["photo"])
	}
	return p.Predict(ctx, img)
}
