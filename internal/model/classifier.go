package model

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// DefaultTopK is how many ranked predictions a classifier returns unless configured otherwise.
const DefaultTopK = 3

// ErrNotLoaded is returned by every call on a classifier whose model failed to load at startup.
var ErrNotLoaded = errors.New("model not loaded")

// Classifier ranks disease labels for a single image, best first.
type Classifier interface {
	Predict(ctx context.Context, img image.Image) ([]Prediction, error)
}

// Unavailable stands in for a classifier that could not be initialised.
type Unavailable struct {
	Cause error
}

func (u *Unavailable) Predict(ctx context.Context, img image.Image) ([]Prediction, error) {
	if u.Cause == nil {
		return nil, ErrNotLoaded
	}
	return nil, fmt.Errorf("%w: %v", ErrNotLoaded, u.Cause)
}

// Available reports whether c can actually run inference.
func Available(c Classifier) bool {
	if c == nil {
		return false
	}
	_, down := c.(*Unavailable)
	return !down
}
