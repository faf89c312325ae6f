// Package diagnosis runs one photo through the classifier and the advice
// generator and formats both answers for display.
package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/Brownie44l1/plantdoc/internal/metrics"
	"github.com/Brownie44l1/plantdoc/internal/model"
	"github.com/Brownie44l1/plantdoc/internal/remedy"
)

const (
	NoImageMessage   = "⚠️ Please upload or capture an image first."
	NotLoadedMessage = "Model not loaded"
	PredictionError  = "Error during prediction: "
)

var errNoPredictions = errors.New("classifier returned no predictions")

// Report holds the two display panes plus the structured ranking behind them.
// Top is nil whenever classification did not succeed.
type Report struct {
	Predictions string             `json:"predictions_markdown"`
	Remedies    string             `json:"remedies_markdown"`
	Ranked      []model.Prediction `json:"ranked,omitempty"`
	Top         *model.Prediction  `json:"top,omitempty"`
}

type Service struct {
	classifier model.Classifier
	generator  remedy.Generator
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

func NewService(classifier model.Classifier, generator remedy.Generator, logger zerolog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		classifier: classifier,
		generator:  generator,
		logger:     logger,
		metrics:    m,
	}
}

func (s *Service) Classifier() model.Classifier { return s.classifier }

// Analyze classifies img and, if that worked, asks for advice on the top label.
// A nil img short-circuits before either stage runs.
func (s *Service) Analyze(ctx context.Context, img image.Image) Report {
	if img == nil {
		s.metrics.ObserveAnalysis(metrics.OutcomeNoImage)
		return Report{Predictions: NoImageMessage}
	}

	preds, err := s.Predict(ctx, img)
	if err != nil {
		s.metrics.ObserveAnalysis(metrics.OutcomeClassifyFailed)
		return Report{Predictions: ClassificationFailure(err)}
	}

	top := preds[0]
	s.metrics.ObserveTopPrediction(top.Label)
	s.logger.Info().
		Str("disease", top.Label).
		Float64("confidence", top.Score).
		Msg("classified image")

	advice := s.generator.Generate(ctx, remedy.Request{
		DiseaseName: top.Label,
		Confidence:  top.Score * 100,
	})
	s.metrics.ObserveAnalysis(metrics.OutcomeOK)

	return Report{
		Predictions: PredictionSummary(preds),
		Remedies:    RemedyHeader(top.Label) + advice,
		Ranked:      preds,
		Top:         &top,
	}
}

// Predict runs the classifier alone. A panic inside the classifier and an
// empty ranking are both reported as errors.
func (s *Service) Predict(ctx context.Context, img image.Image) (preds []model.Prediction, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			preds, err = nil, fmt.Errorf("classifier panicked: %v", r)
		}
		s.metrics.ObserveStage("classify", start)
		if err != nil {
			s.logger.Warn().Err(err).Msg("classification failed")
		}
	}()

	preds, err = s.classifier.Predict(ctx, img)
	if err != nil {
		return nil, err
	}
	if len(preds) == 0 {
		return nil, errNoPredictions
	}
	return preds, nil
}

// ClassificationFailure converts a classifier error into the text shown in place of results.
func ClassificationFailure(err error) string {
	if errors.Is(err, model.ErrNotLoaded) {
		return NotLoadedMessage
	}
	return PredictionError + err.Error()
}
