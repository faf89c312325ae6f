package main

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/Brownie44l1/plantdoc/internal/config"
	"github.com/Brownie44l1/plantdoc/internal/diagnosis"
	"github.com/Brownie44l1/plantdoc/internal/logging"
	"github.com/Brownie44l1/plantdoc/internal/metrics"
	"github.com/Brownie44l1/plantdoc/internal/model"
	"github.com/Brownie44l1/plantdoc/internal/remedy"
)

// application holds the long-lived clients built once at startup.
type application struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *metrics.Metrics
	advisor *remedy.Advisor
	service *diagnosis.Service
	close   func()
}

func newApplication(cfg *config.Config) (*application, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	app := &application{cfg: cfg, logger: logger, metrics: m, close: func() {}}

	logger.Info().Str("model", cfg.Classifier.ModelPath).Msg("loading classifier")
	var classifier model.Classifier
	onnx, err := model.NewONNXClassifier(model.Options{
		ModelPath:    cfg.Classifier.ModelPath,
		MetadataPath: cfg.Classifier.MetadataPath,
		LibraryPath:  cfg.Classifier.LibraryPath,
		TopK:         cfg.Classifier.TopK,
	})
	if err != nil {
		logger.Error().Err(err).Msg("classifier unavailable, predictions will report the model as not loaded")
		classifier = &model.Unavailable{Cause: err}
	} else {
		logger.Info().Int("classes", len(onnx.Metadata.Classes)).Msg("classifier loaded")
		classifier = onnx
		app.close = onnx.Close
	}

	if cfg.LLM.APIKey == "" {
		logger.Warn().Msg("GROQ_API_KEY not found. Set it in the environment or a .env file; the app will run but remedy generation will not work")
	}
	app.advisor = remedy.NewAdvisor(remedy.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, logger.With().Str("component", "remedy").Logger(), m)

	app.service = diagnosis.NewService(classifier, app.advisor, logger.With().Str("component", "diagnosis").Logger(), m)
	return app, nil
}

func (a *application) imageLimits() model.ImageLimits {
	return model.ImageLimits{
		MaxWidth:  a.cfg.Server.MaxWidth,
		MaxHeight: a.cfg.Server.MaxHeight,
		MaxPixels: a.cfg.Server.MaxPixels,
	}
}
