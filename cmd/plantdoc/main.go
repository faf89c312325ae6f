// plantdoc detects plant diseases from a photo and asks an LLM for treatment advice.
//
// Usage:
//
//	plantdoc serve [--port 7860]
//	plantdoc diagnose --image leaf.jpg
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/Brownie44l1/plantdoc/internal/config"
)

var version = "dev"

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "plantdoc: %v\n", err)
	}

	app := &cli.App{
		Name:    "plantdoc",
		Usage:   "Plant disease detection with AI-generated treatment advice",
		Version: version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			serveCommand(),
			diagnoseCommand(),
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("plantdoc failed")
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Value:   "config.yaml",
			Usage:   "Path to the YAML config file (optional unless set explicitly)",
			EnvVars: []string{"PLANTDOC_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			EnvVars: []string{"PLANTDOC_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (console, json)",
			EnvVars: []string{"PLANTDOC_LOG_FORMAT"},
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "Interface to bind (default 0.0.0.0)",
			EnvVars: []string{"PLANTDOC_HOST"},
		},
		&cli.IntFlag{
			Name:    "port",
			Usage:   "Port to listen on (default 7860)",
			EnvVars: []string{"PORT"},
		},
		&cli.StringFlag{
			Name:    "model",
			Usage:   "Path to the ONNX classifier",
			EnvVars: []string{"PLANTDOC_MODEL"},
		},
		&cli.StringFlag{
			Name:    "metadata",
			Usage:   "Path to the classifier metadata JSON",
			EnvVars: []string{"PLANTDOC_METADATA"},
		},
		&cli.StringFlag{
			Name:    "onnxruntime-lib",
			Usage:   "Path to the onnxruntime shared library",
			EnvVars: []string{"ONNXRUNTIME_LIB"},
		},
		&cli.IntFlag{
			Name:  "top-k",
			Usage: "Number of ranked predictions to show",
		},
		&cli.StringFlag{
			Name:    "groq-api-key",
			Usage:   "Groq API key used for remedy generation",
			EnvVars: []string{"GROQ_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "llm-model",
			Usage:   "Chat model used for remedy generation",
			EnvVars: []string{"PLANTDOC_LLM_MODEL"},
		},
	}
}

// loadConfig reads the config file and applies flag and environment overrides on top.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"), c.IsSet("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if c.IsSet("model") {
		cfg.Classifier.ModelPath = c.String("model")
	}
	if c.IsSet("metadata") {
		cfg.Classifier.MetadataPath = c.String("metadata")
	}
	if c.IsSet("onnxruntime-lib") {
		cfg.Classifier.LibraryPath = c.String("onnxruntime-lib")
	}
	if c.IsSet("top-k") {
		cfg.Classifier.TopK = c.Int("top-k")
	}
	if key := c.String("groq-api-key"); key != "" {
		cfg.LLM.APIKey = key
	}
	if c.IsSet("llm-model") {
		cfg.LLM.Model = c.String("llm-model")
	}
	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
