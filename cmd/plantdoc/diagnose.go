package main

import (
	"fmt"
	"image"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Brownie44l1/plantdoc/internal/model"
)

func diagnoseCommand() *cli.Command {
	return &cli.Command{
		Name:  "diagnose",
		Usage: "Analyze one image and print both result panes as Markdown",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "image",
				Aliases:  []string{"i"},
				Usage:    "Path to a JPEG, PNG, GIF, BMP or WEBP plant photo",
				Required: true,
			},
		},
		Action: runDiagnose,
	}
}

func runDiagnose(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	app, err := newApplication(cfg)
	if err != nil {
		return err
	}
	defer app.close()

	img, err := decodeFile(c.String("image"), app.imageLimits())
	if err != nil {
		return err
	}

	report := app.service.Analyze(c.Context, img)
	fmt.Fprintln(c.App.Writer, report.Predictions)
	if report.Remedies != "" {
		fmt.Fprintln(c.App.Writer, report.Remedies)
	}
	return nil
}

func decodeFile(path string, limits model.ImageLimits) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := model.Decode(f, limits)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
