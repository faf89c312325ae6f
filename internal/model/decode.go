package model

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedImage = errors.New("invalid image format. Supported: JPEG, PNG, GIF, BMP, WEBP")
	ErrImageDimensions  = errors.New("image dimensions exceed the allowed limits")
)

// ImageLimits bounds the decoded size of an image. Zero fields are unlimited.
type ImageLimits struct {
	MaxWidth  int
	MaxHeight int
	MaxPixels int64
}

// DefaultImageLimits allows a 48 MP photo.
var DefaultImageLimits = ImageLimits{MaxWidth: 12000, MaxHeight: 12000, MaxPixels: 48_000_000}

// Check reports an ErrImageDimensions error when a width x height image is out of bounds.
func (l ImageLimits) Check(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrImageDimensions, width, height)
	}
	if (l.MaxWidth > 0 && width > l.MaxWidth) || (l.MaxHeight > 0 && height > l.MaxHeight) {
		return fmt.Errorf("%w: %dx%d, max %dx%d", ErrImageDimensions, width, height, l.MaxWidth, l.MaxHeight)
	}
	if pixels := int64(width) * int64(height); l.MaxPixels > 0 && pixels > l.MaxPixels {
		return fmt.Errorf("%w: %d pixels, max %d", ErrImageDimensions, pixels, l.MaxPixels)
	}
	return nil
}

// Decode reads the image header first and only decodes the pixels when the
// dimensions are within limits.
func Decode(r io.ReadSeeker, limits ImageLimits) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return nil, "", ErrUnsupportedImage
	}
	if err := limits.Check(cfg.Width, cfg.Height); err != nil {
		return nil, "", err
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("rewind image: %w", err)
	}
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", ErrUnsupportedImage
	}
	return img, format, nil
}
