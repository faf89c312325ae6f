package handlers

import (
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"

	"github.com/Brownie44l1/plantdoc/internal/model"
)

const formField = "image"

var (
	errNoImage       = errors.New("no image file provided")
	errUploadTooBig  = errors.New("image is too large")
	errMalformedForm = errors.New("failed to parse form")
)

// readUpload pulls the "image" part out of a multipart request and decodes it.
// It returns errNoImage when the request carries no form, or the field is
// absent or empty.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (image.Image, error) {
	if r.ContentLength == 0 {
		return nil, errNoImage
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return nil, errUploadTooBig
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, io.EOF):
			return nil, errNoImage
		}
		return nil, fmt.Errorf("%w: %v", errMalformedForm, err)
	}

	file, header, err := r.FormFile(formField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, errNoImage
		}
		return nil, fmt.Errorf("%w: %v", errMalformedForm, err)
	}
	defer file.Close()

	if header.Size == 0 {
		return nil, errNoImage
	}

	h.logger.Debug().Str("file", header.Filename).Int64("size", header.Size).Msg("received upload")

	img, format, err := model.Decode(file, h.limits)
	if err != nil {
		return nil, err
	}

	h.logger.Debug().
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("decoded upload")

	return img, nil
}

func uploadStatus(err error) int {
	switch {
	case errors.Is(err, errUploadTooBig):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}
