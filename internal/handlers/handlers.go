package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Brownie44l1/plantdoc/internal/diagnosis"
	"github.com/Brownie44l1/plantdoc/internal/model"
	"github.com/Brownie44l1/plantdoc/internal/web"
)

type Options struct {
	MaxUploadBytes int64

	// ImageLimits bounds decoded uploads; the zero value uses model.DefaultImageLimits.
	ImageLimits model.ImageLimits

	// AdviceReady reports whether remedy generation has a working client.
	AdviceReady bool
}

type Handler struct {
	service     *diagnosis.Service
	renderer    *web.Renderer
	logger      zerolog.Logger
	maxUpload   int64
	limits      model.ImageLimits
	adviceReady bool
}

func NewHandler(service *diagnosis.Service, renderer *web.Renderer, logger zerolog.Logger, opts Options) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.ImageLimits == (model.ImageLimits{}) {
		opts.ImageLimits = model.DefaultImageLimits
	}
	return &Handler{
		service:     service,
		renderer:    renderer,
		logger:      logger,
		maxUpload:   opts.MaxUploadBytes,
		limits:      opts.ImageLimits,
		adviceReady: opts.AdviceReady,
	}
}

// AnalyzeResponse is the JSON form of one analysis.
type AnalyzeResponse struct {
	ID string `json:"id"`
	diagnosis.Report
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status":     "healthy",
		"classifier": readiness(model.Available(h.service.Classifier())),
		"advisor":    readiness(h.adviceReady),
	}
	writeJSON(w, http.StatusOK, status)
}

func readiness(ok bool) string {
	if ok {
		return "ready"
	}
	return "unavailable"
}

// Index serves the empty page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, web.Placeholder, "")
}

// AnalyzePage handles the page form: both panes come back rendered into the same page.
func (h *Handler) AnalyzePage(w http.ResponseWriter, r *http.Request) {
	img, err := h.readUpload(w, r)
	if err != nil && !errors.Is(err, errNoImage) {
		h.logger.Warn().Err(err).Msg("rejected upload")
		h.renderPage(w, "⚠️ "+err.Error(), "")
		return
	}

	report := h.service.Analyze(r.Context(), img)
	h.renderPage(w, report.Predictions, report.Remedies)
}

// Analyze is the JSON API for the full pipeline. A missing image is not an
// error; the report carries the prompt message like the page does.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	img, err := h.readUpload(w, r)
	if err != nil && !errors.Is(err, errNoImage) {
		http.Error(w, err.Error(), uploadStatus(err))
		return
	}

	report := h.service.Analyze(r.Context(), img)
	writeJSON(w, http.StatusOK, AnalyzeResponse{ID: uuid.NewString(), Report: report})
}

// PredictFromImage runs only the classifier.
func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request) {
	img, err := h.readUpload(w, r)
	if err != nil {
		if errors.Is(err, errNoImage) {
			http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), uploadStatus(err))
		return
	}

	preds, err := h.service.Predict(r.Context(), img)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrNotLoaded) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, diagnosis.ClassificationFailure(err), status)
		return
	}

	writeJSON(w, http.StatusOK, model.NewPredictionResponse(preds))
}

func (h *Handler) renderPage(w http.ResponseWriter, predictions, remedies string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Render(w, predictions, remedies); err != nil {
		h.logger.Error().Err(err).Msg("failed to render page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
