package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Brownie44l1/plantdoc/internal/diagnosis"
	"github.com/Brownie44l1/plantdoc/internal/metrics"
	"github.com/Brownie44l1/plantdoc/internal/model"
	"github.com/Brownie44l1/plantdoc/internal/remedy"
	"github.com/Brownie44l1/plantdoc/internal/web"
)

type stubClassifier struct {
	calls int
	preds []model.Prediction
	err   error
}

func (s *stubClassifier) Predict(ctx context.Context, img image.Image) ([]model.Prediction, error) {
	s.calls++
	return s.preds, s.err
}

type stubGenerator struct {
	calls int
}

func (s *stubGenerator) Generate(ctx context.Context, req remedy.Request) string {
	s.calls++
	return "## 💊 Treatment Recommendations\n- Remove infected leaves"
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	return pngSized(t, 16, 16)
}

func pngSized(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{G: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, field string, content []byte) (io.Reader, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		part, err := mw.CreateFormFile(field, "leaf.png")
		if err != nil {
			t.Fatal(err)
		}
		part.Write(content)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

type fixture struct {
	classifier *stubClassifier
	generator  *stubGenerator
	router     http.Handler
}

func newFixture(t *testing.T, c *stubClassifier, maxUpload int64) *fixture {
	t.Helper()
	g := &stubGenerator{}
	m := metrics.New()
	renderer, err := web.NewRenderer("llama-3.3-70b-versatile")
	if err != nil {
		t.Fatal(err)
	}
	svc := diagnosis.NewService(c, g, zerolog.Nop(), m)
	h := NewHandler(svc, renderer, zerolog.Nop(), Options{MaxUploadBytes: maxUpload, AdviceReady: true})
	return &fixture{classifier: c, generator: g, router: NewRouter(h, m, zerolog.Nop(), 0)}
}

func (f *fixture) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

var blight = []model.Prediction{{Label: "Leaf Blight", Score: 0.87}, {Label: "Rust", Score: 0.1}}

func TestAnalyzeAPI(t *testing.T) {
	f := newFixture(t, &stubClassifier{preds: blight}, 0)
	body, ct := multipartBody(t, "image", pngBytes(t))

	rec := f.do(t, http.MethodPost, "/api/v1/analyze", body, ct)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.ID == "" {
		t.Error("response has no id")
	}
	if !strings.Contains(resp.Predictions, "87.00%") || !strings.Contains(resp.Remedies, "Remove infected leaves") {
		t.Errorf("unexpected report %+v", resp.Report)
	}
	if resp.Top == nil || resp.Top.Label != "Leaf Blight" {
		t.Errorf("top = %+v", resp.Top)
	}
	if f.classifier.calls != 1 || f.generator.calls != 1 {
		t.Errorf("calls: classifier=%d generator=%d, want 1/1", f.classifier.calls, f.generator.calls)
	}
}

func TestAnalyzeAPIWithoutImage(t *testing.T) {
	f := newFixture(t, &stubClassifier{preds: blight}, 0)
	body, ct := multipartBody(t, "", nil)

	rec := f.do(t, http.MethodPost, "/api/v1/analyze", body, ct)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp AnalyzeResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Predictions != diagnosis.NoImageMessage || resp.Remedies != "" {
		t.Errorf("report = %+v", resp.Report)
	}
	if f.classifier.calls != 0 || f.generator.calls != 0 {
		t.Errorf("adapters were called without an image")
	}
}

func TestUploadRejected(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		content   []byte
		maxUpload int64
	}{
		{name: "not an image", path: "/api/v1/analyze", content: []byte("definitely not a picture")},
		{name: "too large", path: "/api/v1/analyze", content: bytes.Repeat([]byte{0xFF}, 4096), maxUpload: 1024},
		{name: "classifier only, not an image", path: "/api/v1/predict/image", content: []byte("GIF87")},
		{name: "wide strip", path: "/api/v1/analyze", content: pngSized(t, 13000, 1)},
		{name: "tall strip", path: "/api/v1/predict/image", content: pngSized(t, 1, 13000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &stubClassifier{preds: blight}, tt.maxUpload)
			body, ct := multipartBody(t, "image", tt.content)

			rec := f.do(t, http.MethodPost, tt.path, body, ct)

			if rec.Code < 400 || rec.Code >= 500 {
				t.Errorf("status = %d, want 4xx", rec.Code)
			}
			if f.classifier.calls != 0 {
				t.Error("classifier called for a rejected upload")
			}
		})
	}
}

func TestAnalyzeAPIWithoutForm(t *testing.T) {
	tests := []struct {
		name        string
		body        io.Reader
		contentType string
	}{
		{name: "no body"},
		{name: "url encoded", body: strings.NewReader("image=leaf"), contentType: "application/x-www-form-urlencoded"},
		{name: "empty multipart", body: strings.NewReader(""), contentType: "multipart/form-data; boundary=xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &stubClassifier{preds: blight}, 0)

			rec := f.do(t, http.MethodPost, "/api/v1/analyze", tt.body, tt.contentType)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var resp AnalyzeResponse
			json.Unmarshal(rec.Body.Bytes(), &resp)
			if resp.Predictions != diagnosis.NoImageMessage {
				t.Errorf("predictions = %q, want %q", resp.Predictions, diagnosis.NoImageMessage)
			}
			if f.classifier.calls != 0 || f.generator.calls != 0 {
				t.Error("adapters were called without an image")
			}
		})
	}
}

func TestPredictFromImage(t *testing.T) {
	tests := []struct {
		name       string
		classifier *stubClassifier
		wantStatus int
		wantBody   string
	}{
		{name: "ok", classifier: &stubClassifier{preds: blight}, wantStatus: http.StatusOK, wantBody: `"class":"Leaf Blight"`},
		{name: "not loaded", classifier: &stubClassifier{err: model.ErrNotLoaded}, wantStatus: http.StatusServiceUnavailable, wantBody: diagnosis.NotLoadedMessage},
		{name: "inference error", classifier: &stubClassifier{err: errors.New("boom")}, wantStatus: http.StatusInternalServerError, wantBody: "Error during prediction: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.classifier, 0)
			body, ct := multipartBody(t, "image", pngBytes(t))

			rec := f.do(t, http.MethodPost, "/api/v1/predict/image", body, ct)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", rec.Body.String(), tt.wantBody)
			}
			if f.generator.calls != 0 {
				t.Error("classifier-only endpoint called the generator")
			}
		})
	}

	f := newFixture(t, &stubClassifier{preds: blight}, 0)
	body, ct := multipartBody(t, "", nil)
	if rec := f.do(t, http.MethodPost, "/api/v1/predict/image", body, ct); rec.Code != http.StatusBadRequest {
		t.Errorf("missing image status = %d, want 400", rec.Code)
	}
}

func TestPage(t *testing.T) {
	f := newFixture(t, &stubClassifier{preds: blight}, 0)

	rec := f.do(t, http.MethodGet, "/", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Upload an image to see predictions...") {
		t.Fatalf("index: status = %d", rec.Code)
	}

	body, ct := multipartBody(t, "image", pngBytes(t))
	rec = f.do(t, http.MethodPost, "/analyze", body, ct)
	page := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze: status = %d", rec.Code)
	}
	for _, want := range []string{"<li>Leaf Blight: 87.00%</li>", "🌿 Treatment &amp; Remedies", "Remove infected leaves"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}

	body, ct = multipartBody(t, "", nil)
	rec = f.do(t, http.MethodPost, "/analyze", body, ct)
	if !strings.Contains(rec.Body.String(), "Please upload or capture an image first.") {
		t.Error("empty submit did not prompt for an image")
	}

	body, ct = multipartBody(t, "image", []byte("nope"))
	rec = f.do(t, http.MethodPost, "/analyze", body, ct)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "invalid image format") {
		t.Errorf("undecodable upload: status = %d", rec.Code)
	}
}

func TestHealthMetricsAndCORS(t *testing.T) {
	f := newFixture(t, &stubClassifier{preds: blight}, 0)

	rec := f.do(t, http.MethodGet, "/health", nil, "")
	var status map[string]string
	json.Unmarshal(rec.Body.Bytes(), &status)
	if status["status"] != "healthy" || status["classifier"] != "ready" || status["advisor"] != "ready" {
		t.Errorf("health = %v", status)
	}

	rec = f.do(t, http.MethodOptions, "/api/v1/analyze", nil, "")
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight status = %d, headers = %v", rec.Code, rec.Header())
	}

	rec = f.do(t, http.MethodGet, "/metrics", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("metrics status = %d", rec.Code)
	}
}

func TestHealthReportsUnavailableClassifier(t *testing.T) {
	m := metrics.New()
	renderer, _ := web.NewRenderer("m")
	svc := diagnosis.NewService(&model.Unavailable{}, remedy.NewAdvisor(remedy.Config{}, zerolog.Nop(), m), zerolog.Nop(), m)
	router := NewRouter(NewHandler(svc, renderer, zerolog.Nop(), Options{}), m, zerolog.Nop(), 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var status map[string]string
	json.Unmarshal(rec.Body.Bytes(), &status)
	if status["classifier"] != "unavailable" || status["advisor"] != "unavailable" {
		t.Errorf("health = %v", status)
	}
}
