// Package web renders the single-page UI. Pane contents arrive as Markdown and
// are converted to HTML with raw HTML stripped.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Placeholder is shown in the predictions pane before the first analysis.
const Placeholder = "*Upload an image to see predictions...*"

//go:embed templates/index.html
var templates embed.FS

//go:embed static
var static embed.FS

// Page is the view model for index.html.
type Page struct {
	Predictions template.HTML
	Remedies    template.HTML
	Model       string
}

type Renderer struct {
	tmpl  *template.Template
	md    goldmark.Markdown
	model string
}

// NewRenderer parses the embedded page template. model is the LLM name shown in the footer.
func NewRenderer(model string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{
		tmpl:  tmpl,
		md:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
		model: model,
	}, nil
}

// Markdown converts src to HTML that is safe to embed in the page.
func (r *Renderer) Markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Render writes the full page with both panes filled from Markdown.
func (r *Renderer) Render(w io.Writer, predictions, remedies string) error {
	page := Page{Model: r.model}

	var err error
	if page.Predictions, err = r.Markdown(predictions); err != nil {
		return err
	}
	if page.Remedies, err = r.Markdown(remedies); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, page); err != nil {
		return fmt.Errorf("execute page template: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// Static serves the embedded stylesheet; mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
