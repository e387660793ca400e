// Package report renders the per-test slideshows and the suite index of a
// recorded run as self-contained HTML documents.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/microcosm-cc/bluemonday"
	"github.com/perfgo/stepreel/model"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

const (
	layoutTemplate    = "test.html.tmpl"
	indicatorTemplate = "indicator.html.tmpl"
	slideTemplate     = "slide.html.tmpl"
	rowTemplate       = "row.html.tmpl"
	indexTemplate     = "records.html.tmpl"

	// DefaultCaptionColor is the accent color of step captions.
	DefaultCaptionColor = "#3498db"
)

// Options configures a Renderer.
type Options struct {
	// TemplatePath overrides the per-test layout. Empty uses the embedded one.
	TemplatePath string
	// AnimateSlides adds the transition class to the slideshow.
	AnimateSlides bool
	// CaptionColor is the accent color of captions.
	CaptionColor string
}

// Renderer renders recorder reports.
type Renderer struct {
	opts     Options
	layout   *template.Template
	partials *template.Template
	policy   *bluemonday.Policy
}

type indicatorView struct {
	Step     int
	IsActive bool
}

type slideView struct {
	Image        string
	Caption      template.HTML
	CaptionStyle template.CSS
	IsActive     bool
	SlideClass   string
}

type testView struct {
	Indicators    template.HTML
	Slides        template.HTML
	Feature       string
	Test          string
	CarouselClass string
}

type indexView struct {
	Seed    string
	Records template.HTML
}

// New parses the embedded templates and the optional layout override.
func New(opts Options) (*Renderer, error) {
	if opts.CaptionColor == "" {
		opts.CaptionColor = DefaultCaptionColor
	}

	partials, err := template.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	layout := partials.Lookup(layoutTemplate)
	if opts.TemplatePath != "" {
		if _, err := os.Stat(opts.TemplatePath); err != nil {
			return nil, fmt.Errorf("template not found at %s: %w", opts.TemplatePath, err)
		}
		layout, err = template.ParseFiles(opts.TemplatePath)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", opts.TemplatePath, err)
		}
	}

	return &Renderer{
		opts:     opts,
		layout:   layout,
		partials: partials,
		policy:   bluemonday.UGCPolicy(),
	}, nil
}

// RenderTest writes the slideshow of one test to path.
func (r *Renderer) RenderTest(path string, rep model.TestReport) error {
	var indicators, slides bytes.Buffer
	for i, s := range rep.Slides {
		if err := r.partials.ExecuteTemplate(&indicators, indicatorTemplate, indicatorView{
			Step:     s.Ordinal,
			IsActive: i == 0,
		}); err != nil {
			return fmt.Errorf("failed to render indicator: %w", err)
		}

		view := slideView{
			Image:        s.File,
			Caption:      r.Caption(s.Caption),
			CaptionStyle: template.CSS("color: " + r.opts.CaptionColor),
			IsActive:     i == 0,
		}
		if s.Failed {
			view.SlideClass = "error"
		}
		if err := r.partials.ExecuteTemplate(&slides, slideTemplate, view); err != nil {
			return fmt.Errorf("failed to render slide: %w", err)
		}
	}

	view := testView{
		Indicators: template.HTML(indicators.String()),
		Slides:     template.HTML(slides.String()),
		Feature:    rep.Feature,
		Test:       rep.Signature,
	}
	if r.opts.AnimateSlides {
		view.CarouselClass = " slide"
	}

	var out bytes.Buffer
	if err := r.layout.Execute(&out, view); err != nil {
		return fmt.Errorf("failed to render test report: %w", err)
	}
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write test report: %w", err)
	}
	return nil
}

// RenderIndex renders the suite index once and writes it to every path.
func (r *Renderer) RenderIndex(seed string, rows []model.IndexRow, paths ...string) error {
	var records bytes.Buffer
	for _, row := range rows {
		if err := r.partials.ExecuteTemplate(&records, rowTemplate, row); err != nil {
			return fmt.Errorf("failed to render record row: %w", err)
		}
	}

	var out bytes.Buffer
	if err := r.partials.ExecuteTemplate(&out, indexTemplate, indexView{
		Seed:    seed,
		Records: template.HTML(records.String()),
	}); err != nil {
		return fmt.Errorf("failed to render records: %w", err)
	}

	for _, path := range paths {
		if err := WriteShared(path, out.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

// Caption sanitizes a step description. Inline markup such as <strong> is kept.
func (r *Renderer) Caption(description string) template.HTML {
	return template.HTML(r.policy.Sanitize(description))
}

// WriteShared writes data to path while holding <path>.lock, replacing the
// file atomically so concurrent runs sharing an output root never see a
// partial document.
func WriteShared(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	lock := newFileLock(path + ".lock")
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()

	return atomicWrite(path, data)
}
