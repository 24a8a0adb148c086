package insights

import (
	"embed"
	"io"

	template "github.com/goliatone/go-template"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// Template names served by the embedded renderer.
const (
	TemplateDashboard = "dashboard"
	TemplateModal     = "modal"
)

// Renderer describes the template renderer contract needed by the transports.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// NewTemplateRenderer creates a go-template renderer backed by the embedded templates.
func NewTemplateRenderer() (Renderer, error) {
	return template.NewRenderer(
		template.WithFS(embeddedTemplates),
		template.WithBaseDir("templates"),
		template.WithExtension(".html"),
	)
}

// RenderDashboard renders a full session page.
func RenderDashboard(r Renderer, view DashboardView, out ...io.Writer) (string, error) {
	return r.Render(TemplateDashboard, map[string]any{
		"view":     view,
		"analyses": Analyses(),
		"months":   filterMonths,
	}, out...)
}

// RenderModal renders one modal fragment.
func RenderModal(r Renderer, view ModalView, out ...io.Writer) (string, error) {
	return r.Render(TemplateModal, map[string]any{"modal": view}, out...)
}

var filterMonths = []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10", "11", "12"}
