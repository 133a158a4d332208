package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/wolfman30/campusride/internal/forms"
	"github.com/wolfman30/campusride/internal/listings"
)

//go:embed templates/*.html
var templateFS embed.FS

// formPanel is a form view plus the route it posts to.
type formPanel struct {
	forms.View
	Action string
}

type pageData struct {
	Ride   formPanel
	Driver formPanel
	Rides  listings.Result
}

func parseTemplates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("campusride").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// render executes the page into a buffer so a template failure never leaves a
// half-written response behind.
func (h *Handler) render(w http.ResponseWriter, status int, data pageData) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, "page", data); err != nil {
		h.logger.Error("failed to render page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
