// Package web serves the CampusRide pages and binds the forms, listings and
// chat links to HTTP routes.
package web

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/campusride/internal/deeplink"
	"github.com/wolfman30/campusride/internal/forms"
	"github.com/wolfman30/campusride/internal/listings"
	"github.com/wolfman30/campusride/internal/observability/metrics"
	"github.com/wolfman30/campusride/internal/submission"
	"github.com/wolfman30/campusride/internal/validation"
	"github.com/wolfman30/campusride/pkg/logging"
)

// Routes posted to by the two forms.
const (
	RideRequestPath        = "/ride-requests"
	DriverApplicationsPath = "/driver-applications"
)

// Options configures a Handler.
type Options struct {
	Pipeline *submission.Pipeline
	Fields   *validation.Validator
	Catalog  *listings.Catalog
	Links    *deeplink.Builder
	Metrics  *metrics.SiteMetrics
	Logger   *logging.Logger
	Now      func() time.Time
}

// Handler serves the site.
type Handler struct {
	pipeline  *submission.Pipeline
	fields    *validation.Validator
	forms     *forms.Validator
	catalog   *listings.Catalog
	links     *deeplink.Builder
	metrics   *metrics.SiteMetrics
	logger    *logging.Logger
	now       func() time.Time
	templates *template.Template
}

// NewHandler wires the site handler. Pipeline, Catalog and Links are required.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Pipeline == nil || opts.Catalog == nil || opts.Links == nil {
		return nil, errors.New("web: pipeline, catalog and links are required")
	}
	h := &Handler{
		pipeline: opts.Pipeline,
		fields:   opts.Fields,
		catalog:  opts.Catalog,
		links:    opts.Links,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.fields == nil {
		h.fields = validation.New(h.now)
	}
	if h.logger == nil {
		h.logger = logging.Default()
	}
	h.forms = forms.NewValidator(h.fields)

	tmpl, err := parseTemplates(template.FuncMap{
		"minDate": h.fields.MinDate,
		"maxYear": func() int { return h.now().Year() },
	})
	if err != nil {
		return nil, err
	}
	h.templates = tmpl
	return h, nil
}

// Home handles GET /. After a successful submit the browser lands on
// /?submitted=<form kind>#<success id>, which shows that form's success notice.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	var done *forms.Form
	if schema, ok := forms.SchemaFor(forms.Kind(r.URL.Query().Get("submitted"))); ok {
		done = schema.New()
		done.CompleteSubmit()
	}
	h.render(w, http.StatusOK, h.page(done, h.catalog.Search("", listings.BucketAny)))
}

// SubmitRideRequest handles POST /ride-requests.
func (h *Handler) SubmitRideRequest(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, forms.RideRequestSchema)
}

// SubmitDriverApplication handles POST /driver-applications.
func (h *Handler) SubmitDriverApplication(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, forms.DriverRegistrationSchema)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, schema *forms.Schema) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	form := schema.New().Bind(r.PostForm)
	all := h.catalog.Search("", listings.BucketAny)

	sub, err := h.pipeline.Submit(r.Context(), form)
	switch {
	case errors.Is(err, submission.ErrValidationFailed):
		h.render(w, http.StatusUnprocessableEntity, h.page(form, all))
		return
	case errors.Is(err, submission.ErrInFlight):
		// Each request binds its own form, so this only fires when a caller
		// hands the pipeline a form that is still submitting.
		http.Error(w, "submission already in progress", http.StatusConflict)
		return
	case err != nil:
		http.Error(w, "failed to save submission", http.StatusInternalServerError)
		return
	}

	if err := sub.Wait(r.Context()); err != nil {
		h.logger.Warn("client left before acknowledgement", "form", schema.Kind, "id", sub.RecordID, "error", err)
		return
	}
	view := form.Snapshot()
	http.Redirect(w, r, successLocation(view), http.StatusSeeOther)
}

// successLocation is the page showing the form's success notice, with a
// fragment so the browser scrolls to it.
func successLocation(view forms.View) string {
	u := url.URL{Path: "/", RawQuery: url.Values{"submitted": {string(view.Kind)}}.Encode(), Fragment: view.ScrollTarget}
	return u.String()
}

// page builds the page with the submitted form in place of its blank twin.
func (h *Handler) page(submitted *forms.Form, rides listings.Result) pageData {
	data := pageData{
		Ride:   formPanel{View: forms.RideRequestSchema.New().Snapshot(), Action: RideRequestPath},
		Driver: formPanel{View: forms.DriverRegistrationSchema.New().Snapshot(), Action: DriverApplicationsPath},
		Rides:  rides,
	}
	if submitted == nil {
		return data
	}
	view := submitted.Snapshot()
	if view.Kind == forms.DriverRegistration {
		data.Driver.View = view
	} else {
		data.Ride.View = view
	}
	return data
}

// ValidateRequest is the body of POST /api/validate.
type ValidateRequest struct {
	Form  forms.Kind `json:"form"`
	Field string     `json:"field"`
	Value string     `json:"value"`
}

// ValidateResponse carries the verdict plus the classes to apply.
type ValidateResponse struct {
	validation.Verdict
	Field      string `json:"field"`
	FieldClass string `json:"fieldClass"`
	ErrorClass string `json:"errorClass"`
}

// Validate handles POST /api/validate, checking one field as on blur.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	schema, ok := forms.SchemaFor(req.Form)
	if !ok {
		http.Error(w, "unknown form", http.StatusNotFound)
		return
	}
	spec, ok := schema.Spec(req.Field)
	if !ok {
		http.Error(w, "unknown field", http.StatusNotFound)
		return
	}

	fs := forms.FieldState{FieldSpec: spec, Value: req.Value}
	verdict := h.forms.Field(&fs)
	writeJSON(w, http.StatusOK, ValidateResponse{
		Verdict:    verdict,
		Field:      spec.Name,
		FieldClass: fs.Class(),
		ErrorClass: fs.ErrorClass(),
	})
}

// Rides handles GET /rides?q=&date= and renders the filtered listings.
func (h *Handler) Rides(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, h.page(nil, h.search(r)))
}

// RidesResponse is the JSON view of a search.
type RidesResponse struct {
	Term      string          `json:"term"`
	Bucket    listings.Bucket `json:"bucket"`
	Visible   int             `json:"visible"`
	NoResults bool            `json:"noResults"`
	Rides     []listings.Card `json:"rides"`
}

// RidesJSON handles GET /api/rides.
func (h *Handler) RidesJSON(w http.ResponseWriter, r *http.Request) {
	res := h.search(r)
	writeJSON(w, http.StatusOK, RidesResponse{
		Term:      res.Term,
		Bucket:    res.Bucket,
		Visible:   res.Visible,
		NoResults: res.NoResults,
		Rides:     res.VisibleCards(),
	})
}

func (h *Handler) search(r *http.Request) listings.Result {
	q := r.URL.Query()
	bucket := listings.Bucket(strings.ToLower(strings.TrimSpace(q.Get("date"))))
	res := h.catalog.Search(q.Get("q"), bucket)
	h.metrics.ObserveSearch(string(bucket), res.Visible)
	h.logger.Debug("search performed", "term", res.Term, "bucket", bucket, "visible", res.Visible)
	return res
}

// Book handles GET /book with the generic booking message.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	link, err := h.links.Generic()
	h.redirect(w, r, deeplink.IntentGeneric, link, err)
}

// BookRequest handles POST /book/request using whatever the ride form holds.
func (h *Handler) BookRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	link, intent, err := h.links.RideRequest(deeplink.RideContext{
		FullName:       r.PostForm.Get("fullName"),
		PickupLocation: r.PostForm.Get("pickupLocation"),
		Destination:    r.PostForm.Get("destination"),
		Date:           r.PostForm.Get("date"),
		Time:           r.PostForm.Get("time"),
		Passengers:     r.PostForm.Get("passengers"),
		Notes:          r.PostForm.Get("notes"),
	})
	h.redirect(w, r, intent, link, err)
}

// BookCard handles GET /rides/{id}/book for one listing card.
func (h *Handler) BookCard(w http.ResponseWriter, r *http.Request) {
	card, ok := h.catalog.ByID(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "ride not found", http.StatusNotFound)
		return
	}
	link, err := h.links.Card(card)
	h.redirect(w, r, deeplink.IntentCard, link, err)
}

func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, intent deeplink.Intent, link string, err error) {
	if err != nil {
		h.logger.Error("failed to build chat link", "intent", intent, "error", err)
		http.Error(w, "failed to build chat link", http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveDeepLink(string(intent))
	h.logger.Info("deep link built", "intent", intent)
	http.Redirect(w, r, link, http.StatusSeeOther)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
