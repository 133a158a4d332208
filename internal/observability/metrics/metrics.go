package metrics

import "github.com/prometheus/client_golang/prometheus"

// FormMetrics exposes counters for form submissions and validation.
type FormMetrics struct {
	submissionsTotal   *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
}

func NewFormMetrics(reg prometheus.Registerer) *FormMetrics {
	m := &FormMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusride",
			Subsystem: "forms",
			Name:      "submissions_total",
			Help:      "Form submissions by outcome",
		}, []string{"form", "status"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusride",
			Subsystem: "forms",
			Name:      "validation_failures_total",
			Help:      "Fields and form constraints that blocked a submission",
		}, []string{"form", "field"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.validationFailures)
	return m
}

func (m *FormMetrics) ObserveSubmission(form, status string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(form, status).Inc()
}

func (m *FormMetrics) ObserveValidationFailure(form, field string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(form, field).Inc()
}

// SiteMetrics exposes counters for ride searches and messaging deep links.
type SiteMetrics struct {
	searchTotal   *prometheus.CounterVec
	searchResults prometheus.Histogram
	deepLinks     *prometheus.CounterVec
}

func NewSiteMetrics(reg prometheus.Registerer) *SiteMetrics {
	m := &SiteMetrics{
		searchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusride",
			Subsystem: "listings",
			Name:      "search_total",
			Help:      "Ride searches by date bucket",
		}, []string{"bucket"}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "campusride",
			Subsystem: "listings",
			Name:      "search_results",
			Help:      "Visible ride cards per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
		}),
		deepLinks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "campusride",
			Subsystem: "deeplink",
			Name:      "built_total",
			Help:      "Messaging deep links built by intent",
		}, []string{"intent"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.searchTotal, m.searchResults, m.deepLinks)
	return m
}

func (m *SiteMetrics) ObserveSearch(bucket string, visible int) {
	if m == nil {
		return
	}
	switch bucket {
	case "":
		bucket = "any"
	case "today", "tomorrow", "week":
	default:
		bucket = "other"
	}
	m.searchTotal.WithLabelValues(bucket).Inc()
	m.searchResults.Observe(float64(visible))
}

func (m *SiteMetrics) ObserveDeepLink(intent string) {
	if m == nil {
		return
	}
	m.deepLinks.WithLabelValues(intent).Inc()
}
