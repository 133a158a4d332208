package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestFormMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFormMetrics(reg)
	m.ObserveSubmission("ride-request", "accepted")
	m.ObserveSubmission("ride-request", "accepted")
	m.ObserveValidationFailure("ride-request", "email")

	if got := testutil.ToFloat64(m.submissionsTotal.WithLabelValues("ride-request", "accepted")); got != 2 {
		t.Fatalf("expected 2 accepted submissions, got %v", got)
	}
	if got := testutil.ToFloat64(m.validationFailures.WithLabelValues("ride-request", "email")); got != 1 {
		t.Fatalf("expected 1 email failure, got %v", got)
	}
}

func TestSiteMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSiteMetrics(reg)
	m.ObserveSearch("", 3)
	m.ObserveSearch("today", 0)
	m.ObserveDeepLink("card")

	if got := testutil.ToFloat64(m.searchTotal.WithLabelValues("any")); got != 1 {
		t.Fatalf("expected empty bucket recorded as any, got %v", got)
	}
	if got := testutil.ToFloat64(m.deepLinks.WithLabelValues("card")); got != 1 {
		t.Fatalf("expected 1 card deep link, got %v", got)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var f *FormMetrics
	f.ObserveSubmission("ride-request", "accepted")
	f.ObserveValidationFailure("ride-request", "email")

	var s *SiteMetrics
	s.ObserveSearch("week", 1)
	s.ObserveDeepLink("generic")
}

func TestSiteMetricsSearchBucketBounded(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSiteMetrics(reg)
	for i := 0; i < 200; i++ {
		m.ObserveSearch(fmt.Sprintf("junk%d", i), 0)
	}
	m.ObserveSearch("", 1)
	m.ObserveSearch("week", 1)

	n, err := testutil.GatherAndCount(reg, "campusride_listings_search_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 bucket series, got %d", n)
	}
	if got := testutil.ToFloat64(m.searchTotal.WithLabelValues("other")); got != 200 {
		t.Fatalf("expected unknown buckets folded into other, got %v", got)
	}
}
