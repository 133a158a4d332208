package submission

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/campusride/internal/forms"
	"github.com/wolfman30/campusride/internal/observability/metrics"
	"github.com/wolfman30/campusride/internal/records"
	"github.com/wolfman30/campusride/internal/validation"
	"github.com/wolfman30/campusride/pkg/logging"
)

var testNow = time.Date(2026, time.October, 17, 15, 30, 0, 0, time.UTC)

type harness struct {
	store    *records.MemoryStore
	pipeline *Pipeline
	release  chan time.Time
	auditor  *fakeAuditor
	delays   []time.Duration
	mu       sync.Mutex
}

func newHarness(t *testing.T, store records.Store) *harness {
	t.Helper()
	h := &harness{release: make(chan time.Time, 1), auditor: &fakeAuditor{}}
	if store == nil {
		h.store = records.NewMemoryStore(logging.Default())
		store = h.store
	}
	clock := func() time.Time { return testNow }
	h.pipeline = New(Options{
		Store:     store,
		Validator: forms.NewValidator(validation.New(clock)),
		Logger:    logging.Default(),
		Metrics:   metrics.NewFormMetrics(prometheus.NewRegistry()),
		Auditor:   h.auditor,
		After: func(d time.Duration) <-chan time.Time {
			h.mu.Lock()
			h.delays = append(h.delays, d)
			h.mu.Unlock()
			return h.release
		},
		Now: clock,
	})
	return h
}

type fakeAuditor struct {
	mu       sync.Mutex
	accepted []string
	rejected [][]string
	err      error
}

func (f *fakeAuditor) Accepted(_ context.Context, form, recordID, status string, _ []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted = append(f.accepted, form+":"+recordID+":"+status)
	return f.err
}

func (f *fakeAuditor) Rejected(_ context.Context, _ string, failed []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejected = append(f.rejected, failed)
	return f.err
}

func rideForm(overrides url.Values) *forms.Form {
	values := url.Values{
		"fullName":       {"Ada"},
		"email":          {"ada@campus.edu"},
		"phone":          {"555 123 4567"},
		"pickupLocation": {"Library"},
		"destination":    {"Gym"},
		"date":           {"2026-10-18"},
		"time":           {"09:00"},
		"passengers":     {"1"},
		"terms":          {"on"},
	}
	for k, v := range overrides {
		values[k] = v
	}
	return forms.RideRequestSchema.New().Bind(values)
}

func driverForm() *forms.Form {
	return forms.DriverRegistrationSchema.New().Bind(url.Values{
		"fullName":      {"Grace"},
		"email":         {"grace@campus.edu"},
		"phone":         {"+15551234567"},
		"studentId":     {"S1"},
		"licenseNumber": {"L1"},
		"make":          {"Honda"},
		"model":         {"Civic"},
		"year":          {"2020"},
		"color":         {"Red"},
		"licensePlate":  {"XYZ1"},
		"seats":         {"3"},
		"availability":  {"friday", "saturday"},
		"experience":    {"<script>x</script>Five years & counting"},
		"terms-driver":  {"on"},
		"insurance":     {"on"},
		"background":    {"on"},
	})
}

func TestSubmit_RideRequestPersistsThenAcknowledges(t *testing.T) {
	h := newHarness(t, nil)
	form := rideForm(nil)

	sub, err := h.pipeline.Submit(context.Background(), form)
	require.NoError(t, err)

	// Persisted before the delay elapses.
	list, err := h.store.List(context.Background(), records.RideRequests)
	require.NoError(t, err)
	require.Len(t, list, 1)

	var rec records.RideRequest
	require.NoError(t, json.Unmarshal(list[0], &rec))
	assert.Equal(t, records.StatusPending, rec.Status)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "1792251000000", rec.ID)
	ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
	require.NoError(t, err)
	assert.True(t, ts.Equal(testNow))
	assert.Equal(t, "Ada", rec.FullName)
	assert.Equal(t, "Library", rec.PickupLocation)
	assert.Equal(t, "Gym", rec.Destination)

	// Busy, and no success notice until the delay elapses.
	view := form.Snapshot()
	assert.False(t, view.SuccessVisible)
	assert.Equal(t, forms.SubmitControl{Label: "Submitting...", Disabled: true, Busy: true}, view.Submit)
	select {
	case <-sub.Done():
		t.Fatal("acknowledged before the delay elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	h.release <- testNow
	require.NoError(t, sub.Wait(context.Background()))

	view = form.Snapshot()
	assert.True(t, view.SuccessVisible)
	assert.Equal(t, "success-message", view.ScrollTarget)
	assert.Equal(t, forms.SubmitControl{Label: "Submit Request"}, view.Submit)
	name, _ := view.Field("fullName")
	assert.Empty(t, name.Value)
	assert.Equal(t, []time.Duration{DefaultLatency}, h.delays)
	assert.Equal(t, []string{"ride-request:1792251000000:pending"}, h.auditor.accepted)
}

func TestSubmit_InvalidFormIsNotPersisted(t *testing.T) {
	h := newHarness(t, nil)
	form := rideForm(url.Values{"email": {"nope"}, "terms": {""}})

	sub, err := h.pipeline.Submit(context.Background(), form)
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Nil(t, sub)

	list, err := h.store.List(context.Background(), records.RideRequests)
	require.NoError(t, err)
	assert.Empty(t, list)

	view := form.Snapshot()
	assert.False(t, view.SuccessVisible)
	assert.False(t, view.Submit.Busy)
	assert.Equal(t, forms.NoticeRideTerms, view.Notice)
	assert.Equal(t, [][]string{{"email", "terms"}}, h.auditor.rejected)
	assert.Empty(t, h.delays)
}

func TestSubmit_DriverApplication(t *testing.T) {
	h := newHarness(t, nil)
	h.release <- testNow

	sub, err := h.pipeline.Submit(context.Background(), driverForm())
	require.NoError(t, err)
	require.NoError(t, sub.Wait(context.Background()))
	assert.Equal(t, records.DriverApplications, sub.Kind)

	list, err := h.store.List(context.Background(), records.DriverApplications)
	require.NoError(t, err)
	require.Len(t, list, 1)

	var rec records.DriverApplication
	require.NoError(t, json.Unmarshal(list[0], &rec))
	assert.Equal(t, records.StatusPendingVerification, rec.Status)
	assert.Equal(t, []string{"friday", "saturday"}, rec.Availability)
	assert.Equal(t, "2020", rec.Year)
	assert.Equal(t, "Five years & counting", rec.Experience)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(list[0], &flat))
	assert.Equal(t, "Honda", flat["make"])
	assert.Equal(t, "Civic", flat["model"])
	assert.Equal(t, "2020", flat["year"])
	assert.Equal(t, "Red", flat["color"])
	assert.Equal(t, "XYZ1", flat["licensePlate"])
	assert.Equal(t, "3", flat["seats"])
	assert.Equal(t, []any{"friday", "saturday"}, flat["availability"])
	assert.NotContains(t, flat, "vehicle")
	assert.NotContains(t, flat, "agreements")
}

func TestSubmit_RejectsReentryWhileBusy(t *testing.T) {
	h := newHarness(t, nil)
	form := rideForm(nil)

	sub, err := h.pipeline.Submit(context.Background(), form)
	require.NoError(t, err)

	// Still busy: the values are only reset once the delay elapses.
	_, err = h.pipeline.Submit(context.Background(), form)
	assert.ErrorIs(t, err, ErrInFlight)

	h.release <- testNow
	require.NoError(t, sub.Wait(context.Background()))

	list, _ := h.store.List(context.Background(), records.RideRequests)
	assert.Len(t, list, 1)
}

type failingStore struct{ records.Store }

func (failingStore) Append(context.Context, records.Kind, any) error {
	return errors.New("quota exceeded")
}

func TestSubmit_StoreFailureReleasesBusyState(t *testing.T) {
	h := newHarness(t, failingStore{})
	form := rideForm(nil)

	sub, err := h.pipeline.Submit(context.Background(), form)
	assert.Nil(t, sub)
	assert.ErrorContains(t, err, "quota exceeded")

	view := form.Snapshot()
	assert.False(t, view.Submit.Busy)
	assert.Equal(t, "Submit Request", view.Submit.Label)
	assert.False(t, view.SuccessVisible)
	assert.Empty(t, h.auditor.accepted)
}

func TestSubmit_AuditFailureDoesNotBlock(t *testing.T) {
	h := newHarness(t, nil)
	h.auditor.err = errors.New("audit down")
	h.release <- testNow

	sub, err := h.pipeline.Submit(context.Background(), rideForm(url.Values{"notes": {"<b>Bring</b> snacks"}}))
	require.NoError(t, err)
	require.NoError(t, sub.Wait(context.Background()))

	rec, ok := sub.Record.(records.RideRequest)
	require.True(t, ok)
	assert.Equal(t, "Bring snacks", rec.Notes)
}

func TestSubmit_NegativeLatencyAcknowledgesImmediately(t *testing.T) {
	store := records.NewMemoryStore(nil)
	p := New(Options{Store: store, Latency: -1, Now: func() time.Time { return testNow },
		Validator: forms.NewValidator(validation.New(func() time.Time { return testNow }))})

	sub, err := p.Submit(context.Background(), rideForm(nil))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, sub.Wait(ctx))
}

func TestSubmissionWaitHonorsContext(t *testing.T) {
	h := newHarness(t, nil)
	sub, err := h.pipeline.Submit(context.Background(), rideForm(nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sub.Wait(ctx), context.Canceled)

	h.release <- testNow
	require.NoError(t, sub.Wait(context.Background()))
}
