// Package submission runs accepted forms through validation, persistence and
// the delayed acknowledgement shown to the user.
package submission

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/wolfman30/campusride/internal/forms"
	"github.com/wolfman30/campusride/internal/observability/metrics"
	"github.com/wolfman30/campusride/internal/records"
	"github.com/wolfman30/campusride/pkg/logging"
)

var tracer = otel.Tracer("campusride.internal.submission")

// DefaultLatency is the simulated processing delay before success is shown.
const DefaultLatency = 2 * time.Second

var (
	// ErrValidationFailed is returned when form validation blocks the submission.
	ErrValidationFailed = errors.New("submission: validation failed")
	// ErrInFlight is returned when the form is already submitting.
	ErrInFlight = forms.ErrBusy
)

// Auditor receives submission outcomes. Failures are logged and never block a submission.
type Auditor interface {
	Accepted(ctx context.Context, form, recordID, status string, fields []string) error
	Rejected(ctx context.Context, form string, failed []string) error
}

// Options configures a Pipeline.
type Options struct {
	Store     records.Store
	Validator *forms.Validator
	Logger    *logging.Logger
	Metrics   *metrics.FormMetrics
	Auditor   Auditor
	// Latency is the simulated delay; zero means DefaultLatency, negative means none.
	Latency time.Duration
	// After replaces time.After, letting tests control when the delay elapses.
	After func(time.Duration) <-chan time.Time
	// Now is the clock used for ids and timestamps.
	Now func() time.Time
}

// Pipeline validates, persists and acknowledges form submissions.
type Pipeline struct {
	store     records.Store
	validator *forms.Validator
	logger    *logging.Logger
	metrics   *metrics.FormMetrics
	auditor   Auditor
	latency   time.Duration
	after     func(time.Duration) <-chan time.Time
	now       func() time.Time
	sanitizer *bluemonday.Policy
}

// New builds a pipeline.
func New(opts Options) *Pipeline {
	if opts.Store == nil {
		panic("submission: record store required")
	}
	p := &Pipeline{
		store:     opts.Store,
		validator: opts.Validator,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		auditor:   opts.Auditor,
		latency:   opts.Latency,
		after:     opts.After,
		now:       opts.Now,
		sanitizer: bluemonday.StrictPolicy(),
	}
	if p.validator == nil {
		p.validator = forms.NewValidator(nil)
	}
	if p.logger == nil {
		p.logger = logging.Default()
	}
	if p.latency == 0 {
		p.latency = DefaultLatency
	}
	if p.after == nil {
		p.after = time.After
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Submission is an accepted, persisted submission awaiting acknowledgement.
type Submission struct {
	Kind     records.Kind
	RecordID string
	Record   any
	done     chan struct{}
}

// Done is closed once the form has left the busy state and shows success.
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until Done or ctx ends. The acknowledgement still happens if ctx ends first.
func (s *Submission) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit validates f and, when valid, persists its record and schedules the
// acknowledgement. The record is written before the delay and the success
// notice only appears after it; there is no rollback if the process stops in between.
func (p *Pipeline) Submit(ctx context.Context, f *forms.Form) (*Submission, error) {
	kind := string(f.Schema.Kind)
	ctx, span := tracer.Start(ctx, "submission.submit")
	defer span.End()
	span.SetAttributes(attribute.String("campusride.form", kind))

	res := p.validator.Validate(f)
	if !res.Valid {
		for _, name := range res.Failed {
			p.metrics.ObserveValidationFailure(kind, name)
		}
		p.metrics.ObserveSubmission(kind, "rejected")
		p.logger.Info("submission rejected", "form", kind, "failed", res.Failed)
		p.audit(func() error { return p.auditor.Rejected(ctx, kind, res.Failed) })
		span.SetAttributes(attribute.StringSlice("campusride.failed_fields", res.Failed))
		return nil, ErrValidationFailed
	}

	if err := f.BeginSubmit(); err != nil {
		p.metrics.ObserveSubmission(kind, "in_flight")
		return nil, err
	}

	storeKind, record, id, status, group := p.collect(f)
	span.SetAttributes(attribute.String("campusride.record_id", id))

	if err := p.store.Append(ctx, storeKind, record); err != nil {
		f.AbortSubmit()
		p.metrics.ObserveSubmission(kind, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "append failed")
		p.logger.Error("failed to persist submission", "form", kind, "error", err)
		return nil, fmt.Errorf("submission: persist %s: %w", kind, err)
	}
	p.logger.Info("record saved", "form", kind, "id", id, "status", status)
	p.metrics.ObserveSubmission(kind, "accepted")
	p.audit(func() error { return p.auditor.Accepted(ctx, kind, id, status, group) })

	sub := &Submission{Kind: storeKind, RecordID: id, Record: record, done: make(chan struct{})}
	var delay <-chan time.Time
	if p.latency > 0 {
		delay = p.after(p.latency)
	}
	go func() {
		if delay != nil {
			<-delay
		}
		f.CompleteSubmit()
		p.logger.Debug("submission acknowledged", "form", kind, "id", id)
		close(sub.done)
	}()
	return sub, nil
}

func (p *Pipeline) audit(fn func() error) {
	if p.auditor == nil {
		return
	}
	if err := fn(); err != nil {
		p.logger.Warn("audit write failed", "error", err)
	}
}

// plainText strips markup from free text, keeping it unescaped for storage.
func (p *Pipeline) plainText(s string) string {
	return html.UnescapeString(p.sanitizer.Sanitize(s))
}

// collect builds the stamped record for the form.
func (p *Pipeline) collect(f *forms.Form) (kind records.Kind, record any, id, status string, group []string) {
	now := p.now()
	id = strconv.FormatInt(now.UnixMilli(), 10)
	timestamp := now.UTC().Format("2006-01-02T15:04:05.000Z07:00")

	switch f.Schema.Kind {
	case forms.DriverRegistration:
		availability := f.Values("availability")
		if availability == nil {
			availability = []string{}
		}
		return records.DriverApplications, records.DriverApplication{
			ID:            id,
			FullName:      f.Value("fullName"),
			Email:         f.Value("email"),
			Phone:         f.Value("phone"),
			StudentID:     f.Value("studentId"),
			LicenseNumber: f.Value("licenseNumber"),
			Make:          f.Value("make"),
			Model:         f.Value("model"),
			Year:          f.Value("year"),
			Color:         f.Value("color"),
			LicensePlate:  f.Value("licensePlate"),
			Seats:         f.Value("seats"),
			Availability:  availability,
			Experience:    p.plainText(f.Value("experience")),
			Status:        records.StatusPendingVerification,
			Timestamp:     timestamp,
		}, id, records.StatusPendingVerification, availability
	default:
		return records.RideRequests, records.RideRequest{
			ID:             id,
			FullName:       f.Value("fullName"),
			Email:          f.Value("email"),
			Phone:          f.Value("phone"),
			PickupLocation: f.Value("pickupLocation"),
			Destination:    f.Value("destination"),
			Date:           f.Value("date"),
			Time:           f.Value("time"),
			Passengers:     f.Value("passengers"),
			Notes:          p.plainText(f.Value("notes")),
			Status:         records.StatusPending,
			Timestamp:      timestamp,
		}, id, records.StatusPending, nil
	}
}
