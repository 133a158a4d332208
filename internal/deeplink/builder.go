// Package deeplink builds links that open the external chat service with a
// pre-filled message.
package deeplink

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/wolfman30/campusride/internal/listings"
)

//go:embed messages.yaml
var defaultMessages []byte

// ErrMissingDestination is returned when no chat destination is configured.
var ErrMissingDestination = errors.New("deeplink: destination id required")

// Intent names the message template a link is built from.
type Intent string

const (
	IntentGeneric         Intent = "generic"
	IntentRequest         Intent = "request"
	IntentRequestFallback Intent = "request_fallback"
	IntentCard            Intent = "card"
)

// Messages is the catalog of message templates keyed by intent.
type Messages map[Intent]string

// ParseMessages decodes a YAML message catalog.
func ParseMessages(data []byte) (Messages, error) {
	var m Messages
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("deeplink: parse messages: %w", err)
	}
	for _, intent := range []Intent{IntentGeneric, IntentRequest, IntentRequestFallback, IntentCard} {
		if strings.TrimSpace(m[intent]) == "" {
			return nil, fmt.Errorf("deeplink: message %q missing", intent)
		}
	}
	return m, nil
}

// DefaultMessages returns the built-in catalog.
func DefaultMessages() Messages {
	m, err := ParseMessages(defaultMessages)
	if err != nil {
		panic(err)
	}
	return m
}

// RideContext is the ride-request form state a message may be built from.
type RideContext struct {
	FullName       string
	PickupLocation string
	Destination    string
	Date           string
	Time           string
	Passengers     string
	Notes          string
}

// Complete reports whether name, pickup and destination are all filled.
func (c RideContext) Complete() bool {
	return strings.TrimSpace(c.FullName) != "" &&
		strings.TrimSpace(c.PickupLocation) != "" &&
		strings.TrimSpace(c.Destination) != ""
}

// Builder constructs chat links on a fixed endpoint and destination.
type Builder struct {
	baseURL     string
	destination string
	templates   map[Intent]*template.Template
}

// NewBuilder compiles messages for baseURL (e.g. https://wa.me) and destination id.
func NewBuilder(baseURL, destination string, messages Messages) (*Builder, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, ErrMissingDestination
	}
	if messages == nil {
		messages = DefaultMessages()
	}
	b := &Builder{
		baseURL:     strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		destination: destination,
		templates:   make(map[Intent]*template.Template, len(messages)),
	}
	for intent, text := range messages {
		t, err := template.New(string(intent)).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("deeplink: parse %s: %w", intent, err)
		}
		b.templates[intent] = t
	}
	return b, nil
}

// Link returns the chat URL carrying message as its text parameter.
func (b *Builder) Link(message string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return b.baseURL + "/" + url.PathEscape(b.destination) + "?text=" + escaped
}

// Render executes the template of intent against data.
func (b *Builder) Render(intent Intent, data any) (string, error) {
	t, ok := b.templates[intent]
	if !ok {
		return "", fmt.Errorf("deeplink: unknown intent %q", intent)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("deeplink: render %s: %w", intent, err)
	}
	return buf.String(), nil
}

// Build renders intent with data and wraps the message in a link.
func (b *Builder) Build(intent Intent, data any) (string, error) {
	msg, err := b.Render(intent, data)
	if err != nil {
		return "", err
	}
	return b.Link(msg), nil
}

// Generic is the fixed "book a ride" link.
func (b *Builder) Generic() (string, error) {
	return b.Build(IntentGeneric, nil)
}

// RideRequest builds the context-aware request link, falling back to the
// generic request message when name, pickup or destination is missing.
func (b *Builder) RideRequest(c RideContext) (string, Intent, error) {
	if !c.Complete() {
		link, err := b.Build(IntentRequestFallback, nil)
		return link, IntentRequestFallback, err
	}
	link, err := b.Build(IntentRequest, trimContext(c))
	return link, IntentRequest, err
}

// Card builds the booking message for a specific listing card.
func (b *Builder) Card(card listings.Card) (string, error) {
	return b.Build(IntentCard, card)
}

func trimContext(c RideContext) RideContext {
	return RideContext{
		FullName:       strings.TrimSpace(c.FullName),
		PickupLocation: strings.TrimSpace(c.PickupLocation),
		Destination:    strings.TrimSpace(c.Destination),
		Date:           strings.TrimSpace(c.Date),
		Time:           strings.TrimSpace(c.Time),
		Passengers:     strings.TrimSpace(c.Passengers),
		Notes:          strings.TrimSpace(c.Notes),
	}
}
