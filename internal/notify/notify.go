// Package notify delivers prayer alerts: to the desktop notification daemon
// and, optionally, to remote services addressed by shoutrrr URLs.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"waktusholat/internal/model"
)

// Default message templates. {prayer} is replaced by the prayer name.
const (
	DefaultSummary = "Waktu Sholat {prayer}"
	DefaultBody    = "Saatnya menunaikan sholat {prayer}"
)

// Message is one alert.
type Message struct {
	Summary string
	Body    string
}

// Notifier delivers a Message. Implementations wrap failures with
// model.ErrNotification.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Template renders the alert for a prayer.
type Template struct {
	Summary string
	Body    string
}

// DefaultTemplate returns the stock Indonesian wording.
func DefaultTemplate() Template {
	return Template{Summary: DefaultSummary, Body: DefaultBody}
}

func (t Template) Render(p model.Prayer) Message {
	summary, body := t.Summary, t.Body
	if summary == "" {
		summary = DefaultSummary
	}
	if body == "" {
		body = DefaultBody
	}
	name := p.String()
	return Message{
		Summary: strings.ReplaceAll(summary, "{prayer}", name),
		Body:    strings.ReplaceAll(body, "{prayer}", name),
	}
}

// Multi fans a message out to every notifier and joins their errors. One
// failing target does not prevent delivery to the others.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// Discard drops every message. It stands in when all delivery is disabled.
type Discard struct{}

func (Discard) Notify(context.Context, Message) error { return nil }

func wrap(target string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", model.ErrNotification, target, err)
}
