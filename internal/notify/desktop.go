package notify

import (
	"context"

	"github.com/gen2brain/beeep"
)

// Desktop shows the alert through the host's notification daemon
// (freedesktop D-Bus on Linux, Notification Center on macOS, toasts on
// Windows).
type Desktop struct {
	// Icon is an optional path to an image shown with the alert.
	Icon string

	send func(title, message, icon string) error
}

func NewDesktop(icon string) *Desktop {
	return &Desktop{Icon: icon, send: beeepNotify}
}

func beeepNotify(title, message, icon string) error {
	return beeep.Notify(title, message, icon)
}

func (d *Desktop) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	send := d.send
	if send == nil {
		send = beeepNotify
	}
	return wrap("desktop", send(msg.Summary, msg.Body, d.Icon))
}
