package notify

import (
	"context"
	"fmt"

	"github.com/containrrr/shoutrrr"
	"github.com/containrrr/shoutrrr/pkg/types"

	"waktusholat/internal/model"
)

// sender is the part of shoutrrr's service router that Remote uses.
type sender interface {
	Send(message string, params *types.Params) []error
}

// Remote forwards alerts to chat and push services configured as shoutrrr
// URLs, e.g. "ntfy://ntfy.sh/my-topic" or "telegram://token@telegram?chats=123".
type Remote struct {
	router sender
	count  int
}

// NewRemote validates urls up front so a typo fails at startup rather than
// at the first prayer.
func NewRemote(urls ...string) (*Remote, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: no notification urls configured", model.ErrConfiguration)
	}
	router, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid notification url: %v", model.ErrConfiguration, err)
	}
	return &Remote{router: router, count: len(urls)}, nil
}

// Len returns the number of configured services.
func (r *Remote) Len() int {
	return r.count
}

func (r *Remote) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := types.Params{"title": msg.Summary}
	var failed []error
	for _, err := range r.router.Send(msg.Body, &params) {
		if err != nil {
			failed = append(failed, err)
		}
	}
	switch len(failed) {
	case 0:
		return nil
	case 1:
		return wrap("remote", failed[0])
	default:
		return wrap("remote", fmt.Errorf("%d of %d services failed, first: %w", len(failed), r.count, failed[0]))
	}
}
