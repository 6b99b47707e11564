// Package scheduler runs the wake cycle: compute today's prayer schedule,
// pick the next event, publish a status line, sleep until the event, alert,
// and start over.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"waktusholat/internal/clock"
	appLog "waktusholat/internal/log"
	"waktusholat/internal/model"
	"waktusholat/internal/notify"
	"waktusholat/internal/status"
)

// DefaultCooldown is the pause after an alert before the next cycle, giving
// the notification surface time to render.
const DefaultCooldown = time.Second

// Provider computes the schedule of date's calendar day.
type Provider interface {
	Schedule(date time.Time, coords model.Coordinates, cfg model.CalcConfig) (model.DailySchedule, error)
}

// Emitter publishes a cycle's status record.
type Emitter interface {
	Emit(rec status.Record) error
}

// Observer is told about every cycle after its status has been emitted and
// before the wait begins. Implementations must not block.
type Observer interface {
	ObserveCycle(c model.Cycle)
}

// Options wires a Scheduler. Clock, Provider and Emitter are required.
type Options struct {
	Clock    clock.Clock
	Waiter   clock.Waiter
	Provider Provider
	Emitter  Emitter
	Notifier notify.Notifier

	Coordinates model.Coordinates
	Calc        model.CalcConfig
	Template    notify.Template

	// Cooldown follows every alert. Zero means DefaultCooldown; negative
	// disables it.
	Cooldown time.Duration

	// Diag receives the human-readable wait diagnostics of a single-shot run.
	Diag io.Writer

	Observers []Observer
}

type Scheduler struct {
	clock     clock.Clock
	waiter    clock.Waiter
	provider  Provider
	emitter   Emitter
	notifier  notify.Notifier
	coords    model.Coordinates
	calc      model.CalcConfig
	template  notify.Template
	cooldown  time.Duration
	diag      io.Writer
	observers []Observer
	once      bool
}

func New(opts Options) (*Scheduler, error) {
	if opts.Clock == nil {
		return nil, errors.New("scheduler: clock is required")
	}
	if opts.Provider == nil {
		return nil, errors.New("scheduler: provider is required")
	}
	if opts.Emitter == nil {
		return nil, errors.New("scheduler: emitter is required")
	}

	s := &Scheduler{
		clock:     opts.Clock,
		waiter:    opts.Waiter,
		provider:  opts.Provider,
		emitter:   opts.Emitter,
		notifier:  opts.Notifier,
		coords:    opts.Coordinates,
		calc:      opts.Calc,
		template:  opts.Template,
		cooldown:  opts.Cooldown,
		diag:      opts.Diag,
		observers: opts.Observers,
		once:      clock.IsFixed(opts.Clock),
	}
	if s.waiter == nil {
		s.waiter = clock.TimerWaiter{}
	}
	if s.notifier == nil {
		s.notifier = notify.Discard{}
	}
	if s.cooldown == 0 {
		s.cooldown = DefaultCooldown
	}
	if s.diag == nil {
		s.diag = io.Discard
	}
	return s, nil
}

// SingleShot reports whether Run stops after one cycle.
func (s *Scheduler) SingleShot() bool {
	return s.once
}

// Run executes cycles until ctx is cancelled or a fatal error occurs. With a
// fixed clock it executes exactly one cycle and returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	appLog.Info("scheduler started",
		"coordinates", s.coords.String(),
		"method", s.calc.Method,
		"madhab", s.calc.Madhab,
		"single_shot", s.once,
	)
	for {
		if _, err := s.RunCycle(ctx); err != nil {
			return err
		}
		if s.once {
			return nil
		}
	}
}

// RunCycle executes one full cycle: schedule, select, emit, wait and, for a
// prayer event, notify and cool down.
func (s *Scheduler) RunCycle(ctx context.Context) (model.Cycle, error) {
	now := s.clock.Now()

	sched, err := s.provider.Schedule(now, s.coords, s.calc)
	if err == nil {
		err = sched.Validate()
	}
	if err != nil {
		if !errors.Is(err, model.ErrCalculation) {
			err = fmt.Errorf("%w: %v", model.ErrCalculation, err)
		}
		return model.Cycle{}, err
	}

	next, err := SelectNext(sched, now)
	if err != nil {
		return model.Cycle{}, err
	}

	if err := s.emitter.Emit(status.NewRecord(sched, next)); err != nil {
		return model.Cycle{}, err
	}

	cycle := model.Cycle{
		Now:      now,
		Schedule: sched,
		Next:     next,
		Wait:     WaitDuration(next.At, now),
	}
	for _, o := range s.observers {
		o.ObserveCycle(cycle)
	}
	s.diagnose(cycle)

	appLog.Debug("waiting for next event",
		"kind", next.Kind.String(),
		"target", next.At.Format(time.RFC3339),
		"wait", cycle.Wait.String(),
	)
	if err := s.waiter.Wait(ctx, cycle.Wait); err != nil {
		return cycle, err
	}

	if !next.IsPrayer() {
		appLog.Info("day rolled over", "date", next.At.Format("2006-01-02"))
		return cycle, nil
	}

	if err := s.alert(ctx, next.Prayer); err != nil {
		if !model.IsRecoverable(err) {
			return cycle, err
		}
		appLog.Error("notification failed", err, "prayer", next.Prayer.String())
	}

	if s.cooldown > 0 {
		if err := s.waiter.Wait(ctx, s.cooldown); err != nil {
			return cycle, err
		}
	}
	return cycle, nil
}

// alert delivers the notification for p. Delivery failures come back as
// model.ErrNotification; cancellation of ctx is returned as is.
func (s *Scheduler) alert(ctx context.Context, p model.Prayer) error {
	msg := s.template.Render(p)
	if err := s.notifier.Notify(ctx, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !errors.Is(err, model.ErrNotification) {
			err = fmt.Errorf("%w: %v", model.ErrNotification, err)
		}
		return err
	}
	appLog.Info("prayer notified", "prayer", p.String(), "summary", msg.Summary)
	return nil
}

func (s *Scheduler) diagnose(c model.Cycle) {
	if !s.once {
		return
	}
	if c.Next.IsPrayer() {
		fmt.Fprintf(s.diag, "[TEST MODE] Sleeping for %s until %s.\n", c.Wait, c.Next.Prayer)
		return
	}
	fmt.Fprintf(s.diag, "[TEST MODE] No more prayers today. Sleeping for %s.\n", c.Wait)
}

// WaitDuration is target-now, floored at zero.
func WaitDuration(target, now time.Time) time.Duration {
	d := target.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
