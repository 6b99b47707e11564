package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"waktusholat/internal/clock"
	"waktusholat/internal/config"
	"waktusholat/internal/ics"
	"waktusholat/internal/location"
	appLog "waktusholat/internal/log"
	"waktusholat/internal/metrics"
	"waktusholat/internal/model"
	"waktusholat/internal/notify"
	"waktusholat/internal/praytime"
	"waktusholat/internal/scheduler"
	"waktusholat/internal/status"
	"waktusholat/internal/web"
)

const envPrefix = "WAKTUSHOLAT"

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every command needs once flags, env and the config file
// have been merged.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	coords model.Coordinates
	place  string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "waktusholat",
		Short: "Prayer time notifier",
		Long: `waktusholat computes the five daily prayer times for a location, prints a
JSON status line whenever the next prayer changes, and raises a desktop
notification when each prayer begins.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(v)
			if err != nil {
				return err
			}
			defer appLog.Close()
			return runNotifier(cmd.Context(), a, stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.String("city", "", "city name from the built-in database")
	pf.String("coordinate", "", `latitude,longitude, e.g. "-6.2088,106.8456"`)
	pf.String("config", config.DefaultPath(), "path to the YAML config file (created on first run)")
	pf.String("method", "", "calculation method (overrides config): "+strings.Join(praytime.MethodNames(), ", "))
	pf.String("madhab", "", "Asr convention (overrides config): shafi, hanafi")
	pf.String("log-level", "", "debug, info, warn or error (overrides config)")

	f := root.Flags()
	f.String("test-at", "", "pretend the current time is HH:MM today and run a single cycle")
	f.Bool("no-wait", false, "with --test-at, compute the wait but do not sleep")
	_ = f.MarkHidden("test-at")
	_ = f.MarkHidden("no-wait")

	bindFlags(v, pf)
	bindFlags(v, f)

	root.AddCommand(newExportCmd(v, stdout))
	return root
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// setup resolves the location, merges the config file with flag and
// environment overrides and initializes logging. Nothing is printed to
// stdout before it succeeds, and the config file is not created when the
// location flags are rejected.
func setup(v *viper.Viper) (*app, error) {
	city := v.GetString("city")
	resolver := &location.Resolver{}
	coords, err := resolver.Resolve(city, v.GetString("coordinate"))
	if err != nil {
		return nil, err
	}

	path := v.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		if cfg == nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		appLog.Warn("could not write default config; continuing with defaults", "config_path", path, "error", err.Error())
	}

	if s := v.GetString("method"); s != "" {
		cfg.Method = s
	}
	if s := v.GetString("madhab"); s != "" {
		cfg.Madhab = s
	}
	if s := v.GetString("log-level"); s != "" {
		cfg.Log.Level = s
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := appLog.Init(appLog.Options{Level: cfg.Log.Level, File: cfg.Log.File}); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	appLog.Info("effective config",
		"config_path", path,
		"coordinates", coords.String(),
		"city", city,
		"method", cfg.Method,
		"madhab", cfg.Madhab,
		"high_latitude_rule", cfg.HighLatitudeRule,
		"desktop", cfg.Notification.Desktop,
		"remote_targets", len(cfg.Notification.URLs),
		"listen", cfg.Listen,
	)

	place := city
	if place == "" {
		place = coords.String()
	}
	return &app{v: v, cfg: cfg, coords: coords, place: place}, nil
}

func runNotifier(parent context.Context, a *app, stdout, stderr io.Writer) error {
	testAt := a.v.GetString("test-at")
	noWait := a.v.GetBool("no-wait")
	if noWait && testAt == "" {
		return fmt.Errorf("%w: --no-wait requires --test-at", model.ErrConfiguration)
	}

	var clk clock.Clock = clock.NewRealClock()
	if testAt != "" {
		at, err := clock.ParseOverride(testAt, time.Now())
		if err != nil {
			return err
		}
		clk = clock.NewFixedClock(at)
		appLog.Info("test mode", "now", at.Format(time.RFC3339), "no_wait", noWait)
	}
	var waiter clock.Waiter = clock.TimerWaiter{}
	if noWait {
		waiter = clock.NoWait{}
	}

	notifier, err := buildNotifier(a.cfg.Notification)
	if err != nil {
		return err
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	provider := praytime.New()
	m := metrics.New()
	observers := []scheduler.Observer{m}

	var srv *web.Server
	if a.cfg.Listen != "" {
		srv = web.NewServer(web.Options{
			Listen:    a.cfg.Listen,
			BasicAuth: a.cfg.BasicAuth,
			Clock:     clk,
			Calendar: &ics.Exporter{
				Provider:    provider,
				Coordinates: a.coords,
				Calc:        a.cfg.Calc(),
				Template:    a.cfg.Template(),
				Place:       a.place,
			},
			CalendarDays: a.cfg.CalendarDays,
			Metrics:      m.Handler(),
		})
		observers = append(observers, srv)
	}

	sched, err := scheduler.New(scheduler.Options{
		Clock:       clk,
		Waiter:      waiter,
		Provider:    provider,
		Emitter:     status.NewEmitter(stdout),
		Notifier:    m.Notifier(notifier),
		Coordinates: a.coords,
		Calc:        a.cfg.Calc(),
		Template:    a.cfg.Template(),
		Cooldown:    a.cfg.Notification.Cooldown,
		Diag:        stderr,
		Observers:   observers,
	})
	if err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	if srv != nil {
		go func() {
			err := srv.Run(ctx)
			if err != nil {
				appLog.Error("status server failed", err, "listen", a.cfg.Listen)
				cancel()
			}
			serverErr <- err
		}()
	} else {
		serverErr <- nil
	}

	runErr := sched.Run(ctx)
	cancel()
	srvErr := <-serverErr

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if srvErr != nil {
		return fmt.Errorf("status server: %w", srvErr)
	}
	appLog.Info("waktusholat exiting")
	return nil
}

func buildNotifier(cfg config.NotificationConfig) (notify.Notifier, error) {
	var targets notify.Multi
	if cfg.Desktop {
		targets = append(targets, notify.NewDesktop(""))
	}
	if len(cfg.URLs) > 0 {
		remote, err := notify.NewRemote(cfg.URLs...)
		if err != nil {
			return nil, err
		}
		targets = append(targets, remote)
	}
	if len(targets) == 0 {
		appLog.Warn("all notification targets are disabled")
		return notify.Discard{}, nil
	}
	return targets, nil
}
