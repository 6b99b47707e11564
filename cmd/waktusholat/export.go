package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"waktusholat/internal/ics"
	appLog "waktusholat/internal/log"
	"waktusholat/internal/praytime"
)

func newExportCmd(v *viper.Viper, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write upcoming prayer times as an iCalendar file",
		Long: `export computes the prayer schedule for the coming days and writes it as
an iCalendar (.ics) document, one event per prayer, to stdout or --out.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(v)
			if err != nil {
				return err
			}
			defer appLog.Close()

			days := v.GetInt("days")
			if days == 0 {
				days = a.cfg.CalendarDays
			}

			e := &ics.Exporter{
				Provider:    praytime.New(),
				Coordinates: a.coords,
				Calc:        a.cfg.Calc(),
				Template:    a.cfg.Template(),
				Place:       a.place,
			}
			return writeExport(e, v.GetString("out"), stdout, time.Now(), days)
		},
	}

	f := cmd.Flags()
	f.Int("days", 0, "number of days to export (default: calendar_days from the config)")
	f.String("out", "", "output file (default: stdout)")
	bindFlags(v, f)
	return cmd
}

// writeExport renders the calendar fully before touching out, so a failed
// export never truncates an existing file.
func writeExport(e *ics.Exporter, out string, stdout io.Writer, from time.Time, days int) error {
	cal, err := e.Calendar(from, days)
	if err != nil {
		return err
	}
	data := cal.Serialize()

	if out == "" {
		_, err := io.WriteString(stdout, data)
		return err
	}
	if err := os.WriteFile(out, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	appLog.Info("calendar exported", "path", out, "days", days)
	return nil
}
