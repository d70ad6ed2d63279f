package cli

import (
	"fmt"
	"io"
	"wa-scheduler/internal/config"
	"wa-scheduler/internal/model"
	"wa-scheduler/internal/scheduler"

	"github.com/spf13/cobra"
)

func newScheduleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Print every registered message with its next run and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := config.Load(a.configPath())
			if err != nil {
				return err
			}
			for _, w := range config.Warnings(doc) {
				a.log.Warn().Msg(w)
			}
			if len(doc.Entries()) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No messages scheduled.")
				return nil
			}
			return printSchedule(cmd.OutOrStdout(), doc, scheduler.SystemClock)
		},
	}
}

// printSchedule writes exactly one line per message.
func printSchedule(w io.Writer, doc *model.Document, clock scheduler.Clock) error {
	loc, err := doc.Settings.Location()
	if err != nil {
		return err
	}
	sched := scheduler.New(nil, scheduler.WithClock(clock), scheduler.WithLocation(loc))
	for _, entry := range doc.Entries() {
		if _, err := sched.Register(entry.Recipient, entry.Message); err != nil {
			return err
		}
	}
	for _, t := range sched.Triggers() {
		fmt.Fprintf(w, "%-32s %-5s %-20s next run %s\n",
			t.Recipient.String(), t.Kind, t.Schedule, t.Next.Format("2006-01-02 15:04 MST"))
	}
	return nil
}
