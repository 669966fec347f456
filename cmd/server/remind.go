package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	reminderservice "subtrack/internal/reminder/service"
)

var (
	remindDate   string
	remindDryRun bool
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Run one reminder pass and exit",
	Long: `Scan active subscriptions once and email the reminders due today.
Useful when the host triggers the job externally instead of running serve.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		loc, err := a.cfg.Location()
		if err != nil {
			return err
		}

		now := time.Now().In(loc)
		if remindDate != "" {
			day, err := time.ParseInLocation("2006-01-02", remindDate, loc)
			if err != nil {
				return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", remindDate)
			}
			now = day
		}

		var opts []reminderservice.Option
		if remindDryRun {
			opts = append(opts, reminderservice.WithDryRun())
		}
		jobs := reminderservice.NewJobs(a.subscriptions, a.users, a.mailer, a.logger, opts...)

		res, err := jobs.Run(cmd.Context(), now)
		printSummary(now, res)
		return err
	},
}

func init() {
	remindCmd.Flags().StringVar(&remindDate, "date", "", "evaluate reminders as of this day (YYYY-MM-DD)")
	remindCmd.Flags().BoolVar(&remindDryRun, "dry-run", false, "list due reminders without sending email")
}

func printSummary(now time.Time, res reminderservice.Result) {
	fmt.Printf("Reminder run %s for %s\n", res.RunID, now.Format("2006-01-02"))
	fmt.Printf("  scanned: %d  skipped: %d  due: %d\n\n", res.Scanned, res.Skipped, res.Due)

	for _, d := range res.Dispatches {
		line := fmt.Sprintf("\t#%d %-24s -> %s (due %s, %d days ahead)",
			d.SubscriptionID, d.Name, d.To, d.NextPayment.Format("2006-01-02"), d.LeadDays)
		switch {
		case remindDryRun:
			color.Yellow("%s [dry run]\n", line)
		case d.Err != nil:
			color.Red("%s: %v\n", line, d.Err)
		default:
			color.Green("%s\n", line)
		}
	}

	if res.Failed > 0 {
		color.Red("\n%d sent, %d failed\n", res.Sent, res.Failed)
		return
	}
	color.Green("\n%d sent\n", res.Sent)
}
