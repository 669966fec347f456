package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "subtrack",
	Short: "Subscription tracker API and reminder worker",
	Long: `subtrack tracks recurring subscriptions, reports normalized spending and
emails renewal reminders. Configuration is read from the environment and .env.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(remindCmd)
}
