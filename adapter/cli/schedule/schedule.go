// Package schedule holds the commands that pick and commit meeting times.
package schedule

import "github.com/spf13/cobra"

// Cmd is the schedule command group.
var Cmd = &cobra.Command{
	Use:   "schedule",
	Short: "Rank shared times and commit schedules",
	Long: `A meeting has at most one committed date, chosen from the ranked
suggestions, and at most one recurring pattern. Committing or setting a
schedule adds a personal event for every participant.`,
}

func init() {
	Cmd.AddCommand(suggestionsCmd)
	Cmd.AddCommand(commitCmd)
	Cmd.AddCommand(removeCmd)
	Cmd.AddCommand(recurringCmd)
}
