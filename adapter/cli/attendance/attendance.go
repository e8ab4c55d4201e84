// Package attendance holds the code-based check-in commands.
package attendance

import "github.com/spf13/cobra"

// Cmd is the attendance command group.
var Cmd = &cobra.Command{
	Use:   "attendance",
	Short: "Run code-based attendance checks",
	Long: `The owner opens a session and shares the six-character code. Members
submit it before the session ends. The session is recorded when the owner
ends it or when it times out.`,
}

func init() {
	Cmd.AddCommand(startCmd)
	Cmd.AddCommand(submitCmd)
	Cmd.AddCommand(endCmd)
	Cmd.AddCommand(statusCmd)
	Cmd.AddCommand(historyCmd)
	Cmd.AddCommand(statsCmd)
	Cmd.AddCommand(memberCmd)
	Cmd.AddCommand(membersCmd)
	Cmd.AddCommand(recordCmd)
}
