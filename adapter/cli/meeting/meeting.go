package meeting

import "github.com/spf13/cobra"

// Cmd is the meeting command group.
var Cmd = &cobra.Command{
	Use:   "meeting",
	Short: "Manage meetings and their members",
	Long: `Create meetings, handle join requests, and control recruitment.

The owner is always a participant. Others ask to join and the owner
approves or rejects each request.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(joinCmd)
	Cmd.AddCommand(cancelRequestCmd)
	Cmd.AddCommand(approveCmd)
	Cmd.AddCommand(rejectCmd)
	Cmd.AddCommand(leaveCmd)
	Cmd.AddCommand(statusCmd)
}
