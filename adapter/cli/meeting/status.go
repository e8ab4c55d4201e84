package meeting

import (
	"fmt"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	meetingCommands "github.com/felixgeelhaar/huddle/internal/meetings/application/commands"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [meeting-id] [open|closed]",
	Short: "Open or close recruitment (owner only)",
	Long: `Open or close a meeting for join requests. A meeting that reaches
its participant limit is marked full automatically.`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"open", "closed"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		meetingID, err := cli.ParseID(args[0], "meeting")
		if err != nil {
			return err
		}
		ownerID, err := app.ActingUserID()
		if err != nil {
			return err
		}

		if err := app.UpdateStatusHandler.Handle(cmd.Context(), meetingCommands.UpdateStatusCommand{
			MeetingID: meetingID,
			ActorID:   ownerID,
			Status:    args[1],
		}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recruitment is now %s.\n", args[1])
		return nil
	},
}
