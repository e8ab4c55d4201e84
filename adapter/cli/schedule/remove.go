package schedule

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	meetingCommands "github.com/felixgeelhaar/huddle/internal/meetings/application/commands"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove [meeting-id]",
	Short: "Remove the committed date (owner only)",
	Long:  `Remove the committed date and the personal events created for it.`,
	Args:  cobra.ExactArgs(1),
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

		result, err := app.RemoveSuggestedScheduleHandler.Handle(cmd.Context(), meetingCommands.RemoveSuggestedScheduleCommand{
			MeetingID: meetingID,
			ActorID:   ownerID,
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, result, func(w io.Writer) {
			fmt.Fprintf(w, "Removed schedule %s (%d personal events retracted).\n", result.ScheduleID, result.RetractedEvents)
		})
	},
}
