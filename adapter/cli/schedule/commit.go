package schedule

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	meetingCommands "github.com/felixgeelhaar/huddle/internal/meetings/application/commands"
	"github.com/spf13/cobra"
)

var (
	commitLength   int
	commitLocation string
)

var commitCmd = &cobra.Command{
	Use:   "commit [meeting-id] [slot-key]",
	Short: "Commit a suggestion as the next meeting (owner only)",
	Long: `Commit the suggestion starting at slot-key. The meeting is placed on
the next matching weekday and every participant gets a personal event.

Examples:
  huddle schedule commit 6f0c... 0-18-00 --length 2`,
	Args: cobra.ExactArgs(2),
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

		result, err := app.CommitSuggestionHandler.Handle(cmd.Context(), meetingCommands.CommitSuggestionCommand{
			MeetingID:    meetingID,
			ActorID:      ownerID,
			StartSlotKey: args[1],
			RunLength:    commitLength,
			Location:     commitLocation,
		})
		if err != nil {
			return err
		}

		return cli.Render(cmd, result, func(w io.Writer) {
			occ := result.Occurrence
			fmt.Fprintf(w, "Committed %s %s-%s", occ.Date, occ.StartTime, occ.EndTime)
			if occ.Location != "" {
				fmt.Fprintf(w, " at %s", occ.Location)
			}
			fmt.Fprintf(w, "\n  Schedule ID: %s\n", result.ScheduleID)
		})
	},
}

func init() {
	commitCmd.Flags().IntVar(&commitLength, "length", 1, "number of consecutive slots")
	commitCmd.Flags().StringVar(&commitLocation, "location", "", "location (defaults to the meeting's)")
}
