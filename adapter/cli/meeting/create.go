package meeting

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	meetingCommands "github.com/felixgeelhaar/huddle/internal/meetings/application/commands"
	"github.com/spf13/cobra"
)

var (
	createDescription string
	createLocation    string
	createMax         int
)

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a meeting you own",
	Long: `Create a new meeting. You become its owner and first participant.

Examples:
  huddle meeting create "Go study group" --max 6
  huddle meeting create "Book club" --location "Library, room 2"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		userID, err := app.ActingUserID()
		if err != nil {
			return err
		}

		result, err := app.CreateMeetingHandler.Handle(cmd.Context(), meetingCommands.CreateMeetingCommand{
			OwnerID:         userID,
			Title:           args[0],
			Description:     createDescription,
			Location:        createLocation,
			MaxParticipants: createMax,
		})
		if err != nil {
			return err
		}

		return cli.Render(cmd, result, func(w io.Writer) {
			fmt.Fprintf(w, "Created meeting: %s\n", result.MeetingID)
		})
	},
}

func init() {
	createCmd.Flags().StringVarP(&createDescription, "description", "d", "", "meeting description")
	createCmd.Flags().StringVarP(&createLocation, "location", "l", "", "default meeting location")
	createCmd.Flags().IntVarP(&createMax, "max", "m", 10, "maximum number of participants, owner included")
}
