// Package availability holds the commands for the weekly availability grid.
package availability

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	meetingCommands "github.com/felixgeelhaar/huddle/internal/meetings/application/commands"
	meetingQueries "github.com/felixgeelhaar/huddle/internal/meetings/application/queries"
	"github.com/spf13/cobra"
)

// Cmd is the availability command group.
var Cmd = &cobra.Command{
	Use:   "availability",
	Short: "Mark when you are free and see the group heat map",
	Long: `Slots are keyed as DAY-HH-MM, where DAY is 0 for Monday through 6 for
Sunday and HH-MM is the slot's start time on the grid.`,
}

var clearAll bool

var setCmd = &cobra.Command{
	Use:   "set [meeting-id] [slot-key...]",
	Short: "Replace your availability for a meeting",
	Long: `Replace your whole selection with the given slots.

Examples:
  huddle availability set 6f0c... 0-18-00 0-18-30 2-18-00
  huddle availability set 6f0c... --clear`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		meetingID, err := cli.ParseID(args[0], "meeting")
		if err != nil {
			return err
		}
		userID, err := app.ActingUserID()
		if err != nil {
			return err
		}
		keys := args[1:]
		if len(keys) == 0 && !clearAll {
			return fmt.Errorf("no slots given; pass --clear to remove your availability")
		}

		result, err := app.SetAvailabilityHandler.Handle(cmd.Context(), meetingCommands.SetAvailabilityCommand{
			MeetingID: meetingID,
			UserID:    userID,
			SlotKeys:  keys,
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, result, func(w io.Writer) {
			fmt.Fprintf(w, "Saved %d slots.\n", result.SlotCount)
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show [meeting-id]",
	Short: "Show the group heat map and who has responded",
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
		userID, err := app.ActingUserID()
		if err != nil {
			return err
		}

		view, err := app.GetCoordinationHandler.Handle(cmd.Context(), meetingQueries.GetCoordinationQuery{
			MeetingID: meetingID,
			UserID:    userID,
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, view, func(w io.Writer) {
			fmt.Fprintf(w, "Responded: %d/%d (%d%%)\n", view.RespondedCount, view.TotalParticipants, view.CoordinationRate)
			if len(view.Cells) == 0 {
				fmt.Fprintln(w, "Nobody has marked any slots yet.")
			} else {
				fmt.Fprintln(w, "Slots:")
				for _, cell := range view.Cells {
					fmt.Fprintf(w, "  %-8s %d  %s\n", cell.SlotKey, cell.Count, cell.Level)
				}
			}
			fmt.Fprintf(w, "Your slots: %d\n", len(view.MySlotKeys))
		})
	},
}

func init() {
	setCmd.Flags().BoolVar(&clearAll, "clear", false, "remove all of your slots")
	Cmd.AddCommand(setCmd)
	Cmd.AddCommand(showCmd)
}
