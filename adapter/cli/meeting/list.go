package meeting

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	meetingQueries "github.com/felixgeelhaar/huddle/internal/meetings/application/queries"
	"github.com/spf13/cobra"
)

var (
	listOpen  bool
	listLimit int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List meetings",
	Long: `List the meetings you belong to, or meetings open for joining.

Examples:
  huddle meeting list
  huddle meeting list --open --limit 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		userID, err := app.ActingUserID()
		if err != nil {
			return err
		}

		meetings, err := app.ListMeetingsHandler.Handle(cmd.Context(), meetingQueries.ListMeetingsQuery{
			UserID:   userID,
			OpenOnly: listOpen,
			Limit:    listLimit,
		})
		if err != nil {
			return err
		}

		return cli.Render(cmd, meetings, func(w io.Writer) {
			if len(meetings) == 0 {
				if listOpen {
					fmt.Fprintln(w, "No meetings are recruiting right now.")
				} else {
					fmt.Fprintln(w, "No meetings yet. Create one with: huddle meeting create \"Title\"")
				}
				return
			}
			fmt.Fprintf(w, "Meetings (%d):\n", len(meetings))
			for _, m := range meetings {
				fmt.Fprintf(w, "  %s\n", m.Title)
				fmt.Fprintf(w, "    ID: %s\n", m.ID)
				fmt.Fprintf(w, "    Members: %d/%d\n", m.TotalParticipants, m.MaxParticipants)
				fmt.Fprintf(w, "    Status: %s\n", m.Status)
			}
		})
	},
}

func init() {
	listCmd.Flags().BoolVar(&listOpen, "open", false, "list meetings open for joining instead of your own")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum number of meetings to list")
}
