package meeting

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	meetingQueries "github.com/felixgeelhaar/huddle/internal/meetings/application/queries"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [meeting-id]",
	Short: "Show a meeting with its roster and schedules",
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

		m, err := app.GetMeetingHandler.Handle(cmd.Context(), meetingQueries.GetMeetingQuery{MeetingID: meetingID})
		if err != nil {
			return err
		}

		return cli.Render(cmd, m, func(w io.Writer) {
			fmt.Fprintf(w, "%s\n", m.Title)
			fmt.Fprintf(w, "  ID: %s\n", m.ID)
			if m.Description != "" {
				fmt.Fprintf(w, "  Description: %s\n", m.Description)
			}
			if m.Location != "" {
				fmt.Fprintf(w, "  Location: %s\n", m.Location)
			}
			fmt.Fprintf(w, "  Status: %s (%d/%d)\n", m.Status, m.TotalParticipants, m.MaxParticipants)
			fmt.Fprintln(w, "  Participants:")
			for _, p := range m.Participants {
				fmt.Fprintf(w, "    %s  %s\n", p.UserID, p.Role)
			}
			if s := m.SuggestedSchedule; s != nil {
				fmt.Fprintf(w, "  Next meeting: %s %s-%s", s.Date, s.StartTime, s.EndTime)
				if s.Location != "" {
					fmt.Fprintf(w, " at %s", s.Location)
				}
				fmt.Fprintln(w)
			}
			if r := m.RecurringSchedule; r != nil {
				fmt.Fprintf(w, "  Recurring: %s (%s to %s)\n", r.Description, r.From, r.Until)
			}
		})
	},
}
