// Package calendar lists the personal events fanned out from schedules.
package calendar

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	calendarQueries "github.com/felixgeelhaar/huddle/internal/calendar/application/queries"
	"github.com/spf13/cobra"
)

// Cmd is the calendar command group.
var Cmd = &cobra.Command{
	Use:   "calendar",
	Short: "View your personal meeting events",
}

var (
	eventsFrom string
	eventsTo   string
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List your personal events by date",
	Long: `List the events created for you when meetings you belong to commit a
schedule.

Examples:
  huddle calendar events
  huddle calendar events --from 2026-11-01 --to 2026-11-30`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		userID, err := app.ActingUserID()
		if err != nil {
			return err
		}

		events, err := app.ListPersonalEventsHandler.Handle(cmd.Context(), calendarQueries.ListPersonalEventsQuery{
			UserID: userID,
			From:   eventsFrom,
			To:     eventsTo,
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, events, func(w io.Writer) {
			if len(events) == 0 {
				fmt.Fprintln(w, "No events.")
				return
			}
			for _, e := range events {
				fmt.Fprintf(w, "  %s %s-%s  %s", e.Date, e.StartTime, e.EndTime, e.Title)
				if e.Location != "" {
					fmt.Fprintf(w, " @ %s", e.Location)
				}
				fmt.Fprintf(w, "  [%s]\n", e.Source)
			}
		})
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsFrom, "from", "", "first date (YYYY-MM-DD)")
	eventsCmd.Flags().StringVar(&eventsTo, "to", "", "last date (YYYY-MM-DD)")
	Cmd.AddCommand(eventsCmd)
}
