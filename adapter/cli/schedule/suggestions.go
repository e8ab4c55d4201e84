package schedule

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	meetingQueries "github.com/felixgeelhaar/huddle/internal/meetings/application/queries"
	"github.com/spf13/cobra"
)

var suggestionsLimit int

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions [meeting-id]",
	Short: "Show the best shared times",
	Long: `Rank the times most participants can make. Consecutive blocks come
first, ordered by availability rate, then length, then position in the week.`,
	Args: cobra.ExactArgs(1),
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

		result, err := app.GetSuggestionsHandler.Handle(cmd.Context(), meetingQueries.GetSuggestionsQuery{
			MeetingID: meetingID,
			UserID:    userID,
			Limit:     suggestionsLimit,
		})
		if err != nil {
			return err
		}

		return cli.Render(cmd, result, func(w io.Writer) {
			if result.HasSchedule {
				fmt.Fprintln(w, "A schedule is already committed. Remove it to see suggestions again.")
				return
			}
			if len(result.Suggestions) == 0 {
				fmt.Fprintln(w, "No availability yet.")
				return
			}
			fmt.Fprintf(w, "Suggestions for %d participants:\n", result.TotalParticipants)
			for i, s := range result.Suggestions {
				fmt.Fprintf(w, "  %2d. %-9s %s-%s  %d/%d (%d%%)  slot %s x%d\n",
					i+1, s.Weekday, s.StartTime, s.EndTime,
					s.AvailableCount, s.TotalParticipants, s.AvailabilityRatePercent,
					s.SlotKey, s.RunLength)
			}
		})
	},
}

func init() {
	suggestionsCmd.Flags().IntVarP(&suggestionsLimit, "limit", "n", 10, "number of suggestions to show")
}
