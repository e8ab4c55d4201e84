package schedule

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	meetingCommands "github.com/felixgeelhaar/huddle/internal/meetings/application/commands"
	"github.com/spf13/cobra"
)

var recurringCmd = &cobra.Command{
	Use:   "recurring",
	Short: "Manage a meeting's recurring pattern",
}

var (
	recurFrequency string
	recurDay       string
	recurStart     string
	recurEnd       string
	recurFrom      string
	recurUntil     string
	recurLocation  string
)

var recurringSetCmd = &cobra.Command{
	Use:   "set [meeting-id]",
	Short: "Install or replace the recurring pattern (owner only)",
	Long: `Install a weekly or biweekly pattern between two dates. Replacing an
existing pattern retracts its personal events first.

Examples:
  huddle schedule recurring set 6f0c... --day tuesday --start 18:00 --end 19:30 \
    --from 2026-11-01 --until 2027-01-31`,
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
		ownerID, err := app.ActingUserID()
		if err != nil {
			return err
		}
		day, err := parseWeekday(recurDay)
		if err != nil {
			return err
		}

		result, err := app.SetRecurringScheduleHandler.Handle(cmd.Context(), meetingCommands.SetRecurringScheduleCommand{
			MeetingID: meetingID,
			ActorID:   ownerID,
			Frequency: recurFrequency,
			DayOfWeek: day,
			StartTime: recurStart,
			EndTime:   recurEnd,
			From:      recurFrom,
			Until:     recurUntil,
			Location:  recurLocation,
		})
		if err != nil {
			return err
		}

		return cli.Render(cmd, result, func(w io.Writer) {
			fmt.Fprintf(w, "Recurring schedule %s set with %d occurrences.\n", result.ScheduleID, len(result.Occurrences))
			if result.ReplacedScheduleID != nil {
				fmt.Fprintf(w, "  Replaced %s (%d personal events retracted).\n", *result.ReplacedScheduleID, result.RetractedEventCount)
			}
			for _, occ := range result.Occurrences {
				fmt.Fprintf(w, "  %s %s-%s\n", occ.Date, occ.StartTime, occ.EndTime)
			}
		})
	},
}

var recurringRemoveCmd = &cobra.Command{
	Use:   "remove [meeting-id]",
	Short: "Remove the recurring pattern (owner only)",
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

		result, err := app.RemoveRecurringScheduleHandler.Handle(cmd.Context(), meetingCommands.RemoveRecurringScheduleCommand{
			MeetingID: meetingID,
			ActorID:   ownerID,
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, result, func(w io.Writer) {
			fmt.Fprintf(w, "Removed recurring schedule %s (%d personal events retracted).\n", result.ScheduleID, result.RetractedEvents)
		})
	},
}

func parseWeekday(value string) (time.Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if v == name || v == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", value)
}

func init() {
	recurringSetCmd.Flags().StringVar(&recurFrequency, "frequency", "weekly", "weekly or biweekly")
	recurringSetCmd.Flags().StringVar(&recurDay, "day", "", "weekday, e.g. tuesday or tue")
	recurringSetCmd.Flags().StringVar(&recurStart, "start", "", "start time (HH:MM)")
	recurringSetCmd.Flags().StringVar(&recurEnd, "end", "", "end time (HH:MM)")
	recurringSetCmd.Flags().StringVar(&recurFrom, "from", "", "first date (YYYY-MM-DD)")
	recurringSetCmd.Flags().StringVar(&recurUntil, "until", "", "last date (YYYY-MM-DD)")
	recurringSetCmd.Flags().StringVar(&recurLocation, "location", "", "location (defaults to the meeting's)")
	for _, name := range []string{"day", "start", "end", "from", "until"} {
		_ = recurringSetCmd.MarkFlagRequired(name)
	}

	recurringCmd.AddCommand(recurringSetCmd)
	recurringCmd.AddCommand(recurringRemoveCmd)
}
