package attendance

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	attendanceQueries "github.com/felixgeelhaar/huddle/internal/attendance/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// meetingAndCaller parses the meeting argument and resolves the caller.
func meetingAndCaller(raw string) (*cli.App, uuid.UUID, uuid.UUID, error) {
	app, err := cli.RequireApp()
	if err != nil {
		return nil, uuid.Nil, uuid.Nil, err
	}
	meetingID, err := cli.ParseID(raw, "meeting")
	if err != nil {
		return nil, uuid.Nil, uuid.Nil, err
	}
	userID, err := app.ActingUserID()
	if err != nil {
		return nil, uuid.Nil, uuid.Nil, err
	}
	return app, meetingID, userID, nil
}

var historyCmd = &cobra.Command{
	Use:   "history [meeting-id]",
	Short: "List recorded sessions, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, meetingID, userID, err := meetingAndCaller(args[0])
		if err != nil {
			return err
		}
		records, err := app.AttendanceHistoryHandler.History(cmd.Context(), attendanceQueries.HistoryQuery{
			MeetingID: meetingID,
			UserID:    userID,
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, records, func(w io.Writer) {
			if len(records) == 0 {
				fmt.Fprintln(w, "No sessions recorded yet.")
				return
			}
			for _, rec := range records {
				fmt.Fprintf(w, "  %s  %d/%d (%d%%)\n", rec.Date, len(rec.AttendeeIDs), rec.TotalParticipants, rec.RatePercent)
			}
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats [meeting-id]",
	Short: "Summarize attendance across all sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, meetingID, userID, err := meetingAndCaller(args[0])
		if err != nil {
			return err
		}
		stats, err := app.AttendanceHistoryHandler.Statistics(cmd.Context(), attendanceQueries.HistoryQuery{
			MeetingID: meetingID,
			UserID:    userID,
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, stats, func(w io.Writer) {
			fmt.Fprintf(w, "Sessions: %d\n", stats.TotalSessions)
			fmt.Fprintf(w, "Average rate: %d%%\n", stats.AverageRatePercent)
			fmt.Fprintf(w, "Best rate: %d%%\n", stats.BestRatePercent)
			fmt.Fprintf(w, "Check-ins: %d\n", stats.TotalAttendances)
			if stats.LastSessionDate != "" {
				fmt.Fprintf(w, "Last session: %s\n", stats.LastSessionDate)
			}
		})
	},
}

var memberCmd = &cobra.Command{
	Use:   "member [meeting-id] [user-id]",
	Short: "Show one member's attendance by date",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, meetingID, userID, err := meetingAndCaller(args[0])
		if err != nil {
			return err
		}
		memberID, err := cli.ParseID(args[1], "user")
		if err != nil {
			return err
		}
		history, err := app.AttendanceHistoryHandler.UserHistory(cmd.Context(), attendanceQueries.UserHistoryQuery{
			MeetingID: meetingID,
			UserID:    userID,
			MemberID:  memberID,
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, history, func(w io.Writer) {
			fmt.Fprintf(w, "Attendance rate: %d%%\n", history.RatePercent)
			for _, d := range history.Dates {
				mark := "absent"
				if d.Attended {
					mark = "present"
				}
				fmt.Fprintf(w, "  %s  %s\n", d.Date, mark)
			}
		})
	},
}

var membersCmd = &cobra.Command{
	Use:   "members [meeting-id]",
	Short: "Show every member's attendance rate",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, meetingID, userID, err := meetingAndCaller(args[0])
		if err != nil {
			return err
		}
		rates, err := app.AttendanceHistoryHandler.MemberRates(cmd.Context(), attendanceQueries.HistoryQuery{
			MeetingID: meetingID,
			UserID:    userID,
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, rates, func(w io.Writer) {
			for _, r := range rates {
				fmt.Fprintf(w, "  %s  %d/%d (%d%%)\n", r.UserID, r.AttendedCount, r.TotalSessions, r.RatePercent)
			}
		})
	},
}

var recordCmd = &cobra.Command{
	Use:   "record [meeting-id] [date]",
	Short: "Show the record for one date",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, meetingID, userID, err := meetingAndCaller(args[0])
		if err != nil {
			return err
		}
		rec, err := app.AttendanceHistoryHandler.RecordByDate(cmd.Context(), attendanceQueries.RecordByDateQuery{
			MeetingID: meetingID,
			UserID:    userID,
			Date:      args[1],
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, rec, func(w io.Writer) {
			if rec == nil {
				fmt.Fprintf(w, "No session recorded on %s.\n", args[1])
				return
			}
			fmt.Fprintf(w, "%s: %d/%d attended (%d%%)\n", rec.Date, len(rec.AttendeeIDs), rec.TotalParticipants, rec.RatePercent)
			for _, m := range rec.Members {
				mark := "absent"
				if m.Attended {
					mark = "present"
				}
				fmt.Fprintf(w, "  %s  %s\n", m.UserID, mark)
			}
		})
	},
}
