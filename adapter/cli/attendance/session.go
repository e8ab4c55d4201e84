package attendance

import (
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	attendanceCommands "github.com/felixgeelhaar/huddle/internal/attendance/application/commands"
	attendanceQueries "github.com/felixgeelhaar/huddle/internal/attendance/application/queries"
	"github.com/spf13/cobra"
)

var startDate string

var startCmd = &cobra.Command{
	Use:   "start [meeting-id]",
	Short: "Open an attendance session (owner only)",
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

		result, err := app.StartAttendanceHandler.Handle(cmd.Context(), attendanceCommands.StartAttendanceCommand{
			MeetingID: meetingID,
			ActorID:   ownerID,
			Date:      startDate,
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, result, func(w io.Writer) {
			fmt.Fprintf(w, "Attendance open for %s\n", result.Date)
			fmt.Fprintf(w, "  Code: %s\n", result.Code)
			fmt.Fprintf(w, "  Ends: %s\n", result.EndsAt.Local().Format(time.Kitchen))
		})
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit [meeting-id] [code]",
	Short: "Check in with the code the owner shared",
	Args:  cobra.ExactArgs(2),
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

		if err := app.SubmitAttendanceCodeHandler.Handle(cmd.Context(), attendanceCommands.SubmitAttendanceCodeCommand{
			MeetingID: meetingID,
			UserID:    userID,
			Code:      args[1],
		}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Checked in.")
		return nil
	},
}

var endCmd = &cobra.Command{
	Use:   "end [meeting-id]",
	Short: "End the open session and record it (owner only)",
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

		result, err := app.EndAttendanceHandler.Handle(cmd.Context(), attendanceCommands.EndAttendanceCommand{
			MeetingID: meetingID,
			ActorID:   ownerID,
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, result, func(w io.Writer) {
			if !result.Ended {
				fmt.Fprintln(w, "No session was open.")
				return
			}
			fmt.Fprintf(w, "Recorded %s: %d/%d attended (%d%%)\n",
				result.Date, result.AttendedCount, result.TotalParticipants, result.RatePercent)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [meeting-id]",
	Short: "Show the live session state",
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

		status, err := app.SessionStatusHandler.Handle(cmd.Context(), attendanceQueries.GetSessionStatusQuery{
			MeetingID: meetingID,
			UserID:    userID,
		})
		if err != nil {
			return err
		}
		return cli.Render(cmd, status, func(w io.Writer) {
			if !status.Active {
				if status.CompletedToday {
					fmt.Fprintln(w, "Attendance was already recorded today.")
				} else {
					fmt.Fprintln(w, "No session is open.")
				}
				return
			}
			fmt.Fprintf(w, "Session open for %s, %ds left\n", status.Date, status.RemainingSeconds)
			if status.Code != "" {
				fmt.Fprintf(w, "  Code: %s\n", status.Code)
			}
			fmt.Fprintf(w, "  Checked in: %d\n", len(status.Attendees))
			if status.CheckedIn {
				fmt.Fprintln(w, "  You are checked in.")
			}
		})
	},
}

func init() {
	startCmd.Flags().StringVar(&startDate, "date", "", "session date (YYYY-MM-DD, defaults to today)")
}
