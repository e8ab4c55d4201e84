package meeting

import (
	"fmt"

	"github.com/felixgeelhaar/huddle/adapter/cli"
	meetingCommands "github.com/felixgeelhaar/huddle/internal/meetings/application/commands"
	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:   "join [meeting-id]",
	Short: "Ask to join a meeting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeOwnParticipation(cmd, args[0], meetingCommands.ActionRequest, "Join request sent.")
	},
}

var cancelRequestCmd = &cobra.Command{
	Use:   "cancel-request [meeting-id]",
	Short: "Withdraw your pending join request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeOwnParticipation(cmd, args[0], meetingCommands.ActionCancel, "Join request withdrawn.")
	},
}

var leaveCmd = &cobra.Command{
	Use:   "leave [meeting-id]",
	Short: "Leave a meeting",
	Long: `Leave a meeting you are a member of. Your availability is discarded.
The owner cannot leave.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return changeOwnParticipation(cmd, args[0], meetingCommands.ActionLeave, "You left the meeting.")
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve [meeting-id] [user-id]",
	Short: "Approve a join request (owner only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decideRequest(cmd, args, meetingCommands.ActionApprove, "Request approved.")
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject [meeting-id] [user-id]",
	Short: "Reject a join request (owner only)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decideRequest(cmd, args, meetingCommands.ActionReject, "Request rejected.")
	},
}

func changeOwnParticipation(cmd *cobra.Command, rawMeetingID string, action meetingCommands.ParticipationAction, done string) error {
	app, err := cli.RequireApp()
	if err != nil {
		return err
	}
	meetingID, err := cli.ParseID(rawMeetingID, "meeting")
	if err != nil {
		return err
	}
	userID, err := app.ActingUserID()
	if err != nil {
		return err
	}

	if err := app.ChangeParticipationHandler.Handle(cmd.Context(), meetingCommands.ChangeParticipationCommand{
		MeetingID: meetingID,
		ActorID:   userID,
		UserID:    userID,
		Action:    action,
	}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	return nil
}

func decideRequest(cmd *cobra.Command, args []string, action meetingCommands.ParticipationAction, done string) error {
	app, err := cli.RequireApp()
	if err != nil {
		return err
	}
	meetingID, err := cli.ParseID(args[0], "meeting")
	if err != nil {
		return err
	}
	requesterID, err := cli.ParseID(args[1], "user")
	if err != nil {
		return err
	}
	ownerID, err := app.ActingUserID()
	if err != nil {
		return err
	}

	if err := app.ChangeParticipationHandler.Handle(cmd.Context(), meetingCommands.ChangeParticipationCommand{
		MeetingID: meetingID,
		ActorID:   ownerID,
		UserID:    requesterID,
		Action:    action,
	}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	return nil
}
