package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewForgotPasswordCmd creates the forgot-password command
func NewForgotPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Reset a forgotten password with an emailed code",
		Long: `Reset a forgotten password.

A verification code is sent to the account's email; confirming it lets you
set a new password. You still have to log in with the new password afterward.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForgotPassword(email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set NOTEWARD_EMAIL)")

	return cmd
}

func runForgotPassword(email string) error {
	if email == "" {
		email = os.Getenv("NOTEWARD_EMAIL")
	}
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or NOTEWARD_EMAIL env var)")
	}

	ctrl, _, err := newController()
	if err != nil {
		return err
	}

	res := ctrl.StartPasswordReset(email)
	if !res.OK {
		return resultErr(res)
	}
	fmt.Println(res.Message)

	otp, err := promptOTP()
	if err != nil {
		return err
	}

	newPassword, err := promptPassword("New password")
	if err != nil {
		return err
	}

	res = ctrl.CompletePasswordReset(otp, newPassword)
	if !res.OK {
		return resultErr(res)
	}

	fmt.Println("✓ Password reset!")
	fmt.Printf("  You can now log in as %s\n", res.Email)
	return nil
}
