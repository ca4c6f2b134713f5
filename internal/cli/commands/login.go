package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noteward-dev/noteward/internal/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the Noteward account service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set NOTEWARD_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set NOTEWARD_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(email, password string) error {
	// Check for environment variables (useful for scripting)
	if email == "" {
		email = os.Getenv("NOTEWARD_EMAIL")
	}
	if password == "" {
		password = os.Getenv("NOTEWARD_PASSWORD")
	}

	if email == "" {
		return fmt.Errorf("email is required (use --email flag or NOTEWARD_EMAIL env var)")
	}

	ctrl, _, err := newController()
	if err != nil {
		return err
	}

	if password == "" {
		password, err = promptPassword("Password")
		if err != nil {
			return err
		}
	}

	res := ctrl.Login(email, password)

	// An unverified account drops into the OTP step instead of failing
	if res.RequiresVerification {
		fmt.Println(res.Message)

		otp, err := promptOTP()
		if err != nil {
			return err
		}

		res = ctrl.VerifyPendingEmail(otp)
		if !res.OK {
			return resultErr(res)
		}
	} else if !res.OK {
		return resultErr(res)
	}

	fmt.Println("✓ Login successful!")
	fmt.Printf("  User: %s (%s)\n", res.User.Name, res.User.Email)
	if session.ParseRole(res.User.Role) == session.RoleAdmin {
		fmt.Println("  Role: Admin")
	}

	return nil
}
