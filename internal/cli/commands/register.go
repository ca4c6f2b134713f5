package commands

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/noteward-dev/noteward/internal/account"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd() *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a Noteward account",
		Long: `Create a Noteward account.

Registration is a two-step flow: a verification code is sent to your email,
and the account is created once you confirm it and choose a password.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(email, name)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set NOTEWARD_EMAIL)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")

	return cmd
}

func runRegister(email, name string) error {
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

	res := ctrl.StartRegistration(email, name)
	if !res.OK {
		return resultErr(res)
	}
	fmt.Println(res.Message)

	password, err := promptPassword("Choose a password")
	if err != nil {
		return err
	}

	for {
		otp, err := promptOTP()
		if err != nil {
			return err
		}

		res = ctrl.CompleteRegistration(otp, password, name)
		if res.OK {
			break
		}
		if res.NetworkError {
			return resultErr(res)
		}

		fmt.Printf("Verification failed: %s\n", res.Error)

		next, err := retryChoice(ctrl)
		if err != nil {
			return err
		}
		if !next {
			return fmt.Errorf("registration abandoned")
		}
	}

	fmt.Println("✓ Registration complete!")
	fmt.Printf("  User: %s (%s)\n", res.User.Name, res.User.Email)
	return nil
}

// retryChoice lets the user retry the code, request a new one, or give up.
// Returns false when the flow should be abandoned.
func retryChoice(ctrl *account.Controller) (bool, error) {
	sel := promptui.Select{
		Label: "What next",
		Items: []string{"Enter code again", "Resend code", "Abort"},
	}

	idx, _, err := sel.Run()
	if err != nil {
		return false, err
	}

	switch idx {
	case 1:
		res := ctrl.ResendRegistrationOTP()
		if !res.OK {
			fmt.Printf("Resend failed: %s\n", res.Error)
		} else {
			fmt.Println(res.Message)
		}
		return true, nil
	case 2:
		return false, nil
	default:
		return true, nil
	}
}
