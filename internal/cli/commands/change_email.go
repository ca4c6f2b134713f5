package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewChangeEmailCmd creates the change-email command
func NewChangeEmailCmd() *cobra.Command {
	var newEmail string

	cmd := &cobra.Command{
		Use:   "change-email",
		Short: "Change the signed-in account's email address",
		Long: `Change the signed-in account's email address.

A verification code is sent to the new address; the change takes effect once
you confirm it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChangeEmail(newEmail)
		},
	}

	cmd.Flags().StringVar(&newEmail, "new-email", "", "New email address")
	_ = cmd.MarkFlagRequired("new-email")

	return cmd
}

func runChangeEmail(newEmail string) error {
	ctrl, _, err := newController()
	if err != nil {
		return err
	}

	res := ctrl.StartEmailChange(newEmail)
	if !res.OK {
		return resultErr(res)
	}
	fmt.Println(res.Message)

	otp, err := promptOTP()
	if err != nil {
		return err
	}

	res = ctrl.CompleteEmailChange(otp)
	if !res.OK {
		return resultErr(res)
	}

	fmt.Println("✓ Email address updated!")
	fmt.Printf("  New email: %s\n", res.Email)
	return nil
}
