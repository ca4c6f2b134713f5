package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPasswordCmd creates the password command
func NewPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change the signed-in account's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _, err := newController()
			if err != nil {
				return err
			}

			current, err := promptPassword("Current password")
			if err != nil {
				return err
			}

			next, err := promptPassword("New password")
			if err != nil {
				return err
			}

			res := ctrl.ChangePassword(current, next)
			if !res.OK {
				return resultErr(res)
			}

			fmt.Println("✓ Password changed")
			return nil
		},
	}
}
