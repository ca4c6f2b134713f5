package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _, err := newController()
			if err != nil {
				return err
			}

			if res := ctrl.Logout(); !res.OK {
				return resultErr(res)
			}

			fmt.Println("✓ Logged out")
			return nil
		},
	}
}
