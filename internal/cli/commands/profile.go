package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewProfileCmd creates the profile command
func NewProfileCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update the signed-in account's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" && email == "" {
				return fmt.Errorf("nothing to update (use --name and/or --email)")
			}

			ctrl, _, err := newController()
			if err != nil {
				return err
			}

			res := ctrl.UpdateProfile(name, email)
			if !res.OK {
				return resultErr(res)
			}

			fmt.Println("✓ Profile updated!")
			fmt.Printf("  User: %s (%s)\n", res.User.Name, res.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&email, "email", "", "New email (see change-email for the verified flow)")

	return cmd
}
