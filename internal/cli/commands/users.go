package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noteward-dev/noteward/internal/api"
)

// NewUsersCmd creates the users command group (admin only)
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts (admin only)",
	}

	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersGetCmd())
	cmd.AddCommand(newUsersSearchCmd())
	cmd.AddCommand(newUsersStatsCmd())
	cmd.AddCommand(newUsersUpdateCmd())
	cmd.AddCommand(newUsersDeleteCmd())

	return cmd
}

func newUsersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _, err := newController()
			if err != nil {
				return err
			}

			res := ctrl.ListUsers()
			if !res.OK {
				return resultErr(res)
			}

			printUsers(res.Users)
			return nil
		},
	}
}

func newUsersGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <user-id>",
		Short: "Show a single user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _, err := newController()
			if err != nil {
				return err
			}

			res := ctrl.GetUser(args[0])
			if !res.OK {
				return resultErr(res)
			}

			fmt.Printf("ID:    %s\n", res.User.ID)
			fmt.Printf("Name:  %s\n", res.User.Name)
			fmt.Printf("Email: %s\n", res.User.Email)
			fmt.Printf("Role:  %s\n", res.User.Role)
			return nil
		},
	}
}

func newUsersSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Search user accounts by name or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _, err := newController()
			if err != nil {
				return err
			}

			res := ctrl.SearchUsers(args[0])
			if !res.OK {
				return resultErr(res)
			}

			printUsers(res.Users)
			return nil
		},
	}
}

func newUsersStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <user-id>",
		Short: "Show note and tag counts for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _, err := newController()
			if err != nil {
				return err
			}

			res := ctrl.UserStats(args[0])
			if !res.OK {
				return resultErr(res)
			}

			fmt.Printf("Notes: %d\n", res.Stats.Notes)
			fmt.Printf("Tags:  %d\n", res.Stats.Tags)
			return nil
		},
	}
}

func newUsersUpdateCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Update another user's name or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" && email == "" {
				return fmt.Errorf("nothing to update, pass --name and/or --email")
			}

			ctrl, _, err := newController()
			if err != nil {
				return err
			}

			res := ctrl.UpdateUser(args[0], name, email)
			if !res.OK {
				return resultErr(res)
			}

			fmt.Printf("✓ %s %s <%s>\n", res.Message, res.User.Name, res.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&email, "email", "", "New email address")

	return cmd
}

func newUsersDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user and all their notes and tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _, err := newController()
			if err != nil {
				return err
			}

			if !yes {
				ok, err := confirm(fmt.Sprintf("Delete user %s and all their content", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Aborted")
					return nil
				}
			}

			res := ctrl.DeleteUser(args[0])
			if !res.OK {
				return resultErr(res)
			}

			fmt.Printf("✓ %s\n", res.Message)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")

	return cmd
}

func printUsers(users []api.User) {
	for _, u := range users {
		fmt.Printf("%-26s  %-8s  %s <%s>\n", u.ID, u.Role, u.Name, u.Email)
	}
}
