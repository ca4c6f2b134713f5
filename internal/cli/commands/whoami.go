package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noteward-dev/noteward/internal/routes"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session and accessible views",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := newController()
			if err != nil {
				return err
			}

			rec, authenticated := store.Current()
			if !authenticated {
				fmt.Println("Not signed in")
				return nil
			}

			fmt.Printf("User:  %s (%s)\n", rec.Name, rec.Email)
			fmt.Printf("ID:    %s\n", rec.UserID)
			fmt.Printf("Role:  %s\n", rec.Role)

			fmt.Println("Views:")
			snapshot := routes.SnapshotFrom(store)
			for _, route := range routes.Table {
				decision := routes.Evaluate(route, snapshot)
				if decision.Allow {
					fmt.Printf("  %-12s %s\n", route.Name, route.Path)
				}
			}

			return nil
		},
	}
}
