package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noteward-dev/noteward/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "noteward",
	Short: "Noteward - account client for the Noteward note-taking service",
	Long: `Noteward CLI - Manage your Noteward account.

Every sensitive account operation (registration, login, password reset,
email change) goes through a one-time passcode sent to your email.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("noteward version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewRegisterCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewForgotPasswordCmd())
	rootCmd.AddCommand(commands.NewPasswordCmd())
	rootCmd.AddCommand(commands.NewProfileCmd())
	rootCmd.AddCommand(commands.NewChangeEmailCmd())
	rootCmd.AddCommand(commands.NewUsersCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
