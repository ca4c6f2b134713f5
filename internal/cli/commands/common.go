package commands

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/noteward-dev/noteward/internal/account"
	"github.com/noteward-dev/noteward/internal/api"
	"github.com/noteward-dev/noteward/internal/config"
	"github.com/noteward-dev/noteward/internal/logger"
	"github.com/noteward-dev/noteward/internal/session"
)

// newController wires config, logging, the session store and the API client.
// This is common setup used by every command.
func newController() (*account.Controller, session.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	store, err := session.NewFileStore()
	if err != nil {
		return nil, nil, err
	}

	client := api.New(cfg.API.URL, cfg.API.Timeout, logger.Logger)
	return account.New(client, store, logger.Logger), store, nil
}

// resultErr converts a failed controller result into a command error
func resultErr(r account.Result) error {
	if r.NetworkError {
		return fmt.Errorf("%s (the service may be down, try again)", r.Error)
	}
	return errors.New(r.Error)
}

// promptPassword reads a password without echo
func promptPassword(label string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use a flag or env var)")
	}

	fmt.Printf("%s: ", label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println() // New line after password input

	return string(raw), nil
}

// promptOTP reads the six-digit code sent to the user's email
func promptOTP() (string, error) {
	prompt := promptui.Prompt{
		Label: "Verification code",
		Validate: func(input string) error {
			if len(input) != 6 {
				return fmt.Errorf("the code is 6 digits")
			}
			for _, ch := range input {
				if ch < '0' || ch > '9' {
					return fmt.Errorf("the code contains digits only")
				}
			}
			return nil
		},
	}
	return prompt.Run()
}

// confirm asks a yes/no question, defaulting to no
func confirm(label string) (bool, error) {
	sel := promptui.Select{
		Label: label,
		Items: []string{"No", "Yes"},
	}
	_, answer, err := sel.Run()
	if err != nil {
		return false, err
	}
	return answer == "Yes", nil
}
