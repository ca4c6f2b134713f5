package commands

import (
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/noteward-dev/noteward/internal/accountsim"
	"github.com/noteward-dev/noteward/internal/session"
)

func TestLoginCommand_Structure(t *testing.T) {
	cmd := NewLoginCmd()

	if cmd.Use != "login" {
		t.Errorf("expected Use to be 'login', got %s", cmd.Use)
	}

	if cmd.Flags().Lookup("email") == nil {
		t.Error("expected --email flag to exist")
	}
	if cmd.Flags().Lookup("password") == nil {
		t.Error("expected --password flag to exist")
	}
}

func TestLoginCommand_MissingEmail(t *testing.T) {
	t.Setenv("NOTEWARD_EMAIL", "")
	t.Setenv("NOTEWARD_PASSWORD", "")

	err := runLogin("", "")
	if err == nil {
		t.Fatal("expected error when email is missing, got nil")
	}

	expectedError := "email is required (use --email flag or NOTEWARD_EMAIL env var)"
	if err.Error() != expectedError {
		t.Errorf("expected error '%s', got '%s'", expectedError, err.Error())
	}
}

func TestRegisterCommand_MissingEmail(t *testing.T) {
	t.Setenv("NOTEWARD_EMAIL", "")

	if err := runRegister("", ""); err == nil {
		t.Error("expected error when email is missing, got nil")
	}
}

func TestLoginCommand_FullLogin(t *testing.T) {
	sim := accountsim.New(zerolog.Nop())
	sim.SeedAccount("Test User", "test@example.com", "password123", "user", true)

	server := httptest.NewServer(sim.Handler())
	defer server.Close()

	t.Setenv("NOTEWARD_API_URL", server.URL)
	t.Setenv("NOTEWARD_CONFIG_DIR", t.TempDir())

	if err := runLogin("test@example.com", "password123"); err != nil {
		t.Fatalf("runLogin: %v", err)
	}

	store, err := session.NewFileStore()
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if !store.IsAuthenticated() {
		t.Error("login should persist an authenticated session")
	}
	id, ok := store.CurrentUserID()
	if !ok || id == "" {
		t.Error("login should persist the user id")
	}
}

func TestLoginCommand_BadCredentials(t *testing.T) {
	sim := accountsim.New(zerolog.Nop())
	sim.SeedAccount("Test User", "test@example.com", "password123", "user", true)

	server := httptest.NewServer(sim.Handler())
	defer server.Close()

	t.Setenv("NOTEWARD_API_URL", server.URL)
	t.Setenv("NOTEWARD_CONFIG_DIR", t.TempDir())

	if err := runLogin("test@example.com", "wrong"); err == nil {
		t.Fatal("expected login to fail with bad credentials")
	}

	store, err := session.NewFileStore()
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if store.IsAuthenticated() {
		t.Error("failed login must not persist a session")
	}
}

func TestForgotPasswordCommand_MissingEmail(t *testing.T) {
	t.Setenv("NOTEWARD_EMAIL", "")

	if err := runForgotPassword(""); err == nil {
		t.Error("expected error when email is missing, got nil")
	}
}
