package account

import (
	"errors"

	"github.com/noteward-dev/noteward/internal/api"
)

// Result is the uniform envelope every controller operation returns. Callers
// check OK and show Error; no error value crosses the controller boundary.
type Result struct {
	OK      bool
	Message string
	Error   string

	// NetworkError marks transport failures where a retry is sensible,
	// as opposed to service rejections
	NetworkError bool

	// RequiresVerification is set when login short-circuits because the
	// account has not completed its OTP verification yet
	RequiresVerification bool

	UserID string
	Email  string
	User   *api.User
	Users  []api.User
	Stats  *api.UserStats
}

func ok(message string) Result {
	return Result{OK: true, Message: message}
}

// fail normalizes any failure into the envelope, preserving the
// network-vs-application distinction for the caller
func fail(err error) Result {
	var ne *api.NetworkError
	if errors.As(err, &ne) {
		return Result{
			Error:        "Connection failed. Please check your network.",
			NetworkError: true,
		}
	}

	var ae *api.APIError
	if errors.As(err, &ae) {
		return Result{Error: ae.Message}
	}

	return Result{Error: err.Error()}
}
