// Package api implements the request/response exchanges with the remote
// account service. Every operation is stateless: results are returned to the
// caller and nothing here touches the local session record.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Client represents an HTTP client for the Noteward account service
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// New creates a new account service client
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// do performs a JSON exchange with the service. Transport failures come back
// as *NetworkError, non-2xx responses as *APIError. An empty response body is
// normalized to an empty object before decoding.
func (c *Client) do(op, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Str("op", op).Msg("Account service unreachable")
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	// Absence of a body is not malformed
	if len(bytes.TrimSpace(data)) == 0 {
		data = []byte("{}")
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := errorMessage(resp.StatusCode, data)
		c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Str("message", msg).Msg("Account service rejected request")
		return &APIError{Op: op, Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s: failed to decode response: %w", op, err)
		}
	}

	return nil
}

// errorMessage extracts a user-facing message from an error response body,
// which may be a JSON object with "message"/"error", a JSON string, or raw text
func errorMessage(status int, data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil && str != "" {
		return str
	}

	if text := strings.TrimSpace(string(data)); text != "" && text != "{}" {
		return text
	}

	return fmt.Sprintf("error %d", status)
}

// User represents a user record returned by the account service
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult represents the three-way login outcome: an authenticated user
// record, or a requires-verification short-circuit carrying the user id
type LoginResult struct {
	User                 *User  `json:"user"`
	RequiresVerification bool   `json:"requiresVerification"`
	UserID               string `json:"userId"`
	Message              string `json:"message"`
}

// Login authenticates the user against the account service
func (c *Client) Login(email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("login requires email and password: %w", ErrValidation)
	}

	var res LoginResult
	if err := c.do("login", http.MethodPost, "/api/users/login", loginRequest{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}

	if !res.RequiresVerification && (res.User == nil || res.User.ID == "") {
		return nil, fmt.Errorf("login: invalid response format from service")
	}

	return &res, nil
}

type initiateRegisterRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// InitiateResult represents the outcome of an initiating call: the id of the
// account an OTP was issued for
type InitiateResult struct {
	UserID    string `json:"userId"`
	IsNewUser bool   `json:"isNewUser"`
	Message   string `json:"message"`
}

// InitiateRegister starts registration: the service issues an OTP to the email
func (c *Client) InitiateRegister(email, name string) (*InitiateResult, error) {
	if email == "" {
		return nil, fmt.Errorf("registration requires an email: %w", ErrValidation)
	}

	var res InitiateResult
	if err := c.do("initiate registration", http.MethodPost, "/api/users/register", initiateRegisterRequest{Email: email, Name: name}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type verifyRegisterRequest struct {
	UserID   string `json:"userId"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type verifyRegisterResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// VerifyRegistration completes registration with the OTP and chosen password
func (c *Client) VerifyRegistration(userID, otp, password, name string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("registration verification requires a user id: %w", ErrValidation)
	}

	var res verifyRegisterResponse
	if err := c.do("verify registration", http.MethodPost, "/api/users/verify-register", verifyRegisterRequest{
		UserID:   userID,
		OTP:      otp,
		Password: password,
		Name:     name,
	}, &res); err != nil {
		return nil, err
	}

	if res.User == nil || res.User.ID == "" {
		return nil, fmt.Errorf("verify registration: invalid response format from service")
	}
	return res.User, nil
}

type resendOTPRequest struct {
	UserID string `json:"userId"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// ResendOTP asks the service to issue a fresh OTP for a pending verification
func (c *Client) ResendOTP(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("resend requires a user id: %w", ErrValidation)
	}

	var res messageResponse
	if err := c.do("resend otp", http.MethodPost, "/api/users/resend-otp", resendOTPRequest{UserID: userID}, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

type verifyEmailRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"otp"`
}

type verifyEmailResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// VerifyEmail verifies an existing unverified account with the OTP. Used when
// login short-circuits with requiresVerification.
func (c *Client) VerifyEmail(userID, otp string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("email verification requires a user id: %w", ErrValidation)
	}

	var res verifyEmailResponse
	if err := c.do("verify email", http.MethodPost, "/api/users/verify-email", verifyEmailRequest{UserID: userID, OTP: otp}, &res); err != nil {
		return nil, err
	}

	if res.User == nil || res.User.ID == "" {
		return nil, fmt.Errorf("verify email: invalid response format from service")
	}
	return res.User, nil
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// InitiateForgotPassword starts a password reset: the service issues an OTP
func (c *Client) InitiateForgotPassword(email string) (*InitiateResult, error) {
	if email == "" {
		return nil, fmt.Errorf("password reset requires an email: %w", ErrValidation)
	}

	var res InitiateResult
	if err := c.do("forgot password", http.MethodPost, "/api/users/forgot-password", forgotPasswordRequest{Email: email}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type resetPasswordRequest struct {
	UserID      string `json:"userId"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// ResetResult reports the completed password reset and the account's email,
// so the caller can prompt the user to log in with it
type ResetResult struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// ResetPassword completes a password reset with the OTP
func (c *Client) ResetPassword(userID, otp, newPassword string) (*ResetResult, error) {
	if userID == "" {
		return nil, fmt.Errorf("password reset requires a user id: %w", ErrValidation)
	}

	var res ResetResult
	if err := c.do("reset password", http.MethodPost, "/api/users/reset-password", resetPasswordRequest{
		UserID:      userID,
		OTP:         otp,
		NewPassword: newPassword,
	}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword changes the password of an authenticated user
func (c *Client) ChangePassword(userID, currentPassword, newPassword string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("password change requires a user id: %w", ErrValidation)
	}

	var res messageResponse
	if err := c.do("change password", http.MethodPatch, fmt.Sprintf("/api/users/%s/password", userID), changePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	}, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// ProfileUpdate describes a partial profile update
type ProfileUpdate struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UpdateProfile updates the user's profile fields
func (c *Client) UpdateProfile(userID string, upd ProfileUpdate) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("profile update requires a user id: %w", ErrValidation)
	}

	var user User
	if err := c.do("update profile", http.MethodPut, fmt.Sprintf("/api/users/%s", userID), upd, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type initiateEmailChangeRequest struct {
	UserID   string `json:"userId"`
	NewEmail string `json:"newEmail"`
}

// InitiateEmailChange sends an OTP to the new email address
func (c *Client) InitiateEmailChange(userID, newEmail string) (string, error) {
	if userID == "" || newEmail == "" {
		return "", fmt.Errorf("email change requires a user id and new email: %w", ErrValidation)
	}

	var res messageResponse
	if err := c.do("initiate email change", http.MethodPost, "/api/users/initiate-email-change", initiateEmailChangeRequest{
		UserID:   userID,
		NewEmail: newEmail,
	}, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

type verifyEmailChangeRequest struct {
	UserID   string `json:"userId"`
	OTP      string `json:"otp"`
	NewEmail string `json:"newEmail"`
}

// VerifyEmailChange completes the email change with the OTP
func (c *Client) VerifyEmailChange(userID, otp, newEmail string) (string, error) {
	if userID == "" || newEmail == "" {
		return "", fmt.Errorf("email change requires a user id and new email: %w", ErrValidation)
	}

	var res messageResponse
	if err := c.do("verify email change", http.MethodPost, "/api/users/verify-email-change", verifyEmailChangeRequest{
		UserID:   userID,
		OTP:      otp,
		NewEmail: newEmail,
	}, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

type notifyRequest struct {
	Type  string `json:"type"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// NotifyProfileChange asks the service to send a confirmation email after a
// profile change. Kind is "password", "email" or "name".
func (c *Client) NotifyProfileChange(kind, email, name string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("notification requires an email: %w", ErrValidation)
	}

	var res messageResponse
	if err := c.do("send notification", http.MethodPost, "/api/users/send-notification", notifyRequest{
		Type:  kind,
		Email: email,
		Name:  name,
	}, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}
