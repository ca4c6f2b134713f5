package accountsim

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type userJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toUserJSON(a *Account) userJSON {
	return userJSON{ID: a.ID, Name: a.Name, Email: a.Email, Role: a.Role}
}

func (s *Sim) routes(router *gin.Engine) {
	users := router.Group("/api/users")
	{
		users.POST("/login", s.login)
		users.POST("/register", s.initiateRegister)
		users.POST("/verify-register", s.verifyRegister)
		users.POST("/resend-otp", s.resendOTP)
		users.POST("/verify-email", s.verifyEmail)
		users.POST("/forgot-password", s.forgotPassword)
		users.POST("/reset-password", s.resetPassword)
		users.POST("/initiate-email-change", s.initiateEmailChange)
		users.POST("/verify-email-change", s.verifyEmailChange)
		users.POST("/send-notification", s.sendNotification)

		users.GET("", s.listUsers)
		users.GET("/search", s.searchUsers)
		users.GET("/:id", s.getUser)
		users.GET("/:id/stats", s.userStats)
		users.PUT("/:id", s.updateUser)
		users.PATCH("/:id/password", s.changePassword)
		users.DELETE("/:id", s.deleteUser)
	}
}

func otpFailure(c *gin.Context, err error) {
	switch err {
	case ErrCodeExpired:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code expired, please request a new one"})
	case ErrTooManyAttempts:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Too many attempts, please request a new one"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid verification code"})
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *Sim) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[req.Email]
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	acct := s.accounts[id]

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	// Unverified accounts short-circuit into the OTP step instead of failing
	if !acct.Verified {
		s.issueOTP(acct.ID)
		c.JSON(http.StatusOK, gin.H{
			"requiresVerification": true,
			"userId":               acct.ID,
			"message":              "Please verify your email first. A new code has been sent.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserJSON(acct)})
}

// RegisterRequest represents the registration initiation request
type RegisterRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}

func (s *Sim) initiateRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byEmail[req.Email]; ok {
		acct := s.accounts[id]
		if acct.Verified {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email is already registered"})
			return
		}

		// Unfinished registration: reuse the account and send a fresh code
		s.issueOTP(acct.ID)
		c.JSON(http.StatusOK, gin.H{
			"userId":    acct.ID,
			"isNewUser": false,
			"message":   "A new verification code has been sent to your email",
		})
		return
	}

	acct := &Account{
		ID:    newID(),
		Name:  req.Name,
		Email: req.Email,
		Role:  "user",
	}
	s.accounts[acct.ID] = acct
	s.byEmail[acct.Email] = acct.ID
	s.issueOTP(acct.ID)

	c.JSON(http.StatusOK, gin.H{
		"userId":    acct.ID,
		"isNewUser": true,
		"message":   "A verification code has been sent to your email",
	})
}

// VerifyRegisterRequest completes registration with the OTP
type VerifyRegisterRequest struct {
	UserID   string `json:"userId" binding:"required"`
	OTP      string `json:"otp" binding:"required,otp"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

func (s *Sim) verifyRegister(c *gin.Context) {
	var req VerifyRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[req.UserID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return
	}

	if err := s.checkOTP(req.UserID, req.OTP); err != nil {
		otpFailure(c, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	acct.PasswordHash = string(hash)
	if req.Name != "" {
		acct.Name = req.Name
	}
	acct.Verified = true

	s.log.Info().Str("user_id", acct.ID).Msg("Registration verified")
	c.JSON(http.StatusOK, gin.H{
		"message": "Registration complete",
		"user":    toUserJSON(acct),
	})
}

// ResendOTPRequest asks for a fresh code
type ResendOTPRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (s *Sim) resendOTP(c *gin.Context) {
	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[req.UserID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return
	}

	if ch, ok := s.otps[req.UserID]; ok && s.now().Sub(ch.SentAt) < resendCooldown {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, try again later"})
		return
	}

	s.issueOTP(req.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "A new verification code has been sent to your email"})
}

// VerifyEmailRequest verifies an existing account's email
type VerifyEmailRequest struct {
	UserID string `json:"userId" binding:"required"`
	OTP    string `json:"otp" binding:"required,otp"`
}

func (s *Sim) verifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[req.UserID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return
	}

	if err := s.checkOTP(req.UserID, req.OTP); err != nil {
		otpFailure(c, err)
		return
	}

	acct.Verified = true
	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified",
		"user":    toUserJSON(acct),
	})
}

// ForgotPasswordRequest initiates a password reset
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (s *Sim) forgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[req.Email]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No account found with this email"})
		return
	}

	s.issueOTP(id)
	c.JSON(http.StatusOK, gin.H{
		"userId":  id,
		"message": "A password reset code has been sent to your email",
	})
}

// ResetPasswordRequest completes a password reset
type ResetPasswordRequest struct {
	UserID      string `json:"userId" binding:"required"`
	OTP         string `json:"otp" binding:"required,otp"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (s *Sim) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[req.UserID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return
	}

	if err := s.checkOTP(req.UserID, req.OTP); err != nil {
		otpFailure(c, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset password"})
		return
	}
	acct.PasswordHash = string(hash)

	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset successfully",
		"email":   acct.Email,
	})
}

// InitiateEmailChangeRequest sends an OTP to the requested new address
type InitiateEmailChangeRequest struct {
	UserID   string `json:"userId" binding:"required"`
	NewEmail string `json:"newEmail" binding:"required,email"`
}

func (s *Sim) initiateEmailChange(c *gin.Context) {
	var req InitiateEmailChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[req.UserID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return
	}

	if _, taken := s.byEmail[req.NewEmail]; taken {
		c.JSON(http.StatusConflict, gin.H{"error": "Email is already in use"})
		return
	}

	s.pendingEmail[req.UserID] = req.NewEmail
	s.issueOTP(req.UserID)
	c.JSON(http.StatusOK, gin.H{"message": "A verification code has been sent to the new email"})
}

// VerifyEmailChangeRequest completes the email change
type VerifyEmailChangeRequest struct {
	UserID   string `json:"userId" binding:"required"`
	OTP      string `json:"otp" binding:"required,otp"`
	NewEmail string `json:"newEmail" binding:"required,email"`
}

func (s *Sim) verifyEmailChange(c *gin.Context) {
	var req VerifyEmailChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[req.UserID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return
	}

	if s.pendingEmail[req.UserID] != req.NewEmail {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No email change was requested for this address"})
		return
	}

	if err := s.checkOTP(req.UserID, req.OTP); err != nil {
		otpFailure(c, err)
		return
	}

	delete(s.byEmail, acct.Email)
	acct.Email = req.NewEmail
	s.byEmail[acct.Email] = acct.ID
	delete(s.pendingEmail, req.UserID)

	s.log.Info().Str("user_id", acct.ID).Msg("Email changed")
	c.JSON(http.StatusOK, gin.H{"message": "Email address updated"})
}

// NotificationRequest asks for a profile-change confirmation email
type NotificationRequest struct {
	Type  string `json:"type" binding:"required,oneof=password email name"`
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}

func (s *Sim) sendNotification(c *gin.Context) {
	var req NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.notices = append(s.notices, req.Type)
	s.mu.Unlock()

	s.log.Debug().Str("type", req.Type).Str("email", req.Email).Msg("Notification email sent")
	c.JSON(http.StatusOK, gin.H{"message": "Notification email sent"})
}

// ChangePasswordRequest changes a password with the current one
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (s *Sim) changePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}
	acct.PasswordHash = string(hash)

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// UpdateUserRequest updates profile fields
type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
}

func (s *Sim) updateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return
	}

	if req.Email != "" && req.Email != acct.Email {
		if _, taken := s.byEmail[req.Email]; taken {
			c.JSON(http.StatusConflict, gin.H{"error": "Email is already in use"})
			return
		}
		delete(s.byEmail, acct.Email)
		acct.Email = req.Email
		s.byEmail[acct.Email] = acct.ID
	}
	if req.Name != "" {
		acct.Name = req.Name
	}

	c.JSON(http.StatusOK, toUserJSON(acct))
}

func (s *Sim) listUsers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]userJSON, 0, len(s.accounts))
	for _, acct := range s.accounts {
		users = append(users, toUserJSON(acct))
	}
	c.JSON(http.StatusOK, users)
}

func (s *Sim) searchUsers(c *gin.Context) {
	keyword := strings.ToLower(c.Query("keyword"))

	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]userJSON, 0)
	for _, acct := range s.accounts {
		if strings.Contains(strings.ToLower(acct.Name), keyword) ||
			strings.Contains(strings.ToLower(acct.Email), keyword) {
			users = append(users, toUserJSON(acct))
		}
	}
	c.JSON(http.StatusOK, users)
}

func (s *Sim) getUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return
	}
	c.JSON(http.StatusOK, toUserJSON(acct))
}

func (s *Sim) userStats(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notes": acct.Notes, "tags": acct.Tags})
}

func (s *Sim) deleteUser(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return
	}

	delete(s.accounts, acct.ID)
	delete(s.byEmail, acct.Email)
	delete(s.otps, acct.ID)
	delete(s.pendingEmail, acct.ID)

	s.log.Info().
		Str("user_id", acct.ID).
		Str("admin_id", c.Query("adminId")).
		Str("admin_name", c.Query("adminName")).
		Bool("cascade", c.Query("cascade") == "true").
		Msg("User deleted")

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
