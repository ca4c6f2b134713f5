// Package account orchestrates the multi-step verification flows against the
// account service and owns every write to the session store. Side effects are
// committed only on final success of a flow.
package account

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noteward-dev/noteward/internal/api"
	"github.com/noteward-dev/noteward/internal/session"
)

// Controller sequences registration, password-reset and email-change flows
type Controller struct {
	api   *api.Client
	store session.Store
	log   zerolog.Logger

	flows    map[Purpose]*Flow
	inflight map[Purpose]bool
}

// New creates a controller over a verification channel and a session store
func New(client *api.Client, store session.Store, log zerolog.Logger) *Controller {
	return &Controller{
		api:   client,
		store: store,
		log:   log,
		flows: map[Purpose]*Flow{
			PurposeRegister:       newFlow(PurposeRegister),
			PurposeForgotPassword: newFlow(PurposeForgotPassword),
			PurposeChangeEmail:    newFlow(PurposeChangeEmail),
		},
		inflight: make(map[Purpose]bool),
	}
}

// Flow exposes the state machine for a purpose, mainly so consumers can
// render where the user is within a flow
func (c *Controller) Flow(p Purpose) *Flow {
	return c.flows[p]
}

// beginInitiate rejects a new initiating call while one for the same purpose
// is still in flight. Double submits must not race a pending ticket.
func (c *Controller) beginInitiate(p Purpose) error {
	if c.inflight[p] {
		return ErrFlowBusy
	}
	c.inflight[p] = true
	return nil
}

func (c *Controller) endInitiate(p Purpose) {
	c.inflight[p] = false
}

// commitSession writes an authenticated record from a user returned by the
// service. This is the only path that sets the authenticated flag.
func (c *Controller) commitSession(user *api.User) error {
	return c.store.Set(session.Record{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   session.ParseRole(user.Role),
	})
}

// StartRegistration initiates registration; on success an OTP has been sent
// to the email and the register flow is pending
func (c *Controller) StartRegistration(email, name string) Result {
	if err := c.beginInitiate(PurposeRegister); err != nil {
		return fail(err)
	}
	defer c.endInitiate(PurposeRegister)

	res, err := c.api.InitiateRegister(email, name)
	if err != nil {
		return fail(err)
	}

	t := c.flows[PurposeRegister].Begin(res.UserID, "")
	c.log.Info().Str("ticket", t.ID).Str("user_id", res.UserID).Msg("Registration OTP issued")

	r := ok(res.Message)
	r.UserID = res.UserID
	return r
}

// CompleteRegistration verifies the OTP and completes registration. On
// success the session record is written authenticated and the ticket is
// consumed; on failure the flow stays pending so the user can retry.
func (c *Controller) CompleteRegistration(otp, password, name string) Result {
	t, err := c.flows[PurposeRegister].Pending()
	if err != nil {
		return fail(err)
	}

	user, err := c.api.VerifyRegistration(t.UserID, otp, password, name)
	if err != nil {
		return fail(err)
	}

	if err := c.commitSession(user); err != nil {
		return fail(err)
	}
	_ = c.flows[PurposeRegister].Complete()

	c.log.Info().Str("ticket", t.ID).Str("user_id", user.ID).Msg("Registration completed")

	r := ok("Registration complete")
	r.User = user
	return r
}

// VerifyPendingEmail verifies an existing unverified account with the OTP.
// Used after login short-circuits with requires-verification.
func (c *Controller) VerifyPendingEmail(otp string) Result {
	t, err := c.flows[PurposeRegister].Pending()
	if err != nil {
		return fail(err)
	}

	user, err := c.api.VerifyEmail(t.UserID, otp)
	if err != nil {
		return fail(err)
	}

	if err := c.commitSession(user); err != nil {
		return fail(err)
	}
	_ = c.flows[PurposeRegister].Complete()

	r := ok("Email verified")
	r.User = user
	return r
}

// ResendRegistrationOTP asks for a fresh OTP. The flow stays pending and the
// ticket correlation is unchanged.
func (c *Controller) ResendRegistrationOTP() Result {
	t, err := c.flows[PurposeRegister].Pending()
	if err != nil {
		return fail(err)
	}

	msg, err := c.api.ResendOTP(t.UserID)
	if err != nil {
		return fail(err)
	}

	c.log.Debug().Str("ticket", t.ID).Msg("OTP resent")
	return ok(msg)
}

// Login authenticates against the service. Three outcomes: an authenticated
// session, a requires-verification redirect into the pending register flow
// (no fresh initiate call), or a failure with no state change.
func (c *Controller) Login(email, password string) Result {
	res, err := c.api.Login(email, password)
	if err != nil {
		return fail(err)
	}

	if res.RequiresVerification {
		t := c.flows[PurposeRegister].Begin(res.UserID, "")
		c.log.Info().Str("ticket", t.ID).Str("user_id", res.UserID).Msg("Login requires email verification")

		return Result{
			RequiresVerification: true,
			UserID:               res.UserID,
			Message:              res.Message,
		}
	}

	if err := c.commitSession(res.User); err != nil {
		return fail(err)
	}

	r := ok("Logged in")
	r.User = res.User
	return r
}

// Logout clears the session record and abandons any unfinished flow
func (c *Controller) Logout() Result {
	if err := c.store.Clear(); err != nil {
		return fail(err)
	}
	for _, f := range c.flows {
		f.Reset()
	}
	return ok("Logged out")
}

// StartPasswordReset initiates the forgot-password flow for an email
func (c *Controller) StartPasswordReset(email string) Result {
	if err := c.beginInitiate(PurposeForgotPassword); err != nil {
		return fail(err)
	}
	defer c.endInitiate(PurposeForgotPassword)

	res, err := c.api.InitiateForgotPassword(email)
	if err != nil {
		return fail(err)
	}

	t := c.flows[PurposeForgotPassword].Begin(res.UserID, "")
	c.log.Info().Str("ticket", t.ID).Str("user_id", res.UserID).Msg("Password reset OTP issued")

	r := ok(res.Message)
	r.UserID = res.UserID
	return r
}

// CompletePasswordReset verifies the OTP and sets the new password.
// Completion never authenticates: the user still has to log in.
func (c *Controller) CompletePasswordReset(otp, newPassword string) Result {
	t, err := c.flows[PurposeForgotPassword].Pending()
	if err != nil {
		return fail(err)
	}

	res, err := c.api.ResetPassword(t.UserID, otp, newPassword)
	if err != nil {
		return fail(err)
	}
	_ = c.flows[PurposeForgotPassword].Complete()

	c.log.Info().Str("ticket", t.ID).Msg("Password reset completed")

	r := ok(res.Message)
	r.Email = res.Email
	return r
}

// StartEmailChange sends an OTP to the new address for the signed-in user
func (c *Controller) StartEmailChange(newEmail string) Result {
	userID, okID := c.store.CurrentUserID()
	if !okID {
		return fail(fmt.Errorf("not signed in: %w", api.ErrValidation))
	}

	if err := c.beginInitiate(PurposeChangeEmail); err != nil {
		return fail(err)
	}
	defer c.endInitiate(PurposeChangeEmail)

	msg, err := c.api.InitiateEmailChange(userID, newEmail)
	if err != nil {
		return fail(err)
	}

	t := c.flows[PurposeChangeEmail].Begin(userID, newEmail)
	c.log.Info().Str("ticket", t.ID).Str("user_id", userID).Msg("Email change OTP issued")

	return ok(msg)
}

// CompleteEmailChange verifies the OTP sent to the new address. On success
// only the email field of the session record is updated.
func (c *Controller) CompleteEmailChange(otp string) Result {
	t, err := c.flows[PurposeChangeEmail].Pending()
	if err != nil {
		return fail(err)
	}

	msg, err := c.api.VerifyEmailChange(t.UserID, otp, t.TargetEmail)
	if err != nil {
		return fail(err)
	}

	if err := c.store.Patch(session.Patch{Email: &t.TargetEmail}); err != nil {
		return fail(err)
	}
	_ = c.flows[PurposeChangeEmail].Complete()

	c.log.Info().Str("ticket", t.ID).Str("email", t.TargetEmail).Msg("Email change completed")

	r := ok(msg)
	r.Email = t.TargetEmail
	return r
}

// ChangePassword changes the signed-in user's password with their current one
func (c *Controller) ChangePassword(currentPassword, newPassword string) Result {
	rec, authenticated := c.store.Current()
	if !authenticated {
		return fail(fmt.Errorf("not signed in: %w", api.ErrValidation))
	}

	msg, err := c.api.ChangePassword(rec.UserID, currentPassword, newPassword)
	if err != nil {
		return fail(err)
	}

	c.notify("password", rec.Email, rec.Name)
	return ok(msg)
}

// UpdateProfile updates name and/or email on the service and writes the
// changed fields through to the session record
func (c *Controller) UpdateProfile(name, email string) Result {
	rec, authenticated := c.store.Current()
	if !authenticated {
		return fail(fmt.Errorf("not signed in: %w", api.ErrValidation))
	}
	if name == "" && email == "" {
		return fail(fmt.Errorf("nothing to update: %w", api.ErrValidation))
	}

	user, err := c.api.UpdateProfile(rec.UserID, api.ProfileUpdate{Name: name, Email: email})
	if err != nil {
		return fail(err)
	}

	var p session.Patch
	if name != "" {
		p.Name = &name
	}
	if email != "" {
		p.Email = &email
	}
	if err := c.store.Patch(p); err != nil {
		return fail(err)
	}

	// One confirmation email per changed field
	if name != "" {
		c.notify("name", user.Email, user.Name)
	}
	if email != "" {
		c.notify("email", user.Email, user.Name)
	}

	r := ok("Profile updated")
	r.User = user
	return r
}

// notify sends the profile-change confirmation email, best effort
func (c *Controller) notify(kind, email, name string) {
	if _, err := c.api.NotifyProfileChange(kind, email, name); err != nil {
		c.log.Warn().Err(err).Str("type", kind).Msg("Failed to send confirmation email")
	}
}

// adminIdentity returns the signed-in admin's record, or a validation failure
func (c *Controller) adminIdentity() (session.Record, error) {
	rec, authenticated := c.store.Current()
	if !authenticated {
		return session.Record{}, fmt.Errorf("not signed in: %w", api.ErrValidation)
	}
	if rec.Role != session.RoleAdmin {
		return session.Record{}, fmt.Errorf("admin access required: %w", api.ErrValidation)
	}
	return rec, nil
}

// ListUsers returns every account. Admin only.
func (c *Controller) ListUsers() Result {
	if _, err := c.adminIdentity(); err != nil {
		return fail(err)
	}

	users, err := c.api.ListUsers()
	if err != nil {
		return fail(err)
	}

	r := ok("")
	r.Users = users
	return r
}

// GetUser returns a single account by id. Admin only.
func (c *Controller) GetUser(userID string) Result {
	if _, err := c.adminIdentity(); err != nil {
		return fail(err)
	}

	user, err := c.api.GetUser(userID)
	if err != nil {
		return fail(err)
	}

	r := ok("")
	r.User = user
	return r
}

// SearchUsers searches accounts by keyword. Admin only.
func (c *Controller) SearchUsers(keyword string) Result {
	if _, err := c.adminIdentity(); err != nil {
		return fail(err)
	}

	users, err := c.api.SearchUsers(keyword)
	if err != nil {
		return fail(err)
	}

	r := ok("")
	r.Users = users
	return r
}

// UserStats returns note/tag counts for an account. Admin only.
func (c *Controller) UserStats(userID string) Result {
	if _, err := c.adminIdentity(); err != nil {
		return fail(err)
	}

	stats, err := c.api.GetUserStats(userID)
	if err != nil {
		return fail(err)
	}

	r := ok("")
	r.Stats = stats
	return r
}

// DeleteUser removes an account and cascades to its content. Admin only.
func (c *Controller) DeleteUser(userID string) Result {
	admin, err := c.adminIdentity()
	if err != nil {
		return fail(err)
	}

	msg, err := c.api.DeleteUser(userID, admin.UserID, admin.Name)
	if err != nil {
		return fail(err)
	}

	c.log.Info().Str("user_id", userID).Str("admin_id", admin.UserID).Msg("User deleted")
	return ok(msg)
}

// UpdateUser updates another account's profile fields. Admin only.
func (c *Controller) UpdateUser(userID, name, email string) Result {
	admin, err := c.adminIdentity()
	if err != nil {
		return fail(err)
	}

	user, err := c.api.UpdateUserAsAdmin(userID, api.ProfileUpdate{Name: name, Email: email}, admin.Name)
	if err != nil {
		return fail(err)
	}

	r := ok("User updated")
	r.User = user
	return r
}
