package account

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteward-dev/noteward/internal/accountsim"
	"github.com/noteward-dev/noteward/internal/api"
	"github.com/noteward-dev/noteward/internal/session"
)

type testRig struct {
	sim   *accountsim.Sim
	store *session.MemStore
	ctrl  *Controller
	clock time.Time
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	sim := accountsim.New(zerolog.Nop())
	server := httptest.NewServer(sim.Handler())
	t.Cleanup(server.Close)

	rig := &testRig{
		sim:   sim,
		store: session.NewMemStore(),
		clock: time.Now(),
	}
	sim.SetClock(func() time.Time { return rig.clock })

	client := api.New(server.URL, 2*time.Second, zerolog.Nop())
	rig.ctrl = New(client, rig.store, zerolog.Nop())
	return rig
}

// wrongOTP returns a code that is guaranteed not to match
func wrongOTP(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestRegistrationFlow(t *testing.T) {
	rig := newTestRig(t)

	res := rig.ctrl.StartRegistration("ada@example.com", "Ada")
	require.True(t, res.OK, res.Error)
	require.NotEmpty(t, res.UserID)
	userID := res.UserID

	// A wrong code fails and leaves the session unauthenticated
	otp := rig.sim.LastOTP(userID)
	res = rig.ctrl.CompleteRegistration(wrongOTP(otp), "hunter2", "Ada")
	require.False(t, res.OK)
	assert.False(t, rig.store.IsAuthenticated(), "failed OTP must not authenticate")

	// The flow stays pending: the correct code still works
	res = rig.ctrl.CompleteRegistration(otp, "hunter2", "Ada")
	require.True(t, res.OK, res.Error)

	assert.True(t, rig.store.IsAuthenticated())
	id, ok := rig.store.CurrentUserID()
	require.True(t, ok)
	assert.Equal(t, userID, id, "session identity must match the initiating call")

	rec, _ := rig.store.Current()
	assert.Equal(t, "Ada", rec.Name)
	assert.Equal(t, "ada@example.com", rec.Email)
	assert.Equal(t, session.RoleUser, rec.Role)
}

func TestRegistration_CompleteWithoutInitiate(t *testing.T) {
	rig := newTestRig(t)

	res := rig.ctrl.CompleteRegistration("123456", "pw", "")
	require.False(t, res.OK)
	assert.Contains(t, res.Error, "no verification is pending")
	assert.False(t, rig.store.IsAuthenticated())
}

func TestRegistration_InitiateWhileInFlight(t *testing.T) {
	rig := newTestRig(t)

	// Simulate a request still in flight for the same purpose
	rig.ctrl.inflight[PurposeRegister] = true

	res := rig.ctrl.StartRegistration("ada@example.com", "Ada")
	require.False(t, res.OK)
	assert.Equal(t, ErrFlowBusy.Error(), res.Error)
}

func TestRegistration_ResendKeepsTicketCorrelation(t *testing.T) {
	rig := newTestRig(t)

	res := rig.ctrl.StartRegistration("ada@example.com", "Ada")
	require.True(t, res.OK, res.Error)
	userID := res.UserID

	ticketBefore, err := rig.ctrl.Flow(PurposeRegister).Pending()
	require.NoError(t, err)

	// Past the resend cooldown
	rig.clock = rig.clock.Add(31 * time.Second)

	res = rig.ctrl.ResendRegistrationOTP()
	require.True(t, res.OK, res.Error)

	ticketAfter, err := rig.ctrl.Flow(PurposeRegister).Pending()
	require.NoError(t, err)
	assert.Equal(t, ticketBefore.ID, ticketAfter.ID, "resend must not replace the ticket")

	// The fresh code completes the same flow
	res = rig.ctrl.CompleteRegistration(rig.sim.LastOTP(userID), "hunter2", "Ada")
	require.True(t, res.OK, res.Error)
	assert.True(t, rig.store.IsAuthenticated())
}

func TestLogin_Success(t *testing.T) {
	rig := newTestRig(t)
	rig.sim.SeedAccount("Ada", "ada@example.com", "hunter2", "admin", true)

	res := rig.ctrl.Login("ada@example.com", "hunter2")
	require.True(t, res.OK, res.Error)

	assert.True(t, rig.store.IsAuthenticated())
	rec, _ := rig.store.Current()
	assert.Equal(t, session.RoleAdmin, rec.Role)
}

func TestLogin_BadCredentials(t *testing.T) {
	rig := newTestRig(t)
	rig.sim.SeedAccount("Ada", "ada@example.com", "hunter2", "user", true)

	res := rig.ctrl.Login("ada@example.com", "wrong")
	require.False(t, res.OK)
	assert.False(t, res.NetworkError, "a rejection is not a transport failure")
	assert.NotEmpty(t, res.Error)
	assert.False(t, rig.store.IsAuthenticated())
}

func TestLogin_RequiresVerification(t *testing.T) {
	rig := newTestRig(t)
	userID := rig.sim.SeedAccount("Ada", "ada@example.com", "hunter2", "user", false)

	res := rig.ctrl.Login("ada@example.com", "hunter2")
	require.False(t, res.OK)
	require.True(t, res.RequiresVerification)
	assert.Equal(t, userID, res.UserID)
	assert.False(t, rig.store.IsAuthenticated(), "requires-verification must not authenticate")

	// The register flow was adopted without a fresh initiate call
	ticket, err := rig.ctrl.Flow(PurposeRegister).Pending()
	require.NoError(t, err)
	assert.Equal(t, userID, ticket.UserID)

	res = rig.ctrl.VerifyPendingEmail(rig.sim.LastOTP(userID))
	require.True(t, res.OK, res.Error)
	assert.True(t, rig.store.IsAuthenticated())

	id, ok := rig.store.CurrentUserID()
	require.True(t, ok)
	assert.Equal(t, userID, id)
}

func TestLogout(t *testing.T) {
	rig := newTestRig(t)
	rig.sim.SeedAccount("Ada", "ada@example.com", "hunter2", "user", true)

	res := rig.ctrl.Login("ada@example.com", "hunter2")
	require.True(t, res.OK, res.Error)

	res = rig.ctrl.Logout()
	require.True(t, res.OK, res.Error)

	assert.False(t, rig.store.IsAuthenticated())
	id, ok := rig.store.CurrentUserID()
	assert.False(t, ok, "logout must not leave a stale id, got %q", id)
}

func TestPasswordResetFlow_NeverAuthenticates(t *testing.T) {
	rig := newTestRig(t)
	userID := rig.sim.SeedAccount("Ada", "ada@example.com", "hunter2", "user", true)

	res := rig.ctrl.StartPasswordReset("ada@example.com")
	require.True(t, res.OK, res.Error)
	assert.Equal(t, userID, res.UserID)

	res = rig.ctrl.CompletePasswordReset(rig.sim.LastOTP(userID), "newpass")
	require.True(t, res.OK, res.Error)
	assert.Equal(t, "ada@example.com", res.Email)

	// Deliberate asymmetry with registration: the user still has to log in
	assert.False(t, rig.store.IsAuthenticated())

	res = rig.ctrl.Login("ada@example.com", "newpass")
	require.True(t, res.OK, res.Error)
}

func TestPasswordReset_UnknownEmail(t *testing.T) {
	rig := newTestRig(t)

	res := rig.ctrl.StartPasswordReset("ghost@example.com")
	require.False(t, res.OK)
	assert.NotEmpty(t, res.Error)
}

func TestEmailChangeFlow_PatchesOnlyEmail(t *testing.T) {
	rig := newTestRig(t)
	userID := rig.sim.SeedAccount("Ada", "ada@example.com", "hunter2", "admin", true)

	res := rig.ctrl.Login("ada@example.com", "hunter2")
	require.True(t, res.OK, res.Error)

	before, _ := rig.store.Current()

	res = rig.ctrl.StartEmailChange("ada@new.example.com")
	require.True(t, res.OK, res.Error)

	res = rig.ctrl.CompleteEmailChange(rig.sim.LastOTP(userID))
	require.True(t, res.OK, res.Error)

	after, authenticated := rig.store.Current()
	assert.True(t, authenticated)
	assert.Equal(t, "ada@new.example.com", after.Email)
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Role, after.Role)
	assert.Equal(t, before.UserID, after.UserID)
}

func TestEmailChange_RequiresSession(t *testing.T) {
	rig := newTestRig(t)

	res := rig.ctrl.StartEmailChange("new@example.com")
	require.False(t, res.OK)
	assert.Contains(t, res.Error, "not signed in")
}

func TestChangePassword(t *testing.T) {
	rig := newTestRig(t)
	rig.sim.SeedAccount("Ada", "ada@example.com", "hunter2", "user", true)

	res := rig.ctrl.Login("ada@example.com", "hunter2")
	require.True(t, res.OK, res.Error)

	res = rig.ctrl.ChangePassword("wrong", "next")
	require.False(t, res.OK)

	res = rig.ctrl.ChangePassword("hunter2", "next")
	require.True(t, res.OK, res.Error)

	rig.ctrl.Logout()
	res = rig.ctrl.Login("ada@example.com", "next")
	require.True(t, res.OK, res.Error)
}

func TestUpdateProfile_WritesThrough(t *testing.T) {
	rig := newTestRig(t)
	rig.sim.SeedAccount("Ada", "ada@example.com", "hunter2", "user", true)

	res := rig.ctrl.Login("ada@example.com", "hunter2")
	require.True(t, res.OK, res.Error)

	res = rig.ctrl.UpdateProfile("Ada Lovelace", "")
	require.True(t, res.OK, res.Error)

	rec, authenticated := rig.store.Current()
	assert.True(t, authenticated)
	assert.Equal(t, "Ada Lovelace", rec.Name)
	assert.Equal(t, "ada@example.com", rec.Email, "email untouched when not part of the update")
}

func TestUpdateProfile_NotifiesEachChangedField(t *testing.T) {
	rig := newTestRig(t)
	rig.sim.SeedAccount("Ada", "ada@example.com", "hunter2", "user", true)

	res := rig.ctrl.Login("ada@example.com", "hunter2")
	require.True(t, res.OK, res.Error)

	res = rig.ctrl.UpdateProfile("Ada Lovelace", "ada@new.example.com")
	require.True(t, res.OK, res.Error)

	assert.Equal(t, []string{"name", "email"}, rig.sim.SentNotifications(),
		"a combined update confirms each changed field")
}

func TestNetworkFailureOutcome(t *testing.T) {
	store := session.NewMemStore()
	client := api.New("http://127.0.0.1:1", time.Second, zerolog.Nop())
	ctrl := New(client, store, zerolog.Nop())

	res := ctrl.StartRegistration("ada@example.com", "Ada")
	require.False(t, res.OK)
	assert.True(t, res.NetworkError, "transport failures must be marked retryable")
	assert.False(t, store.IsAuthenticated())
}

func TestAdminOperations(t *testing.T) {
	rig := newTestRig(t)
	rig.sim.SeedAccount("Root", "root@example.com", "hunter2", "admin", true)
	targetID := rig.sim.SeedAccount("Ada", "ada@example.com", "hunter2", "user", true)

	res := rig.ctrl.Login("root@example.com", "hunter2")
	require.True(t, res.OK, res.Error)

	res = rig.ctrl.ListUsers()
	require.True(t, res.OK, res.Error)
	assert.Len(t, res.Users, 2)

	res = rig.ctrl.SearchUsers("ada")
	require.True(t, res.OK, res.Error)
	require.Len(t, res.Users, 1)
	assert.Equal(t, targetID, res.Users[0].ID)

	res = rig.ctrl.GetUser(targetID)
	require.True(t, res.OK, res.Error)
	require.NotNil(t, res.User)
	assert.Equal(t, "ada@example.com", res.User.Email)

	res = rig.ctrl.UpdateUser(targetID, "Ada Lovelace", "")
	require.True(t, res.OK, res.Error)
	require.NotNil(t, res.User)
	assert.Equal(t, "Ada Lovelace", res.User.Name)
	assert.Equal(t, "ada@example.com", res.User.Email, "email untouched when not part of the update")

	res = rig.ctrl.UserStats(targetID)
	require.True(t, res.OK, res.Error)
	require.NotNil(t, res.Stats)

	res = rig.ctrl.DeleteUser(targetID)
	require.True(t, res.OK, res.Error)

	res = rig.ctrl.ListUsers()
	require.True(t, res.OK, res.Error)
	assert.Len(t, res.Users, 1)
}

func TestAdminOperations_RejectedForPlainUsers(t *testing.T) {
	rig := newTestRig(t)
	rig.sim.SeedAccount("Ada", "ada@example.com", "hunter2", "user", true)

	res := rig.ctrl.Login("ada@example.com", "hunter2")
	require.True(t, res.OK, res.Error)

	res = rig.ctrl.ListUsers()
	require.False(t, res.OK)
	assert.Contains(t, res.Error, "admin access required")

	res = rig.ctrl.GetUser("someone")
	require.False(t, res.OK)
	assert.Contains(t, res.Error, "admin access required")

	res = rig.ctrl.UpdateUser("someone", "Name", "")
	require.False(t, res.OK)
	assert.Contains(t, res.Error, "admin access required")

	res = rig.ctrl.DeleteUser("someone")
	require.False(t, res.OK)
}
