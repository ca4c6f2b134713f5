package accountsim

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noteward-dev/noteward/internal/api"
)

type simRig struct {
	sim    *Sim
	client *api.Client
	clock  time.Time
}

func newSimRig(t *testing.T) *simRig {
	t.Helper()

	sim := New(zerolog.Nop())
	server := httptest.NewServer(sim.Handler())
	t.Cleanup(server.Close)

	rig := &simRig{
		sim:   sim,
		clock: time.Now(),
	}
	sim.SetClock(func() time.Time { return rig.clock })
	rig.client = api.New(server.URL, 2*time.Second, zerolog.Nop())
	return rig
}

func TestOTP_Expiry(t *testing.T) {
	rig := newSimRig(t)

	res, err := rig.client.InitiateRegister("ada@example.com", "Ada")
	require.NoError(t, err)
	otp := rig.sim.LastOTP(res.UserID)

	rig.clock = rig.clock.Add(11 * time.Minute)

	_, err = rig.client.VerifyRegistration(res.UserID, otp, "hunter2", "Ada")
	require.Error(t, err)
	require.True(t, api.IsAPIError(err))
	assert.Contains(t, err.Error(), "expired")
}

func TestOTP_AttemptCap(t *testing.T) {
	rig := newSimRig(t)

	res, err := rig.client.InitiateRegister("ada@example.com", "Ada")
	require.NoError(t, err)
	otp := rig.sim.LastOTP(res.UserID)

	bad := "000000"
	if otp == bad {
		bad = "111111"
	}

	for i := 0; i < maxOTPAttempts; i++ {
		_, err = rig.client.VerifyRegistration(res.UserID, bad, "hunter2", "Ada")
		require.Error(t, err)
	}

	// Even the correct code is refused once attempts run out
	_, err = rig.client.VerifyRegistration(res.UserID, otp, "hunter2", "Ada")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Too many attempts")
}

func TestResend_Throttled(t *testing.T) {
	rig := newSimRig(t)

	res, err := rig.client.InitiateRegister("ada@example.com", "Ada")
	require.NoError(t, err)

	_, err = rig.client.ResendOTP(res.UserID)
	require.Error(t, err, "resend inside the cooldown must be throttled")

	rig.clock = rig.clock.Add(resendCooldown + time.Second)

	_, err = rig.client.ResendOTP(res.UserID)
	require.NoError(t, err)
	assert.NotEmpty(t, rig.sim.LastOTP(res.UserID))
}

func TestRegister_VerifiedEmailRejected(t *testing.T) {
	rig := newSimRig(t)
	rig.sim.SeedAccount("Ada", "ada@example.com", "hunter2", "user", true)

	_, err := rig.client.InitiateRegister("ada@example.com", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegister_UnfinishedAccountIsReused(t *testing.T) {
	rig := newSimRig(t)

	first, err := rig.client.InitiateRegister("ada@example.com", "Ada")
	require.NoError(t, err)
	require.True(t, first.IsNewUser)

	rig.clock = rig.clock.Add(time.Minute)

	second, err := rig.client.InitiateRegister("ada@example.com", "Ada")
	require.NoError(t, err)
	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.UserID, second.UserID)
}

func TestEmailChange_TakenAddressRejected(t *testing.T) {
	rig := newSimRig(t)
	userID := rig.sim.SeedAccount("Ada", "ada@example.com", "hunter2", "user", true)
	rig.sim.SeedAccount("Bob", "bob@example.com", "hunter2", "user", true)

	_, err := rig.client.InitiateEmailChange(userID, "bob@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in use")
}

func TestSeedAccount_RejectsBlankCredentials(t *testing.T) {
	rig := newSimRig(t)

	assert.Panics(t, func() { rig.sim.SeedAccount("Ada", "", "hunter2", "user", true) })
	assert.Panics(t, func() { rig.sim.SeedAccount("Ada", "ada@example.com", "", "user", true) })
}

func TestOTPBinding_RejectsMalformedCodes(t *testing.T) {
	rig := newSimRig(t)

	res, err := rig.client.InitiateRegister("ada@example.com", "Ada")
	require.NoError(t, err)

	_, err = rig.client.VerifyRegistration(res.UserID, "12ab56", "hunter2", "Ada")
	require.Error(t, err)
	require.True(t, api.IsAPIError(err))

	_, err = rig.client.VerifyRegistration(res.UserID, "123", "hunter2", "Ada")
	require.Error(t, err)
}
