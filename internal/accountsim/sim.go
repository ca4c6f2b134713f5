// Package accountsim is an in-memory double of the remote account service.
// It implements the full OTP contract the client speaks, backed by maps
// instead of a database, and is used by tests through httptest and by the
// simd binary for local development.
package accountsim

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/noteward-dev/noteward/internal/assert"
)

const (
	otpDigits      = 6
	otpTTL         = 10 * time.Minute
	maxOTPAttempts = 5
	resendCooldown = 30 * time.Second
)

var (
	ErrCodeExpired     = errors.New("code expired")
	ErrCodeInvalid     = errors.New("invalid code")
	ErrTooManyAttempts = errors.New("too many attempts")
)

// Account is a stored user account
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Verified     bool
	Notes        int
	Tags         int
}

// otpChallenge is one issued passcode with TTL and attempt counter
type otpChallenge struct {
	Code      string
	SentAt    time.Time
	ExpiresAt time.Time
	Attempts  int
}

// Sim holds the in-memory account service state
type Sim struct {
	log    zerolog.Logger
	router *gin.Engine

	mu           sync.Mutex
	accounts     map[string]*Account // by id
	byEmail      map[string]string   // email -> id
	otps         map[string]*otpChallenge
	pendingEmail map[string]string // id -> requested new email
	notices      []string          // notification types sent, in order

	now func() time.Time
}

// New creates an account service double
func New(log zerolog.Logger) *Sim {
	registerOTPValidation()

	s := &Sim{
		log:          log,
		accounts:     make(map[string]*Account),
		byEmail:      make(map[string]string),
		otps:         make(map[string]*otpChallenge),
		pendingEmail: make(map[string]string),
		now:          time.Now,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.routes(router)
	s.router = router

	return s
}

// registerOTPValidation adds the "otp" binding rule: exactly six digits
func registerOTPValidation() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("otp", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if len(value) != otpDigits {
			return false
		}
		for _, ch := range value {
			if ch < '0' || ch > '9' {
				return false
			}
		}
		return true
	})
}

// Handler returns the HTTP handler, for httptest or a real listener
func (s *Sim) Handler() http.Handler {
	return s.router
}

// Run serves the double on addr. Blocks.
func (s *Sim) Run(addr string) error {
	s.log.Info().Str("addr", addr).Msg("Account service double listening")
	return s.router.Run(addr)
}

// SetClock overrides the time source, for expiry and throttle tests
func (s *Sim) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SeedAccount creates a ready-made account and returns its id
func (s *Sim) SeedAccount(name, email, password, role string, verified bool) string {
	assert.NotEmpty("email", email)
	assert.NotEmpty("password", password)

	s.mu.Lock()
	defer s.mu.Unlock()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}

	acct := &Account{
		ID:           newID(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Verified:     verified,
	}
	s.accounts[acct.ID] = acct
	s.byEmail[email] = acct.ID
	return acct.ID
}

// LastOTP returns the code currently issued for a user. Test hook standing in
// for the email delivery the real service performs.
func (s *Sim) LastOTP(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.otps[userID]; ok {
		return ch.Code
	}
	return ""
}

// SentNotifications returns the types of confirmation emails sent so far.
// Test hook standing in for the mail delivery the real service performs.
func (s *Sim) SentNotifications() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.notices))
	copy(out, s.notices)
	return out
}

// newID generates a ULID account id
func newID() string {
	return ulid.Make().String()
}

// generateOTP produces a random numeric code
func generateOTP() string {
	limit := big.NewInt(1)
	for i := 0; i < otpDigits; i++ {
		limit.Mul(limit, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		panic(err)
	}

	code := fmt.Sprintf("%0*d", otpDigits, n)
	assert.Length(code, otpDigits)
	return code
}

// issueOTP creates a fresh challenge for the user, replacing any prior one.
// Caller must hold the lock.
func (s *Sim) issueOTP(userID string) {
	code := generateOTP()
	now := s.now()
	s.otps[userID] = &otpChallenge{
		Code:      code,
		SentAt:    now,
		ExpiresAt: now.Add(otpTTL),
	}
	s.log.Debug().Str("user_id", userID).Str("otp", code).Msg("OTP issued")
}

// checkOTP validates a submitted code. A failed attempt is counted; the
// challenge survives failures until it expires or runs out of attempts.
// Caller must hold the lock.
func (s *Sim) checkOTP(userID, code string) error {
	ch, ok := s.otps[userID]
	if !ok {
		return ErrCodeExpired
	}
	if s.now().After(ch.ExpiresAt) {
		delete(s.otps, userID)
		return ErrCodeExpired
	}
	if ch.Attempts >= maxOTPAttempts {
		return ErrTooManyAttempts
	}
	if ch.Code != code {
		ch.Attempts++
		return ErrCodeInvalid
	}

	delete(s.otps, userID)
	return nil
}
