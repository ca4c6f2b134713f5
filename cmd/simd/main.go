// simd runs the in-memory account service double for local development.
// It speaks the same contract as the hosted account service; issued OTPs are
// printed at debug level instead of emailed.
package main

import (
	"os"

	"github.com/noteward-dev/noteward/internal/accountsim"
	"github.com/noteward-dev/noteward/internal/config"
	"github.com/noteward-dev/noteward/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	// Debug logging so issued OTPs show up on the console
	level := cfg.Logging.Level
	if level == "warn" {
		level = "debug"
	}
	logger.Init(level, cfg.Logging.Format)

	addr := os.Getenv("NOTEWARD_SIM_ADDR")
	if addr == "" {
		addr = ":3001"
	}

	sim := accountsim.New(logger.Logger)

	// A seeded admin makes the admin surface reachable out of the box
	id := sim.SeedAccount("Admin", "admin@noteward.local", "admin", "admin", true)
	logger.Logger.Info().Str("user_id", id).Msg("Seeded admin account admin@noteward.local (password: admin)")

	if err := sim.Run(addr); err != nil {
		logger.Logger.Error().Err(err).Msg("Account service double exited")
		os.Exit(1)
	}
}
