package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vardaan112/PelotonIQ-sub001/internal/feedsim"
	"github.com/vardaan112/PelotonIQ-sub001/pkg/logger"
)

func main() {
	defaults := feedsim.NewConfig()
	var (
		riders    = flag.Int("riders", defaults.Riders, "Number of simulated riders")
		breakaway = flag.Int("breakaway", defaults.BreakawaySize, "Riders in the simulated breakaway")
		tick      = flag.Duration("tick", defaults.Tick, "Telemetry tick interval")
		duration  = flag.Duration("duration", defaults.Duration, "Simulation duration")
		seed      = flag.Int64("seed", defaults.Seed, "Random seed (same seed, same feed)")
		crash     = flag.Bool("crash", defaults.InjectCrash, "Inject a crash mid-run")
		verbose   = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Hard cap so a misconfigured run cannot hang forever.
	ctx, cancel := context.WithTimeout(ctx, *duration+30*time.Second)
	defer cancel()

	cfg := &feedsim.Config{
		Riders:        *riders,
		BreakawaySize: *breakaway,
		Tick:          *tick,
		Duration:      *duration,
		Seed:          *seed,
		InjectCrash:   *crash,
	}

	if err := feedsim.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("simulation failed: " + err.Error() + "\n")
	}
}
