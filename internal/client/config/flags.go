package config

import (
	"flag"
	"os"

	"github.com/interestIngc/cyphershare/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-s", "-r", "-n", "-m", "-t", "-v", "-p", "-d", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.StoreURL, "s", cfg.StoreURL, "store node base URL")
	fs.StringVar(&cfg.RelayKind, "r", cfg.RelayKind, "relay transport: waku, redis, kafka or inmemory")
	fs.StringVar(&cfg.RelayAddr, "n", cfg.RelayAddr, "relay endpoint address")
	fs.StringVar(&cfg.RoomID, "m", cfg.RoomID, "room to join")
	fs.StringVar(&cfg.CohortURL, "t", cfg.CohortURL, "threshold cohort URL (empty for the built-in cohort)")
	fs.StringVar(&cfg.VerifierURL, "v", cfg.VerifierURL, "proof verifier URL")
	fs.StringVar(&cfg.PayoutAddress, "p", cfg.PayoutAddress, "payout wallet address")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "local data directory")
	fs.StringVar(&cfg.EnginePath, "e", cfg.EnginePath, "computation engine wasm path")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
