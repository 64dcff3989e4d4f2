package config

import (
	"flag"
	"os"

	"github.com/interestIngc/cyphershare/internal/flagx"
)

func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-d", "-dsn"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.EndpointAddr, "a", cfg.EndpointAddr, "address and port to listen on")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "blob backend: local or s3")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "blob directory for the local backend")
	fs.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "manifest database DSN")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
