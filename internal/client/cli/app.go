// Package cli wires the client stack together and drives it from a small
// interactive shell.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/interestIngc/cyphershare/internal/bus"
	"github.com/interestIngc/cyphershare/internal/client/config"
	"github.com/interestIngc/cyphershare/internal/client/repositories/records"
	"github.com/interestIngc/cyphershare/internal/client/services"
	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/filex"
	"github.com/interestIngc/cyphershare/internal/identity"
	"github.com/interestIngc/cyphershare/internal/logging"
	"github.com/interestIngc/cyphershare/internal/proof"
	"github.com/interestIngc/cyphershare/internal/relay"
	"github.com/interestIngc/cyphershare/internal/runner"
	"github.com/interestIngc/cyphershare/internal/store"
	"github.com/interestIngc/cyphershare/internal/threshold"

	_ "modernc.org/sqlite"
)

type App struct {
	config  *config.Config
	share   services.ShareService
	compute services.ComputeService
	relay   relay.Relay
	log     logging.Logger
}

// newRelay picks the announcement transport from configuration.
func newRelay(c *config.Config) (relay.Relay, error) {
	switch c.RelayKind {
	case "waku":
		return relay.NewWakuREST(c.RelayAddr, time.Second), nil
	case "redis":
		return relay.NewRedis(c.RelayAddr), nil
	case "kafka":
		return relay.NewKafka(strings.Split(c.RelayAddr, ","), "cyphershare-"+c.RoomID), nil
	case "inmemory":
		return relay.NewInMemory(), nil
	default:
		return nil, fmt.Errorf("%w: unknown relay kind %q", common.ErrValidation, c.RelayKind)
	}
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()
	log := logging.NewDefault()

	dataDir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, "cyphershare.db"))
	if err != nil {
		return nil, err
	}
	if err := records.Bootstrap(ctx, db); err != nil {
		return nil, err
	}
	repo := records.NewSQLiteRepository(db)

	rl, err := newRelay(c)
	if err != nil {
		return nil, err
	}

	session := identity.NewSession()
	tracker := bus.NewTracker(session.SenderID)
	b := bus.New(rl, c.RoomID, session, tracker, log)

	var cohort threshold.CohortAPI
	if c.CohortURL != "" {
		cohort = threshold.NewHTTPCohort(c.CohortURL)
	} else {
		cohort = threshold.NewSimCohort(3, 2)
	}
	th := threshold.NewClient(cohort)

	st := store.NewClient(c.StoreURL, log)
	shareSvc := services.NewShareService(st, b, tracker, repo, th, dataDir, log)

	verifier := proof.NewVerifierClient(c.VerifierURL, c.PayoutAddress, []byte(c.VerifierSecret), log)
	coordinator := proof.NewCoordinator(verifier, log)
	computeSvc := services.NewComputeService(st, repo, runner.New(log), coordinator, th,
		shareSvc.Wallet, c.EnginePath, log)

	return &App{
		config:  c,
		share:   shareSvc,
		compute: computeSvc,
		relay:   rl,
		log:     log,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.relay.Close()

	if err := a.share.Start(ctx); err != nil {
		return err
	}
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
	return nil
}

func (a *App) status() string {
	w := a.share.Wallet()
	if !w.Connected() {
		return "no wallet"
	}
	return shortAddress(w.Address)
}

func shortAddress(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
