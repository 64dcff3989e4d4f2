package storenode

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/logging"
	"github.com/interestIngc/cyphershare/internal/storenode/blob"
	"github.com/interestIngc/cyphershare/internal/storenode/config"
	"github.com/interestIngc/cyphershare/internal/storenode/manifest"
	"github.com/interestIngc/cyphershare/internal/storenode/migrations"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *Server
	db     *sql.DB
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

func newBackend(ctx context.Context, c *config.Config) (blob.Backend, error) {
	switch c.Backend {
	case "local":
		return blob.NewLocal(c.DataDir)
	case "s3":
		return blob.NewS3(ctx, blob.S3Options{
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
		})
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", common.ErrValidation, c.Backend)
	}
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()
	logger := logging.NewDefault()

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	backend, err := newBackend(ctx, c)
	if err != nil {
		return nil, err
	}

	nodeID := c.NodeID
	if nodeID == "" {
		nodeID = "store-" + common.MakeRandHexString(4)
	}

	server := NewServer(nodeID, backend, manifest.NewPostgresRepository(db), c.MaxBlobBytes, logger)
	return &App{config: c, logger: logger, server: server, db: db}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer app.db.Close()

	app.logger.Info(ctx, "starting store node")
	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx, app.config.EndpointAddr); err != nil {
			app.logger.Error(ctx, "server stopped", "error", err)
			cancelFunc()
		}
	}()

	wg.Wait()
}
