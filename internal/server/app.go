// Package server wires the clinic services together and runs the HTTP and
// gRPC endpoints until the process is asked to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hamarchia/ClinicSystem/internal/logging"
	"github.com/hamarchia/ClinicSystem/internal/server/archive"
	"github.com/hamarchia/ClinicSystem/internal/server/config"
	"github.com/hamarchia/ClinicSystem/internal/server/presence"
	"github.com/hamarchia/ClinicSystem/internal/server/repositories/repomanager"
	"github.com/hamarchia/ClinicSystem/internal/server/rest"
	"github.com/hamarchia/ClinicSystem/internal/server/services"

	gs "github.com/hamarchia/ClinicSystem/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	hub         *presence.Hub
	relay       *presence.AMQPRelay
	httpServer  *rest.Server
	grpcServer  *gs.GRPCServer
}

// Seams for tests.
var (
	openPostgres  = repomanager.OpenPostgres
	dialAMQPRelay = presence.DialAMQPRelay
)

// OpenRepositories returns the Postgres manager with migrations applied
// when a DSN is configured and the in-memory manager otherwise.
func OpenRepositories(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	if c.DatabaseDSN == "" {
		return repomanager.NewInMemoryRepositoryManager(), nil
	}

	m, err := openPostgres(ctx, c.DatabaseDSN, c.DatabaseMaxConns)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger, err := logging.New(c.LogBackend, out)
	if err != nil {
		return nil, err
	}

	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	rm, err := OpenRepositories(ctx, c)
	if err != nil {
		return nil, err
	}

	arch, err := archive.New(ctx, c, logger)
	if err != nil {
		_ = rm.Close()
		return nil, err
	}

	patients := services.NewPatientService(rm, logger)
	shifts := services.NewShiftService(rm, patients, loc, c.AllowEnqueueOnClosedShift, logger).WithArchiver(arch)
	prescriptions := services.NewPrescriptionService(rm, loc, logger)

	hub := presence.NewHub(c.PresenceLegacyReset, c.PresenceOutboxSize, logger)

	var relay *presence.AMQPRelay
	if c.AMQPURL != "" {
		relay, err = dialAMQPRelay(c.AMQPURL, c.AMQPExchange, logger)
		if err != nil {
			_ = rm.Close()
			return nil, err
		}
		hub.SetPublisher(relay)
	}

	handlers := rest.NewHandlers(shifts, patients, prescriptions, arch, presence.NewWSHandler(hub, logger), logger)
	router := rest.NewRouter(handlers, []byte(c.SecretKey), logger)

	app := &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		hub:         hub,
		relay:       relay,
		httpServer:  rest.NewServer(c.EndpointAddrHTTP, router, logger),
	}
	if c.EndpointAddrGRPC != "" {
		app.grpcServer = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, hub, c.SecretKey)
	}

	return app, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// runComponent runs fn and cancels everything else when it fails.
func (app *App) runComponent(ctx context.Context, cancelFunc context.CancelFunc, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Error(ctx, "component stopped", "component", name, "error", err)
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a termination signal arrives or one of
// the servers fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runComponent(ctx, cancelFunc, "http", app.httpServer.Run)
	}()

	if app.grpcServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.runComponent(ctx, cancelFunc, "grpc", app.grpcServer.Run)
		}()
	}

	if app.relay != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.runComponent(ctx, cancelFunc, "presence-relay", func(ctx context.Context) error {
				return app.relay.Run(ctx, app.hub)
			})
		}()
	}

	wg.Wait()

	app.close(context.Background())
}

func (app *App) close(ctx context.Context) {
	if app.relay != nil {
		if err := app.relay.Close(); err != nil {
			app.logger.Warn(ctx, "presence relay close", "error", err)
		}
	}
	if err := app.repomanager.Close(); err != nil {
		app.logger.Warn(ctx, "repository close", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	if s, ok := app.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
