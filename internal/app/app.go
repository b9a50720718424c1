package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/chrissnell/epicurve/internal/controllers/restserver"
	"github.com/chrissnell/epicurve/internal/log"
	"github.com/chrissnell/epicurve/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the REST server and blocks until a shutdown signal arrives or ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scenarios, err := a.configProvider.GetScenarios()
	if err != nil {
		return err
	}
	for _, sc := range scenarios {
		p, err := sc.ToParameters()
		if err == nil {
			err = p.Validate()
		}
		if err != nil {
			log.Warnf("scenario %s will be rejected when run: %v", sc.Name, err)
		}
	}

	ctrl, err := restserver.NewController(ctx, &wg, a.configProvider, a.logger)
	if err != nil {
		return err
	}
	if err := ctrl.StartController(); err != nil {
		return err
	}

	log.Infow("Application started successfully", "scenarios", len(scenarios))

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
