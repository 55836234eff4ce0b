package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ElaineAng/db-fork/internal/backend"
	"github.com/ElaineAng/db-fork/internal/backend/dolt"
	"github.com/ElaineAng/db-fork/internal/backend/neon"
	"github.com/ElaineAng/db-fork/internal/config"
	"github.com/ElaineAng/db-fork/internal/logger"
)

// openBackend connects to the configured store. The returned pool is
// non-nil only for backends that support the run lock.
func openBackend(ctx context.Context, cfg *config.Config, rootBranch string) (backend.Adapter, *sql.DB, error) {
	switch cfg.Backend.Kind {
	case config.BackendDolt:
		a, err := dolt.Open(ctx, &cfg.Backend.Dolt, cfg.Setup.Database)
		if err != nil {
			return nil, nil, err
		}
		return a, a.DB(), nil
	case config.BackendNeon:
		a, err := neon.Open(ctx, &cfg.Backend.Neon, cfg.Setup.Database, rootBranch)
		if err != nil {
			return nil, nil, err
		}
		return a, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend.Kind)
	}
}

// signalContext returns a context canceled on SIGINT or SIGTERM. The current
// statement finishes; the run stops at the next backend call.
func signalContext(parent context.Context, log *logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warnw("Received shutdown signal, stopping benchmark", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
