package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fleetdesk/taxi/internal/session"
	"github.com/fleetdesk/taxi/internal/web"
)

const sessionPurgeInterval = time.Hour

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Migrate the database and start the web server",
		Args:    cobra.NoArgs,
		RunE:    a.runServe,
	}
	cmd.Flags().String("addr", "", "listen address (TAXI_HTTP_ADDR)")
	cmd.Flags().Int("page-size", 0, "rows per list page (TAXI_PAGE_SIZE)")
	cmd.Flags().Bool("secure-cookies", false, "mark the session cookie Secure (TAXI_SECURE_COOKIES)")
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	logger, err := a.logger(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := a.migrated(ctx, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	sessions := session.NewStore(store.DB(), a.cfg.SessionTTL)
	srv := web.New(store.DB(), sessions, logger, web.Options{
		PageSize:      a.cfg.PageSize,
		SecureCookies: a.cfg.SecureCookies,
	})
	httpServer := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go purgeSessions(ctx, sessions, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "listening", "addr", a.cfg.HTTPAddr, "dialect", a.cfg.DBDialect)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", a.cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	return nil
}

// purgeSessions removes expired sessions until ctx is done.
func purgeSessions(ctx context.Context, sessions *session.Store, logger *slog.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				logger.ErrorContext(ctx, "purge sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.InfoContext(ctx, "purged sessions", "count", n)
			}
		}
	}
}
