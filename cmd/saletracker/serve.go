package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpDelivery "github.com/lefty3382/Filson-Sale-Tracker/internal/delivery/http"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve stored items over a read-only JSON API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			handler := httpDelivery.NewHandler(store, a.cfg.App.Version, a.logger)
			router := httpDelivery.SetupRouter(a.cfg, handler, a.logger)

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%s", a.cfg.Server.Port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.InfoContext(ctx, "server listening",
					"addr", srv.Addr, "environment", a.cfg.Server.Environment, "driver", a.cfg.Database.Driver)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("failed to start server: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
