/*
2019 © Postgres.ai
*/

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"gitlab.com/postgres-ai/database-lab/v2/pkg/log"

	"gitlab.com/postgres-ai/fusionql/pkg/server"
	"gitlab.com/postgres-ai/fusionql/pkg/services/storage"
)

const shutdownTimeout = 60 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return errors.Wrap(err, "failed to load config")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			history, err := storage.New(ctx, cfg.History)
			if err != nil {
				return errors.Wrap(err, "unable to init the query history storage")
			}

			app := server.NewApp(cfg, newExecutor(cfg, history), history)
			shutdownCh := setShutdownListener()

			go func() {
				if err := app.RunServer(ctx); err != nil && err != http.ErrServerClosed {
					log.Fatal(err)
				}
			}()

			<-shutdownCh
			log.Dbg("shutdown request received")
			cancel()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()

			return app.Shutdown(shutdownCtx)
		},
	}
}

func setShutdownListener() chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	return c
}
