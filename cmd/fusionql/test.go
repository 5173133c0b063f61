/*
2026 © Postgres.ai
*/

package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"gitlab.com/postgres-ai/fusionql/pkg/foreword"
	"gitlab.com/postgres-ai/fusionql/pkg/services/storage"
)

func newTestCmd(configPath *string) *cobra.Command {
	var connection connectionFlags

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check the URL and credentials of a Fusion instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return errors.Wrap(err, "failed to load config")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			target := connection.request()

			result, outcome := newExecutor(cfg, storage.NewMemoryHistoryStorage()).TestConnection(ctx, target)
			if outcome != nil {
				return outcomeError(outcome)
			}

			fmt.Fprintln(cmd.OutOrStdout(), foreword.GetConnectionSummary(result, target.TargetURL, cfg.App.Version))

			return nil
		},
	}

	connection.register(cmd)

	return cmd
}
