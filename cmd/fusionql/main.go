/*
fusionql

2019 © Postgres.ai

SQL tunnel to Oracle Fusion Cloud through the BI Publisher reporting API.
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gitlab.com/postgres-ai/database-lab/v2/pkg/log"

	"gitlab.com/postgres-ai/fusionql/pkg/config"
	"gitlab.com/postgres-ai/fusionql/pkg/services/executor"
	"gitlab.com/postgres-ai/fusionql/pkg/services/fault"
	"gitlab.com/postgres-ai/fusionql/pkg/services/fusion"
	"gitlab.com/postgres-ai/fusionql/pkg/services/storage"
)

const (
	defaultConfigPath = "config/config.yml"

	passwordEnv = "FUSION_PASSWORD"
	urlEnv      = "FUSION_URL"
	userEnv     = "FUSION_USERNAME"
)

// ldflag variables.
var buildTime, version string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "fusionql",
		Short:         "Run SQL on Oracle Fusion Cloud through BI Publisher",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       formatVersion(),
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath, "path to the configuration file")

	rootCmd.AddCommand(newServeCmd(&configPath), newRunCmd(&configPath), newTestCmd(&configPath))

	return rootCmd
}

func formatVersion() string {
	if version == "" {
		return "dev"
	}

	if buildTime == "" {
		return version
	}

	return version + "-" + buildTime
}

func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log.SetDebug(cfg.App.Debug)
	cfg.App.Version = formatVersion()

	log.Dbg("version: ", cfg.App.Version)

	return cfg, nil
}

func newExecutor(cfg *config.Config, history storage.HistoryStorage) *executor.Executor {
	return executor.NewExecutor(fusion.NewClient(cfg.Fusion), fault.NewClassifier(cfg.Fusion), history, cfg)
}

func envOr(value, key string) string {
	if value != "" {
		return value
	}

	return os.Getenv(key)
}
