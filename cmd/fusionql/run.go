/*
2026 © Postgres.ai
*/

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"gitlab.com/postgres-ai/fusionql/pkg/foreword"
	"gitlab.com/postgres-ai/fusionql/pkg/models"
	"gitlab.com/postgres-ai/fusionql/pkg/render"
	"gitlab.com/postgres-ai/fusionql/pkg/services/storage"
)

// Output formats of the run command.
const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

type connectionFlags struct {
	url      string
	username string
}

func (f *connectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.url, "url", "", "Fusion instance URL (defaults to $"+urlEnv+")")
	cmd.Flags().StringVar(&f.username, "user", "", "Fusion username (defaults to $"+userEnv+")")
}

func (f *connectionFlags) request() models.ConnectionRequest {
	return models.ConnectionRequest{
		TargetURL: envOr(f.url, urlEnv),
		Username:  envOr(f.username, userEnv),
		Password:  os.Getenv(passwordEnv),
	}
}

func newRunCmd(configPath *string) *cobra.Command {
	var (
		connection connectionFlags
		sql        string
		sqlFile    string
		rowLimit   int
		binds      []string
		format     string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a query and print its result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return errors.Wrap(err, "failed to load config")
			}

			if format != formatTable && format != formatCSV && format != formatJSON {
				return errors.Errorf("unknown output format given: %q", format)
			}

			query, err := readQuery(sql, sqlFile, cmd.InOrStdin())
			if err != nil {
				return err
			}

			bindVariables, err := parseBinds(binds)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			target := connection.request()

			execution, outcome := newExecutor(cfg, storage.NewMemoryHistoryStorage()).Run(ctx, models.QueryRequest{
				TargetURL:     target.TargetURL,
				Username:      target.Username,
				Password:      target.Password,
				SQL:           query,
				RowLimit:      rowLimit,
				BindVariables: bindVariables,
			})
			if outcome != nil {
				return outcomeError(outcome)
			}

			out := cmd.OutOrStdout()

			// Non-tabular payloads are printed as JSON in any format.
			switch {
			case !execution.Payload.Tabular():
				err = render.JSON(out, execution.Payload.Raw)
			case format == formatJSON:
				err = render.JSON(out, execution.Table.Rows)
			case format == formatCSV:
				err = render.CSV(out, execution.Table)
			default:
				err = render.Table(out, execution.Table)
			}

			if err != nil {
				return errors.Wrap(err, "failed to render results")
			}

			if !quiet {
				fmt.Fprintln(cmd.ErrOrStderr(), foreword.NewQueryContent(execution, target.TargetURL, cfg.App.Version).GetSummary())
			}

			return nil
		},
	}

	connection.register(cmd)
	cmd.Flags().StringVar(&sql, "sql", "", "SQL text to run, \"-\" reads it from stdin")
	cmd.Flags().StringVar(&sqlFile, "file", "", "file with SQL text to run")
	cmd.Flags().IntVar(&rowLimit, "rows", models.DefaultRowLimit, "maximum number of rows to return")
	cmd.Flags().StringArrayVar(&binds, "bind", nil, "bind variable value as name=value, repeatable")
	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table, csv or json")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the execution summary")

	return cmd
}

func readQuery(sql, sqlFile string, stdin io.Reader) (string, error) {
	switch {
	case sql != "" && sqlFile != "":
		return "", errors.New("either --sql or --file must be given, not both")

	case sqlFile != "":
		data, err := os.ReadFile(sqlFile)
		if err != nil {
			return "", errors.Wrap(err, "failed to read a query file")
		}

		return string(data), nil

	case sql == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.Wrap(err, "failed to read a query from stdin")
		}

		return string(data), nil
	}

	return sql, nil
}

func parseBinds(binds []string) (map[string]string, error) {
	values := make(map[string]string, len(binds))

	for _, b := range binds {
		name, value, ok := strings.Cut(b, "=")
		name = strings.TrimPrefix(strings.TrimSpace(name), ":")

		if !ok || name == "" {
			return nil, errors.Errorf("invalid bind variable given: %q, expected name=value", b)
		}

		values[name] = value
	}

	return values, nil
}

func outcomeError(outcome *models.ErrorOutcome) error {
	if outcome.Details == "" {
		return errors.Errorf("%s: %s", outcome.Category, outcome.Message)
	}

	return errors.Errorf("%s: %s\n%s", outcome.Category, outcome.Message, outcome.Details)
}
