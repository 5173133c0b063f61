/*
2026 © Postgres.ai
*/

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"gitlab.com/postgres-ai/database-lab/v2/pkg/log"

	"gitlab.com/postgres-ai/fusionql/pkg/models"
)

const (
	// DefaultHistoryTable defines the default name of the history table.
	DefaultHistoryTable = "query_history"

	createTableTpl = `create table if not exists %s (
  id uuid primary key,
  sql text not null,
  fusion_url text not null,
  username text not null,
  executed_at timestamptz not null default now(),
  results jsonb
)`
	createIndexTpl = `create index if not exists %s on %s (username, executed_at desc)`
	insertTpl      = `insert into %s (id, sql, fusion_url, username, executed_at, results) values ($1, $2, $3, $4, $5, $6)`
	selectTpl      = `select id::text, sql, fusion_url, username, executed_at, results
from %s
where username = $1
order by executed_at desc
limit $2`
)

// PostgresHistoryStorage stores the query history in a Postgres table.
type PostgresHistoryStorage struct {
	pool  *pgxpool.Pool
	table string
	index string
}

// NewPostgresHistoryStorage connects to Postgres and creates the history table if needed.
func NewPostgresHistoryStorage(ctx context.Context, dsn, table string) (*PostgresHistoryStorage, error) {
	if dsn == "" {
		return nil, errors.New("history DSN is required for the postgres storage")
	}

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to the history database")
	}

	s := newPostgresHistoryStorage(pool, table)

	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func newPostgresHistoryStorage(pool *pgxpool.Pool, table string) *PostgresHistoryStorage {
	tableName, indexName := quoteTable(table)

	return &PostgresHistoryStorage{
		pool:  pool,
		table: tableName,
		index: indexName,
	}
}

// quoteTable quotes a possibly schema-qualified table name and derives its index name.
func quoteTable(table string) (string, string) {
	if table == "" {
		table = DefaultHistoryTable
	}

	parts := strings.Split(table, ".")
	quoted := make([]string, 0, len(parts))

	for _, part := range parts {
		quoted = append(quoted, pq.QuoteIdentifier(part))
	}

	return strings.Join(quoted, "."), pq.QuoteIdentifier(parts[len(parts)-1] + "_username_idx")
}

func (s *PostgresHistoryStorage) initSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(createTableTpl, s.table)); err != nil {
		return errors.Wrap(err, "failed to create the history table")
	}

	if _, err := s.pool.Exec(ctx, fmt.Sprintf(createIndexTpl, s.index, s.table)); err != nil {
		return errors.Wrap(err, "failed to create the history index")
	}

	log.Dbg("History table is ready:", s.table)

	return nil
}

// Append inserts an entry.
func (s *PostgresHistoryStorage) Append(ctx context.Context, entry *models.QueryHistoryEntry) error {
	results, err := json.Marshal(entry.Results)
	if err != nil {
		return errors.Wrap(err, "failed to encode results")
	}

	if _, err := s.pool.Exec(ctx, fmt.Sprintf(insertTpl, s.table),
		entry.ID, entry.SQL, entry.TargetURL, entry.Username, entry.ExecutedAt, string(results)); err != nil {
		return errors.Wrap(err, "failed to insert a history entry")
	}

	return nil
}

// Recent returns the newest entries of a user.
func (s *PostgresHistoryStorage) Recent(ctx context.Context, username string, limit int) ([]*models.QueryHistoryEntry, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(selectTpl, s.table), username, clampLimit(limit))
	if err != nil {
		return nil, errors.Wrap(err, "failed to select history entries")
	}
	defer rows.Close()

	entries := make([]*models.QueryHistoryEntry, 0)

	for rows.Next() {
		var (
			entry   models.QueryHistoryEntry
			results []byte
		)

		if err := rows.Scan(&entry.ID, &entry.SQL, &entry.TargetURL, &entry.Username, &entry.ExecutedAt, &results); err != nil {
			return nil, errors.Wrap(err, "failed to scan a history entry")
		}

		if len(results) > 0 {
			if err := json.Unmarshal(results, &entry.Results); err != nil {
				return nil, errors.Wrap(err, "failed to decode results")
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "history traversal")
	}

	return entries, nil
}

// Close closes the connection pool.
func (s *PostgresHistoryStorage) Close() error {
	s.pool.Close()
	return nil
}
