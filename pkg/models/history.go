/*
2026 © Postgres.ai
*/

package models

import (
	"time"
)

// History limits.
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// QueryHistoryEntry represents a successfully executed query.
type QueryHistoryEntry struct {
	ID         string       `json:"id"`
	SQL        string       `json:"sql"`
	TargetURL  string       `json:"targetUrl"`
	Username   string       `json:"username"`
	ExecutedAt time.Time    `json:"executedAt"`
	Results    *ResultTable `json:"results"`
}
