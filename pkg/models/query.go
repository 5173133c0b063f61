/*
2026 © Postgres.ai
*/

// Package models provides domain entities.
package models

// Row limits accepted by the RunSQL report.
const (
	DefaultRowLimit = 5000
	MinRowLimit     = 1
	MaxRowLimit     = 100000
)

// QueryRequest represents a request to run SQL on a Fusion instance.
type QueryRequest struct {
	TargetURL     string            `json:"targetUrl"`
	Username      string            `json:"username"`
	Password      string            `json:"password"`
	SQL           string            `json:"sql"`
	RowLimit      int               `json:"rowLimit"`
	BindVariables map[string]string `json:"bindVariables,omitempty"`
}

// ConnectionRequest represents a connectivity probe request.
type ConnectionRequest struct {
	TargetURL string `json:"targetUrl"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// ClampRowLimit returns the row limit bounded to the accepted range. Zero means default.
func ClampRowLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultRowLimit
	case limit < MinRowLimit:
		return MinRowLimit
	case limit > MaxRowLimit:
		return MaxRowLimit
	}

	return limit
}
