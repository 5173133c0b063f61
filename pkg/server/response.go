/*
2026 © Postgres.ai
*/

package server

import (
	"time"

	"gitlab.com/postgres-ai/fusionql/pkg/models"
	"gitlab.com/postgres-ai/fusionql/pkg/services/executor"
	"gitlab.com/postgres-ai/fusionql/pkg/soap"
)

// RunQueryResponse represents a successful query.
type RunQueryResponse struct {
	Success bool `json:"success"`
	// Results holds rows of a tabular payload, otherwise the generic document structure.
	Results       interface{} `json:"results"`
	Columns       []string    `json:"columns"`
	Tabular       bool        `json:"tabular"`
	Shape         soap.Shape  `json:"shape"`
	RawXML        string      `json:"rawXml"`
	ExecutionTime int64       `json:"executionTime"`
	ExecutedAt    time.Time   `json:"executedAt"`
	RequestID     string      `json:"requestId"`
}

// TestConnectionResponse represents a successful connection test.
type TestConnectionResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"requestId"`
}

// ErrorResponse represents a failed call.
type ErrorResponse struct {
	Success bool `json:"success"`
	*models.ErrorOutcome
}

func newRunQueryResponse(execution *executor.Execution) RunQueryResponse {
	response := RunQueryResponse{
		Success:       true,
		Columns:       []string{},
		Tabular:       execution.Payload.Tabular(),
		Shape:         execution.Payload.Shape,
		RawXML:        execution.RawXML,
		ExecutionTime: execution.Elapsed.Milliseconds(),
		ExecutedAt:    execution.ExecutedAt.UTC(),
		RequestID:     execution.RequestID,
	}

	if !response.Tabular {
		response.Results = execution.Payload.Raw
		return response
	}

	response.Columns = execution.Table.Columns
	response.Results = execution.Table.Rows

	if execution.Table.Rows == nil {
		response.Results = []models.Row{}
	}

	return response
}
