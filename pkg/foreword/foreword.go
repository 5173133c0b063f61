/*
2020 © Postgres.ai
*/

// Package foreword provides structures for building summary messages of CLI calls.
package foreword

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"gitlab.com/postgres-ai/fusionql/pkg/services/executor"
)

// MsgQuerySummaryTpl provides a template of query summary message.
const MsgQuerySummaryTpl = `Request: %s
Fusion instance: %s
Result shape: %s
Rows: %s, columns: %s
Execution time: %s
fusionql version: %s`

// MsgConnectionSummaryTpl provides a template of connection test summary message.
const MsgConnectionSummaryTpl = `Request: %s
Fusion instance: %s
Status: %s
Checked at: %s
Execution time: %s
fusionql version: %s`

// Content defines data for a summary message.
type Content struct {
	RequestID  string
	TargetURL  string
	Shape      string
	Rows       int
	Columns    int
	Duration   time.Duration
	AppVersion string
}

// NewQueryContent collects summary data of an execution.
func NewQueryContent(execution *executor.Execution, targetURL, appVersion string) *Content {
	content := &Content{
		RequestID:  execution.RequestID,
		TargetURL:  targetURL,
		Duration:   execution.Elapsed,
		AppVersion: appVersion,
	}

	if execution.Payload != nil {
		content.Shape = string(execution.Payload.Shape)
	}

	if execution.Table != nil {
		content.Rows = len(execution.Table.Rows)
		content.Columns = len(execution.Table.Columns)
	}

	return content
}

// GetSummary returns a query summary message.
func (f *Content) GetSummary() string {
	return fmt.Sprintf(MsgQuerySummaryTpl, f.RequestID, f.TargetURL, f.Shape,
		humanize.Comma(int64(f.Rows)), humanize.Comma(int64(f.Columns)), formatDuration(f.Duration), f.AppVersion)
}

// GetConnectionSummary returns a connection test summary message.
func GetConnectionSummary(connection *executor.Connection, targetURL, appVersion string) string {
	return fmt.Sprintf(MsgConnectionSummaryTpl, connection.RequestID, targetURL, connection.Message,
		connection.Timestamp.Format(time.RFC3339), formatDuration(connection.Elapsed), appVersion)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}

	return durafmt.Parse(d.Round(time.Second)).String()
}
