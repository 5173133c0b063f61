/*
2026 © Postgres.ai
*/

// Package executor runs SQL on Oracle Fusion through a single BI Publisher call.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"

	"gitlab.com/postgres-ai/database-lab/v2/pkg/log"

	"gitlab.com/postgres-ai/fusionql/pkg/bind"
	"gitlab.com/postgres-ai/fusionql/pkg/config"
	"gitlab.com/postgres-ai/fusionql/pkg/models"
	"gitlab.com/postgres-ai/fusionql/pkg/services/fault"
	"gitlab.com/postgres-ai/fusionql/pkg/services/fusion"
	"gitlab.com/postgres-ai/fusionql/pkg/services/storage"
	"gitlab.com/postgres-ai/fusionql/pkg/soap"
	"gitlab.com/postgres-ai/fusionql/pkg/util/text"
)

const (
	// DefaultProbeQuery is sent by a connection test.
	DefaultProbeQuery = "SELECT 1 as test_connection FROM dual"

	// MsgConnectionSuccessful is returned by a successful connection test.
	MsgConnectionSuccessful = "Connection successful"

	commandRunQuery       = "run-query"
	commandTestConnection = "test-connection"

	queryPreviewSize = 100
)

// Transport sends envelopes to BI Publisher.
type Transport interface {
	Post(ctx context.Context, target fusion.Target, envelope string, mode fusion.Mode) (*fusion.RawResponse, error)
}

// Execution describes a successful query.
type Execution struct {
	RequestID  string
	Table      *models.ResultTable
	Payload    *soap.Payload
	RawXML     string
	ExecutedAt time.Time
	Elapsed    time.Duration
}

// Connection describes a successful connection test.
type Connection struct {
	RequestID string
	Message   string
	Timestamp time.Time
	Elapsed   time.Duration
}

// Executor orchestrates validation, encoding, transport and decoding of queries.
type Executor struct {
	transport  Transport
	classifier *fault.Classifier
	history    storage.HistoryStorage
	appCfg     config.App
	fusionCfg  config.Fusion
}

// NewExecutor creates a new executor.
func NewExecutor(transport Transport, classifier *fault.Classifier, history storage.HistoryStorage,
	cfg *config.Config) *Executor {
	fusionCfg := cfg.Fusion

	if fusionCfg.ReportPath == "" {
		fusionCfg.ReportPath = soap.DefaultReportPath
	}

	if fusionCfg.ProbeQuery == "" {
		fusionCfg.ProbeQuery = DefaultProbeQuery
	}

	if history == nil {
		history = storage.NewMemoryHistoryStorage()
	}

	return &Executor{
		transport:  transport,
		classifier: classifier,
		history:    history,
		appCfg:     cfg.App,
		fusionCfg:  fusionCfg,
	}
}

// Run executes a query. Exactly one of the return values is non-nil.
func (e *Executor) Run(ctx context.Context, req models.QueryRequest) (*Execution, *models.ErrorOutcome) {
	requestID := xid.New().String()
	startedAt := time.Now()

	if err := e.validateQuery(&req); err != nil {
		return nil, e.fail(requestID, commandRunQuery, err)
	}

	e.audit(requestID, commandRunQuery, req.Username, req.TargetURL, req.SQL)

	resolvedSQL := bind.Resolve(req.SQL, req.BindVariables)

	log.Msg(fmt.Sprintf("[%s] Running query for %s: %s", requestID, req.Username, text.Preview(resolvedSQL, queryPreviewSize)))

	envelope := soap.BuildEnvelope(soap.ReportRequest{
		SQL:        resolvedSQL,
		RowLimit:   req.RowLimit,
		ReportPath: e.fusionCfg.ReportPath,
	})

	target := fusion.Target{URL: req.TargetURL, Username: req.Username, Password: req.Password}

	response, err := e.transport.Post(ctx, target, envelope, fusion.ModeQuery)
	if err != nil {
		return nil, e.fail(requestID, commandRunQuery, err)
	}

	if e.classifier.IsMaintenance(response.Body) {
		return nil, e.failOutcome(requestID, commandRunQuery, e.classifier.Maintenance(response.Status))
	}

	payload, err := soap.DecodeResponse(response.Body)
	if err != nil {
		return nil, e.fail(requestID, commandRunQuery, err)
	}

	execution := &Execution{
		RequestID:  requestID,
		Table:      payload.Table,
		Payload:    payload,
		RawXML:     string(response.Body),
		ExecutedAt: startedAt,
		Elapsed:    time.Since(startedAt),
	}

	e.remember(ctx, req, execution)

	log.Msg(fmt.Sprintf("[%s] Query completed in %s, shape %s, %d rows", requestID, execution.Elapsed,
		payload.Shape, rowCount(payload)))

	return execution, nil
}

// TestConnection sends a trivial query to check the URL and credentials.
func (e *Executor) TestConnection(ctx context.Context, req models.ConnectionRequest) (*Connection, *models.ErrorOutcome) {
	requestID := xid.New().String()
	startedAt := time.Now()

	if err := validateTarget(req.TargetURL, req.Username, req.Password); err != nil {
		return nil, e.fail(requestID, commandTestConnection, err)
	}

	e.audit(requestID, commandTestConnection, req.Username, req.TargetURL, "")

	envelope := soap.BuildEnvelope(soap.ReportRequest{
		SQL:        e.fusionCfg.ProbeQuery,
		RowLimit:   1,
		ReportPath: e.fusionCfg.ReportPath,
	})

	target := fusion.Target{URL: req.TargetURL, Username: req.Username, Password: req.Password}

	response, err := e.transport.Post(ctx, target, envelope, fusion.ModeProbe)
	if err != nil {
		return nil, e.fail(requestID, commandTestConnection, err)
	}

	if e.classifier.IsMaintenance(response.Body) {
		return nil, e.failOutcome(requestID, commandTestConnection, e.classifier.Maintenance(response.Status))
	}

	if response.StatusCode != http.StatusOK {
		return nil, e.fail(requestID, commandTestConnection, &fusion.StatusError{
			StatusCode: response.StatusCode,
			Status:     response.Status,
			Body:       response.Body,
		})
	}

	connection := &Connection{
		RequestID: requestID,
		Message:   MsgConnectionSuccessful,
		Timestamp: time.Now().UTC(),
		Elapsed:   time.Since(startedAt),
	}

	log.Msg(fmt.Sprintf("[%s] Connection to %s is OK (%s)", requestID, req.TargetURL, connection.Elapsed))

	return connection, nil
}

// History returns the newest queries of a user.
func (e *Executor) History(ctx context.Context, username string, limit int) ([]*models.QueryHistoryEntry, *models.ErrorOutcome) {
	if strings.TrimSpace(username) == "" {
		return nil, e.classifier.Classify(fault.NewValidationError("Username is required"))
	}

	entries, err := e.history.Recent(ctx, username, limit)
	if err != nil {
		log.Err("Failed to read query history:", err)
		return nil, e.classifier.Classify(errors.Wrap(err, "failed to read query history"))
	}

	return entries, nil
}

func (e *Executor) validateQuery(req *models.QueryRequest) error {
	if err := validateTarget(req.TargetURL, req.Username, req.Password); err != nil {
		return err
	}

	if soap.CleanSQL(req.SQL) == "" {
		return fault.NewValidationError("SQL query is required")
	}

	req.RowLimit = models.ClampRowLimit(req.RowLimit)

	if e.fusionCfg.AllowUnresolvedBinds {
		return nil
	}

	if missing := bind.Missing(req.SQL, req.BindVariables); len(missing) > 0 {
		return fault.NewValidationError("Missing values for bind variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

func validateTarget(targetURL, username, password string) error {
	if strings.TrimSpace(targetURL) == "" || strings.TrimSpace(username) == "" || password == "" {
		return fault.NewValidationError("Missing required connection parameters")
	}

	u, err := url.Parse(strings.TrimSpace(targetURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fault.NewValidationError("Fusion URL must be an absolute http(s) URL, got %q", targetURL)
	}

	return nil
}

// remember appends a history entry. Failures are logged and never surfaced.
func (e *Executor) remember(ctx context.Context, req models.QueryRequest, execution *Execution) {
	entry := &models.QueryHistoryEntry{
		ID:         storage.NewID(),
		SQL:        req.SQL,
		TargetURL:  req.TargetURL,
		Username:   req.Username,
		ExecutedAt: execution.ExecutedAt.UTC(),
		Results:    execution.Table,
	}

	if err := e.history.Append(ctx, entry); err != nil {
		log.Err(fmt.Sprintf("[%s] Failed to save query history:", execution.RequestID), err)
	}
}

func (e *Executor) audit(requestID, command, username, targetURL, query string) {
	if !e.appCfg.AuditEnabled {
		return
	}

	audit, err := json.Marshal(models.Audit{
		RequestID: requestID,
		Username:  username,
		TargetURL: targetURL,
		Command:   command,
		Query:     query,
	})
	if err != nil {
		log.Err(errors.Wrap(err, "failed to marshal Audit struct"))
		return
	}

	log.Audit(string(audit))
}

func (e *Executor) fail(requestID, command string, err error) *models.ErrorOutcome {
	return e.failOutcome(requestID, command, e.classifier.Classify(err))
}

func (e *Executor) failOutcome(requestID, command string, outcome *models.ErrorOutcome) *models.ErrorOutcome {
	log.Err(fmt.Sprintf("[%s] %s failed (%s): %s", requestID, command, outcome.Category, outcome.Message))

	return outcome
}

func rowCount(payload *soap.Payload) int {
	if !payload.Tabular() {
		return 0
	}

	return len(payload.Table.Rows)
}
