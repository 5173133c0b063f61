/*
2019 © Postgres.ai
*/

// Package server provides the HTTP API of the query tunnel.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"gitlab.com/postgres-ai/database-lab/v2/pkg/log"
	"gitlab.com/postgres-ai/database-lab/v2/pkg/srv/api"

	"gitlab.com/postgres-ai/fusionql/pkg/config"
	"gitlab.com/postgres-ai/fusionql/pkg/models"
	"gitlab.com/postgres-ai/fusionql/pkg/services/executor"
	"gitlab.com/postgres-ai/fusionql/pkg/services/storage"
)

// App defines a application struct.
type App struct {
	Config   *config.Config
	executor *executor.Executor
	history  storage.HistoryStorage
	httpSrv  *http.Server
}

// HealthResponse represents a response for heath-check requests.
type HealthResponse struct {
	Version string `json:"version"`
	Storage string `json:"storage"`
}

// NewApp creates a new application.
func NewApp(cfg *config.Config, exec *executor.Executor, history storage.HistoryStorage) *App {
	return &App{
		Config:   cfg,
		executor: exec,
		history:  history,
	}
}

// Handler builds the HTTP handler of the API.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /run-query", a.runQuery)
	mux.HandleFunc("POST /test-connection", a.testConnection)
	mux.HandleFunc("GET /query-history/{username}", a.queryHistory)

	// Paths of the browser client.
	mux.HandleFunc("POST /api/run-fusion-query", a.runQuery)
	mux.HandleFunc("POST /api/test-connection", a.testConnection)
	mux.HandleFunc("GET /api/query-history/{username}", a.queryHistory)

	mux.HandleFunc("GET /", a.healthCheck)

	return withCORS(mux)
}

// RunServer starts a server for query processing.
func (a *App) RunServer(_ context.Context) error {
	addr := fmt.Sprintf("%s:%d", a.Config.App.Host, a.Config.App.Port)

	log.Msg(fmt.Sprintf("Server start listening on %s", addr))
	a.httpSrv = &http.Server{Addr: addr, Handler: a.Handler()}

	return a.httpSrv.ListenAndServe()
}

// Shutdown gracefully shuts down the server and closes the history storage.
func (a *App) Shutdown(ctx context.Context) error {
	if a.httpSrv != nil {
		if err := a.httpSrv.Shutdown(ctx); err != nil {
			log.Msg(err)
		}
	}

	if a.history != nil {
		if err := a.history.Close(); err != nil {
			log.Err("unable to close the history storage: ", err)
		}
	}

	return nil
}

// healthCheck handles health-check requests.
func (a *App) healthCheck(w http.ResponseWriter, r *http.Request) {
	log.Msg("Health check received:", html.EscapeString(r.URL.Path))

	storageType := a.Config.History.Storage
	if storageType == "" {
		storageType = config.StorageMemory
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Version: a.Config.App.Version,
		Storage: storageType,
	})
}

func (a *App) runQuery(w http.ResponseWriter, r *http.Request) {
	var queryRequest models.QueryRequest
	if !readRequest(w, r, &queryRequest) {
		return
	}

	execution, outcome := a.executor.Run(r.Context(), queryRequest)
	if outcome != nil {
		sendOutcome(w, outcome)
		return
	}

	writeJSON(w, http.StatusOK, newRunQueryResponse(execution))
}

func (a *App) testConnection(w http.ResponseWriter, r *http.Request) {
	var connectionRequest models.ConnectionRequest
	if !readRequest(w, r, &connectionRequest) {
		return
	}

	connection, outcome := a.executor.TestConnection(r.Context(), connectionRequest)
	if outcome != nil {
		sendOutcome(w, outcome)
		return
	}

	writeJSON(w, http.StatusOK, TestConnectionResponse{
		Success:   true,
		Message:   connection.Message,
		Timestamp: connection.Timestamp,
		RequestID: connection.RequestID,
	})
}

func (a *App) queryHistory(w http.ResponseWriter, r *http.Request) {
	limit := models.DefaultHistoryLimit

	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		parsed, err := strconv.Atoi(rawLimit)
		if err != nil || parsed < 1 {
			sendOutcome(w, &models.ErrorOutcome{
				Category:   models.CategoryValidation,
				Message:    fmt.Sprintf("limit must be a positive integer, got %q", rawLimit),
				HTTPStatus: http.StatusBadRequest,
			})

			return
		}

		limit = parsed
	}

	entries, outcome := a.executor.History(r.Context(), r.PathValue("username"), limit)
	if outcome != nil {
		sendOutcome(w, outcome)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func readRequest(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.Body == http.NoBody {
		sendOutcome(w, validationOutcome("request body cannot be empty"))
		return false
	}

	if err := api.ReadJSON(r, v); err != nil {
		sendOutcome(w, validationOutcome(errors.Wrap(err, "invalid request body").Error()))
		return false
	}

	return true
}

func validationOutcome(message string) *models.ErrorOutcome {
	return &models.ErrorOutcome{
		Category:   models.CategoryValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func sendOutcome(w http.ResponseWriter, outcome *models.ErrorOutcome) {
	status := outcome.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, ErrorResponse{
		Success:      false,
		ErrorOutcome: outcome,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
