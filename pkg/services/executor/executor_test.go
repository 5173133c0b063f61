/*
2026 © Postgres.ai
*/

package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/postgres-ai/fusionql/pkg/config"
	"gitlab.com/postgres-ai/fusionql/pkg/models"
	"gitlab.com/postgres-ai/fusionql/pkg/services/fault"
	"gitlab.com/postgres-ai/fusionql/pkg/services/fusion"
	"gitlab.com/postgres-ai/fusionql/pkg/services/fusion/fusiontest"
	"gitlab.com/postgres-ai/fusionql/pkg/services/storage"
	"gitlab.com/postgres-ai/fusionql/pkg/soap"
)

const singleValueReport = `<?xml version="1.0" encoding="UTF-8"?><DATA_DS><G_DATA><X>1</X></G_DATA></DATA_DS>`

type failingHistory struct {
	storage.HistoryStorage
}

func (failingHistory) Append(context.Context, *models.QueryHistoryEntry) error {
	return errors.New("disk is full")
}

type countingTransport struct {
	calls int
}

func (t *countingTransport) Post(context.Context, fusion.Target, string, fusion.Mode) (*fusion.RawResponse, error) {
	t.calls++
	return nil, errors.New("must not be called")
}

func newTestExecutor(transport Transport, history storage.HistoryStorage, fusionCfg config.Fusion) *Executor {
	return NewExecutor(transport, fault.NewClassifier(fusionCfg), history, &config.Config{Fusion: fusionCfg})
}

func newStubExecutor(history storage.HistoryStorage) *Executor {
	fusionCfg := config.Fusion{}
	return newTestExecutor(fusion.NewClient(fusionCfg), history, fusionCfg)
}

func validRequest(url string) models.QueryRequest {
	return models.QueryRequest{
		TargetURL: url,
		Username:  "john",
		Password:  "secret",
		SQL:       "SELECT 1 AS X FROM dual;",
	}
}

func TestRunEndToEnd(t *testing.T) {
	srv := fusiontest.NewServer(http.StatusOK, fusiontest.ReportResponse(singleValueReport))
	defer srv.Close()

	history := storage.NewMemoryHistoryStorage()
	e := newStubExecutor(history)

	execution, outcome := e.Run(context.Background(), validRequest(srv.URL))
	require.Nil(t, outcome)
	require.NotNil(t, execution)

	assert.NotEmpty(t, execution.RequestID)
	assert.Equal(t, soap.ShapeGroupColumns, execution.Payload.Shape)
	require.NotNil(t, execution.Table)
	assert.Equal(t, []string{"X"}, execution.Table.Columns)

	results, err := json.Marshal(execution.Table.Rows)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"X":"1"}]`, string(results))
	assert.Contains(t, execution.RawXML, "runReportResponse")

	requests := srv.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, fusion.DefaultServicePath, requests[0].Path)
	assert.Equal(t, "john", requests[0].Username)
	assert.Equal(t, "secret", requests[0].Password)
	assert.Contains(t, requests[0].Body, "<![CDATA[SELECT 1 AS X FROM dual]]>")
	assert.Contains(t, requests[0].Body, "<pub:item>5000</pub:item>")
	assert.NotContains(t, requests[0].Body, "secret")

	entries, err := history.Recent(context.Background(), "john", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "SELECT 1 AS X FROM dual;", entries[0].SQL)
	assert.Equal(t, srv.URL, entries[0].TargetURL)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, execution.Table, entries[0].Results)
}

func TestRunResolvesBinds(t *testing.T) {
	srv := fusiontest.NewServer(http.StatusOK, fusiontest.ReportResponse(singleValueReport))
	defer srv.Close()

	e := newStubExecutor(nil)

	req := validRequest(srv.URL)
	req.SQL = "SELECT * FROM per_users WHERE username = :user -- :ignored\nAND rownum <= :n"
	req.BindVariables = map[string]string{"user": "O'Brien", "n": "10"}
	req.RowLimit = 500000

	_, outcome := e.Run(context.Background(), req)
	require.Nil(t, outcome)

	requests := srv.Requests()
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].Body, "username = 'O''Brien'")
	assert.Contains(t, requests[0].Body, "rownum <= '10'")
	assert.Contains(t, requests[0].Body, "<pub:item>100000</pub:item>")
}

func TestRunIgnoresColonsInLiterals(t *testing.T) {
	srv := fusiontest.NewServer(http.StatusOK, fusiontest.ReportResponse(singleValueReport))
	defer srv.Close()

	e := newStubExecutor(nil)

	req := validRequest(srv.URL)
	req.SQL = "SELECT TO_CHAR(SYSDATE, 'HH24:MI:SS') AS T, 'a--b' AS S FROM dual " +
		"WHERE created > TIMESTAMP '2026-01-01 10:00:00' AND id = :id"
	req.BindVariables = map[string]string{"id": "7"}

	execution, outcome := e.Run(context.Background(), req)
	require.Nil(t, outcome)
	require.NotNil(t, execution)

	requests := srv.Requests()
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].Body, "'HH24:MI:SS'")
	assert.Contains(t, requests[0].Body, "'a--b' AS S")
	assert.Contains(t, requests[0].Body, "TIMESTAMP '2026-01-01 10:00:00'")
	assert.Contains(t, requests[0].Body, "id = '7'")
}

func TestRunValidation(t *testing.T) {
	testCases := []struct {
		name    string
		modify  func(req *models.QueryRequest)
		message string
	}{
		{
			name:    "missing password",
			modify:  func(req *models.QueryRequest) { req.Password = "" },
			message: "Missing required connection parameters",
		},
		{
			name:    "relative URL",
			modify:  func(req *models.QueryRequest) { req.TargetURL = "fa.example.com" },
			message: `Fusion URL must be an absolute http(s) URL, got "fa.example.com"`,
		},
		{
			name:    "ftp URL",
			modify:  func(req *models.QueryRequest) { req.TargetURL = "ftp://fa.example.com" },
			message: `Fusion URL must be an absolute http(s) URL, got "ftp://fa.example.com"`,
		},
		{
			name:    "empty SQL",
			modify:  func(req *models.QueryRequest) { req.SQL = " ;; \n" },
			message: "SQL query is required",
		},
		{
			name: "unresolved binds",
			modify: func(req *models.QueryRequest) {
				req.SQL = "SELECT :a, :b, :a FROM dual"
				req.BindVariables = map[string]string{"a": "1"}
			},
			message: "Missing values for bind variables: b",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transport := &countingTransport{}
			e := newTestExecutor(transport, nil, config.Fusion{})

			req := validRequest("https://fa.example.com")
			tc.modify(&req)

			execution, outcome := e.Run(context.Background(), req)
			assert.Nil(t, execution)
			require.NotNil(t, outcome)
			assert.Equal(t, models.CategoryValidation, outcome.Category)
			assert.Equal(t, tc.message, outcome.Message)
			assert.Equal(t, http.StatusBadRequest, outcome.HTTPStatus)
			assert.Equal(t, 0, transport.calls)
		})
	}
}

func TestRunAllowsUnresolvedBinds(t *testing.T) {
	srv := fusiontest.NewServer(http.StatusOK, fusiontest.ReportResponse(singleValueReport))
	defer srv.Close()

	fusionCfg := config.Fusion{AllowUnresolvedBinds: true}
	e := newTestExecutor(fusion.NewClient(fusionCfg), nil, fusionCfg)

	req := validRequest(srv.URL)
	req.SQL = "SELECT :missing FROM dual"

	_, outcome := e.Run(context.Background(), req)
	require.Nil(t, outcome)

	requests := srv.Requests()
	require.Len(t, requests, 1)
	assert.Contains(t, requests[0].Body, "SELECT :missing FROM dual")
}

func TestRunFailures(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		body        []byte
		category    models.Category
		maintenance bool
	}{
		{
			name:     "sql error",
			status:   http.StatusInternalServerError,
			body:     fusiontest.FaultResponse("ORA-00904: \"FOO\": invalid identifier"),
			category: models.CategorySQL,
		},
		{
			name:     "fault with 200",
			status:   http.StatusOK,
			body:     fusiontest.FaultResponse("ORA-00942: table or view does not exist"),
			category: models.CategorySQL,
		},
		{
			name:        "maintenance page with 200",
			status:      http.StatusOK,
			body:        []byte("<html>Oracle Cloud is in Scheduled Maintenance</html>"),
			category:    models.CategoryMaintenance,
			maintenance: true,
		},
		{
			name:        "maintenance page with 503",
			status:      http.StatusServiceUnavailable,
			body:        []byte("<html>scheduled maintenance</html>"),
			category:    models.CategoryMaintenance,
			maintenance: true,
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			category: models.CategoryAuthFailed,
		},
		{
			name:     "empty report",
			status:   http.StatusOK,
			body:     []byte(`<env:Envelope xmlns:env="e"><env:Body><runReportResponse/></env:Body></env:Envelope>`),
			category: models.CategoryEmptyResult,
		},
		{
			name:     "broken report",
			status:   http.StatusOK,
			body:     []byte(`<Envelope><Body><runReportResponse><runReportReturn><reportBytes>%%%</reportBytes></runReportReturn></runReportResponse></Body></Envelope>`),
			category: models.CategoryDecode,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := fusiontest.NewServer(tc.status, tc.body)
			defer srv.Close()

			history := storage.NewMemoryHistoryStorage()
			e := newStubExecutor(history)

			execution, outcome := e.Run(context.Background(), validRequest(srv.URL))
			assert.Nil(t, execution)
			require.NotNil(t, outcome)
			assert.Equal(t, tc.category, outcome.Category)
			assert.Equal(t, tc.maintenance, outcome.IsMaintenanceMode)

			entries, err := history.Recent(context.Background(), "john", 0)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestRunSurvivesHistoryFailure(t *testing.T) {
	srv := fusiontest.NewServer(http.StatusOK, fusiontest.ReportResponse(singleValueReport))
	defer srv.Close()

	e := newStubExecutor(failingHistory{})

	execution, outcome := e.Run(context.Background(), validRequest(srv.URL))
	require.Nil(t, outcome)
	assert.NotNil(t, execution.Table)
}

func TestRunCancelled(t *testing.T) {
	srv := fusiontest.NewServer(http.StatusOK, fusiontest.ReportResponse(singleValueReport))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, outcome := newStubExecutor(nil).Run(ctx, validRequest(srv.URL))
	require.NotNil(t, outcome)
	assert.Equal(t, models.CategoryCancelled, outcome.Category)
}

func TestTestConnection(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := fusiontest.NewServer(http.StatusOK, fusiontest.ReportResponse(singleValueReport))
		defer srv.Close()

		connection, outcome := newStubExecutor(nil).TestConnection(context.Background(), models.ConnectionRequest{
			TargetURL: srv.URL + "/",
			Username:  "john",
			Password:  "secret",
		})
		require.Nil(t, outcome)
		assert.Equal(t, MsgConnectionSuccessful, connection.Message)
		assert.False(t, connection.Timestamp.IsZero())

		requests := srv.Requests()
		require.Len(t, requests, 1)
		assert.Contains(t, requests[0].Body, DefaultProbeQuery)
		assert.Contains(t, requests[0].Body, "<pub:item>1</pub:item>")
	})

	statusCases := []struct {
		status   int
		category models.Category
	}{
		{status: http.StatusUnauthorized, category: models.CategoryAuthFailed},
		{status: http.StatusForbidden, category: models.CategoryAuthFailed},
		{status: http.StatusNotFound, category: models.CategoryNotFound},
		{status: http.StatusInternalServerError, category: models.CategoryHTTP},
	}

	for _, tc := range statusCases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := fusiontest.NewServer(tc.status, []byte("<html>error</html>"))
			defer srv.Close()

			connection, outcome := newStubExecutor(nil).TestConnection(context.Background(), models.ConnectionRequest{
				TargetURL: srv.URL,
				Username:  "john",
				Password:  "wrong",
			})
			assert.Nil(t, connection)
			require.NotNil(t, outcome)
			assert.Equal(t, tc.category, outcome.Category)
		})
	}

	t.Run("validation", func(t *testing.T) {
		_, outcome := newTestExecutor(&countingTransport{}, nil, config.Fusion{}).
			TestConnection(context.Background(), models.ConnectionRequest{TargetURL: "https://fa.example.com"})
		require.NotNil(t, outcome)
		assert.Equal(t, models.CategoryValidation, outcome.Category)
	})
}

func TestHistory(t *testing.T) {
	srv := fusiontest.NewServer(http.StatusOK, fusiontest.ReportResponse(singleValueReport))
	defer srv.Close()

	e := newStubExecutor(nil)

	for i := 0; i < 3; i++ {
		req := validRequest(srv.URL)
		req.SQL = "SELECT " + strings.Repeat("1", i+1) + " FROM dual"

		_, outcome := e.Run(context.Background(), req)
		require.Nil(t, outcome)
	}

	entries, outcome := e.History(context.Background(), "john", 2)
	require.Nil(t, outcome)
	require.Len(t, entries, 2)

	_, outcome = e.History(context.Background(), " ", 2)
	require.NotNil(t, outcome)
	assert.Equal(t, models.CategoryValidation, outcome.Category)
}
