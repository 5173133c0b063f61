/*
2026 © Postgres.ai
*/

package soap

import (
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expectedEnvelope = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:pub="http://xmlns.oracle.com/oxp/service/PublicReportService">
  <soap:Header/>
  <soap:Body>
    <pub:runReport>
      <pub:reportRequest>
        <pub:attributeFormat>xml</pub:attributeFormat>
        <pub:parameterNameValues>
          <pub:item>
            <pub:name>p_sql</pub:name>
            <pub:values>
              <pub:item><![CDATA[SELECT 1]]></pub:item>
            </pub:values>
          </pub:item>
          <pub:item>
            <pub:name>p_rows</pub:name>
            <pub:values>
              <pub:item>5</pub:item>
            </pub:values>
          </pub:item>
        </pub:parameterNameValues>
        <pub:reportAbsolutePath>/Custom/CidUtils/RunSQL.xdo</pub:reportAbsolutePath>
        <pub:sizeOfDataChunkDownload>-1</pub:sizeOfDataChunkDownload>
      </pub:reportRequest>
    </pub:runReport>
  </soap:Body>
</soap:Envelope>`

func TestBuildEnvelope(t *testing.T) {
	envelope := BuildEnvelope(ReportRequest{SQL: "  SELECT 1;; \n", RowLimit: 5})

	if envelope != expectedEnvelope {
		t.Errorf("envelope differs from expected:\n%s", diff(expectedEnvelope, envelope))
	}

	assert.Equal(t, 1, strings.Count(envelope, "<pub:name>p_sql</pub:name>"))
	assert.Equal(t, 1, strings.Count(envelope, "<pub:name>p_rows</pub:name>"))
	assert.NotContains(t, strings.ToLower(envelope), "username")
	assert.NotContains(t, strings.ToLower(envelope), "password")
}

func TestBuildEnvelopeParameters(t *testing.T) {
	testCases := []struct {
		caseName string
		sql      string
		expected string
	}{
		{
			caseName: "operators and quotes",
			sql:      "SELECT * FROM t WHERE a < 5 AND b = 'x' & c > 1",
			expected: "SELECT * FROM t WHERE a < 5 AND b = 'x' & c > 1",
		},
		{
			caseName: "CDATA terminator inside SQL",
			sql:      "SELECT ']]>' FROM dual",
			expected: "SELECT ']]>' FROM dual",
		},
		{
			caseName: "multiline with terminator",
			sql:      "SELECT 1\nFROM dual;\n",
			expected: "SELECT 1\nFROM dual",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.caseName, func(t *testing.T) {
			doc, err := parseXML([]byte(BuildEnvelope(ReportRequest{SQL: tc.sql, RowLimit: 10})))
			require.NoError(t, err)

			items := doc.Path("Body", "runReport", "reportRequest", "parameterNameValues").ChildrenNamed("item")
			require.Len(t, items, 2)

			assert.Equal(t, ParamSQL, items[0].Child("name").Text)
			assert.Equal(t, tc.expected, items[0].Path("values", "item").Text)
			assert.Equal(t, ParamRows, items[1].Child("name").Text)
			assert.Equal(t, "10", items[1].Path("values", "item").Text)
		})
	}
}

func TestBuildEnvelopeCustomReportPath(t *testing.T) {
	envelope := BuildEnvelope(ReportRequest{SQL: "SELECT 1", RowLimit: 1, ReportPath: "/Custom/A&B/Run.xdo"})

	assert.Contains(t, envelope, "<pub:reportAbsolutePath>/Custom/A&amp;B/Run.xdo</pub:reportAbsolutePath>")
}

func TestCleanSQL(t *testing.T) {
	assert.Equal(t, "SELECT 1", CleanSQL(" SELECT 1 ; ; "))
	assert.Equal(t, "", CleanSQL(";;"))
	assert.Equal(t, "SELECT ';' FROM dual", CleanSQL("SELECT ';' FROM dual;"))
}

func diff(a string, b string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)

	return dmp.DiffPrettyText(diffs)
}
