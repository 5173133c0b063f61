/*
2026 © Postgres.ai
*/

// Package soap builds BI Publisher runReport envelopes and decodes their responses.
package soap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Namespaces and fixed report settings of the PublicReportService.
const (
	SOAP12Namespace        = "http://www.w3.org/2003/05/soap-envelope"
	ReportServiceNamespace = "http://xmlns.oracle.com/oxp/service/PublicReportService"

	DefaultReportPath = "/Custom/CidUtils/RunSQL.xdo"

	ParamSQL  = "p_sql"
	ParamRows = "p_rows"
)

const envelopeTpl = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope xmlns:soap="%s" xmlns:pub="%s">
  <soap:Header/>
  <soap:Body>
    <pub:runReport>
      <pub:reportRequest>
        <pub:attributeFormat>xml</pub:attributeFormat>
        <pub:parameterNameValues>
          <pub:item>
            <pub:name>%s</pub:name>
            <pub:values>
              <pub:item>%s</pub:item>
            </pub:values>
          </pub:item>
          <pub:item>
            <pub:name>%s</pub:name>
            <pub:values>
              <pub:item>%s</pub:item>
            </pub:values>
          </pub:item>
        </pub:parameterNameValues>
        <pub:reportAbsolutePath>%s</pub:reportAbsolutePath>
        <pub:sizeOfDataChunkDownload>-1</pub:sizeOfDataChunkDownload>
      </pub:reportRequest>
    </pub:runReport>
  </soap:Body>
</soap:Envelope>`

// ReportRequest defines parameters of a runReport call.
type ReportRequest struct {
	SQL        string
	RowLimit   int
	ReportPath string
}

// CleanSQL trims surrounding whitespace and trailing statement terminators.
func CleanSQL(sql string) string {
	sql = strings.TrimRightFunc(sql, func(r rune) bool {
		return r == ';' || unicode.IsSpace(r)
	})

	return strings.TrimSpace(sql)
}

// BuildEnvelope renders a SOAP 1.2 runReport envelope.
// Credentials are never part of the body, they travel in the Authorization header.
func BuildEnvelope(req ReportRequest) string {
	reportPath := req.ReportPath
	if reportPath == "" {
		reportPath = DefaultReportPath
	}

	return fmt.Sprintf(envelopeTpl, SOAP12Namespace, ReportServiceNamespace,
		ParamSQL, cdata(CleanSQL(req.SQL)),
		ParamRows, strconv.Itoa(req.RowLimit),
		escapeText(reportPath))
}

// cdata wraps text into CDATA sections, splitting any embedded terminator.
func cdata(text string) string {
	return "<![CDATA[" + strings.ReplaceAll(text, "]]>", "]]]]><![CDATA[>") + "]]>"
}

func escapeText(text string) string {
	buf := bytes.Buffer{}
	_ = xml.EscapeText(&buf, []byte(text))

	return buf.String()
}
