/*
2026 © Postgres.ai
*/

// Package fusiontest provides a stub BI Publisher endpoint for tests.
package fusiontest

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

const reportResponseTpl = `<?xml version="1.0" encoding="UTF-8"?>
<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope">
  <env:Header/>
  <env:Body>
    <ns2:runReportResponse xmlns:ns2="http://xmlns.oracle.com/oxp/service/PublicReportService">
      <ns2:runReportReturn>
        <ns2:reportBytes>%s</ns2:reportBytes>
        <ns2:reportContentType>text/xml</ns2:reportContentType>
      </ns2:runReportReturn>
    </ns2:runReportResponse>
  </env:Body>
</env:Envelope>`

const faultResponseTpl = `<?xml version="1.0" encoding="UTF-8"?>
<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope">
  <env:Body>
    <env:Fault>
      <env:Code><env:Value>env:Receiver</env:Value></env:Code>
      <env:Reason><env:Text xml:lang="en-US">%s</env:Text></env:Reason>
    </env:Fault>
  </env:Body>
</env:Envelope>`

// ReportResponse wraps a report document into a runReport response.
func ReportResponse(report string) []byte {
	return []byte(fmt.Sprintf(reportResponseTpl, base64.StdEncoding.EncodeToString([]byte(report))))
}

// FaultResponse renders a SOAP 1.2 fault with the given reason.
func FaultResponse(reason string) []byte {
	return []byte(fmt.Sprintf(faultResponseTpl, reason))
}

// Request is a request received by the stub.
type Request struct {
	Path     string
	Username string
	Password string
	Headers  http.Header
	Body     string
}

// Server is a stub BI Publisher answering every call with a fixed response.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	status   int
	body     []byte
	requests []Request
}

// NewServer starts a stub that answers with the given status and body.
func NewServer(status int, body []byte) *Server {
	s := &Server{status: status, body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))

	return s
}

// Respond changes the stub response.
func (s *Server) Respond(status int, body []byte) {
	s.mu.Lock()
	s.status, s.body = status, body
	s.mu.Unlock()
}

// Requests returns the received requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests := make([]Request, len(s.requests))
	copy(requests, s.requests)

	return requests
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	username, password, _ := r.BasicAuth()

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Path:     r.URL.Path,
		Username: username,
		Password: password,
		Headers:  r.Header.Clone(),
		Body:     string(body),
	})
	status, response := s.status, s.body
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/soap+xml; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}
