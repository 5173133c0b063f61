/*
2026 © Postgres.ai
*/

// Package fusion provides a BI Publisher SOAP client for Oracle Fusion Cloud.
package fusion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"gitlab.com/postgres-ai/database-lab/v2/pkg/log"

	"gitlab.com/postgres-ai/fusionql/pkg/config"
)

// DefaultServicePath defines the ExternalReportWSSService endpoint.
const DefaultServicePath = "/xmlpserver/services/ExternalReportWSSService"

const (
	contentType       = "application/soap+xml; charset=utf-8"
	defaultMaxBody    = 64 << 20
	defaultQueryLimit = 60 * time.Second
	defaultProbeLimit = 30 * time.Second
)

// Mode defines how a call treats non-2xx responses.
type Mode int

const (
	// ModeQuery returns non-2xx responses as *StatusError.
	ModeQuery Mode = iota
	// ModeProbe returns every HTTP response to the caller for diagnostics.
	ModeProbe
)

// Target describes a Fusion instance and its credentials.
type Target struct {
	URL      string
	Username string
	Password string
}

// RawResponse represents a received HTTP response.
type RawResponse struct {
	StatusCode int
	Status     string
	Body       []byte
}

// StatusError represents an unsuccessful HTTP status of a query call.
type StatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unsuccessful status given: %s", e.Status)
}

// Client provides a BI Publisher SOAP client.
type Client struct {
	client *http.Client
	cfg    config.Fusion
}

// NewClient creates a new client. Timeouts are applied per call, depending on the mode.
func NewClient(cfg config.Fusion) *Client {
	if cfg.ServicePath == "" {
		cfg.ServicePath = DefaultServicePath
	}

	if cfg.MaxResponseSize <= 0 {
		cfg.MaxResponseSize = defaultMaxBody
	}

	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaultQueryLimit
	}

	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeLimit
	}

	return &Client{
		client: &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
		},
		cfg: cfg,
	}
}

// ServiceURL builds the SOAP endpoint URL of a Fusion instance.
func (c *Client) ServiceURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", errors.Wrap(err, "failed to parse a Fusion URL")
	}

	u.Path = strings.TrimRight(u.Path, "/") + c.cfg.ServicePath

	return u.String(), nil
}

// Post sends an envelope. The call is never retried.
func (c *Client) Post(ctx context.Context, target Target, envelope string, mode Mode) (*RawResponse, error) {
	serviceURL, err := c.ServiceURL(target.URL)
	if err != nil {
		return nil, err
	}

	timeout := c.cfg.QueryTimeout
	if mode == ModeProbe {
		timeout = c.cfg.ProbeTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, serviceURL, bytes.NewBufferString(envelope))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create a request")
	}

	request.Header.Set("Content-Type", contentType)
	request.Header.Set("SOAPAction", `""`)
	request.SetBasicAuth(target.Username, target.Password)

	log.Dbg(fmt.Sprintf("BI Publisher request: POST %s (timeout %s)", serviceURL, timeout))

	response, err := c.client.Do(request)
	if err != nil {
		return nil, errors.Wrap(err, "failed to make a request")
	}

	defer func() { _ = response.Body.Close() }()

	body, err := c.readBody(response.Body)
	if err != nil {
		return nil, err
	}

	log.Dbg(fmt.Sprintf("BI Publisher response: %s, %d bytes", response.Status, len(body)))

	if mode == ModeQuery && (response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices) {
		return nil, &StatusError{StatusCode: response.StatusCode, Status: response.Status, Body: body}
	}

	return &RawResponse{StatusCode: response.StatusCode, Status: response.Status, Body: body}, nil
}

func (c *Client) readBody(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, c.cfg.MaxResponseSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read a response body")
	}

	if int64(len(data)) > c.cfg.MaxResponseSize {
		return nil, errors.Errorf("response body exceeds %d bytes", c.cfg.MaxResponseSize)
	}

	return data, nil
}
