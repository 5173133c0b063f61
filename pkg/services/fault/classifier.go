/*
2026 © Postgres.ai
*/

// Package fault maps failures of every call layer to user-facing outcomes.
package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	"gitlab.com/postgres-ai/fusionql/pkg/config"
	"gitlab.com/postgres-ai/fusionql/pkg/models"
	"gitlab.com/postgres-ai/fusionql/pkg/services/fusion"
	"gitlab.com/postgres-ai/fusionql/pkg/soap"
)

// DefaultMaintenanceSignature is the marker of the Oracle Cloud maintenance page.
const DefaultMaintenanceSignature = "scheduled maintenance"

// statusClientClosedRequest is returned when the caller aborts the call.
const statusClientClosedRequest = 499

// User-facing messages.
const (
	MsgMaintenance = "Oracle Cloud Service Maintenance\n\nThe Oracle Fusion Cloud service is currently undergoing " +
		"scheduled maintenance. Please try again once maintenance is complete."
	MsgHostUnreachable   = "Invalid Fusion URL - domain not found"
	MsgConnectionRefused = "Connection refused - check Fusion URL and port"
	MsgTimeout           = "Connection timeout - server may be unavailable"
	MsgAuthFailed        = "Authentication failed - invalid username or password"
	MsgNotFoundTpl       = "BI Publisher service not found - check if %s report exists in your Fusion instance"
	MsgReportFailed      = "Report execution failed"
	MsgReportFailedHint  = "The BI Publisher report returned an error. This could mean: 1) the report doesn't exist " +
		"at the specified path, 2) required parameters are missing, or 3) database connection issues."
	MsgHTTPErrorTpl    = "HTTP %d - Server returned an error"
	MsgSOAPFault       = "SOAP fault occurred"
	MsgCancelled       = "Request cancelled"
	MsgConnectionError = "Connection failed"
	MsgDecodeFailed    = "Failed to parse response from Oracle BI Publisher"
	MsgUnknown         = "Unknown error occurred"
)

var (
	oracleCodeRegex = regexp.MustCompile(`\b(?:ORA|PLS)-\d+`)
	lineRegex       = regexp.MustCompile(`(?i)\bline\s+(\d+)`)
)

// ValidationError represents a malformed request rejected before any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new validation error.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Classifier converts errors into outcomes.
type Classifier struct {
	signatures []string
	reportPath string
}

// NewClassifier creates a new classifier.
func NewClassifier(cfg config.Fusion) *Classifier {
	signatures := make([]string, 0, len(cfg.MaintenanceSignatures))

	for _, signature := range cfg.MaintenanceSignatures {
		if signature = strings.ToLower(strings.TrimSpace(signature)); signature != "" {
			signatures = append(signatures, signature)
		}
	}

	if len(signatures) == 0 {
		signatures = append(signatures, DefaultMaintenanceSignature)
	}

	reportPath := cfg.ReportPath
	if reportPath == "" {
		reportPath = soap.DefaultReportPath
	}

	return &Classifier{signatures: signatures, reportPath: reportPath}
}

// IsMaintenance reports whether a body carries the maintenance page signature.
func (c *Classifier) IsMaintenance(body []byte) bool {
	lower := strings.ToLower(string(body))

	for _, signature := range c.signatures {
		if strings.Contains(lower, signature) {
			return true
		}
	}

	return false
}

// Maintenance returns the maintenance outcome.
func (c *Classifier) Maintenance(details string) *models.ErrorOutcome {
	return &models.ErrorOutcome{
		Category:          models.CategoryMaintenance,
		Message:           MsgMaintenance,
		Details:           details,
		HTTPStatus:        http.StatusServiceUnavailable,
		IsMaintenanceMode: true,
	}
}

// Classify maps an error to an outcome. It always returns a non-nil outcome.
func (c *Classifier) Classify(err error) *models.ErrorOutcome {
	if err == nil {
		return unknown(MsgUnknown)
	}

	var (
		outcome     *models.ErrorOutcome
		validation  *ValidationError
		statusErr   *fusion.StatusError
		faultErr    *soap.FaultError
		decodeErr   *soap.DecodeError
		dnsErr      *net.DNSError
		netErr      net.Error
		opErr       *net.OpError
		statusCode  int
		description string
	)

	switch {
	case errors.As(err, &outcome):
		return outcome

	case errors.As(err, &validation):
		return &models.ErrorOutcome{
			Category:   models.CategoryValidation,
			Message:    validation.Message,
			HTTPStatus: http.StatusBadRequest,
		}

	case errors.Is(err, context.Canceled):
		return &models.ErrorOutcome{
			Category:   models.CategoryCancelled,
			Message:    MsgCancelled,
			HTTPStatus: statusClientClosedRequest,
		}

	case errors.As(err, &statusErr):
		statusCode = statusErr.StatusCode
		description = fmt.Sprintf("HTTP %d", statusCode)

		if c.IsMaintenance(statusErr.Body) {
			return c.Maintenance(description)
		}

		if soapFault, ok := soap.ParseFault(statusErr.Body); ok {
			return c.classifyFault(soapFault, description)
		}

		return c.ClassifyStatus(statusCode, "")

	case errors.As(err, &faultErr):
		if c.IsMaintenance([]byte(faultErr.Text)) {
			return c.Maintenance("")
		}

		return c.classifyFault(faultErr, "")

	case errors.As(err, &dnsErr):
		return &models.ErrorOutcome{
			Category:   models.CategoryHostUnreachable,
			Message:    MsgHostUnreachable,
			Details:    err.Error(),
			HTTPStatus: http.StatusBadRequest,
		}

	case isConnectionRefused(err, &opErr):
		return &models.ErrorOutcome{
			Category:   models.CategoryConnectionRefused,
			Message:    MsgConnectionRefused,
			Details:    err.Error(),
			HTTPStatus: http.StatusBadRequest,
		}

	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &models.ErrorOutcome{
			Category:   models.CategoryTimeout,
			Message:    MsgTimeout,
			Details:    err.Error(),
			HTTPStatus: http.StatusRequestTimeout,
		}

	case errors.As(err, &netErr):
		return &models.ErrorOutcome{
			Category:   models.CategoryTransport,
			Message:    MsgConnectionError,
			Details:    err.Error(),
			HTTPStatus: http.StatusBadGateway,
		}

	case errors.As(err, &decodeErr):
		return &models.ErrorOutcome{
			Category:   models.CategoryDecode,
			Message:    MsgDecodeFailed,
			Details:    decodeErr.Error(),
			HTTPStatus: http.StatusBadGateway,
		}

	case errors.Is(err, soap.ErrEmptyResult):
		return &models.ErrorOutcome{
			Category:   models.CategoryEmptyResult,
			Message:    soap.ErrEmptyResult.Error(),
			HTTPStatus: http.StatusBadRequest,
		}
	}

	return unknown(err.Error())
}

// ClassifyStatus maps an HTTP status with no SOAP fault to an outcome.
func (c *Classifier) ClassifyStatus(statusCode int, faultText string) *models.ErrorOutcome {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &models.ErrorOutcome{
			Category:   models.CategoryAuthFailed,
			Message:    MsgAuthFailed,
			Details:    fmt.Sprintf("HTTP %d", statusCode),
			HTTPStatus: http.StatusUnauthorized,
		}

	case http.StatusNotFound:
		return &models.ErrorOutcome{
			Category:   models.CategoryNotFound,
			Message:    fmt.Sprintf(MsgNotFoundTpl, c.reportPath),
			Details:    fmt.Sprintf("HTTP %d", statusCode),
			HTTPStatus: http.StatusNotFound,
		}

	case http.StatusInternalServerError:
		details := MsgReportFailedHint
		if faultText != "" {
			details += " Error: " + faultText
		}

		return &models.ErrorOutcome{
			Category:   models.CategoryHTTP,
			Message:    MsgReportFailed,
			Details:    details,
			HTTPStatus: http.StatusBadGateway,
		}
	}

	return &models.ErrorOutcome{
		Category:   models.CategoryHTTP,
		Message:    fmt.Sprintf(MsgHTTPErrorTpl, statusCode),
		HTTPStatus: http.StatusBadGateway,
	}
}

// classifyFault keeps Oracle error code lines and line locators verbatim.
func (c *Classifier) classifyFault(faultErr *soap.FaultError, details string) *models.ErrorOutcome {
	text := strings.TrimSpace(faultErr.Text)

	if text == "" {
		return &models.ErrorOutcome{
			Category:   models.CategorySOAPFault,
			Message:    MsgSOAPFault,
			Details:    joinDetails(details, faultErr.Code),
			HTTPStatus: http.StatusBadRequest,
		}
	}

	outcome := &models.ErrorOutcome{
		Category:   models.CategorySQL,
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}

	code := oracleCodeRegex.FindString(text)
	if code == "" {
		outcome.Message = firstLine(text)
		return outcome
	}

	outcome.OracleCode = code

	kept := make([]string, 0)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		if oracleCodeRegex.MatchString(line) || lineRegex.MatchString(line) {
			kept = append(kept, line)
		}
	}

	outcome.Message = strings.Join(kept, "\n")

	if match := lineRegex.FindStringSubmatch(text); match != nil {
		if line, err := strconv.Atoi(match[1]); err == nil {
			outcome.Line = line
		}
	}

	return outcome
}

func isConnectionRefused(err error, opErr **net.OpError) bool {
	if errors.As(err, opErr) && errors.Is((*opErr).Err, syscall.ECONNREFUSED) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func firstLine(text string) string {
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		return strings.TrimSpace(text[:i])
	}

	return text
}

func joinDetails(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))

	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}

	return strings.Join(nonEmpty, ", ")
}

func unknown(message string) *models.ErrorOutcome {
	return &models.ErrorOutcome{
		Category:   models.CategoryUnknown,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}
