/*
2026 © Postgres.ai
*/

package soap

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrEmptyResult means the report executed but the response holds nothing to decode.
var ErrEmptyResult = errors.New("no report data found in response - query may have returned empty results")

// FaultError represents a SOAP fault returned instead of report bytes.
type FaultError struct {
	Code string
	Text string
}

func (e *FaultError) Error() string {
	if e.Text == "" {
		return "SOAP fault occurred"
	}

	return e.Text
}

// DecodeError reports a payload that is present but cannot be decoded.
type DecodeError struct {
	Stage string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
