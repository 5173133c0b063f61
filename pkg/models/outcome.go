/*
2026 © Postgres.ai
*/

package models

// Category classifies a failed execution.
type Category string

// Error categories.
const (
	CategoryValidation        Category = "validation_error"
	CategoryCancelled         Category = "cancelled"
	CategoryMaintenance       Category = "maintenance_mode"
	CategorySQL               Category = "sql_error"
	CategorySOAPFault         Category = "soap_fault"
	CategoryHostUnreachable   Category = "host_unreachable"
	CategoryConnectionRefused Category = "connection_refused"
	CategoryTimeout           Category = "timeout"
	CategoryTransport         Category = "transport_error"
	CategoryAuthFailed        Category = "auth_failed"
	CategoryNotFound          Category = "not_found"
	CategoryHTTP              Category = "http_error"
	CategoryDecode            Category = "decode_error"
	CategoryEmptyResult       Category = "empty_result"
	CategoryUnknown           Category = "unknown"
)

// ErrorOutcome describes a failure in a form suitable for users.
type ErrorOutcome struct {
	Category          Category `json:"category"`
	Message           string   `json:"error"`
	Details           string   `json:"details,omitempty"`
	HTTPStatus        int      `json:"-"`
	IsMaintenanceMode bool     `json:"isMaintenanceMode"`
	OracleCode        string   `json:"oracleCode,omitempty"`
	Line              int      `json:"line,omitempty"`
}

// Error implements the error interface.
func (o *ErrorOutcome) Error() string {
	return string(o.Category) + ": " + o.Message
}
