/*
2019 © Postgres.ai
*/

package models

// Audit represents audit log actions.
type Audit struct {
	RequestID string `json:"requestId"`
	Username  string `json:"username"`
	TargetURL string `json:"targetUrl"`
	Command   string `json:"command"`
	Query     string `json:"query"`
}
