package reports

import "time"

// ReportID identifier type
type ReportID string

// Report represents an AI-written explanation of a stored check, kept for
// auditing and retrieval
type Report struct {
	ID        ReportID  `json:"id"`
	TenantID  string    `json:"tenant_id"`
	CheckID   string    `json:"check_id"`
	Result    string    `json:"result"` // JSON string from AI
	CreatedAt time.Time `json:"created_at"`
}
