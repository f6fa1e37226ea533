package checks

import (
	"time"

	"github.com/bryanwahyu/mediaverify/internal/domain/analysis"
)

// ID type for Check
type CheckID string

// Aggregate Root: Check — one persisted analysis request
type Check struct {
	ID            CheckID            `json:"id"`
	TenantID      string             `json:"tenant_id"`
	UserID        int64              `json:"user_id"`
	MediaType     analysis.MediaType `json:"media_type"`
	Verdict       analysis.Verdict   `json:"verdict"`
	Confidence    float64            `json:"confidence"`
	Model         analysis.Model     `json:"model_used"`
	Explanation   string             `json:"explanation"`
	FileSizeBytes int64              `json:"file_size_bytes,omitempty"`
	EvidenceURL   string             `json:"evidence_url,omitempty"`
	ProcessingMS  int64              `json:"processing_ms"`
	CreatedAt     time.Time          `json:"created_at"`
}

// User holds quota state. DailyCount resets on the first check after a
// day boundary, not by a background job.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	IsPremium    bool      `json:"is_premium"`
	DailyCount   int       `json:"daily_checks_count"`
	DailyResetAt time.Time `json:"daily_checks_reset"`
	TotalChecks  int       `json:"total_checks"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VerdictCounts value object for summaries
type VerdictCounts struct {
	Real      int `json:"real"`
	Fake      int `json:"fake"`
	Uncertain int `json:"uncertain"`
	Total     int `json:"total"`
}

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*Check `json:"data"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	Total      int64    `json:"totalItems"`
	TotalPages int      `json:"totalPages"`
}
