package checks

import "time"

// ProviderFailure represents a persisted provider error entry, kept so
// support can see which external service degraded a verdict.
type ProviderFailure struct {
	ID        int64     `json:"id"`
	TenantID  string    `json:"tenant_id"`
	CheckID   string    `json:"check_id"`
	Service   string    `json:"service,omitempty"`
	Phase     string    `json:"phase,omitempty"` // primary | fallback | pipeline
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
