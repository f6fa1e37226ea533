package checks

import (
	"context"
	"time"
)

// Repository port (interface for check persistence)
type Repository interface {
	Save(ctx context.Context, c *Check) error
	Get(ctx context.Context, tenant string, id CheckID) (*Check, error)
	Latest(ctx context.Context, tenant string, limit int) ([]*Check, error)
	Summary(ctx context.Context, tenant string, sinceDays int) (VerdictCounts, error)
	Paginate(ctx context.Context, tenant string, page, pageSize int, filters map[string]interface{}) (PaginatedResult, error)
}

// UserRepository port (interface for quota state)
type UserRepository interface {
	GetOrCreate(ctx context.Context, id int64, username, firstName string) (*User, error)
	ResetDailyIfNeeded(ctx context.Context, id int64, now time.Time) error
	IncrementChecks(ctx context.Context, id int64, day time.Time) (int, error)
	ChecksToday(ctx context.Context, id int64, day time.Time) (int, error)
}

// EvidenceStore port (interface for storing the analyzed media bytes)
type EvidenceStore interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// FailureLog port (interface for persisting provider failures)
type FailureLog interface {
	Save(ctx context.Context, f *ProviderFailure) error
	ListByCheck(ctx context.Context, tenant string, checkID string, limit int) ([]*ProviderFailure, error)
}
