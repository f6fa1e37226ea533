package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/checks"
)

type FailureRepository struct {
	db *sql.DB
}

func NewFailureRepository(db *sql.DB) *FailureRepository { return &FailureRepository{db: db} }

func (r *FailureRepository) Save(ctx context.Context, f *domain.ProviderFailure) error {
	const q = `
INSERT INTO check_failures
  (tenant_id, check_id, service, phase, message, created_at)
VALUES (?,?,?,?,?,?)
`
	tenant := stringOrDash(f.TenantID)
	check := stringOrDash(f.CheckID)
	service := stringOrDash(f.Service)
	phase := stringOrDash(f.Phase)
	msg := f.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	createdAt := f.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q, tenant, check, service, phase, msg, createdAt)
	return err
}

func (r *FailureRepository) ListByCheck(ctx context.Context, tenant string, checkID string, limit int) ([]*domain.ProviderFailure, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, tenant_id, check_id, service, phase, message, created_at
FROM check_failures
WHERE tenant_id=? AND check_id=?
ORDER BY created_at DESC
LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, checkID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.ProviderFailure
	for rows.Next() {
		var f domain.ProviderFailure
		if err := rows.Scan(&f.ID, &f.TenantID, &f.CheckID, &f.Service, &f.Phase, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
