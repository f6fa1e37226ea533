package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/reports"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save inserts a report record
func (r *ReportRepository) Save(ctx context.Context, rep *domain.Report) error {
	const q = `
INSERT INTO check_reports
  (id, tenant_id, check_id, result_json, created_at)
VALUES (?,?,?,?,?)
ON DUPLICATE KEY UPDATE
  tenant_id=VALUES(tenant_id), check_id=VALUES(check_id), result_json=VALUES(result_json);
`
	tenant := stringOrDash(rep.TenantID)
	result := rep.Result
	if strings.TrimSpace(result) == "" {
		// result_json column requires valid JSON; use empty object
		result = "{}"
	}
	createdAt := rep.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q, rep.ID, tenant, rep.CheckID, result, createdAt)
	return err
}

// Paginate returns a page of reports ordered by created_at desc
func (r *ReportRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Report, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	const q = `
SELECT id, tenant_id, check_id, result_json, created_at
FROM check_reports
WHERE tenant_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Report
	for rows.Next() {
		var rep domain.Report
		if err := rows.Scan(&rep.ID, &rep.TenantID, &rep.CheckID, &rep.Result, &rep.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rep)
	}
	return out, rows.Err()
}

// LatestByCheck returns the newest report for one check
func (r *ReportRepository) LatestByCheck(ctx context.Context, tenant string, checkID string) (*domain.Report, error) {
	const q = `
SELECT id, tenant_id, check_id, result_json, created_at
FROM check_reports
WHERE tenant_id=? AND check_id=?
ORDER BY created_at DESC
LIMIT 1;
`
	var rep domain.Report
	err := r.db.QueryRowContext(ctx, q, tenant, checkID).Scan(
		&rep.ID, &rep.TenantID, &rep.CheckID, &rep.Result, &rep.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}
