package mysql

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/bryanwahyu/mediaverify/internal/domain/analysis"
	domain "github.com/bryanwahyu/mediaverify/internal/domain/checks"
)

type CheckRepository struct {
	db *sql.DB
}

func NewCheckRepository(db *sql.DB) *CheckRepository {
	return &CheckRepository{db: db}
}

// Save insert/update Check record
func (r *CheckRepository) Save(ctx context.Context, c *domain.Check) error {
	const q = `
INSERT INTO checks
(id, tenant_id, user_id, media_type, verdict, confidence, model_used,
 explanation, file_size_bytes, evidence_url, processing_ms, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 verdict=VALUES(verdict), confidence=VALUES(confidence), model_used=VALUES(model_used),
 explanation=VALUES(explanation), evidence_url=VALUES(evidence_url),
 processing_ms=VALUES(processing_ms);
`
	tenant := stringOrDash(c.TenantID)
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := r.db.ExecContext(ctx, q,
		c.ID, tenant, c.UserID, c.MediaType, c.Verdict, c.Confidence, c.Model,
		c.Explanation, c.FileSizeBytes, c.EvidenceURL, c.ProcessingMS, created,
	)
	return err
}

// Get by ID + Tenant
func (r *CheckRepository) Get(ctx context.Context, tenant string, id domain.CheckID) (*domain.Check, error) {
	const q = `
SELECT id, tenant_id, user_id, media_type, verdict, confidence, model_used,
       explanation, file_size_bytes, evidence_url, processing_ms, created_at
FROM checks
WHERE tenant_id=? AND id=? LIMIT 1;
`
	return scanCheck(r.db.QueryRowContext(ctx, q, tenant, id))
}

// Latest checks per tenant
func (r *CheckRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Check, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, tenant_id, user_id, media_type, verdict, confidence, model_used,
       explanation, file_size_bytes, evidence_url, processing_ms, created_at
FROM checks
WHERE tenant_id=? ORDER BY created_at DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectChecks(rows)
}

// Summary counts verdicts since N days
func (r *CheckRepository) Summary(ctx context.Context, tenant string, sinceDays int) (domain.VerdictCounts, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(*) AS total,
       COALESCE(SUM(verdict='REAL'),0)      AS real_count,
       COALESCE(SUM(verdict='FAKE'),0)      AS fake_count,
       COALESCE(SUM(verdict='UNCERTAIN'),0) AS uncertain_count
FROM checks
WHERE tenant_id=? AND created_at >= ?;
`
	var c domain.VerdictCounts
	if err := r.db.QueryRowContext(ctx, q, tenant, cut).Scan(&c.Total, &c.Real, &c.Fake, &c.Uncertain); err != nil {
		return domain.VerdictCounts{}, err
	}
	return c, nil
}

// Paginate with offset + limit and optional filters
func (r *CheckRepository) Paginate(ctx context.Context, tenant string, page, pageSize int, filters map[string]interface{}) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := `
SELECT id, tenant_id, user_id, media_type, verdict, confidence, model_used,
       explanation, file_size_bytes, evidence_url, processing_ms, created_at
FROM checks
WHERE tenant_id=?`
	countQuery := `SELECT COUNT(*) FROM checks WHERE tenant_id=?`

	args := []interface{}{tenant}
	for key, value := range filters {
		switch key {
		case "media_type":
			query += " AND media_type = ?"
			countQuery += " AND media_type = ?"
			args = append(args, value)
		case "verdict":
			query += " AND verdict = ?"
			countQuery += " AND verdict = ?"
			args = append(args, value)
		case "model":
			query += " AND model_used LIKE ?"
			countQuery += " AND model_used LIKE ?"
			term, _ := value.(string)
			args = append(args, "%"+escapeLikePattern(term)+"%")
		}
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return domain.PaginatedResult{}, err
	}

	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.PaginatedResult{}, err
	}
	defer rows.Close()

	data, err := collectChecks(rows)
	if err != nil {
		return domain.PaginatedResult{}, err
	}

	return domain.PaginatedResult{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheck(row rowScanner) (*domain.Check, error) {
	var c domain.Check
	var mediaType, verdict, model string
	if err := row.Scan(
		&c.ID, &c.TenantID, &c.UserID, &mediaType, &verdict, &c.Confidence, &model,
		&c.Explanation, &c.FileSizeBytes, &c.EvidenceURL, &c.ProcessingMS, &c.CreatedAt,
	); err != nil {
		return nil, err
	}
	c.MediaType = analysis.MediaType(mediaType)
	c.Verdict = analysis.Verdict(verdict)
	c.Model = analysis.Model(model)
	return &c, nil
}

func collectChecks(rows *sql.Rows) ([]*domain.Check, error) {
	var out []*domain.Check
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
