package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/checks"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate upserts the user row and returns its current state
func (r *UserRepository) GetOrCreate(ctx context.Context, id int64, username, firstName string) (*domain.User, error) {
	const upsert = `
INSERT INTO users (id, username, first_name, daily_checks_count, daily_checks_reset, total_checks, created_at, updated_at)
VALUES (?,?,?,0,NOW(),0,NOW(),NOW())
ON DUPLICATE KEY UPDATE
 username=IF(VALUES(username)='', username, VALUES(username)),
 first_name=IF(VALUES(first_name)='', first_name, VALUES(first_name)),
 updated_at=NOW();
`
	if _, err := r.db.ExecContext(ctx, upsert, id, username, firstName); err != nil {
		return nil, err
	}

	const q = `
SELECT id, COALESCE(username,''), COALESCE(first_name,''), is_premium,
       daily_checks_count, COALESCE(daily_checks_reset, NOW()), total_checks, created_at, updated_at
FROM users WHERE id=? LIMIT 1;
`
	var u domain.User
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&u.ID, &u.Username, &u.FirstName, &u.IsPremium,
		&u.DailyCount, &u.DailyResetAt, &u.TotalChecks, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

// ResetDailyIfNeeded zeroes the daily counter once per day boundary
func (r *UserRepository) ResetDailyIfNeeded(ctx context.Context, id int64, now time.Time) error {
	const q = `
UPDATE users
SET daily_checks_count=0, daily_checks_reset=?
WHERE id=? AND (daily_checks_reset IS NULL OR DATE(daily_checks_reset) < DATE(?));
`
	_, err := r.db.ExecContext(ctx, q, now, id, now)
	return err
}

// IncrementChecks bumps the daily and lifetime counters plus the per-day
// rate_limits row, returning the new daily count
func (r *UserRepository) IncrementChecks(ctx context.Context, id int64, day time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET daily_checks_count=daily_checks_count+1, total_checks=total_checks+1, updated_at=? WHERE id=?;`,
		day, id,
	); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rate_limits (user_id, date, count) VALUES (?,?,1)
		 ON DUPLICATE KEY UPDATE count=count+1;`,
		id, day.Format("2006-01-02"),
	); err != nil {
		return 0, err
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT daily_checks_count FROM users WHERE id=?;`, id).Scan(&count); err != nil {
		return 0, err
	}

	return count, tx.Commit()
}

// ChecksToday reads the per-day counter; missing row means zero
func (r *UserRepository) ChecksToday(ctx context.Context, id int64, day time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count FROM rate_limits WHERE user_id=? AND date=? LIMIT 1;`,
		id, day.Format("2006-01-02"),
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}
