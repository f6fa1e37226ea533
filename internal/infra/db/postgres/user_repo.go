package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/mediaverify/internal/domain/checks"
)

type UserRepository struct{ db *sql.DB }

func NewUserRepository(db *sql.DB) *UserRepository { return &UserRepository{db: db} }

// GetOrCreate upserts the user row and returns its current state
func (r *UserRepository) GetOrCreate(ctx context.Context, id int64, username, firstName string) (*domain.User, error) {
	const upsert = `
INSERT INTO users (id, username, first_name, daily_checks_count, daily_checks_reset, total_checks, created_at, updated_at)
VALUES ($1,$2,$3,0,NOW(),0,NOW(),NOW())
ON CONFLICT (id) DO UPDATE SET
 username = CASE WHEN EXCLUDED.username = '' THEN users.username ELSE EXCLUDED.username END,
 first_name = CASE WHEN EXCLUDED.first_name = '' THEN users.first_name ELSE EXCLUDED.first_name END,
 updated_at = NOW();`
	if _, err := r.db.ExecContext(ctx, upsert, id, username, firstName); err != nil {
		return nil, err
	}

	const q = `
SELECT id, COALESCE(username,''), COALESCE(first_name,''), is_premium,
       daily_checks_count, COALESCE(daily_checks_reset, NOW()), total_checks, created_at, updated_at
FROM users WHERE id=$1 LIMIT 1;`
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
SET daily_checks_count=0, daily_checks_reset=$1
WHERE id=$2 AND (daily_checks_reset IS NULL OR daily_checks_reset::date < $1::date);`
	_, err := r.db.ExecContext(ctx, q, now, id)
	return err
}

// IncrementChecks bumps the counters and the per-day rate_limits row
func (r *UserRepository) IncrementChecks(ctx context.Context, id int64, day time.Time) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET daily_checks_count=daily_checks_count+1, total_checks=total_checks+1, updated_at=$1 WHERE id=$2;`,
		day, id,
	); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rate_limits (user_id, date, count) VALUES ($1,$2,1)
		 ON CONFLICT (user_id, date) DO UPDATE SET count = rate_limits.count + 1;`,
		id, day.Format("2006-01-02"),
	); err != nil {
		return 0, err
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT daily_checks_count FROM users WHERE id=$1;`, id).Scan(&count); err != nil {
		return 0, err
	}

	return count, tx.Commit()
}

// ChecksToday reads the per-day counter; missing row means zero
func (r *UserRepository) ChecksToday(ctx context.Context, id int64, day time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count FROM rate_limits WHERE user_id=$1 AND date=$2 LIMIT 1;`,
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
