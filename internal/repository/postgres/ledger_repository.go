package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"exchange-ticket-bot/internal/domain/stats"
	"exchange-ticket-bot/internal/repository"
)

// LedgerRepository stores exchanged totals and bot settings in Postgres.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository { return &LedgerRepository{db: db} }

// GetUserTotal returns zero for users that were never credited.
func (r *LedgerRepository) GetUserTotal(ctx context.Context, userID string) (decimal.Decimal, error) {
	const q = `SELECT total_exchanged FROM user_stats WHERE user_id=$1`
	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, q, userID).Scan(&total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return total, nil
}

// IncrementUserTotal upserts the user row and adds delta in one statement.
func (r *LedgerRepository) IncrementUserTotal(ctx context.Context, userID string, delta decimal.Decimal) (decimal.Decimal, error) {
	const q = `
	INSERT INTO user_stats (user_id, total_exchanged, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (user_id) DO UPDATE SET
		total_exchanged = user_stats.total_exchanged + EXCLUDED.total_exchanged,
		updated_at = now()
	RETURNING total_exchanged
`
	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, q, userID, delta).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// SubtractUserTotal locks the row, then writes max(total-amount, 0).
func (r *LedgerRepository) SubtractUserTotal(ctx context.Context, userID string, amount decimal.Decimal) (prev, next decimal.Decimal, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `SELECT total_exchanged FROM user_stats WHERE user_id=$1 FOR UPDATE`, userID).Scan(&prev)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, decimal.Zero, err
		}
		prev, err = decimal.Zero, nil
	}

	const q = `
	INSERT INTO user_stats (user_id, total_exchanged, updated_at)
	VALUES ($1, 0, now())
	ON CONFLICT (user_id) DO UPDATE SET
		total_exchanged = GREATEST(user_stats.total_exchanged - $2, 0),
		updated_at = now()
	RETURNING total_exchanged
`
	if err = tx.QueryRowContext(ctx, q, userID, amount).Scan(&next); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if err = tx.Commit(); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return prev, next, nil
}

func (r *LedgerRepository) SetUserTotal(ctx context.Context, userID string, value decimal.Decimal) error {
	const q = `
	INSERT INTO user_stats (user_id, total_exchanged, updated_at)
	VALUES ($1, GREATEST($2::numeric, 0), now())
	ON CONFLICT (user_id) DO UPDATE SET
		total_exchanged = EXCLUDED.total_exchanged,
		updated_at = now()
`
	_, err := r.db.ExecContext(ctx, q, userID, value)
	return err
}

// ListUsersByTotalDesc returns users ordered by total; ties fall back to user_id.
func (r *LedgerRepository) ListUsersByTotalDesc(ctx context.Context, limit int) ([]stats.UserStats, error) {
	q := `SELECT user_id, total_exchanged FROM user_stats ORDER BY total_exchanged DESC, user_id ASC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []stats.UserStats
	for rows.Next() {
		var s stats.UserStats
		if err := rows.Scan(&s.UserID, &s.TotalExchanged); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *LedgerRepository) GetGlobalTotal(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx, `SELECT total_exchanged FROM global_stats WHERE id = 1`).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	return total, err
}

// IncrementGlobalTotal creates the singleton row if a migration never seeded it.
func (r *LedgerRepository) IncrementGlobalTotal(ctx context.Context, delta decimal.Decimal) (decimal.Decimal, error) {
	const q = `
	INSERT INTO global_stats (id, total_exchanged, updated_at)
	VALUES (1, $1, now())
	ON CONFLICT (id) DO UPDATE SET
		total_exchanged = global_stats.total_exchanged + EXCLUDED.total_exchanged,
		updated_at = now()
	RETURNING total_exchanged
`
	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, q, delta).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *LedgerRepository) GetConfig(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM bot_config WHERE key=$1`, key).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

func (r *LedgerRepository) SetConfig(ctx context.Context, key, value string) error {
	const q = `
	INSERT INTO bot_config (key, value, updated_at) VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`
	_, err := r.db.ExecContext(ctx, q, key, value)
	return err
}

// HealthCheck pings the database.
func (r *LedgerRepository) HealthCheck(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

var _ repository.Ledger = (*LedgerRepository)(nil)
