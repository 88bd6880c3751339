package postgres

import (
	"context"
	"database/sql"
	"errors"

	"alert-relay/internal/domain/alert"
)

// TargetRepo stores Telegram delivery targets.
type TargetRepo struct {
	db *sql.DB
}

func NewTargetRepo(db *sql.DB) *TargetRepo {
	return &TargetRepo{db: db}
}

// Create inserts a target and fills in the generated id and timestamps.
func (r *TargetRepo) Create(ctx context.Context, t *alert.TelegramTarget) error {
	const q = `
INSERT INTO telegram_targets (bot_token, chat_id, is_active)
VALUES ($1, $2, $3)
RETURNING id, created_at, updated_at;
`
	return r.db.QueryRowContext(ctx, q, t.BotToken, t.ChatID, t.IsActive).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// Get returns one target by id.
func (r *TargetRepo) Get(ctx context.Context, id int64) (alert.TelegramTarget, error) {
	const q = `
SELECT id, bot_token, chat_id, is_active, created_at, updated_at
FROM telegram_targets WHERE id = $1;
`
	var t alert.TelegramTarget
	err := r.db.QueryRowContext(ctx, q, id).
		Scan(&t.ID, &t.BotToken, &t.ChatID, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return alert.TelegramTarget{}, alert.ErrNotFound
	}
	return t, err
}

// List returns all targets, newest first.
func (r *TargetRepo) List(ctx context.Context) ([]alert.TelegramTarget, error) {
	const q = `
SELECT id, bot_token, chat_id, is_active, created_at, updated_at
FROM telegram_targets
ORDER BY created_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []alert.TelegramTarget
	for rows.Next() {
		var t alert.TelegramTarget
		if err := rows.Scan(&t.ID, &t.BotToken, &t.ChatID, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of a target.
func (r *TargetRepo) Update(ctx context.Context, t *alert.TelegramTarget) error {
	const q = `
UPDATE telegram_targets
SET bot_token = $1, chat_id = $2, is_active = $3, updated_at = NOW()
WHERE id = $4
RETURNING updated_at;
`
	err := r.db.QueryRowContext(ctx, q, t.BotToken, t.ChatID, t.IsActive, t.ID).Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return alert.ErrNotFound
	}
	return err
}

// Delete removes a target unless an alert still references it.
func (r *TargetRepo) Delete(ctx context.Context, id int64) error {
	const refQ = `
SELECT (SELECT count(*) FROM webhook_alerts WHERE target_id = $1)
     + (SELECT count(*) FROM price_alerts WHERE target_id = $1);
`
	var refs int
	if err := r.db.QueryRowContext(ctx, refQ, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return alert.ErrTargetInUse
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM telegram_targets WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return alert.ErrNotFound
	}
	return nil
}
