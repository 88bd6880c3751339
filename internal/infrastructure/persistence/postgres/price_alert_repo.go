package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"alert-relay/internal/domain/alert"
)

// PriceAlertRepo stores price alert configurations.
type PriceAlertRepo struct {
	db *sql.DB
}

func NewPriceAlertRepo(db *sql.DB) *PriceAlertRepo {
	return &PriceAlertRepo{db: db}
}

// Create inserts an alert and fills in the generated id and timestamps.
func (r *PriceAlertRepo) Create(ctx context.Context, a *alert.PriceAlert) error {
	const q = `
INSERT INTO price_alerts (name, symbol, condition, target_price, message_template, target_id, is_active, is_one_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at, updated_at;
`
	return r.db.QueryRowContext(ctx, q,
		a.Name, a.Symbol, string(a.Condition), a.TargetPrice, a.MessageTemplate, a.TargetID, a.IsActive, a.IsOneTime,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// Get returns one alert by id.
func (r *PriceAlertRepo) Get(ctx context.Context, id int64) (alert.PriceAlert, error) {
	const q = `
SELECT id, name, symbol, condition, target_price, message_template, target_id, is_active, is_one_time, is_triggered, last_triggered_at, created_at, updated_at
FROM price_alerts WHERE id = $1;
`
	a, err := scanPriceAlert(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return alert.PriceAlert{}, alert.ErrNotFound
	}
	return a, err
}

// List returns all alerts, newest first.
func (r *PriceAlertRepo) List(ctx context.Context) ([]alert.PriceAlert, error) {
	const q = `
SELECT id, name, symbol, condition, target_price, message_template, target_id, is_active, is_one_time, is_triggered, last_triggered_at, created_at, updated_at
FROM price_alerts
ORDER BY created_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []alert.PriceAlert
	for rows.Next() {
		a, err := scanPriceAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListActive returns every active alert joined with its delivery target, the
// working set of one poll cycle.
func (r *PriceAlertRepo) ListActive(ctx context.Context) ([]alert.PriceAlertWithTarget, error) {
	const q = `
SELECT pa.id, pa.name, pa.symbol, pa.condition, pa.target_price, pa.message_template, pa.target_id, pa.is_active, pa.is_one_time, pa.is_triggered, pa.last_triggered_at, pa.created_at, pa.updated_at,
       tt.id, tt.bot_token, tt.chat_id, tt.is_active, tt.created_at, tt.updated_at
FROM price_alerts pa
JOIN telegram_targets tt ON pa.target_id = tt.id
WHERE pa.is_active = TRUE
ORDER BY pa.id;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []alert.PriceAlertWithTarget
	for rows.Next() {
		var item alert.PriceAlertWithTarget
		var cond string
		var triggeredAt sql.NullTime
		if err := rows.Scan(
			&item.Alert.ID, &item.Alert.Name, &item.Alert.Symbol, &cond, &item.Alert.TargetPrice,
			&item.Alert.MessageTemplate, &item.Alert.TargetID, &item.Alert.IsActive,
			&item.Alert.IsOneTime, &item.Alert.IsTriggered, &triggeredAt,
			&item.Alert.CreatedAt, &item.Alert.UpdatedAt,
			&item.Target.ID, &item.Target.BotToken, &item.Target.ChatID, &item.Target.IsActive,
			&item.Target.CreatedAt, &item.Target.UpdatedAt,
		); err != nil {
			return nil, err
		}
		item.Alert.Condition = alert.Condition(cond)
		if triggeredAt.Valid {
			item.Alert.LastTriggeredAt = &triggeredAt.Time
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields of an alert.
func (r *PriceAlertRepo) Update(ctx context.Context, a *alert.PriceAlert) error {
	const q = `
UPDATE price_alerts
SET name = $1, symbol = $2, condition = $3, target_price = $4, message_template = $5, target_id = $6,
    is_active = $7, is_one_time = $8, updated_at = NOW()
WHERE id = $9
RETURNING updated_at;
`
	err := r.db.QueryRowContext(ctx, q,
		a.Name, a.Symbol, string(a.Condition), a.TargetPrice, a.MessageTemplate, a.TargetID,
		a.IsActive, a.IsOneTime, a.ID,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return alert.ErrNotFound
	}
	return err
}

// Delete removes an alert.
func (r *PriceAlertRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM price_alerts WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return alert.ErrNotFound
	}
	return nil
}

// MarkTriggered records a fire, which retires one-time alerts from future
// cycles.
func (r *PriceAlertRepo) MarkTriggered(ctx context.Context, id int64, at time.Time) error {
	const q = `
UPDATE price_alerts SET is_triggered = TRUE, last_triggered_at = $1, updated_at = NOW() WHERE id = $2;
`
	_, err := r.db.ExecContext(ctx, q, at, id)
	return err
}

// ResetTriggered re-arms a spent one-time alert.
func (r *PriceAlertRepo) ResetTriggered(ctx context.Context, id int64) error {
	const q = `
UPDATE price_alerts SET is_triggered = FALSE, last_triggered_at = NULL, updated_at = NOW() WHERE id = $1
RETURNING id;
`
	var got int64
	err := r.db.QueryRowContext(ctx, q, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return alert.ErrNotFound
	}
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPriceAlert(row rowScanner) (alert.PriceAlert, error) {
	var a alert.PriceAlert
	var cond string
	var triggeredAt sql.NullTime
	err := row.Scan(
		&a.ID, &a.Name, &a.Symbol, &cond, &a.TargetPrice, &a.MessageTemplate, &a.TargetID,
		&a.IsActive, &a.IsOneTime, &a.IsTriggered, &triggeredAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return alert.PriceAlert{}, err
	}
	a.Condition = alert.Condition(cond)
	if triggeredAt.Valid {
		a.LastTriggeredAt = &triggeredAt.Time
	}
	return a, nil
}
