package postgres

import (
	"context"
	"database/sql"
	"errors"

	"alert-relay/internal/domain/alert"
)

// WebhookAlertRepo stores webhook alert configurations.
type WebhookAlertRepo struct {
	db *sql.DB
}

func NewWebhookAlertRepo(db *sql.DB) *WebhookAlertRepo {
	return &WebhookAlertRepo{db: db}
}

// Create inserts a configuration, generating a fresh webhook key when none is
// set.
func (r *WebhookAlertRepo) Create(ctx context.Context, a *alert.WebhookAlert) error {
	if a.WebhookKey == "" {
		key, err := alert.GenerateWebhookKey()
		if err != nil {
			return err
		}
		a.WebhookKey = key
	}
	const q = `
INSERT INTO webhook_alerts (name, webhook_key, message_template, target_id, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at;
`
	return r.db.QueryRowContext(ctx, q, a.Name, a.WebhookKey, a.MessageTemplate, a.TargetID, a.IsActive).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// Get returns one configuration by id.
func (r *WebhookAlertRepo) Get(ctx context.Context, id int64) (alert.WebhookAlert, error) {
	const q = `
SELECT id, name, webhook_key, message_template, target_id, is_active, created_at, updated_at
FROM webhook_alerts WHERE id = $1;
`
	var a alert.WebhookAlert
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.Name, &a.WebhookKey, &a.MessageTemplate, &a.TargetID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return alert.WebhookAlert{}, alert.ErrNotFound
	}
	return a, err
}

// List returns all configurations, newest first.
func (r *WebhookAlertRepo) List(ctx context.Context) ([]alert.WebhookAlert, error) {
	const q = `
SELECT id, name, webhook_key, message_template, target_id, is_active, created_at, updated_at
FROM webhook_alerts
ORDER BY created_at DESC;
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []alert.WebhookAlert
	for rows.Next() {
		var a alert.WebhookAlert
		if err := rows.Scan(&a.ID, &a.Name, &a.WebhookKey, &a.MessageTemplate, &a.TargetID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update rewrites the mutable fields. The webhook key is never changed here,
// only through RegenerateKey.
func (r *WebhookAlertRepo) Update(ctx context.Context, a *alert.WebhookAlert) error {
	const q = `
UPDATE webhook_alerts
SET name = $1, message_template = $2, target_id = $3, is_active = $4, updated_at = NOW()
WHERE id = $5
RETURNING updated_at;
`
	err := r.db.QueryRowContext(ctx, q, a.Name, a.MessageTemplate, a.TargetID, a.IsActive, a.ID).Scan(&a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return alert.ErrNotFound
	}
	return err
}

// Delete removes a configuration.
func (r *WebhookAlertRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM webhook_alerts WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return alert.ErrNotFound
	}
	return nil
}

// RegenerateKey replaces the webhook key, invalidating the previous URL.
func (r *WebhookAlertRepo) RegenerateKey(ctx context.Context, id int64) (string, error) {
	key, err := alert.GenerateWebhookKey()
	if err != nil {
		return "", err
	}
	const q = `
UPDATE webhook_alerts SET webhook_key = $1, updated_at = NOW() WHERE id = $2
RETURNING webhook_key;
`
	var out string
	err = r.db.QueryRowContext(ctx, q, key, id).Scan(&out)
	if errors.Is(err, sql.ErrNoRows) {
		return "", alert.ErrNotFound
	}
	return out, err
}

// FindActiveByKey resolves a webhook key to its active configuration and
// delivery target. An unknown key or an inactive configuration both come back
// as ErrConfigNotFound; an inactive target is returned as-is so the caller
// can record the failed delivery.
func (r *WebhookAlertRepo) FindActiveByKey(ctx context.Context, key string) (alert.WebhookConfig, error) {
	const q = `
SELECT wa.id, wa.name, wa.webhook_key, wa.message_template, wa.target_id, wa.is_active, wa.created_at, wa.updated_at,
       tt.id, tt.bot_token, tt.chat_id, tt.is_active, tt.created_at, tt.updated_at
FROM webhook_alerts wa
JOIN telegram_targets tt ON wa.target_id = tt.id
WHERE wa.webhook_key = $1 AND wa.is_active = TRUE
LIMIT 1;
`
	var cfg alert.WebhookConfig
	err := r.db.QueryRowContext(ctx, q, key).Scan(
		&cfg.Alert.ID, &cfg.Alert.Name, &cfg.Alert.WebhookKey, &cfg.Alert.MessageTemplate,
		&cfg.Alert.TargetID, &cfg.Alert.IsActive, &cfg.Alert.CreatedAt, &cfg.Alert.UpdatedAt,
		&cfg.Target.ID, &cfg.Target.BotToken, &cfg.Target.ChatID, &cfg.Target.IsActive,
		&cfg.Target.CreatedAt, &cfg.Target.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return alert.WebhookConfig{}, alert.ErrConfigNotFound
	}
	return cfg, err
}
