package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"alert-relay/internal/domain/alert"
)

// LogRepo stores delivery attempt records for both alert kinds.
type LogRepo struct {
	db *sql.DB
}

func NewLogRepo(db *sql.DB) *LogRepo {
	return &LogRepo{db: db}
}

// Insert appends one delivery record and fills in the generated id.
func (r *LogRepo) Insert(ctx context.Context, l *alert.NotificationLog) error {
	const q = `
INSERT INTO notification_logs (webhook_alert_id, price_alert_id, payload, message_sent, status, error_message)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at;
`
	return r.db.QueryRowContext(ctx, q,
		nullID(l.WebhookAlertID), nullID(l.PriceAlertID),
		nullString(l.Payload), l.MessageSent, string(l.Status), nullString(l.ErrorMessage),
	).Scan(&l.ID, &l.CreatedAt)
}

// List returns a page of records, newest first, plus the total match count.
func (r *LogRepo) List(ctx context.Context, filter alert.LogFilter) ([]alert.NotificationLog, int, error) {
	where, args := logConditions(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	q := `
SELECT id, webhook_alert_id, price_alert_id, payload, message_sent, status, error_message, created_at
FROM notification_logs
` + where + " ORDER BY created_at DESC"
	q += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	pageArgs := append(append([]interface{}{}, args...), limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, q, pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []alert.NotificationLog
	for rows.Next() {
		var l alert.NotificationLog
		var webhookID, priceID sql.NullInt64
		var payload, errMsg sql.NullString
		var status string
		if err := rows.Scan(&l.ID, &webhookID, &priceID, &payload, &l.MessageSent, &status, &errMsg, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		if webhookID.Valid {
			l.WebhookAlertID = &webhookID.Int64
		}
		if priceID.Valid {
			l.PriceAlertID = &priceID.Int64
		}
		l.Payload = payload.String
		l.ErrorMessage = errMsg.String
		l.Status = alert.LogStatus(status)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	countQ := `SELECT count(*) FROM notification_logs ` + where
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func logConditions(filter alert.LogFilter) (string, []interface{}) {
	conds := []string{}
	args := []interface{}{}
	switch filter.Kind {
	case alert.LogKindWebhook:
		conds = append(conds, "webhook_alert_id IS NOT NULL")
	case alert.LogKindPrice:
		conds = append(conds, "price_alert_id IS NOT NULL")
	}
	if filter.Status != "" {
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(filter.Status))
	}
	where := ""
	for i, c := range conds {
		if i == 0 {
			where = "WHERE " + c
		} else {
			where += " AND " + c
		}
	}
	return where, args
}

func nullID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
