package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"alert-relay/internal/domain/alert"
)

func TestWebhookAlertRepo_Create_GeneratesKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("new sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewWebhookAlertRepo(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO webhook_alerts").
		WithArgs("breakout", sqlmock.AnyArg(), alert.DefaultWebhookTemplate, int64(1), true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(4, now, now))

	a := alert.WebhookAlert{
		Name:            "breakout",
		MessageTemplate: alert.DefaultWebhookTemplate,
		TargetID:        1,
		IsActive:        true,
	}
	if err := repo.Create(context.Background(), &a); err != nil {
		t.Fatalf("create webhook alert: %v", err)
	}
	if len(a.WebhookKey) != alert.WebhookKeyLength {
		t.Errorf("expected generated key of length %d, got %q", alert.WebhookKeyLength, a.WebhookKey)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestWebhookAlertRepo_FindActiveByKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("new sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewWebhookAlertRepo(db)
	now := time.Now()

	cols := []string{
		"id", "name", "webhook_key", "message_template", "target_id", "is_active", "created_at", "updated_at",
		"t_id", "bot_token", "chat_id", "t_is_active", "t_created_at", "t_updated_at",
	}
	mock.ExpectQuery("SELECT wa.id").
		WithArgs("k1k2k3k4k5k6k7k8").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			4, "breakout", "k1k2k3k4k5k6k7k8", alert.DefaultWebhookTemplate, 1, true, now, now,
			1, "123:abc", "-100200", true, now, now,
		))

	cfg, err := repo.FindActiveByKey(context.Background(), "k1k2k3k4k5k6k7k8")
	if err != nil {
		t.Fatalf("find by key: %v", err)
	}
	if cfg.Alert.ID != 4 || cfg.Target.ChatID != "-100200" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestWebhookAlertRepo_FindActiveByKey_Unknown(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("new sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewWebhookAlertRepo(db)
	mock.ExpectQuery("SELECT wa.id").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.FindActiveByKey(context.Background(), "nope")
	if !errors.Is(err, alert.ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestWebhookAlertRepo_RegenerateKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("new sqlmock: %v", err)
	}
	defer db.Close()

	repo := NewWebhookAlertRepo(db)
	mock.ExpectQuery("UPDATE webhook_alerts SET webhook_key").
		WithArgs(sqlmock.AnyArg(), int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"webhook_key"}).AddRow("z9z8z7z6z5z4z3z2"))

	key, err := repo.RegenerateKey(context.Background(), 4)
	if err != nil {
		t.Fatalf("regenerate key: %v", err)
	}
	if key != "z9z8z7z6z5z4z3z2" {
		t.Errorf("unexpected key: %q", key)
	}
}
