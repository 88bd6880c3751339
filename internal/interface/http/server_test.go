package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"alert-relay/internal/domain/alert"
	"alert-relay/internal/infrastructure/config"
)

type fakeTargets struct {
	byID      map[int64]alert.TelegramTarget
	nextID    int64
	deleteErr error
}

func newFakeTargets() *fakeTargets {
	return &fakeTargets{byID: map[int64]alert.TelegramTarget{}, nextID: 1}
}

func (f *fakeTargets) Create(ctx context.Context, t *alert.TelegramTarget) error {
	t.ID = f.nextID
	f.nextID++
	f.byID[t.ID] = *t
	return nil
}

func (f *fakeTargets) Get(ctx context.Context, id int64) (alert.TelegramTarget, error) {
	t, ok := f.byID[id]
	if !ok {
		return alert.TelegramTarget{}, alert.ErrNotFound
	}
	return t, nil
}

func (f *fakeTargets) List(ctx context.Context) ([]alert.TelegramTarget, error) {
	out := make([]alert.TelegramTarget, 0, len(f.byID))
	for _, t := range f.byID {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTargets) Update(ctx context.Context, t *alert.TelegramTarget) error {
	if _, ok := f.byID[t.ID]; !ok {
		return alert.ErrNotFound
	}
	f.byID[t.ID] = *t
	return nil
}

func (f *fakeTargets) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.byID[id]; !ok {
		return alert.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeWebhookAlerts struct {
	byID   map[int64]alert.WebhookAlert
	nextID int64
}

func newFakeWebhookAlerts() *fakeWebhookAlerts {
	return &fakeWebhookAlerts{byID: map[int64]alert.WebhookAlert{}, nextID: 1}
}

func (f *fakeWebhookAlerts) Create(ctx context.Context, a *alert.WebhookAlert) error {
	if a.WebhookKey == "" {
		key, err := alert.GenerateWebhookKey()
		if err != nil {
			return err
		}
		a.WebhookKey = key
	}
	a.ID = f.nextID
	f.nextID++
	f.byID[a.ID] = *a
	return nil
}

func (f *fakeWebhookAlerts) Get(ctx context.Context, id int64) (alert.WebhookAlert, error) {
	a, ok := f.byID[id]
	if !ok {
		return alert.WebhookAlert{}, alert.ErrNotFound
	}
	return a, nil
}

func (f *fakeWebhookAlerts) List(ctx context.Context) ([]alert.WebhookAlert, error) {
	out := make([]alert.WebhookAlert, 0, len(f.byID))
	for _, a := range f.byID {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeWebhookAlerts) Update(ctx context.Context, a *alert.WebhookAlert) error {
	if _, ok := f.byID[a.ID]; !ok {
		return alert.ErrNotFound
	}
	f.byID[a.ID] = *a
	return nil
}

func (f *fakeWebhookAlerts) Delete(ctx context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return alert.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeWebhookAlerts) RegenerateKey(ctx context.Context, id int64) (string, error) {
	a, ok := f.byID[id]
	if !ok {
		return "", alert.ErrNotFound
	}
	key, err := alert.GenerateWebhookKey()
	if err != nil {
		return "", err
	}
	a.WebhookKey = key
	f.byID[id] = a
	return key, nil
}

type fakePriceAlerts struct {
	byID   map[int64]alert.PriceAlert
	nextID int64
}

func newFakePriceAlerts() *fakePriceAlerts {
	return &fakePriceAlerts{byID: map[int64]alert.PriceAlert{}, nextID: 1}
}

func (f *fakePriceAlerts) Create(ctx context.Context, a *alert.PriceAlert) error {
	a.ID = f.nextID
	f.nextID++
	f.byID[a.ID] = *a
	return nil
}

func (f *fakePriceAlerts) Get(ctx context.Context, id int64) (alert.PriceAlert, error) {
	a, ok := f.byID[id]
	if !ok {
		return alert.PriceAlert{}, alert.ErrNotFound
	}
	return a, nil
}

func (f *fakePriceAlerts) List(ctx context.Context) ([]alert.PriceAlert, error) {
	out := make([]alert.PriceAlert, 0, len(f.byID))
	for _, a := range f.byID {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakePriceAlerts) Update(ctx context.Context, a *alert.PriceAlert) error {
	if _, ok := f.byID[a.ID]; !ok {
		return alert.ErrNotFound
	}
	f.byID[a.ID] = *a
	return nil
}

func (f *fakePriceAlerts) Delete(ctx context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return alert.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakePriceAlerts) ResetTriggered(ctx context.Context, id int64) error {
	a, ok := f.byID[id]
	if !ok {
		return alert.ErrNotFound
	}
	a.IsTriggered = false
	a.LastTriggeredAt = nil
	f.byID[id] = a
	return nil
}

type fakeLogStore struct {
	logs []alert.NotificationLog
}

func (f *fakeLogStore) List(ctx context.Context, filter alert.LogFilter) ([]alert.NotificationLog, int, error) {
	return f.logs, len(f.logs), nil
}

type fakeDispatcher struct {
	message string
	err     error
	gotKey  string
	gotBody []byte
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, key string, body []byte) (string, error) {
	f.gotKey = key
	f.gotBody = body
	return f.message, f.err
}

type fakeNotifier struct {
	err    error
	called int
}

func (f *fakeNotifier) TestConnection(ctx context.Context, botToken, chatID string) error {
	f.called++
	return f.err
}

type testEnv struct {
	server        *Server
	targets       *fakeTargets
	webhookAlerts *fakeWebhookAlerts
	priceAlerts   *fakePriceAlerts
	logs          *fakeLogStore
	dispatcher    *fakeDispatcher
	notifier      *fakeNotifier
}

func newTestEnv() *testEnv {
	env := &testEnv{
		targets:       newFakeTargets(),
		webhookAlerts: newFakeWebhookAlerts(),
		priceAlerts:   newFakePriceAlerts(),
		logs:          &fakeLogStore{},
		dispatcher:    &fakeDispatcher{},
		notifier:      &fakeNotifier{},
	}
	env.server = NewServer(config.Config{}, Deps{
		Targets:       env.targets,
		WebhookAlerts: env.webhookAlerts,
		PriceAlerts:   env.priceAlerts,
		Logs:          env.logs,
		Dispatcher:    env.dispatcher,
		Notifier:      env.notifier,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func TestWebhookEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := newTestEnv()
		env.dispatcher.message = "TradingView Alert: breakout - AAPL - 150.2"

		w, resp := env.do(t, http.MethodPost, "/webhook/k1k2k3k4k5k6k7k8",
			map[string]interface{}{"strategy": "breakout", "ticker": "AAPL", "close": 150.2})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if resp["success"] != true {
			t.Errorf("unexpected response: %v", resp)
		}
		if env.dispatcher.gotKey != "k1k2k3k4k5k6k7k8" {
			t.Errorf("dispatcher got key %q", env.dispatcher.gotKey)
		}
	})

	t.Run("unknown_key", func(t *testing.T) {
		env := newTestEnv()
		env.dispatcher.err = alert.ErrConfigNotFound

		w, resp := env.do(t, http.MethodPost, "/webhook/nope", map[string]interface{}{})
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
		if resp["error_code"] != errCodeNotFound {
			t.Errorf("unexpected error code: %v", resp["error_code"])
		}
	})

	t.Run("inactive_target", func(t *testing.T) {
		env := newTestEnv()
		env.dispatcher.err = alert.ErrTargetInactive

		w, _ := env.do(t, http.MethodPost, "/webhook/k1", map[string]interface{}{})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("delivery_failure", func(t *testing.T) {
		env := newTestEnv()
		env.dispatcher.err = &alert.DeliveryError{Detail: "telegram down"}

		w, resp := env.do(t, http.MethodPost, "/webhook/k1", map[string]interface{}{})
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
		if resp["error_code"] != errCodeDelivery {
			t.Errorf("unexpected error code: %v", resp["error_code"])
		}
	})
}

func TestTargetEndpoints(t *testing.T) {
	t.Run("create_and_get", func(t *testing.T) {
		env := newTestEnv()
		w, resp := env.do(t, http.MethodPost, "/api/targets",
			map[string]interface{}{"bot_token": "123:abc", "chat_id": "-100200"})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %v", w.Code, resp)
		}

		w, resp = env.do(t, http.MethodGet, "/api/targets/1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		target := resp["target"].(map[string]interface{})
		if target["chat_id"] != "-100200" || target["is_active"] != true {
			t.Errorf("unexpected target: %v", target)
		}
	})

	t.Run("create_missing_token", func(t *testing.T) {
		env := newTestEnv()
		w, _ := env.do(t, http.MethodPost, "/api/targets", map[string]interface{}{"chat_id": "1"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("delete_referenced_conflict", func(t *testing.T) {
		env := newTestEnv()
		env.targets.byID[1] = alert.TelegramTarget{ID: 1, BotToken: "t", ChatID: "c", IsActive: true}
		env.targets.deleteErr = alert.ErrTargetInUse

		w, resp := env.do(t, http.MethodDelete, "/api/targets/1", nil)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
		if resp["error_code"] != errCodeTargetInUse {
			t.Errorf("unexpected error code: %v", resp["error_code"])
		}
	})

	t.Run("test_connection", func(t *testing.T) {
		env := newTestEnv()
		env.targets.byID[1] = alert.TelegramTarget{ID: 1, BotToken: "t", ChatID: "c", IsActive: true}

		w, _ := env.do(t, http.MethodPost, "/api/targets/1/test", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if env.notifier.called != 1 {
			t.Errorf("expected 1 probe, got %d", env.notifier.called)
		}
	})

	t.Run("test_connection_failure", func(t *testing.T) {
		env := newTestEnv()
		env.targets.byID[1] = alert.TelegramTarget{ID: 1, BotToken: "t", ChatID: "c", IsActive: true}
		env.notifier.err = &alert.DeliveryError{Detail: "unauthorized"}

		w, _ := env.do(t, http.MethodPost, "/api/targets/1/test", nil)
		if w.Code != http.StatusBadGateway {
			t.Fatalf("expected 502, got %d", w.Code)
		}
	})
}

func TestWebhookAlertEndpoints(t *testing.T) {
	t.Run("create_defaults", func(t *testing.T) {
		env := newTestEnv()
		w, resp := env.do(t, http.MethodPost, "/api/alerts/webhook",
			map[string]interface{}{"name": "breakout", "target_id": 1})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %v", w.Code, resp)
		}
		a := resp["alert"].(map[string]interface{})
		if a["message_template"] != alert.DefaultWebhookTemplate {
			t.Errorf("expected default template, got %v", a["message_template"])
		}
		key, _ := a["webhook_key"].(string)
		if len(key) != alert.WebhookKeyLength {
			t.Errorf("expected generated key, got %q", key)
		}
		if a["webhook_path"] != "/webhook/"+key {
			t.Errorf("unexpected webhook path: %v", a["webhook_path"])
		}
	})

	t.Run("regenerate_key", func(t *testing.T) {
		env := newTestEnv()
		_, created := env.do(t, http.MethodPost, "/api/alerts/webhook",
			map[string]interface{}{"name": "breakout", "target_id": 1})
		oldKey := created["alert"].(map[string]interface{})["webhook_key"].(string)

		w, resp := env.do(t, http.MethodPost, "/api/alerts/webhook/1/regenerate-key", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		newKey, _ := resp["webhook_key"].(string)
		if newKey == "" || newKey == oldKey {
			t.Errorf("expected a fresh key, old=%q new=%q", oldKey, newKey)
		}
	})

	t.Run("regenerate_missing", func(t *testing.T) {
		env := newTestEnv()
		w, _ := env.do(t, http.MethodPost, "/api/alerts/webhook/42/regenerate-key", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})
}

func TestPriceAlertEndpoints(t *testing.T) {
	t.Run("create_normalizes_symbol", func(t *testing.T) {
		env := newTestEnv()
		w, resp := env.do(t, http.MethodPost, "/api/alerts/price", map[string]interface{}{
			"name": "btc watch", "symbol": " btc-usd ", "condition": "above",
			"target_price": 70000, "target_id": 1, "is_one_time": true,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %v", w.Code, resp)
		}
		a := resp["alert"].(map[string]interface{})
		if a["symbol"] != "BTC-USD" {
			t.Errorf("symbol not normalized: %v", a["symbol"])
		}
	})

	t.Run("create_bad_condition", func(t *testing.T) {
		env := newTestEnv()
		w, _ := env.do(t, http.MethodPost, "/api/alerts/price", map[string]interface{}{
			"name": "x", "symbol": "AAPL", "condition": "sideways",
			"target_price": 1, "target_id": 1,
		})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("reset_rearms", func(t *testing.T) {
		env := newTestEnv()
		now := env.priceAlerts
		now.byID[1] = alert.PriceAlert{
			ID: 1, Name: "x", Symbol: "AAPL", Condition: alert.ConditionAbove,
			TargetPrice: 1, TargetID: 1, IsActive: true, IsOneTime: true, IsTriggered: true,
		}

		w, _ := env.do(t, http.MethodPost, "/api/alerts/price/1/reset", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		if now.byID[1].IsTriggered {
			t.Error("alert should be re-armed")
		}
	})
}

func TestLogEndpoint(t *testing.T) {
	env := newTestEnv()
	id := int64(4)
	env.logs.logs = []alert.NotificationLog{
		{ID: 1, WebhookAlertID: &id, MessageSent: "msg", Status: alert.StatusSuccess},
	}

	w, resp := env.do(t, http.MethodGet, "/api/logs?kind=webhook&limit=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp["total_count"].(float64) != 1 {
		t.Errorf("unexpected total: %v", resp["total_count"])
	}

	w, _ = env.do(t, http.MethodGet, "/api/logs?kind=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on bad kind, got %d", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv()
	w, resp := env.do(t, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp["db"] != "not_configured" {
		t.Errorf("expected not_configured db status, got %v", resp["db"])
	}
}
