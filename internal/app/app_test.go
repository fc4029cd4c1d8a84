package app_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urim-raffle/gateway/core"
	"github.com/urim-raffle/gateway/errs"
	"github.com/urim-raffle/gateway/internal/app"
	"github.com/urim-raffle/gateway/internal/config"
)

const goodToken = "123:good"

type sentMessage struct {
	ChatID      int64 `json:"chat_id"`
	Text        string
	ReplyMarkup struct {
		Keyboard [][]struct {
			Text   string `json:"text"`
			WebApp struct {
				URL string `json:"url"`
			} `json:"web_app"`
		} `json:"keyboard"`
	} `json:"reply_markup"`
}

// fakeTelegram serves getMe, getUpdates and sendMessage for one token.
type fakeTelegram struct {
	mu      sync.Mutex
	batches [][]map[string]any
	polls   int
	drains  int
	backlog []map[string]any
	getMe   int
	sent    []sentMessage
	srv     *httptest.Server
}

func newFakeTelegram(t *testing.T) *fakeTelegram {
	f := &fakeTelegram{}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeTelegram) serve(w http.ResponseWriter, r *http.Request) {
	prefix := "/bot" + goodToken + "/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
		return
	}

	switch strings.TrimPrefix(r.URL.Path, prefix) {
	case "getMe":
		f.mu.Lock()
		f.getMe++
		f.mu.Unlock()
		w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"URIM","username":"urim_raffle_bot"}}`))
	case "getUpdates":
		if r.URL.Query().Get("offset") == "-1" {
			f.mu.Lock()
			f.drains++
			result := []map[string]any{}
			if n := len(f.backlog); n > 0 {
				result = f.backlog[n-1:]
			}
			f.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
			return
		}
		f.mu.Lock()
		f.polls++
		var batch []map[string]any
		if len(f.batches) > 0 {
			batch, f.batches = f.batches[0], f.batches[1:]
		}
		f.mu.Unlock()
		if batch == nil {
			<-r.Context().Done()
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": batch})
	case "sendMessage":
		var m sentMessage
		json.NewDecoder(r.Body).Decode(&m)
		f.mu.Lock()
		f.sent = append(f.sent, m)
		f.mu.Unlock()
		w.Write([]byte(`{"ok":true,"result":{"message_id":10}}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeTelegram) queue(batch ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
}

func (f *fakeTelegram) drainCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drains
}

func (f *fakeTelegram) snapshot() (polls, getMe int, sent []sentMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls, f.getMe, append([]sentMessage(nil), f.sent...)
}

func update(id, chatID int64, text string) map[string]any {
	return map[string]any{
		"update_id": id,
		"message": map[string]any{
			"message_id": id,
			"from":       map[string]any{"id": 5, "is_bot": false, "first_name": "Ann"},
			"chat":       map[string]any{"id": chatID, "type": "private"},
			"date":       time.Now().Unix(),
			"text":       text,
		},
	}
}

func testConfig(apiURL string) config.Config {
	return config.Config{
		BotToken:     goodToken,
		WebAppURL:    "https://urim-raffle-miniapp.vercel.app",
		ButtonLabel:  "🎟 Enter Raffle",
		ControlStyle: "keyboard",
		ReceiveMode:  config.ModePolling,
		SkipPending:  true,
		PollTimeout:  time.Second,
		WebhookPath:  "/webhook",
		APIBaseURL:   apiURL,
		LogLevel:     "info",
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunPollingAnswersStartOnly(t *testing.T) {
	tg := newFakeTelegram(t)
	a, err := app.New(testConfig(tg.srv.URL), testLogger())
	require.NoError(t, err)

	tg.queue(update(1, 42, "/start"), update(2, 42, "/help"))
	tg.queue(update(3, 42, "/start"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		polls, _, _ := tg.snapshot()
		return polls >= 3
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	_, getMe, sent := tg.snapshot()
	assert.Equal(t, 1, getMe)
	assert.Equal(t, 1, tg.drainCount())
	require.Len(t, sent, 2)
	for _, m := range sent {
		assert.Equal(t, int64(42), m.ChatID)
		assert.Contains(t, m.Text, "Welcome to URIM 50/50 Raffle!")
		require.Len(t, m.ReplyMarkup.Keyboard, 1)
		assert.Equal(t, "https://urim-raffle-miniapp.vercel.app", m.ReplyMarkup.Keyboard[0][0].WebApp.URL)
	}
	assert.Equal(t, core.Stats{Handled: 2, Ignored: 1}, a.Dispatcher().Stats())
}

func TestRunRejectedTokenFailsBeforePolling(t *testing.T) {
	tg := newFakeTelegram(t)
	cfg := testConfig(tg.srv.URL)
	cfg.BotToken = "999:revoked"

	a, err := app.New(cfg, testLogger())
	require.NoError(t, err)

	err = a.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrAuthentication)
	assert.True(t, errs.IsStartup(err))

	polls, _, sent := tg.snapshot()
	assert.Zero(t, polls)
	assert.Empty(t, sent)
}

func TestNewMissingToken(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.BotToken = ""

	_, err := app.New(cfg, testLogger())
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestNewMissingLaunchURL(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.WebAppURL = ""

	_, err := app.New(cfg, testLogger())
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestNewWebhookWithoutAddr(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.ReceiveMode = config.ModeWebhook

	_, err := app.New(cfg, testLogger())
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestWebhookModeDispatches(t *testing.T) {
	tg := newFakeTelegram(t)
	cfg := testConfig(tg.srv.URL)
	cfg.ReceiveMode = config.ModeWebhook
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.WebhookSecret = "s3cret"
	cfg.ControlStyle = "inline"

	a, err := app.New(cfg, testLogger())
	require.NoError(t, err)
	require.NotNil(t, a.Server())

	body, _ := json.Marshal(update(7, 42, "/start"))
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(string(body)))
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", "s3cret")
	rec := httptest.NewRecorder()
	a.Server().Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	_, _, sent := tg.snapshot()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(42), sent[0].ChatID)

	rec = httptest.NewRecorder()
	a.Server().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	var st core.Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, config.ModeWebhook, st.Mode)
	assert.Equal(t, int64(1), st.Stats.Handled)
}

func runUntilPolls(t *testing.T, a *app.App, tg *fakeTelegram, polls int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		n, _, _ := tg.snapshot()
		return n >= polls
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunPollingIgnoresCommandsForOtherBots(t *testing.T) {
	tg := newFakeTelegram(t)
	a, err := app.New(testConfig(tg.srv.URL), testLogger())
	require.NoError(t, err)

	tg.queue(update(1, -100, "/start@SomeOtherBot"), update(2, -100, "/start@urim_raffle_bot"))

	runUntilPolls(t, a, tg, 2)

	_, _, sent := tg.snapshot()
	require.Len(t, sent, 1)
	assert.Equal(t, int64(-100), sent[0].ChatID)
	assert.Equal(t, core.Stats{Handled: 1, Ignored: 1}, a.Dispatcher().Stats())
}

func TestRunPollingDropsBacklogDespiteClockSkew(t *testing.T) {
	tg := newFakeTelegram(t)
	a, err := app.New(testConfig(tg.srv.URL), testLogger())
	require.NoError(t, err)

	tg.mu.Lock()
	tg.backlog = []map[string]any{update(10, 42, "/start"), update(11, 42, "/start")}
	tg.mu.Unlock()

	// A fresh message whose date lags the local clock by a few seconds.
	fresh := update(12, 42, "/start")
	fresh["message"].(map[string]any)["date"] = time.Now().Add(-5 * time.Second).Unix()
	tg.queue(fresh)

	runUntilPolls(t, a, tg, 2)

	_, _, sent := tg.snapshot()
	assert.Equal(t, 1, tg.drainCount())
	require.Len(t, sent, 1)
	assert.Equal(t, core.Stats{Handled: 1}, a.Dispatcher().Stats())
}

func TestStatusUptimeStartsWithApp(t *testing.T) {
	tg := newFakeTelegram(t)
	cfg := testConfig(tg.srv.URL)
	cfg.HTTPAddr = "127.0.0.1:0"

	a, err := app.New(cfg, testLogger())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.Server().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	var st core.Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, "0s", st.Uptime)
}
