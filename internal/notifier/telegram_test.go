package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

type fakeTelegram struct {
	mu      sync.Mutex
	fail    int
	sent    chan string
	updates []map[string]any
}

func (f *fakeTelegram) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		f.mu.Lock()
		if f.fail > 0 {
			f.fail--
			f.mu.Unlock()
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		f.mu.Unlock()
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		f.sent <- payload["text"]
		w.Write([]byte(`{"ok":true}`))
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		f.mu.Lock()
		var res []map[string]any
		if r.URL.Query().Get("offset") == "0" {
			res = f.updates
		}
		f.mu.Unlock()
		if res == nil {
			time.Sleep(10 * time.Millisecond)
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": res})
	default:
		http.NotFound(w, r)
	}
}

func newFake() *fakeTelegram { return &fakeTelegram{sent: make(chan string, 8)} }

func TestSend(t *testing.T) {
	fake := newFake()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", srv.URL, "", zaptest.NewLogger(t))
	require.NoError(t, n.Send(context.Background(), "hello"))
	assert.Equal(t, "hello", <-fake.sent)

	fake.mu.Lock()
	fake.fail = 1
	fake.mu.Unlock()
	assert.Error(t, n.Send(context.Background(), "nope"))
}

func TestSendWithRetry_ContextCancelled(t *testing.T) {
	fake := newFake()
	fake.fail = 100
	srv := httptest.NewServer(fake)
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", srv.URL, "", zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := n.SendWithRetry(ctx, "hi", 3)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendWithRetry_NoRetries(t *testing.T) {
	fake := newFake()
	fake.fail = 1
	srv := httptest.NewServer(fake)
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", srv.URL, "", zaptest.NewLogger(t))
	err := n.SendWithRetry(context.Background(), "hi", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 1 retries exhausted")
}

func TestStartPolling(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	fake := newFake()
	fake.updates = []map[string]any{
		{"update_id": 6, "message": map[string]any{"text": "/list", "chat": map[string]any{"id": 99}}},
		{"update_id": 7, "message": map[string]any{"text": " /list ", "chat": map[string]any{"id": 42}}},
	}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42", srv.URL, "", zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())

	var (
		mu       sync.Mutex
		commands []string
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		n.StartPolling(ctx, func(_ context.Context, cmd string) string {
			mu.Lock()
			commands = append(commands, cmd)
			mu.Unlock()
			return "reply to " + cmd
		})
	}()

	select {
	case text := <-fake.sent:
		assert.Equal(t, "reply to /list", text)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	<-done
	n.Client.CloseIdleConnections()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/list"}, commands)
}

func TestStartPolling_BacksOffOnRejectedUpdates(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	old := retryDelay
	retryDelay = 50 * time.Millisecond
	defer func() { retryDelay = old }()

	var mu sync.Mutex
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"error_code":401,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("BAD", "42", srv.URL, "", zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	n.StartPolling(ctx, func(context.Context, string) string {
		t.Error("handler must not run")
		return ""
	})
	n.Client.CloseIdleConnections()

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, requests, 1)
	assert.LessOrEqual(t, requests, 8)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	chunks := splitMessage("aaaa\nbbbb\ncccc\n", 10)
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, chunks)

	chunks = splitMessage("ééééééééééééé", 5)
	assert.Equal(t, []string{"ééééé", "ééééé", "ééé"}, chunks)
}

func TestSend_SplitsLongMessages(t *testing.T) {
	fake := newFake()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	line := strings.Repeat("x", 99) + "\n"
	text := strings.Repeat(line, 100)

	n := NewTelegramNotifier("TOKEN", "42", srv.URL, "", zaptest.NewLogger(t))
	require.NoError(t, n.Send(context.Background(), text))
	close(fake.sent)

	var joined strings.Builder
	parts := 0
	for part := range fake.sent {
		parts++
		assert.LessOrEqual(t, len([]rune(part)), MaxMessageLen)
		joined.WriteString(part + "\n")
	}
	assert.Equal(t, 3, parts)
	assert.Equal(t, text, joined.String())
}
