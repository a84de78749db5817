package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandHandler is called when a user command is received and returns the reply.
type CommandHandler func(ctx context.Context, command string) string

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// PollTimeout is the long-polling timeout passed to getUpdates.
var PollTimeout = 30 * time.Second

// retryDelay is how long polling waits after a failed request.
var retryDelay = 5 * time.Second

// StartPolling long-polls for commands from the configured chat. Messages
// from other chats are ignored. Blocks until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	offset := 0
	client := &http.Client{Timeout: PollTimeout + 5*time.Second, Transport: t.Client.Transport}

	for {
		select {
		case <-ctx.Done():
			t.log.Info("telegram polling stopped")
			return
		default:
		}

		apiURL := fmt.Sprintf("%s?offset=%d&timeout=%d", t.endpoint("getUpdates"), offset, int(PollTimeout.Seconds()))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			t.log.Error("create polling request", zap.Error(err))
			t.sleep(ctx, retryDelay)
			continue
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.log.Warn("polling request failed", zap.Error(err))
			t.sleep(ctx, retryDelay)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.log.Warn("read polling response", zap.Error(err))
			t.sleep(ctx, retryDelay)
			continue
		}

		var result struct {
			OK          bool             `json:"ok"`
			Description string           `json:"description"`
			Result      []telegramUpdate `json:"result"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			t.log.Warn("decode polling response", zap.Int("status", resp.StatusCode), zap.Error(err))
			t.sleep(ctx, retryDelay)
			continue
		}
		// 401 (bad token) and 409 (another poller) come back as ok=false.
		if resp.StatusCode != http.StatusOK || !result.OK {
			t.log.Warn("getUpdates rejected",
				zap.Int("status", resp.StatusCode), zap.String("description", result.Description))
			t.sleep(ctx, retryDelay)
			continue
		}

		for _, update := range result.Result {
			offset = update.UpdateID + 1
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			if fmt.Sprint(update.Message.Chat.ID) != t.ChatID {
				t.log.Warn("ignoring message from unknown chat", zap.Int64("chat_id", update.Message.Chat.ID))
				continue
			}
			text := strings.TrimSpace(update.Message.Text)
			t.log.Info("received command", zap.String("command", text))
			reply := handler(ctx, text)
			if reply != "" {
				if err := t.Send(ctx, reply); err != nil {
					t.log.Error("send reply", zap.Error(err))
				}
			}
		}
	}
}

func (t *TelegramNotifier) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
