package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cryptoscan/internal/ratelimit"
)

const (
	defaultAPIURL  = "https://api.telegram.org"
	callsPerMinute = 30
)

// Telegram sends messages through the Bot API
type Telegram struct {
	token   string
	baseURL string
	client  *http.Client
	limiter *ratelimit.Limiter
	logger  zerolog.Logger
}

// BotInfo is the getMe result
type BotInfo struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// APIError is a non-ok Bot API reply
type APIError struct {
	Status      int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram API error: status %d: %s", e.Status, e.Description)
}

// NewTelegram creates a Bot API client
func NewTelegram(token string, logger zerolog.Logger) *Telegram {
	return &Telegram{
		token:   token,
		baseURL: defaultAPIURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: ratelimit.NewPerMinute("telegram", callsPerMinute),
		logger:  logger.With().Str("component", "telegram").Logger(),
	}
}

// WithBaseURL points the client at another API host
func (t *Telegram) WithBaseURL(url string) *Telegram {
	t.baseURL = strings.TrimRight(url, "/")
	return t
}

// Configured reports whether a bot token is set
func (t *Telegram) Configured() bool {
	return t.token != ""
}

func (t *Telegram) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	httpMethod := http.MethodGet
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
		httpMethod = http.MethodPost
	}

	apiURL := fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
	req, err := http.NewRequestWithContext(ctx, httpMethod, apiURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}

	var out apiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &APIError{Status: resp.StatusCode, Description: strings.TrimSpace(string(raw))}
	}
	if resp.StatusCode != http.StatusOK || !out.OK {
		apiErr := &APIError{Status: resp.StatusCode, Description: out.Description}
		if out.Parameters != nil && out.Parameters.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(out.Parameters.RetryAfter) * time.Second
		}
		return nil, apiErr
	}
	return out.Result, nil
}

// GetMe checks the token and returns the bot identity
func (t *Telegram) GetMe(ctx context.Context) (*BotInfo, error) {
	raw, err := t.call(ctx, "getMe", nil)
	if err != nil {
		return nil, err
	}
	var info BotInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("decode getMe: %w", err)
	}
	return &info, nil
}

// Send posts an HTML message to chatID
func (t *Telegram) Send(ctx context.Context, chatID, text string) error {
	if chatID == "" {
		return fmt.Errorf("send message: empty chat id")
	}
	_, err := t.call(ctx, "sendMessage", map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
	return err
}

// SendWithRetry sends with exponential backoff (1s, 2s, 4s ...). A
// retry_after hint from the API replaces the backoff step.
func (t *Telegram) SendWithRetry(ctx context.Context, chatID, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, chatID, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}

		backoff := time.Duration(1<<uint(i)) * time.Second
		if apiErr, ok := err.(*APIError); ok {
			if apiErr.RetryAfter > 0 {
				backoff = apiErr.RetryAfter
			} else if apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden {
				// 재시도해도 같은 결과
				break
			}
		}
		t.logger.Warn().Err(err).
			Int("attempt", i+1).
			Int("max", maxRetries+1).
			Dur("retry_in", backoff).
			Msg("send failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("send to %s failed after retries: %w", chatID, lastErr)
}
