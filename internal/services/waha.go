package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const wahaSession = "default"

// WahaService sends WhatsApp messages through a WAHA gateway.
type WahaService struct {
	client *resty.Client
	pause  func(ctx context.Context, d time.Duration) error
}

func NewWahaService(baseURL, apiKey string) *WahaService {
	if baseURL == "" {
		return nil
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader("X-Api-Key", apiKey)
	}
	return &WahaService{client: client, pause: sleepContext}
}

func (s *WahaService) post(ctx context.Context, endpoint string, payload map[string]string) error {
	payload["session"] = wahaSession
	resp, err := s.client.R().SetContext(ctx).SetBody(payload).Post(endpoint)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// NormalizeChatID turns a phone number into a WAHA chat id: a leading 0
// becomes the 62 country code and @c.us is appended. Group ids pass through.
func NormalizeChatID(chatID string) string {
	chatID = strings.TrimSpace(chatID)
	if strings.HasSuffix(chatID, "@g.us") {
		return chatID
	}

	chatID = strings.TrimSuffix(chatID, "@c.us")
	chatID = strings.TrimPrefix(chatID, "+")
	chatID = strings.NewReplacer(" ", "", "-", "").Replace(chatID)
	if strings.HasPrefix(chatID, "0") {
		chatID = "62" + strings.TrimPrefix(chatID, "0")
	}
	return chatID + "@c.us"
}

// SendMessage marks the chat seen, shows typing for a moment, then sends text.
func (s *WahaService) SendMessage(ctx context.Context, chatID, text string) error {
	if s == nil {
		return fmt.Errorf("whatsapp gateway not configured")
	}
	chatID = NormalizeChatID(chatID)

	steps := []struct {
		endpoint string
		payload  map[string]string
		wait     time.Duration
	}{
		{"/api/sendSeen", map[string]string{"chatId": chatID}, 100 * time.Millisecond},
		{"/api/startTyping", map[string]string{"chatId": chatID}, 150 * time.Millisecond},
		{"/api/stopTyping", map[string]string{"chatId": chatID}, 50 * time.Millisecond},
		{"/api/sendText", map[string]string{"chatId": chatID, "text": text}, 0},
	}

	for _, step := range steps {
		if err := s.post(ctx, step.endpoint, step.payload); err != nil {
			return fmt.Errorf("%s: %w", strings.TrimPrefix(step.endpoint, "/api/"), err)
		}
		if step.wait > 0 {
			if err := s.pause(ctx, step.wait); err != nil {
				return err
			}
		}
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
