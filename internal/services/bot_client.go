package services

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

// BotClient ходит в Telegram Bot API: инвойсы в Stars и уведомления.
type BotClient struct {
	apiBase    string
	token      string
	httpClient *http.Client
	log        *zap.Logger
}

func NewBotClient(token string, log *zap.Logger) *BotClient {
	return &BotClient{
		apiBase: "https://api.telegram.org",
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

type tgResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (c *BotClient) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram api unavailable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var tgResp tgResponse
	if err := json.Unmarshal(raw, &tgResp); err != nil {
		return fmt.Errorf("telegram api returned %d: %s", resp.StatusCode, string(raw))
	}
	if !tgResp.OK {
		return fmt.Errorf("telegram api error: %s", tgResp.Description)
	}
	if out != nil {
		return json.Unmarshal(tgResp.Result, out)
	}
	return nil
}

// CreateStarsInvoiceLink создаёт ссылку на оплату в Telegram Stars.
// Валюта XTR, цена в целых звёздах.
func (c *BotClient) CreateStarsInvoiceLink(ctx context.Context, title, description, payload string, stars int64) (string, error) {
	req := map[string]any{
		"title":       title,
		"description": description,
		"payload":     payload,
		"currency":    "XTR",
		"prices": []map[string]any{
			{"label": title, "amount": stars},
		},
	}
	var link string
	if err := c.call(ctx, "createInvoiceLink", req, &link); err != nil {
		return "", err
	}
	return link, nil
}

// AnswerPreCheckoutQuery подтверждает pre-checkout. Телеграм ждёт ответ
// не дольше 10 секунд.
func (c *BotClient) AnswerPreCheckoutQuery(ctx context.Context, queryID string, ok bool, errorMessage string) error {
	req := map[string]any{
		"pre_checkout_query_id": queryID,
		"ok":                    ok,
	}
	if !ok && errorMessage != "" {
		req["error_message"] = errorMessage
	}
	return c.call(ctx, "answerPreCheckoutQuery", req, nil)
}

func (c *BotClient) SendNotification(ctx context.Context, telegramID int64, text string) error {
	err := c.call(ctx, "sendMessage", map[string]any{
		"chat_id": telegramID,
		"text":    text,
	}, nil)
	if err != nil {
		c.log.Warn("failed to send bot notification", zap.Int64("telegram_id", telegramID), zap.Error(err))
	}
	return err
}
