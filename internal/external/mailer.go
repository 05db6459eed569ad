package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// MailerClient talks to the transactional mail service.
type MailerClient struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

type MailerConfig struct {
	BaseURL string
	APIKey  string
	From    string
	Timeout time.Duration
}

type sendMailRequest struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
}

func NewMailerClient(cfg MailerConfig) *MailerClient {
	return &MailerClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		from:    cfg.From,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// SendPasswordReset mails a password reset link to the given address.
func (mc *MailerClient) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	body := sendMailRequest{
		From:     mc.from,
		To:       to,
		Subject:  "Reset your password",
		TextBody: "A password reset was requested for your account.\n\nFollow this link to choose a new password:\n" + resetLink + "\n\nIf you did not request this, you can ignore this message.",
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mc.baseURL+"/v1/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+mc.apiKey)

	resp, err := mc.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mail service returned status %d", resp.StatusCode)
	}

	return nil
}
