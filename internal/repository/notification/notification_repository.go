package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"onlineShop/pkg/config"
	"onlineShop/pkg/logger"

	"github.com/pobyzaarif/goshortcute"
)

type MailjetRepository struct {
	cfg    config.MailjetConfig
	client *http.Client
}

func NewMailjetRepository(cfg config.MailjetConfig) *MailjetRepository {
	return &MailjetRepository{
		cfg:    cfg,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

type payloadSendEmail struct {
	Messages []message `json:"Messages"`
}

type address struct {
	Email string `json:"Email"`
	Name  string `json:"Name"`
}

type message struct {
	From     address   `json:"From"`
	To       []address `json:"To"`
	Subject  string    `json:"Subject"`
	TextPart string    `json:"TextPart"`
}

// SendEmail posts a single plain-text message to the Mailjet send API.
func (r *MailjetRepository) SendEmail(ctx context.Context, toName, toEmail, subject, text string) error {
	payload := payloadSendEmail{
		Messages: []message{{
			From: address{
				Email: r.cfg.MailjetSenderEmail,
				Name:  r.cfg.MailjetSenderName,
			},
			To:       []address{{Email: toEmail, Name: toName}},
			Subject:  subject,
			TextPart: text,
		}},
	}

	payloadByte, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal json payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.MailjetBaseUrl+"/v3.1/send", bytes.NewReader(payloadByte))
	if err != nil {
		return err
	}

	basicAuth := goshortcute.StringtoBase64Encode(r.cfg.MailjetBasicAuthUsername + ":" + r.cfg.MailjetBasicAuthPassword)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+basicAuth)

	res, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode <= 299 {
		return nil
	}

	bodyBytes, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	logger.Warn("Mailjet rejected message", "status", res.StatusCode, "body", string(bodyBytes))

	return fmt.Errorf("mailer service return negative response %v", res.StatusCode)
}
