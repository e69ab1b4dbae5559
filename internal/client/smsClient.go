package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"kwetu-order-bot/internal/config"
)

var ErrSMSNotConfigured = errors.New("sms gateway not configured")

type SMSClient interface {
	Send(ctx context.Context, to, message string) error
}

type smsClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiKey     string
	secretKey  string
	senderID   string
}

func NewSMSClient(cfg *config.SMS) SMSClient {
	return &smsClientImpl{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseApiURL: cfg.BaseApiURL,
		apiKey:     cfg.APIKey,
		secretKey:  cfg.SecretKey,
		senderID:   cfg.SenderID,
	}
}

type smsRecipient struct {
	RecipientID int    `json:"recipient_id"`
	DestAddr    string `json:"dest_addr"`
}

type smsRequest struct {
	SourceAddr string         `json:"source_addr"`
	Encoding   int            `json:"encoding"`
	Message    string         `json:"message"`
	Recipients []smsRecipient `json:"recipients"`
}

func (c *smsClientImpl) Send(ctx context.Context, to, message string) error {
	if c.baseApiURL == "" {
		return ErrSMSNotConfigured
	}

	body, err := json.Marshal(smsRequest{
		SourceAddr: c.senderID,
		Encoding:   0,
		Message:    message,
		Recipients: []smsRecipient{{RecipientID: 1, DestAddr: to}},
	})
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+"/send", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.apiKey + ":" + c.secretKey))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms send to %s: %w", to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sms error %d: %s", resp.StatusCode, string(b))
	}
	return nil
}
