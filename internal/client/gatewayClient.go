package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"kwetu-order-bot/internal/config"
	"kwetu-order-bot/internal/model"
)

// PaymentGateway is the mobile-money processor. Calls are single attempts.
type PaymentGateway interface {
	CreateMobileMoneyCharge(ctx context.Context, req *model.ChargeRequest) (*model.ChargeResponse, error)
	VerifyTransaction(ctx context.Context, transactionID string) (*model.VerifyResponse, error)
}

type gatewayClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	secretKey  string
}

func NewGatewayClient(cfg *config.Gateway) PaymentGateway {
	return &gatewayClientImpl{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseApiURL: cfg.BaseApiURL,
		secretKey:  cfg.SecretKey,
	}
}

func (c *gatewayClientImpl) CreateMobileMoneyCharge(ctx context.Context, charge *model.ChargeRequest) (*model.ChargeResponse, error) {
	body, err := json.Marshal(charge)
	if err != nil {
		return nil, fmt.Errorf("marshal charge payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/charges?type=mobile_money_tanzania",
		bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result model.ChargeResponse
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("create charge %s: %w", charge.TxRef, err)
	}
	return &result, nil
}

func (c *gatewayClientImpl) VerifyTransaction(ctx context.Context, transactionID string) (*model.VerifyResponse, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("verify transaction: empty transaction id")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/transactions/%s/verify", c.baseApiURL, url.PathEscape(transactionID)),
		nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}

	var result model.VerifyResponse
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("verify transaction %s: %w", transactionID, err)
	}
	return &result, nil
}

func (c *gatewayClientImpl) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
