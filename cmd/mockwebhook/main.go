// Command mockwebhook posts a signed gateway charge event to a running bot,
// standing in for the payment gateway during local development.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"kwetu-order-bot/internal/config"
	"kwetu-order-bot/internal/model"
	"kwetu-order-bot/internal/service"
)

type options struct {
	url      string
	hash     string
	event    string
	id       string
	txRef    string
	status   string
	amount   string
	currency string
	phone    string
	reason   string
	dryRun   bool
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(&http.Client{Timeout: 30 * time.Second}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(httpClient *http.Client) *cobra.Command {
	var gw config.Gateway
	// defaults come from the same GATEWAY_* variables the service reads
	_ = env.ParseWithOptions(&gw, env.Options{Prefix: "GATEWAY_"})

	opts := &options{}
	cmd := &cobra.Command{
		Use:   "mockwebhook --tx-ref order-42-1718000000",
		Short: "Send a signed charge.completed event to the payment webhook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return send(cmd.OutOrStdout(), httpClient, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.url, "url", "http://localhost:8080/webhook/payment", "payment webhook endpoint")
	f.StringVar(&opts.hash, "hash", gw.WebhookHash, "shared secret sent in the "+service.WebhookHashHeader+" header")
	f.StringVar(&opts.event, "event", model.EventChargeCompleted, "event name")
	f.StringVar(&opts.id, "id", "", "gateway transaction id")
	f.StringVar(&opts.txRef, "tx-ref", "", "transaction reference of the order")
	f.StringVar(&opts.status, "status", model.GatewayStatusSuccessful, "charge status (successful, failed, pending)")
	f.StringVar(&opts.amount, "amount", "0", "charged amount")
	f.StringVar(&opts.currency, "currency", gw.Currency, "currency code")
	f.StringVar(&opts.phone, "phone", "", "payer phone number")
	f.StringVar(&opts.reason, "reason", "", "processor response for failed charges")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print the payload instead of sending it")
	_ = cmd.MarkFlagRequired("tx-ref")

	return cmd
}

func send(out io.Writer, httpClient *http.Client, opts *options) error {
	amount, err := decimal.NewFromString(opts.amount)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", opts.amount, err)
	}

	id := opts.id
	if id == "" {
		id = fmt.Sprintf("mock-%d", time.Now().Unix())
	}

	payload := model.PaymentWebhook{
		Event: opts.event,
		Data: model.PaymentWebhookData{
			ID:                model.GatewayID(id),
			TxRef:             opts.txRef,
			Status:            opts.status,
			Amount:            amount,
			Currency:          opts.currency,
			Customer:          model.GatewayCustomer{PhoneNumber: opts.phone},
			ProcessorResponse: opts.reason,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if opts.dryRun {
		fmt.Fprintf(out, "POST %s\n%s: %s\n%s\n", opts.url, service.WebhookHashHeader, opts.hash, body)
		return nil
	}

	req, err := http.NewRequest(http.MethodPost, opts.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.hash != "" {
		req.Header.Set(service.WebhookHashHeader, opts.hash)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Fprintf(out, "%d %s\n", resp.StatusCode, bytes.TrimSpace(respBody))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook rejected with status %d", resp.StatusCode)
	}
	return nil
}
