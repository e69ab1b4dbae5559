package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"kwetu-order-bot/internal/config"
	"kwetu-order-bot/internal/conversation"
	"kwetu-order-bot/internal/model"

	"golang.org/x/time/rate"
)

// WhatsApp Cloud API limits for interactive messages.
const (
	maxButtons          = 3
	maxListRows         = 10
	maxInteractiveBody  = 1024
	maxTextBody         = 4096
	maxButtonTitle      = 20
	maxRowTitle         = 24
	maxRowDescription   = 72
	maxListButtonLength = 20
)

type WhatsAppClient interface {
	SendText(ctx context.Context, to, body string) error
	// SendReply sends an interactive reply, degrading to plain text when it exceeds the API limits.
	SendReply(ctx context.Context, to string, reply conversation.Reply) error
}

type whatsappClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	accessToken   string
	phoneNumberID string
	limiter       *rate.Limiter
}

func NewWhatsAppClient(cfg *config.WhatsApp) WhatsAppClient {
	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = max(1, int(cfg.RatePerSecond))
	}

	return &whatsappClientImpl{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseApiURL:    cfg.BaseApiURL,
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		limiter:       rate.NewLimiter(limit, burst),
	}
}

func (c *whatsappClientImpl) SendText(ctx context.Context, to, body string) error {
	return c.send(ctx, &model.WAOutMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             &model.WAOutText{Body: truncate(body, maxTextBody)},
	})
}

func (c *whatsappClientImpl) SendReply(ctx context.Context, to string, reply conversation.Reply) error {
	interactive, ok := toInteractive(reply)
	if !ok {
		return c.SendText(ctx, to, reply.Body)
	}
	return c.send(ctx, &model.WAOutMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "interactive",
		Interactive:      interactive,
	})
}

func toInteractive(reply conversation.Reply) (*model.WAOutInteractive, bool) {
	if len([]rune(reply.Body)) > maxInteractiveBody {
		return nil, false
	}

	switch reply.Kind {
	case conversation.ReplyButtons:
		if len(reply.Buttons) == 0 || len(reply.Buttons) > maxButtons {
			return nil, false
		}
		buttons := make([]model.WAOutButton, len(reply.Buttons))
		for i, b := range reply.Buttons {
			buttons[i] = model.WAOutButton{
				Type:  "reply",
				Reply: model.WAReply{ID: b.ID, Title: truncate(b.Title, maxButtonTitle)},
			}
		}
		return &model.WAOutInteractive{
			Type:   "button",
			Body:   model.WAOutText{Body: reply.Body},
			Action: model.WAOutAction{Buttons: buttons},
		}, true

	case conversation.ReplyList:
		var rows int
		sections := make([]model.WAOutSection, 0, len(reply.Sections))
		for _, s := range reply.Sections {
			out := model.WAOutSection{Title: truncate(s.Title, maxRowTitle)}
			for _, r := range s.Rows {
				out.Rows = append(out.Rows, model.WAOutRow{
					ID:          r.ID,
					Title:       truncate(r.Title, maxRowTitle),
					Description: truncate(r.Description, maxRowDescription),
				})
			}
			rows += len(out.Rows)
			sections = append(sections, out)
		}
		if rows == 0 || rows > maxListRows {
			return nil, false
		}
		return &model.WAOutInteractive{
			Type:   "list",
			Body:   model.WAOutText{Body: reply.Body},
			Action: model.WAOutAction{Button: truncate(reply.ListButton, maxListButtonLength), Sections: sections},
		}, true
	}

	return nil, false
}

func (c *whatsappClientImpl) send(ctx context.Context, msg *model.WAOutMessage) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("whatsapp rate limit wait: %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal whatsapp message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/messages", c.baseApiURL, c.phoneNumberID),
		bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send to %s: %w", msg.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("whatsapp error %d: %s", resp.StatusCode, string(b))
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
