package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"kwetu-order-bot/internal/conversation"
	"kwetu-order-bot/internal/dto"
	"kwetu-order-bot/internal/model"
	"kwetu-order-bot/internal/service"
)

type WhatsAppHandler struct {
	conversationService service.ConversationService
	verifyToken         string
	logger              *slog.Logger
}

func NewWhatsAppHandler(conversationService service.ConversationService, verifyToken string, logger *slog.Logger) *WhatsAppHandler {
	return &WhatsAppHandler{
		conversationService: conversationService,
		verifyToken:         verifyToken,
		logger:              logger,
	}
}

// Verify answers the Meta subscription handshake.
func (h *WhatsAppHandler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode != "subscribe" || h.verifyToken == "" || token != h.verifyToken {
		return c.String(http.StatusForbidden, "verification failed")
	}
	return c.String(http.StatusOK, challenge)
}

// Receive takes either the normalized payload or the Cloud API envelope. Once a
// payload is accepted the answer is 200 even if processing fails, so the
// platform does not redeliver a message the customer already got a reply to.
func (h *WhatsAppHandler) Receive(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	messages, err := decodeInbound(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	for _, in := range messages {
		if err := h.conversationService.HandleInbound(ctx, in); err != nil {
			h.logger.ErrorContext(ctx, "handle inbound message", "from", in.From, "err", err)
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "received"})
}

type inboundPayload struct {
	dto.InboundMessage
	Object string          `json:"object"`
	Entry  []model.WAEntry `json:"entry"`
}

func decodeInbound(body []byte) ([]conversation.Inbound, error) {
	var payload inboundPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errInvalidPayload("malformed json")
	}

	if payload.Object != "" || len(payload.Entry) > 0 {
		return fromEnvelope(model.WAWebhook{Object: payload.Object, Entry: payload.Entry})
	}

	in := fromNormalized(payload.InboundMessage)
	if err := checkInbound(in); err != nil {
		return nil, err
	}
	return []conversation.Inbound{in}, nil
}

func fromNormalized(msg dto.InboundMessage) conversation.Inbound {
	in := conversation.Inbound{
		From: strings.TrimSpace(msg.From),
		Name: strings.TrimSpace(msg.Name),
		Text: msg.Text,
	}
	if msg.InteractiveSelection != nil {
		in.Selection = &conversation.Selection{
			ID:    msg.InteractiveSelection.ID,
			Title: msg.InteractiveSelection.Title,
		}
	}
	return in
}

// fromEnvelope flattens every message in the envelope. Messages the bot cannot
// read (images, stickers, locations) are dropped, so envelopes carrying only
// those or delivery statuses yield no messages and are acknowledged as-is.
func fromEnvelope(hook model.WAWebhook) ([]conversation.Inbound, error) {
	var out []conversation.Inbound
	for _, entry := range hook.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string, len(change.Value.Contacts))
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}

			for _, msg := range change.Value.Messages {
				in := conversation.Inbound{From: strings.TrimSpace(msg.From), Name: names[msg.From]}
				switch {
				case msg.Text != nil:
					in.Text = msg.Text.Body
				case msg.Interactive != nil && msg.Interactive.ButtonReply != nil:
					in.Selection = &conversation.Selection{ID: msg.Interactive.ButtonReply.ID, Title: msg.Interactive.ButtonReply.Title}
				case msg.Interactive != nil && msg.Interactive.ListReply != nil:
					in.Selection = &conversation.Selection{ID: msg.Interactive.ListReply.ID, Title: msg.Interactive.ListReply.Title}
				case msg.Button != nil:
					in.Selection = &conversation.Selection{ID: msg.Button.Payload, Title: msg.Button.Text}
				}

				if in.From == "" {
					return nil, errInvalidPayload("missing sender")
				}
				if !hasContent(in) {
					continue
				}
				out = append(out, in)
			}
		}
	}
	return out, nil
}

func checkInbound(in conversation.Inbound) error {
	if in.From == "" {
		return errInvalidPayload("missing sender")
	}
	if !hasContent(in) {
		return errInvalidPayload("missing message content")
	}
	return nil
}

func hasContent(in conversation.Inbound) bool {
	return !in.Empty() || (in.Selection != nil && strings.TrimSpace(in.Selection.Title) != "")
}

type errInvalidPayload string

func (e errInvalidPayload) Error() string { return "invalid whatsapp payload: " + string(e) }
