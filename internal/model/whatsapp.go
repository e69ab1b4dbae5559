package model

// WhatsApp Cloud API inbound envelope.

type WAProfile struct {
	Name string `json:"name"`
}

type WAContact struct {
	Profile WAProfile `json:"profile"`
	WaID    string    `json:"wa_id"`
}

type WAText struct {
	Body string `json:"body"`
}

type WAReply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type WAInteractiveReply struct {
	Type        string   `json:"type"` // button_reply | list_reply
	ButtonReply *WAReply `json:"button_reply,omitempty"`
	ListReply   *WAReply `json:"list_reply,omitempty"`
}

type WAButtonPayload struct {
	Payload string `json:"payload"`
	Text    string `json:"text"`
}

type WAMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *WAText             `json:"text,omitempty"`
	Interactive *WAInteractiveReply `json:"interactive,omitempty"`
	Button      *WAButtonPayload    `json:"button,omitempty"`
}

type WAValue struct {
	MessagingProduct string      `json:"messaging_product"`
	Contacts         []WAContact `json:"contacts"`
	Messages         []WAMessage `json:"messages"`
}

type WAChange struct {
	Field string  `json:"field"`
	Value WAValue `json:"value"`
}

type WAEntry struct {
	ID      string     `json:"id"`
	Changes []WAChange `json:"changes"`
}

type WAWebhook struct {
	Object string    `json:"object"`
	Entry  []WAEntry `json:"entry"`
}

// WhatsApp Cloud API outbound message.

type WAOutText struct {
	Body string `json:"body"`
}

type WAOutButton struct {
	Type  string  `json:"type"`
	Reply WAReply `json:"reply"`
}

type WAOutRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type WAOutSection struct {
	Title string     `json:"title,omitempty"`
	Rows  []WAOutRow `json:"rows"`
}

type WAOutAction struct {
	Button   string         `json:"button,omitempty"`
	Buttons  []WAOutButton  `json:"buttons,omitempty"`
	Sections []WAOutSection `json:"sections,omitempty"`
}

type WAOutInteractive struct {
	Type   string      `json:"type"` // button | list
	Body   WAOutText   `json:"body"`
	Action WAOutAction `json:"action"`
}

type WAOutMessage struct {
	MessagingProduct string            `json:"messaging_product"`
	RecipientType    string            `json:"recipient_type"`
	To               string            `json:"to"`
	Type             string            `json:"type"`
	Text             *WAOutText        `json:"text,omitempty"`
	Interactive      *WAOutInteractive `json:"interactive,omitempty"`
}
