package conversation

import (
	"errors"
	"fmt"

	"kwetu-order-bot/internal/cart"
)

// State is the step of the ordering dialogue that the next inbound message answers.
type State string

const (
	StateNone              State = ""
	StateGreeted           State = "greeted"
	StateCategorySelection State = "category_selection"
	StateMenuSelection     State = "menu_selection"
	StateQuantity          State = "quantity"
	StateAddOrCheckout     State = "add_or_checkout"
	StateAddress           State = "address"
	StateDeliveryZone      State = "delivery_zone"
	StateFullAddress       State = "full_address"
	StatePaymentProvider   State = "payment_provider"
	StateUseWhatsAppNumber State = "use_whatsapp_number"
	StatePaymentPhone      State = "payment_phone"
)

// rank orders the checkout states so Validate can ask "has the dialogue reached X yet".
var rank = map[State]int{
	StateNone:              0,
	StateGreeted:           0,
	StateCategorySelection: 1,
	StateMenuSelection:     1,
	StateQuantity:          2,
	StateAddOrCheckout:     3,
	StateAddress:           4,
	StateDeliveryZone:      5,
	StateFullAddress:       6,
	StatePaymentProvider:   7,
	StateUseWhatsAppNumber: 8,
	StatePaymentPhone:      8,
}

// Session is the per-user conversation context kept in the session store.
// Subtotal, delivery fee and grand total are derived from Cart and Zone, never stored.
type Session struct {
	Awaiting     State      `json:"awaiting"`
	Cart         cart.Cart  `json:"cart,omitempty"`
	Category     string     `json:"category,omitempty"`
	Area         string     `json:"area,omitempty"`
	Zone         *cart.Zone `json:"delivery_zone,omitempty"`
	Address      string     `json:"address,omitempty"`
	Provider     Provider   `json:"payment_provider,omitempty"`
	CustomerName string     `json:"customer_name,omitempty"`
}

// IsZero reports whether nothing is left to remember, as after a completed checkout.
func (s Session) IsZero() bool {
	return s.Awaiting == StateNone && len(s.Cart) == 0 && s.Category == "" && s.Area == "" &&
		s.Zone == nil && s.Address == "" && s.Provider == "" && s.CustomerName == ""
}

// fresh starts a new dialogue at the given state, keeping only who the customer is.
func (s Session) fresh(state State) Session {
	return Session{Awaiting: state, CustomerName: s.CustomerName}
}

func (s Session) Totals() cart.Totals {
	return cart.Compute(s.Cart, s.Zone)
}

var errIllegalSession = errors.New("illegal session")

// Validate rejects field combinations that cannot be produced by the state machine.
func (s Session) Validate() error {
	r, ok := rank[s.Awaiting]
	if !ok {
		return fmt.Errorf("%w: unknown state %q", errIllegalSession, s.Awaiting)
	}

	switch {
	case r == 0 && len(s.Cart) > 0:
		return fmt.Errorf("%w: cart outside an order", errIllegalSession)
	case s.Awaiting == StateQuantity:
		last, ok := s.Cart.Last()
		if !ok || last.HasQuantity() {
			return fmt.Errorf("%w: quantity requested without a pending item", errIllegalSession)
		}
		if !s.Cart[:len(s.Cart)-1].Complete() && len(s.Cart) > 1 {
			return fmt.Errorf("%w: earlier cart line without quantity", errIllegalSession)
		}
	case r == 1:
		if len(s.Cart) > 0 && !s.Cart.Complete() {
			return fmt.Errorf("%w: cart line without quantity", errIllegalSession)
		}
	case r >= 3 && !s.Cart.Complete():
		return fmt.Errorf("%w: checkout with an incomplete cart", errIllegalSession)
	}

	if r >= rank[StateDeliveryZone] && s.Area == "" {
		return fmt.Errorf("%w: missing delivery area", errIllegalSession)
	}
	if r < rank[StateFullAddress] && s.Zone != nil {
		return fmt.Errorf("%w: zone chosen too early", errIllegalSession)
	}
	if r >= rank[StatePaymentProvider] && s.Address == "" {
		return fmt.Errorf("%w: missing delivery address", errIllegalSession)
	}
	if r >= rank[StateUseWhatsAppNumber] && !s.Provider.Valid() {
		return fmt.Errorf("%w: missing payment provider", errIllegalSession)
	}
	return nil
}
