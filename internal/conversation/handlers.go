package conversation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"kwetu-order-bot/internal/apperr"
	"kwetu-order-bot/internal/cart"
	"kwetu-order-bot/internal/model"
)

const maxQuantity = 99

func (m *Machine) handleFirstContact(_ context.Context, sess Session, _ Inbound) ([]Reply, Session) {
	return []Reply{Text(m.greetingText(sess.CustomerName))}, sess.fresh(StateGreeted)
}

func (m *Machine) handleGreeted(_ context.Context, sess Session, _ Inbound) ([]Reply, Session) {
	return []Reply{Text(m.fallbackText())}, sess
}

func (m *Machine) handleCategorySelection(ctx context.Context, sess Session, in Inbound) ([]Reply, Session) {
	category, ok := parseCategory(in.Normalized())
	if !ok {
		return []Reply{Text("Please reply with a number from 1 to 4 to choose a category."), m.categoriesReply()}, sess
	}

	products, err := m.catalog.ProductsByCategory(ctx, category)
	if err != nil {
		m.logger.ErrorContext(ctx, "list category products", "from", in.From, "category", category, "err", err)
		return []Reply{Text(genericErrorText)}, sess
	}
	if len(products) == 0 {
		return []Reply{
			Text(fmt.Sprintf("Sorry, there is nothing available under %s right now.", category)),
			m.categoriesReply(),
		}, sess
	}

	sess.Awaiting = StateMenuSelection
	sess.Category = string(category)
	return []Reply{m.productsReply(string(category), products)}, sess
}

func (m *Machine) handleMenuSelection(ctx context.Context, sess Session, in Inbound) ([]Reply, Session) {
	id, err := strconv.ParseUint(in.Normalized(), 10, 64)
	if err != nil || id == 0 {
		return []Reply{Text("Please reply with the number of the item you would like from the menu.")}, sess
	}

	product, err := m.catalog.Product(ctx, uint(id))
	if err != nil {
		if !apperr.IsKind(err, apperr.NotFound) {
			m.logger.ErrorContext(ctx, "load product", "from", in.From, "product_id", id, "err", err)
			return []Reply{Text(genericErrorText)}, sess
		}
		product = nil
	}
	if product == nil || !product.Available {
		return []Reply{Text("Sorry, that item is not available. Please choose another item from the menu.")}, sess
	}

	sess.Cart = sess.Cart.Append(product.ID, product.Name, product.Price)
	sess.Awaiting = StateQuantity
	return []Reply{Text(fmt.Sprintf("How many %s would you like? Reply with a number.", product.Name))}, sess
}

func (m *Machine) handleQuantity(ctx context.Context, sess Session, in Inbound) ([]Reply, Session) {
	qty, err := strconv.Atoi(in.Normalized())
	if err != nil || qty <= 0 || qty > maxQuantity {
		return []Reply{Text(fmt.Sprintf("Please reply with a quantity between 1 and %d.", maxQuantity))}, sess
	}

	last, _ := sess.Cart.Last()
	updated, err := sess.Cart.SetQuantity(last.ProductID, qty)
	if err != nil {
		m.logger.ErrorContext(ctx, "set cart quantity", "from", in.From, "product_id", last.ProductID, "err", err)
		return []Reply{Text(genericErrorText)}, sess.fresh(StateGreeted)
	}

	sess.Cart = updated
	sess.Awaiting = StateAddOrCheckout
	return []Reply{m.addOrCheckoutReply(qty, last.ProductName, sess)}, sess
}

func (m *Machine) handleAddOrCheckout(ctx context.Context, sess Session, in Inbound) ([]Reply, Session) {
	switch in.Normalized() {
	case "add", "add more":
		products, err := m.catalog.AvailableProducts(ctx)
		if err != nil {
			m.logger.ErrorContext(ctx, "list menu", "from", in.From, "err", err)
			return []Reply{Text(genericErrorText)}, sess
		}
		sess.Awaiting = StateMenuSelection
		sess.Category = ""
		return []Reply{m.fullMenuReply(products)}, sess

	case "checkout", "check out":
		sess.Awaiting = StateAddress
		return []Reply{
			Text("Your order:\n" + cart.Summary(sess.Cart, nil, m.settings.Currency)),
			Text("Which area should we deliver to? (e.g. Mikocheni, Sinza, Masaki)"),
		}, sess
	}

	return []Reply{Text("Please reply 'add' to add more items or 'checkout' to complete your order.")}, sess
}

func (m *Machine) handleAddress(ctx context.Context, sess Session, in Inbound) ([]Reply, Session) {
	area := in.Content()
	if area == "" {
		return []Reply{Text("Please tell us which area we should deliver to.")}, sess
	}

	zones, err := m.catalog.DeliveryZones(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "list delivery zones", "from", in.From, "err", err)
		return []Reply{Text(genericErrorText)}, sess
	}

	sess.Area = area
	if len(zones) == 0 {
		sess.Awaiting = StateFullAddress
		return []Reply{Text(fullAddressPrompt)}, sess
	}

	sess.Awaiting = StateDeliveryZone
	return []Reply{m.zonesReply(zones)}, sess
}

func (m *Machine) handleDeliveryZone(ctx context.Context, sess Session, in Inbound) ([]Reply, Session) {
	id, err := strconv.ParseUint(in.Normalized(), 10, 64)
	var zone *model.DeliveryZone
	if err == nil && id > 0 {
		zone, err = m.catalog.DeliveryZone(ctx, uint(id))
		if err != nil && !apperr.IsKind(err, apperr.NotFound) {
			m.logger.ErrorContext(ctx, "load delivery zone", "from", in.From, "zone_id", id, "err", err)
			return []Reply{Text(genericErrorText)}, sess
		}
	}
	if zone == nil {
		zones, err := m.catalog.DeliveryZones(ctx)
		if err != nil {
			m.logger.ErrorContext(ctx, "list delivery zones", "from", in.From, "err", err)
			return []Reply{Text(genericErrorText)}, sess
		}
		return []Reply{Text("Please choose a delivery zone from the list."), m.zonesReply(zones)}, sess
	}

	sess.Zone = &cart.Zone{ID: zone.ID, Name: zone.Name, Fee: zone.Fee}
	sess.Awaiting = StateFullAddress
	totals := sess.Totals()
	return []Reply{Text(fmt.Sprintf(
		"Delivery to %s costs %s %s. Your new total is %s %s.\n\n%s",
		zone.Name, cart.FormatAmount(totals.DeliveryFee), m.settings.Currency,
		cart.FormatAmount(totals.GrandTotal), m.settings.Currency, fullAddressPrompt,
	))}, sess
}

func (m *Machine) handleFullAddress(_ context.Context, sess Session, in Inbound) ([]Reply, Session) {
	address := in.Content()
	if address == "" {
		return []Reply{Text(fullAddressPrompt)}, sess
	}

	sess.Address = address
	sess.Awaiting = StatePaymentProvider
	return []Reply{
		Text(fmt.Sprintf("Order summary:\n%s\n\nDeliver to: %s", cart.Summary(sess.Cart, sess.Zone, m.settings.Currency), address)),
		m.providersReply(),
	}, sess
}

func (m *Machine) handlePaymentProvider(_ context.Context, sess Session, in Inbound) ([]Reply, Session) {
	provider, ok := ParseProvider(in.Normalized())
	if !ok {
		return []Reply{Text("Please choose one of the mobile money networks below."), m.providersReply()}, sess
	}

	sess.Provider = provider
	sess.Awaiting = StateUseWhatsAppNumber
	return []Reply{useWhatsAppNumberReply(provider, in.From)}, sess
}

func (m *Machine) handleUseWhatsAppNumber(ctx context.Context, sess Session, in Inbound) ([]Reply, Session) {
	switch in.Normalized() {
	case "yes", "y", "1", "ndio":
		payer, ok := NormalizePhone(in.From)
		if !ok {
			sess.Awaiting = StatePaymentPhone
			return []Reply{Text("This WhatsApp number cannot be charged by mobile money. " + paymentPhonePrompt)}, sess
		}
		return m.startPayment(ctx, sess, in, payer)

	case "no", "n", "2", "hapana":
		sess.Awaiting = StatePaymentPhone
		return []Reply{Text(paymentPhonePrompt)}, sess
	}

	return []Reply{Text("Please reply 'yes' or 'no'."), useWhatsAppNumberReply(sess.Provider, in.From)}, sess
}

func (m *Machine) handlePaymentPhone(ctx context.Context, sess Session, in Inbound) ([]Reply, Session) {
	payer, ok := NormalizePhone(in.Content())
	if !ok {
		return []Reply{Text("That does not look like a valid mobile number. " + paymentPhonePrompt)}, sess
	}
	return m.startPayment(ctx, sess, in, payer)
}

// startPayment ends the dialogue: whatever the outcome, the customer starts over with an empty session.
func (m *Machine) startPayment(ctx context.Context, sess Session, in Inbound, payer string) ([]Reply, Session) {
	ok := m.payments.InitiatePayment(ctx, PaymentRequest{
		CustomerPhone: in.From,
		CustomerName:  sess.CustomerName,
		PayerPhone:    payer,
		Cart:          sess.Cart,
		Zone:          sess.Zone,
		Area:          sess.Area,
		Address:       sess.Address,
		Provider:      sess.Provider,
	})
	if !ok {
		m.logger.InfoContext(ctx, "payment initiation did not succeed, session reset", "from", in.From)
	}
	return nil, Session{}
}

func (m *Machine) orderStatusReply(ctx context.Context, from string) Reply {
	order, err := m.orders.LatestOrder(ctx, from)
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return Text("You have no orders with us yet. Type 'menu' to place one.")
		}
		m.logger.ErrorContext(ctx, "order status lookup", "from", from, "err", err)
		return Text(genericErrorText)
	}
	return Text(fmt.Sprintf("Your order #%d %s.\nTotal: %s %s\nPlaced: %s",
		order.ID, order.Status.CustomerMessage(),
		cart.FormatAmount(order.Total), order.Currency,
		order.CreatedAt.Format("02 Jan 2006 15:04"),
	))
}

func parseCategory(input string) (model.Category, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(model.Categories) {
			return model.Categories[n-1], true
		}
		return "", false
	}
	for _, c := range model.Categories {
		if strings.EqualFold(string(c), input) {
			return c, true
		}
	}
	return "", false
}
