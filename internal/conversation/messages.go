package conversation

import (
	"fmt"
	"strconv"
	"strings"

	"kwetu-order-bot/internal/cart"
	"kwetu-order-bot/internal/model"
)

const (
	genericErrorText   = "Sorry, something went wrong on our side. Please try again in a moment."
	fullAddressPrompt  = "Please send your full delivery address (street, house number and a landmark)."
	paymentPhonePrompt = "Please send the mobile money number to charge, e.g. 0712345678."
)

func (m *Machine) greetingText(name string) string {
	hello := "Hello"
	if name != "" {
		hello = "Hello " + name
	}
	return fmt.Sprintf("%s! Welcome to %s 🍕\n\nType 'menu' to start an order, 'status' to check your last order or 'help' for more options.",
		hello, m.settings.BusinessName)
}

func (m *Machine) fallbackText() string {
	return "Sorry, I didn't understand that. Type 'menu' to see our menu or 'help' for assistance."
}

func (m *Machine) helpText() string {
	return fmt.Sprintf("%s help:\n"+
		"• menu - browse the menu and order\n"+
		"• status - check your latest order\n"+
		"• hi - start over\n\n"+
		"Need a person? Call us on %s.", m.settings.BusinessName, m.settings.SupportPhone)
}

func (m *Machine) categoriesReply() Reply {
	var body strings.Builder
	body.WriteString("What would you like today? Reply with a number:\n")
	rows := make([]Row, len(model.Categories))
	for i, c := range model.Categories {
		id := strconv.Itoa(i + 1)
		fmt.Fprintf(&body, "%s. %s\n", id, c)
		rows[i] = Row{ID: id, Title: string(c)}
	}
	return List(strings.TrimSpace(body.String()), "Categories", Section{Title: "Menu", Rows: rows})
}

func (m *Machine) productsReply(category string, products []*model.Product) Reply {
	var body strings.Builder
	fmt.Fprintf(&body, "%s menu. Reply with the item number:\n", category)
	section := m.productSection(category, products, &body)
	return List(strings.TrimSpace(body.String()), "View items", section)
}

func (m *Machine) fullMenuReply(products []*model.Product) Reply {
	var body strings.Builder
	body.WriteString("Add another item. Reply with the item number:\n")

	byCategory := make(map[model.Category][]*model.Product)
	for _, p := range products {
		byCategory[p.Category] = append(byCategory[p.Category], p)
	}

	var sections []Section
	for _, c := range model.Categories {
		if len(byCategory[c]) == 0 {
			continue
		}
		fmt.Fprintf(&body, "\n*%s*\n", c)
		sections = append(sections, m.productSection(string(c), byCategory[c], &body))
	}
	return List(strings.TrimSpace(body.String()), "View menu", sections...)
}

func (m *Machine) productSection(title string, products []*model.Product, body *strings.Builder) Section {
	rows := make([]Row, len(products))
	for i, p := range products {
		id := strconv.FormatUint(uint64(p.ID), 10)
		price := fmt.Sprintf("%s %s", cart.FormatAmount(p.Price), m.settings.Currency)
		fmt.Fprintf(body, "%s. %s - %s\n", id, p.Name, price)
		rows[i] = Row{ID: id, Title: p.Name, Description: price}
	}
	return Section{Title: title, Rows: rows}
}

func (m *Machine) zonesReply(zones []*model.DeliveryZone) Reply {
	var body strings.Builder
	body.WriteString("Choose your delivery zone. Reply with the zone number:\n")
	rows := make([]Row, len(zones))
	for i, z := range zones {
		id := strconv.FormatUint(uint64(z.ID), 10)
		fee := fmt.Sprintf("Delivery %s %s", cart.FormatAmount(z.Fee), m.settings.Currency)
		fmt.Fprintf(&body, "%s. %s (%s)\n", id, z.Name, fee)
		rows[i] = Row{ID: id, Title: z.Name, Description: fee}
	}
	return List(strings.TrimSpace(body.String()), "Delivery zones", Section{Title: "Zones", Rows: rows})
}

func (m *Machine) providersReply() Reply {
	var body strings.Builder
	body.WriteString("How would you like to pay? Reply with a number:\n")
	rows := make([]Row, len(Providers))
	for i, p := range Providers {
		id := strconv.Itoa(i + 1)
		fmt.Fprintf(&body, "%s. %s\n", id, p.Label())
		rows[i] = Row{ID: id, Title: p.Label()}
	}
	return List(strings.TrimSpace(body.String()), "Pay with", Section{Title: "Mobile money", Rows: rows})
}

func (m *Machine) addOrCheckoutReply(qty int, productName string, sess Session) Reply {
	body := fmt.Sprintf("Added %d x %s to your cart. Cart subtotal: %s %s.\n\nReply 'add' to add more items or 'checkout' to complete your order.",
		qty, productName, cart.FormatAmount(sess.Totals().Subtotal), m.settings.Currency)
	return Buttons(body, Button{ID: "add", Title: "Add more"}, Button{ID: "checkout", Title: "Checkout"})
}

func useWhatsAppNumberReply(provider Provider, from string) Reply {
	body := fmt.Sprintf("Pay with %s on this WhatsApp number (+%s)?\n1. Yes\n2. No, use another number",
		provider.Label(), strings.TrimPrefix(from, "+"))
	return Buttons(body, Button{ID: "yes", Title: "Yes"}, Button{ID: "no", Title: "Another number"})
}
