// Package cart holds the session cart and the order totals derived from it.
package cart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidQuantity    = errors.New("quantity must be a positive integer")
	ErrQuantityAlreadySet = errors.New("last cart line already has a quantity")
	ErrProductMismatch    = errors.New("product is not the last cart line")
)

type Line struct {
	ProductID   uint             `json:"product_id"`
	ProductName string           `json:"product_name"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Quantity    *int             `json:"quantity,omitempty"`
	LineTotal   *decimal.Decimal `json:"line_total,omitempty"`
}

func (l Line) HasQuantity() bool {
	return l.Quantity != nil && l.LineTotal != nil
}

// Cart is append-only; the only mutation of an existing line is setting the quantity of the last one.
type Cart []Line

type Zone struct {
	ID   uint            `json:"id"`
	Name string          `json:"name"`
	Fee  decimal.Decimal `json:"fee"`
}

type Totals struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	GrandTotal  decimal.Decimal
}

func (c Cart) Append(productID uint, name string, unitPrice decimal.Decimal) Cart {
	out := make(Cart, len(c), len(c)+1)
	copy(out, c)
	return append(out, Line{
		ProductID:   productID,
		ProductName: name,
		UnitPrice:   unitPrice,
	})
}

func (c Cart) Last() (Line, bool) {
	if len(c) == 0 {
		return Line{}, false
	}
	return c[len(c)-1], true
}

func (c Cart) SetQuantity(productID uint, qty int) (Cart, error) {
	if qty <= 0 {
		return c, ErrInvalidQuantity
	}
	last, ok := c.Last()
	if !ok {
		return c, ErrEmptyCart
	}
	if last.ProductID != productID {
		return c, ErrProductMismatch
	}
	if last.HasQuantity() {
		return c, ErrQuantityAlreadySet
	}

	total := last.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))
	last.Quantity = &qty
	last.LineTotal = &total

	out := make(Cart, len(c))
	copy(out, c)
	out[len(out)-1] = last
	return out, nil
}

// Complete reports whether the cart is non-empty and every line has a quantity.
func (c Cart) Complete() bool {
	if len(c) == 0 {
		return false
	}
	for _, l := range c {
		if !l.HasQuantity() {
			return false
		}
	}
	return true
}

// Subtotal sums the line totals; lines still waiting for a quantity contribute nothing.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c {
		if l.HasQuantity() {
			sum = sum.Add(*l.LineTotal)
		}
	}
	return sum
}

func Compute(c Cart, zone *Zone) Totals {
	t := Totals{
		Subtotal:    c.Subtotal(),
		DeliveryFee: decimal.Zero,
	}
	if zone != nil {
		t.DeliveryFee = zone.Fee
	}
	t.GrandTotal = t.Subtotal.Add(t.DeliveryFee)
	return t
}

// Summary renders the itemized order the way it is shown to the customer.
func Summary(c Cart, zone *Zone, currency string) string {
	var b strings.Builder
	for _, l := range c {
		if !l.HasQuantity() {
			continue
		}
		fmt.Fprintf(&b, "• %d x %s @ %s = %s %s\n",
			*l.Quantity, l.ProductName, FormatAmount(l.UnitPrice), FormatAmount(*l.LineTotal), currency)
	}

	t := Compute(c, zone)
	fmt.Fprintf(&b, "\nSubtotal: %s %s", FormatAmount(t.Subtotal), currency)
	if zone != nil {
		fmt.Fprintf(&b, "\nDelivery (%s): %s %s", zone.Name, FormatAmount(t.DeliveryFee), currency)
	}
	fmt.Fprintf(&b, "\nTotal: %s %s", FormatAmount(t.GrandTotal), currency)
	return b.String()
}

// FormatAmount prints whole amounts with thousands separators and keeps two decimals otherwise.
func FormatAmount(d decimal.Decimal) string {
	var s string
	if d.IsInteger() {
		s = d.StringFixed(0)
	} else {
		s = d.StringFixed(2)
	}

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
