package cart

import (
	"strings"

	"github.com/georgemunganga/printa-till/internal/modules/money"
	"github.com/shopspring/decimal"
)

// DiscountType says how a discount value is interpreted.
type DiscountType string

const (
	DiscountFixed   DiscountType = "fixed"   // value is in minor units
	DiscountPercent DiscountType = "percent" // value is percentage points
)

func ParseDiscountType(s string) (DiscountType, bool) {
	switch t := DiscountType(strings.ToLower(s)); t {
	case DiscountFixed, DiscountPercent:
		return t, true
	case "":
		return DiscountFixed, true
	}
	return "", false
}

// OrderType is how the order leaves the counter.
type OrderType string

const (
	OrderDineIn   OrderType = "DINE_IN"
	OrderToGo     OrderType = "TO_GO"
	OrderDelivery OrderType = "DELIVERY"
	OrderPickup   OrderType = "PICKUP"
)

func ParseOrderType(s string) (OrderType, bool) {
	switch t := OrderType(strings.ToUpper(s)); t {
	case OrderDineIn, OrderToGo, OrderDelivery, OrderPickup:
		return t, true
	}
	return "", false
}

// State is the lifecycle position of a draft.
type State string

const (
	StateEmpty          State = "EMPTY"
	StateActive         State = "ACTIVE"
	StateResumed        State = "RESUMED"
	StateEditingInvoice State = "EDITING_INVOICE"
)

// TableRef links an order to a physical table. Tables are catalog data owned elsewhere.
type TableRef struct {
	TableID  string `json:"table_id"`
	Quantity int    `json:"quantity"`
}

// Product is what the catalog hands the ledger. Price is already normalized.
type Product struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Price       money.Minor `json:"price"`
}

// LineItem is one line of the cart.
type LineItem struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	UnitPrice     money.Minor     `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	Notes         string          `json:"notes,omitempty"`
	Modifications []string        `json:"modifications"`
	DiscountType  DiscountType    `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	Subtotal      money.Minor     `json:"subtotal"`
	Total         money.Minor     `json:"total"`
}

// DiscountAmount is the per-item discount implied by the item's discount fields.
func (li *LineItem) DiscountAmount() money.Minor {
	return DiscountAmount(li.Subtotal, li.DiscountType, li.DiscountValue)
}

// recalc restores Subtotal == UnitPrice*Quantity and applies the item discount to Total.
func (li *LineItem) recalc() {
	li.Subtotal = li.UnitPrice * money.Minor(li.Quantity)
	li.Total = li.Subtotal - li.DiscountAmount()
	if li.Total < 0 {
		li.Total = 0
	}
}

func (li *LineItem) plain() bool {
	return li.Notes == "" && len(li.Modifications) == 0
}

// Customer is the optional contact attached to an order.
type Customer struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Draft is the cart: the single mutable aggregate of one register.
type Draft struct {
	Items            []LineItem      `json:"items"`
	Notes            string          `json:"notes"`
	OrderType        OrderType       `json:"order_type"`
	DiscountType     DiscountType    `json:"discount_type"`
	DiscountValue    decimal.Decimal `json:"discount_value"`
	Tip              money.Minor     `json:"tip"`
	SelectedTables   []TableRef      `json:"selected_tables"`
	Customer         *Customer       `json:"customer,omitempty"`
	HoldReferenceID  string          `json:"hold_reference_id,omitempty"`
	EditingInvoiceID string          `json:"editing_invoice_id,omitempty"`

	dirty bool
}

func NewDraft() *Draft {
	d := &Draft{}
	d.Reset()
	return d
}

// Reset returns the draft to the empty state. Idempotent.
func (d *Draft) Reset() {
	*d = Draft{
		Items:          []LineItem{},
		OrderType:      OrderDineIn,
		DiscountType:   DiscountFixed,
		DiscountValue:  decimal.Zero,
		SelectedTables: []TableRef{},
		dirty:          true,
	}
}

// Clone returns a deep copy.
func (d *Draft) Clone() *Draft {
	c := *d
	c.Items = make([]LineItem, len(d.Items))
	for i, it := range d.Items {
		it.Modifications = append([]string{}, it.Modifications...)
		c.Items[i] = it
	}
	c.SelectedTables = append([]TableRef{}, d.SelectedTables...)
	if d.Customer != nil {
		cust := *d.Customer
		c.Customer = &cust
	}
	return &c
}

// Normalize repairs a draft decoded from storage: nil lists, unknown enums,
// non-positive quantities and line totals that drifted from their price,
// quantity and discount.
func (d *Draft) Normalize() {
	if _, ok := ParseOrderType(string(d.OrderType)); !ok {
		d.OrderType = OrderDineIn
	}
	if t, ok := ParseDiscountType(string(d.DiscountType)); ok {
		d.DiscountType = t
	} else {
		d.DiscountType, d.DiscountValue = DiscountFixed, decimal.Zero
	}
	if d.SelectedTables == nil {
		d.SelectedTables = []TableRef{}
	}
	kept := make([]LineItem, 0, len(d.Items))
	for _, it := range d.Items {
		if it.ID == "" || it.Quantity <= 0 {
			continue
		}
		if it.Modifications == nil {
			it.Modifications = []string{}
		}
		if t, ok := ParseDiscountType(string(it.DiscountType)); ok {
			it.DiscountType = t
		} else {
			it.DiscountType, it.DiscountValue = DiscountFixed, decimal.Zero
		}
		it.recalc()
		kept = append(kept, it)
	}
	d.Items = kept
}

func (d *Draft) State() State {
	switch {
	case d.EditingInvoiceID != "":
		return StateEditingInvoice
	case d.HoldReferenceID != "":
		return StateResumed
	case len(d.Items) > 0:
		return StateActive
	default:
		return StateEmpty
	}
}

func (d *Draft) Empty() bool { return len(d.Items) == 0 }

func (d *Draft) Dirty() bool { return d.dirty }

func (d *Draft) MarkClean() { d.dirty = false }

func (d *Draft) touch() { d.dirty = true }
