package pos

import (
	"strings"

	"github.com/georgemunganga/printa-till/internal/modules/cart"
	"github.com/georgemunganga/printa-till/internal/modules/money"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how an invoice was paid at the counter.
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "CASH"
	PaymentCard        PaymentMethod = "CARD"
	PaymentMobileMoney PaymentMethod = "MOBILE_MONEY"
	PaymentVoucher     PaymentMethod = "VOUCHER"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(strings.ToUpper(s)); m {
	case PaymentCash, PaymentCard, PaymentMobileMoney, PaymentVoucher:
		return m, true
	}
	return "", false
}

// Identity is who is submitting an order and from where.
type Identity struct {
	UserID         string `json:"user_id"`
	StoreID        string `json:"store_id"`
	CashRegisterID string `json:"cash_register_id"`
}

// Snapshot is the read model of a register: a copy of its draft plus derived totals.
type Snapshot struct {
	RegisterID string      `json:"register_id"`
	State      cart.State  `json:"state"`
	Cart       *cart.Draft `json:"cart"`
	Totals     cart.Totals `json:"totals"`
}

// ── Requests ──────────────────────────────────────────────────────────────────

// HoldRequest is the payload for parking the current cart on the server.
type HoldRequest struct {
	Identity
	ReferenceNumber string `json:"reference_number,omitempty"`
}

// HoldResult reports the server id of the held order.
type HoldResult struct {
	ID              string `json:"id"`
	ReferenceNumber string `json:"reference_number"`
	Updated         bool   `json:"updated"`
}

// ConvertRequest is the payload for turning a held order into an invoice.
type ConvertRequest struct {
	UserID  string `json:"user_id,omitempty"`
	DueDays int    `json:"due_days,omitempty"`
}

// PayRequest is the payload for settling an invoice.
type PayRequest struct {
	Identity
	InvoiceID     string          `json:"invoice_id"`
	Amount        money.Minor     `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Reference     string          `json:"reference,omitempty"`
	Tables        []cart.TableRef `json:"tables,omitempty"`
}

// AddItemRequest carries a catalog product into the cart. Price is tagged with
// PriceUnit (minor when empty) as soon as it is decoded.
type AddItemRequest struct {
	ItemID        string          `json:"item_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	PriceUnit     string          `json:"price_unit,omitempty"`
	Quantity      int             `json:"quantity"`
	Modifications []string        `json:"modifications,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// UpdateItemRequest patches one line. Nil fields are left alone.
type UpdateItemRequest struct {
	Quantity      *int      `json:"quantity,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	Modifications *[]string `json:"modifications,omitempty"`
}

type SplitItemRequest struct {
	Quantity int `json:"quantity"`
}

type DiscountRequest struct {
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
}

// CartPatch updates order-level fields. Nil fields are left alone.
type CartPatch struct {
	Notes          *string          `json:"notes,omitempty"`
	OrderType      *string          `json:"order_type,omitempty"`
	DiscountType   *string          `json:"discount_type,omitempty"`
	DiscountValue  *decimal.Decimal `json:"discount_value,omitempty"`
	Tip            *money.Minor     `json:"tip,omitempty"`
	SelectedTables *[]cart.TableRef `json:"selected_tables,omitempty"`
	Customer       *cart.Customer   `json:"customer,omitempty"`
}

// ── Events ────────────────────────────────────────────────────────────────────

type heldEvent struct {
	HeldOrderID     string      `json:"held_order_id"`
	ReferenceNumber string      `json:"reference_number"`
	CashRegisterID  string      `json:"cash_register_id"`
	Updated         bool        `json:"updated"`
	Total           money.Minor `json:"total"`
}

type invoiceEvent struct {
	InvoiceID      string      `json:"invoice_id"`
	InvoiceNumber  string      `json:"invoice_number,omitempty"`
	HoldInvoiceID  string      `json:"hold_invoice_id,omitempty"`
	CashRegisterID string      `json:"cash_register_id"`
	Total          money.Minor `json:"total"`
}

type paymentEvent struct {
	PaymentID      string          `json:"payment_id"`
	InvoiceID      string          `json:"invoice_id"`
	Amount         money.Minor     `json:"amount"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	CashRegisterID string          `json:"cash_register_id"`
	Tables         []cart.TableRef `json:"tables,omitempty"`
}
