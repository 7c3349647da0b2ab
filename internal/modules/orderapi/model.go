package orderapi

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/georgemunganga/printa-till/internal/modules/cart"
	"github.com/georgemunganga/printa-till/internal/modules/money"
	"github.com/shopspring/decimal"
)

// ID is a server identifier. The backend sends ids as numbers or strings.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// PaidStatus is the payment state of a held order or invoice.
type PaidStatus string

const (
	Unpaid PaidStatus = "UNPAID"
	Paid   PaidStatus = "PAID"
)

func (s PaidStatus) IsUnpaid() bool {
	return PaidStatus(strings.ToUpper(string(s))) == Unpaid
}

// ── Catalog ───────────────────────────────────────────────────────────────────

// ItemQuery filters the items-by-category listing.
type ItemQuery struct {
	Search      string
	CategoryIDs []string
	StoreID     string
	Page        int
	Limit       int
}

// CatalogItem is a sellable product with its price already normalized.
type CatalogItem struct {
	ID          ID          `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	CategoryID  ID          `json:"categories_id,omitempty"`
	Image       string      `json:"image,omitempty"`
	Price       money.Minor `json:"price"`
}

func (i CatalogItem) Product() cart.Product {
	return cart.Product{ID: i.ID.String(), Name: i.Name, Description: i.Description, Price: i.Price}
}

// ItemPage is one page of the catalog.
type ItemPage struct {
	Items []CatalogItem `json:"items"`
	Total int           `json:"total"`
}

// ── Held orders & invoices ────────────────────────────────────────────────────

// Item is an order line as the backend stores it.
type Item struct {
	ItemID         ID               `json:"item_id"`
	Name           string           `json:"name"`
	Description    string           `json:"description,omitempty"`
	Price          *decimal.Decimal `json:"price"`
	Quantity       *int             `json:"quantity"`
	Notes          string           `json:"notes,omitempty"`
	Modifications  []string         `json:"modifications,omitempty"`
	DiscountType   string           `json:"discount_type,omitempty"`
	DiscountValue  decimal.Decimal  `json:"discount_value"`
	DiscountAmount money.Minor      `json:"discount_amount"`
	SubTotal       money.Minor      `json:"sub_total"`
	Total          money.Minor      `json:"total"`

	// PriceUnit is set by the client when the response is decoded.
	PriceUnit money.Unit `json:"-"`
}

// UnitPrice normalizes the stored price. Untagged items are minor units, as on the wire.
func (it Item) UnitPrice() (money.Minor, bool) {
	if it.Price == nil {
		return 0, false
	}
	unit := it.PriceUnit
	if unit == "" {
		unit = money.UnitMinor
	}
	return money.Tag(*it.Price, unit).Minor(), true
}

// Order holds the fields held orders and invoices share.
type Order struct {
	ID              ID              `json:"id"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	UserID          ID              `json:"user_id"`
	StoreID         ID              `json:"store_id"`
	CashRegisterID  ID              `json:"cash_register_id"`
	OrderType       string          `json:"order_type,omitempty"`
	Items           []Item          `json:"items"`
	SubTotal        money.Minor     `json:"sub_total"`
	DiscountType    string          `json:"discount_type,omitempty"`
	DiscountValue   decimal.Decimal `json:"discount_value"`
	DiscountAmount  money.Minor     `json:"discount_amount"`
	TaxAmount       money.Minor     `json:"tax_amount"`
	Tip             money.Minor     `json:"tip"`
	Total           money.Minor     `json:"total"`
	DueAmount       money.Minor     `json:"due_amount"`
	Notes           string          `json:"notes,omitempty"`
	Customer        *cart.Customer  `json:"customer,omitempty"`
	Tables          []cart.TableRef `json:"tables"`
	PaidStatus      PaidStatus      `json:"paid_status"`
}

// HeldOrder is a cart parked on the server for later.
type HeldOrder struct {
	Order
	HoldTables []cart.TableRef `json:"hold_tables"`
}

// TableRefs returns the tables the hold sits on. Older holds only carry hold_tables.
func (o HeldOrder) TableRefs() []cart.TableRef {
	if len(o.Tables) > 0 {
		return o.Tables
	}
	return o.HoldTables
}

// Invoice is the numbered record produced from a held or direct order.
type Invoice struct {
	Order
	InvoiceNumber string `json:"invoice_number"`
	HoldInvoiceID ID     `json:"hold_invoice_id,omitempty"`
	InvoiceDate   string `json:"invoice_date,omitempty"`
	DueDate       string `json:"due_date,omitempty"`
}

// ── Outbound payloads ─────────────────────────────────────────────────────────

// ItemPayload is one line of an outbound hold or invoice. Amounts are minor units.
type ItemPayload struct {
	ItemID         string          `json:"item_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Price          *money.Minor    `json:"price"`
	Quantity       *int            `json:"quantity"`
	SubTotal       money.Minor     `json:"sub_total"`
	DiscountType   string          `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	DiscountAmount money.Minor     `json:"discount_amount"`
	Total          money.Minor     `json:"total"`
	Notes          string          `json:"notes,omitempty"`
	Modifications  []string        `json:"modifications,omitempty"`
}

// OrderPayload is the body of hold-invoices and invoices writes.
// Pointer fields are required; nil means the field is missing.
type OrderPayload struct {
	ReferenceNumber string          `json:"reference_number,omitempty"`
	UserID          string          `json:"user_id"`
	StoreID         string          `json:"store_id"`
	CashRegisterID  string          `json:"cash_register_id"`
	OrderType       string          `json:"order_type"`
	Items           []ItemPayload   `json:"items"`
	SubTotal        *money.Minor    `json:"sub_total"`
	DiscountType    string          `json:"discount_type"`
	DiscountValue   decimal.Decimal `json:"discount_value"`
	DiscountAmount  money.Minor     `json:"discount_amount"`
	TaxAmount       money.Minor     `json:"tax_amount"`
	Tip             money.Minor     `json:"tip"`
	Total           *money.Minor    `json:"total"`
	DueAmount       *money.Minor    `json:"due_amount"`
	Notes           string          `json:"notes,omitempty"`
	Customer        *cart.Customer  `json:"customer,omitempty"`
	Tables          []cart.TableRef `json:"tables"`
	PaidStatus      PaidStatus      `json:"paid_status"`

	// invoice only
	InvoiceNumber string `json:"invoice_number,omitempty"`
	HoldInvoiceID string `json:"hold_invoice_id,omitempty"`
	InvoiceDate   string `json:"invoice_date,omitempty"`
	DueDate       string `json:"due_date,omitempty"`
}

// ── Tables & payments ─────────────────────────────────────────────────────────

// Table is a physical table from the store floor plan.
type Table struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// PaymentPayload is the body of POST payments.
type PaymentPayload struct {
	InvoiceID      string          `json:"invoice_id"`
	Amount         money.Minor     `json:"amount"`
	PaymentMethod  string          `json:"payment_method"`
	Reference      string          `json:"reference,omitempty"`
	UserID         string          `json:"user_id"`
	StoreID        string          `json:"store_id,omitempty"`
	CashRegisterID string          `json:"cash_register_id,omitempty"`
	PaymentDate    string          `json:"payment_date"`
	IdempotencyKey string          `json:"idempotency_key"`
	Tables         []cart.TableRef `json:"tables,omitempty"`
}

// Payment is the backend's record of a settled payment.
type Payment struct {
	ID            ID          `json:"id"`
	InvoiceID     ID          `json:"invoice_id"`
	Amount        money.Minor `json:"amount"`
	PaymentMethod string      `json:"payment_method"`
	Status        string      `json:"status"`
}
