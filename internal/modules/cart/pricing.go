package cart

import (
	"github.com/georgemunganga/printa-till/internal/modules/money"
	"github.com/shopspring/decimal"
)

// Totals is everything the till displays or sends about an order's money.
// It is always derived from the ledger; nothing here is stored.
type Totals struct {
	ItemCount      int         `json:"item_count"`
	Subtotal       money.Minor `json:"subtotal"`
	DiscountAmount money.Minor `json:"discount_amount"`
	TaxableAmount  money.Minor `json:"taxable_amount"`
	TaxAmount      money.Minor `json:"tax_amount"`
	Total          money.Minor `json:"total"`
	Tip            money.Minor `json:"tip"`
	DueAmount      money.Minor `json:"due_amount"`
}

// DiscountAmount resolves a discount against base. Fixed values are minor units.
func DiscountAmount(base money.Minor, t DiscountType, value decimal.Decimal) money.Minor {
	if t == DiscountPercent {
		return base.Percent(value)
	}
	return money.Minor(value.Round(0).IntPart())
}

// Calculate prices a set of lines. The order-level discount is not floored:
// a fixed discount above the subtotal yields a negative taxable amount.
func Calculate(items []LineItem, discountType DiscountType, discountValue decimal.Decimal, taxRate decimal.Decimal) Totals {
	var t Totals
	for _, it := range items {
		t.ItemCount += it.Quantity
		t.Subtotal += it.UnitPrice * money.Minor(it.Quantity)
	}
	t.DiscountAmount = DiscountAmount(t.Subtotal, discountType, discountValue)
	t.TaxableAmount = t.Subtotal - t.DiscountAmount
	t.TaxAmount = t.TaxableAmount.MulRate(taxRate)
	t.Total = t.TaxableAmount + t.TaxAmount
	t.DueAmount = t.Total
	return t
}

// Totals prices the draft, adding the tip to the amount due.
func (d *Draft) Totals(taxRate decimal.Decimal) Totals {
	t := Calculate(d.Items, d.DiscountType, d.DiscountValue, taxRate)
	t.Tip = d.Tip
	t.DueAmount = t.Total + d.Tip
	return t
}
