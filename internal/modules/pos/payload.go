package pos

import (
	"github.com/georgemunganga/printa-till/internal/common/apperr"
	"github.com/georgemunganga/printa-till/internal/modules/cart"
	"github.com/georgemunganga/printa-till/internal/modules/money"
	"github.com/georgemunganga/printa-till/internal/modules/orderapi"
	"github.com/shopspring/decimal"
)

// buildPayload turns a draft and its derived totals into the wire shape shared
// by holds and invoices. Every amount is minor units.
func buildPayload(d *cart.Draft, t cart.Totals, id Identity) *orderapi.OrderPayload {
	items := make([]orderapi.ItemPayload, len(d.Items))
	for i := range d.Items {
		it := d.Items[i]
		price, qty := it.UnitPrice, it.Quantity
		items[i] = orderapi.ItemPayload{
			ItemID:         it.ID,
			Name:           it.Name,
			Description:    it.Description,
			Price:          &price,
			Quantity:       &qty,
			SubTotal:       it.Subtotal,
			DiscountType:   string(it.DiscountType),
			DiscountValue:  it.DiscountValue,
			DiscountAmount: it.Subtotal - it.Total,
			Total:          it.Total,
			Notes:          it.Notes,
			Modifications:  it.Modifications,
		}
	}

	sub, total, due := t.Subtotal, t.Total, t.DueAmount
	var customer *cart.Customer
	if d.Customer != nil {
		c := *d.Customer
		customer = &c
	}
	return &orderapi.OrderPayload{
		UserID:         id.UserID,
		StoreID:        id.StoreID,
		CashRegisterID: id.CashRegisterID,
		OrderType:      string(d.OrderType),
		Items:          items,
		SubTotal:       &sub,
		DiscountType:   string(d.DiscountType),
		DiscountValue:  d.DiscountValue,
		DiscountAmount: t.DiscountAmount,
		TaxAmount:      t.TaxAmount,
		Tip:            t.Tip,
		Total:          &total,
		DueAmount:      &due,
		Notes:          d.Notes,
		Customer:       customer,
		Tables:         append([]cart.TableRef{}, d.SelectedTables...),
		PaidStatus:     orderapi.Unpaid,
	}
}

// draftFromOrder builds a fresh draft from a server order without touching any
// live draft. It fails unless every item carries a price and a positive quantity.
func draftFromOrder(o orderapi.Order, tables []cart.TableRef) (*cart.Draft, error) {
	if len(o.Items) == 0 {
		return nil, apperr.Validation("order has no items")
	}

	d := cart.NewDraft()
	for i, it := range o.Items {
		price, ok := it.UnitPrice()
		if !ok {
			return nil, apperr.Validationf("item %d is missing price", i)
		}
		if it.Quantity == nil || *it.Quantity <= 0 {
			return nil, apperr.Validationf("item %d is missing quantity", i)
		}
		p := cart.Product{ID: it.ItemID.String(), Name: it.Name, Description: it.Description, Price: price}
		idx, err := d.AppendItem(p, *it.Quantity, it.Modifications, it.Notes)
		if err != nil {
			return nil, err
		}
		if dt, ok := cart.ParseDiscountType(it.DiscountType); ok && it.DiscountValue.IsPositive() {
			if err := d.SetItemDiscount(idx, dt, it.DiscountValue); err != nil {
				return nil, err
			}
		}
	}

	dt, ok := cart.ParseDiscountType(o.DiscountType)
	if !ok {
		return nil, apperr.Validationf("invalid discount_type: %s", o.DiscountType)
	}
	if err := d.SetDiscount(dt, nonNegative(o.DiscountValue)); err != nil {
		return nil, err
	}
	if err := d.SetTip(maxMinor(o.Tip, 0)); err != nil {
		return nil, err
	}
	if ot, ok := cart.ParseOrderType(o.OrderType); ok {
		if err := d.SetOrderType(ot); err != nil {
			return nil, err
		}
	}
	d.SetNotes(o.Notes)
	if o.Customer != nil {
		c := *o.Customer
		d.SetCustomer(&c)
	}
	if len(tables) > 0 {
		if err := d.SelectTables(tables); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

func maxMinor(a, b money.Minor) money.Minor {
	if a > b {
		return a
	}
	return b
}
