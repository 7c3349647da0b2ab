package cart

import (
	"github.com/georgemunganga/printa-till/internal/common/apperr"
	"github.com/georgemunganga/printa-till/internal/modules/money"
	"github.com/shopspring/decimal"
)

// ItemRef addresses a line by position or by product id. Index wins when both are set.
type ItemRef struct {
	Index *int   `json:"index,omitempty"`
	ID    string `json:"id,omitempty"`
}

func AtIndex(i int) ItemRef { return ItemRef{Index: &i} }
func ByID(id string) ItemRef { return ItemRef{ID: id} }

// resolve returns the position ref points at, or -1.
func (d *Draft) resolve(ref ItemRef) int {
	if ref.Index != nil {
		if *ref.Index >= 0 && *ref.Index < len(d.Items) {
			return *ref.Index
		}
		return -1
	}
	for i := range d.Items {
		if d.Items[i].ID == ref.ID {
			return i
		}
	}
	return -1
}

// AddItem merges into an existing plain line of the same product, or appends a new line.
// A line only merges when both it and the incoming item carry no notes and no modifications.
func (d *Draft) AddItem(p Product, quantity int, modifications []string, notes string) (int, error) {
	if p.ID == "" {
		return -1, apperr.Validation("product id is required")
	}
	if quantity <= 0 {
		return -1, apperr.Validation("quantity must be greater than zero")
	}
	if p.Price < 0 {
		return -1, apperr.Validation("price cannot be negative")
	}

	if notes == "" && len(modifications) == 0 {
		for i := range d.Items {
			it := &d.Items[i]
			if it.ID == p.ID && it.plain() {
				it.Quantity += quantity
				it.recalc()
				d.touch()
				return i, nil
			}
		}
	}
	return d.AppendItem(p, quantity, modifications, notes)
}

// AppendItem always adds a new line. Used when rebuilding a draft line by line.
func (d *Draft) AppendItem(p Product, quantity int, modifications []string, notes string) (int, error) {
	if p.ID == "" {
		return -1, apperr.Validation("product id is required")
	}
	if quantity <= 0 {
		return -1, apperr.Validation("quantity must be greater than zero")
	}
	if p.Price < 0 {
		return -1, apperr.Validation("price cannot be negative")
	}

	li := LineItem{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		UnitPrice:     p.Price,
		Quantity:      quantity,
		Notes:         notes,
		Modifications: append([]string{}, modifications...),
		DiscountType:  DiscountFixed,
		DiscountValue: decimal.Zero,
	}
	li.recalc()
	d.Items = append(d.Items, li)
	d.touch()
	return len(d.Items) - 1, nil
}

// UpdateQuantity sets a line's quantity; quantity <= 0 removes the line.
// The per-item discount is dropped, so Total becomes Subtotal and the line's
// discount fields say so.
func (d *Draft) UpdateQuantity(ref ItemRef, quantity int) error {
	i := d.resolve(ref)
	if i < 0 {
		return apperr.Validation("item not in cart")
	}
	if quantity <= 0 {
		return d.RemoveItem(i)
	}
	it := &d.Items[i]
	it.Quantity = quantity
	it.DiscountType, it.DiscountValue = DiscountFixed, decimal.Zero
	it.recalc()
	d.touch()
	return nil
}

// SplitItem moves splitQuantity units of line index into a new line at index+1.
// The new line keeps price and discount type but drops notes and modifications.
// A fixed discount is shared by quantity, so the two totals add up to the old one;
// a percent discount applies to both lines.
// Returns false, without touching the draft, unless 0 < splitQuantity < quantity.
func (d *Draft) SplitItem(index, splitQuantity int) bool {
	if index < 0 || index >= len(d.Items) {
		return false
	}
	orig := &d.Items[index]
	if splitQuantity <= 0 || splitQuantity >= orig.Quantity {
		return false
	}

	part := *orig
	part.Quantity = splitQuantity
	part.Notes = ""
	part.Modifications = []string{}
	if orig.DiscountType == DiscountFixed {
		whole := orig.DiscountValue.Round(0)
		part.DiscountValue = whole.Mul(decimal.NewFromInt(int64(splitQuantity))).
			Div(decimal.NewFromInt(int64(orig.Quantity))).Round(0)
		orig.DiscountValue = whole.Sub(part.DiscountValue)
	}
	part.recalc()

	orig.Quantity -= splitQuantity
	orig.recalc()

	d.Items = append(d.Items, LineItem{})
	copy(d.Items[index+2:], d.Items[index+1:])
	d.Items[index+1] = part
	d.touch()
	return true
}

// RemoveItem deletes the line at index. This is the canonical removal path.
func (d *Draft) RemoveItem(index int) error {
	if index < 0 || index >= len(d.Items) {
		return apperr.Validation("item not in cart")
	}
	d.Items = append(d.Items[:index], d.Items[index+1:]...)
	d.touch()
	return nil
}

// RemoveItemsByID removes every line of the product and reports how many went.
//
// Deprecated: a product can sit on several lines after a split or with notes;
// use RemoveItem with the line's index.
func (d *Draft) RemoveItemsByID(id string) int {
	kept := d.Items[:0]
	removed := 0
	for _, it := range d.Items {
		if it.ID == id {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	d.Items = kept
	if removed > 0 {
		d.touch()
	}
	return removed
}

// SetItemDiscount sets the per-item discount and recomputes the line total.
func (d *Draft) SetItemDiscount(index int, t DiscountType, value decimal.Decimal) error {
	if index < 0 || index >= len(d.Items) {
		return apperr.Validation("item not in cart")
	}
	if err := validateDiscount(t, value); err != nil {
		return err
	}
	it := &d.Items[index]
	it.DiscountType = t
	it.DiscountValue = value
	it.recalc()
	d.touch()
	return nil
}

// UpdateItemDetails replaces a line's notes and modifications in place.
func (d *Draft) UpdateItemDetails(index int, notes string, modifications []string) error {
	if index < 0 || index >= len(d.Items) {
		return apperr.Validation("item not in cart")
	}
	it := &d.Items[index]
	it.Notes = notes
	it.Modifications = append([]string{}, modifications...)
	d.touch()
	return nil
}

// SetDiscount sets the order-level discount.
func (d *Draft) SetDiscount(t DiscountType, value decimal.Decimal) error {
	if err := validateDiscount(t, value); err != nil {
		return err
	}
	d.DiscountType = t
	d.DiscountValue = value
	d.touch()
	return nil
}

func validateDiscount(t DiscountType, value decimal.Decimal) error {
	if value.IsNegative() {
		return apperr.Validation("discount cannot be negative")
	}
	switch t {
	case DiscountPercent:
		if value.GreaterThan(decimal.NewFromInt(100)) {
			return apperr.Validation("percent discount must be between 0 and 100")
		}
	case DiscountFixed:
	default:
		return apperr.Validationf("invalid discount_type: %s (allowed: fixed, percent)", t)
	}
	return nil
}

func (d *Draft) SetNotes(notes string) {
	d.Notes = notes
	d.touch()
}

// SetOrderType accepts the known order types in any letter case.
func (d *Draft) SetOrderType(t OrderType) error {
	ot, ok := ParseOrderType(string(t))
	if !ok {
		return apperr.Validationf("invalid order_type: %s (allowed: DINE_IN, TO_GO, DELIVERY, PICKUP)", t)
	}
	d.OrderType = ot
	d.touch()
	return nil
}

func (d *Draft) SetTip(tip money.Minor) error {
	if tip < 0 {
		return apperr.Validation("tip cannot be negative")
	}
	d.Tip = tip
	d.touch()
	return nil
}

func (d *Draft) SelectTables(tables []TableRef) error {
	for _, t := range tables {
		if t.TableID == "" {
			return apperr.Validation("table_id is required")
		}
	}
	d.SelectedTables = append([]TableRef{}, tables...)
	d.touch()
	return nil
}

func (d *Draft) SetCustomer(c *Customer) {
	d.Customer = c
	d.touch()
}
