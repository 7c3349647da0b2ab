package cart

import (
	"testing"

	"github.com/georgemunganga/printa-till/internal/modules/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculate(t *testing.T) {
	items := []LineItem{
		{ID: "1", UnitPrice: 1000, Quantity: 2},
		{ID: "2", UnitPrice: 333, Quantity: 3},
	}
	tests := []struct {
		name     string
		dt       DiscountType
		dv       string
		rate     string
		discount money.Minor
		taxable  money.Minor
		tax      money.Minor
		total    money.Minor
	}{
		{"no discount no tax", DiscountFixed, "0", "0", 0, 2999, 0, 2999},
		{"percent discount", DiscountPercent, "10", "0", 300, 2699, 0, 2699},
		{"fixed discount", DiscountFixed, "500", "0", 500, 2499, 0, 2499},
		{"vat", DiscountFixed, "0", "0.16", 0, 2999, 480, 3479},
		{"percent discount and vat", DiscountPercent, "10", "0.16", 300, 2699, 432, 3131},
		{"fixed discount above subtotal", DiscountFixed, "4000", "0", 4000, -1001, 0, -1001},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(items, tt.dt, dec(tt.dv), dec(tt.rate))
			assert.Equal(t, 5, got.ItemCount)
			assert.Equal(t, money.Minor(2999), got.Subtotal)
			assert.Equal(t, tt.discount, got.DiscountAmount)
			assert.Equal(t, tt.taxable, got.TaxableAmount)
			assert.Equal(t, tt.tax, got.TaxAmount)
			assert.Equal(t, tt.total, got.Total)
			assert.Equal(t, got.TaxableAmount+got.TaxAmount, got.Total)
		})
	}
}

func TestPercentDiscountRoundsToMinorUnit(t *testing.T) {
	items := []LineItem{{ID: "1", UnitPrice: 1005, Quantity: 1}}
	got := Calculate(items, DiscountPercent, dec("10"), decimal.Zero)
	assert.Equal(t, money.Minor(101), got.DiscountAmount) // 100.5 rounds away from zero
}

func TestCalculateIgnoresLineDiscounts(t *testing.T) {
	d := NewDraft()
	_, _ = d.AddItem(Product{ID: "1", Price: 1000}, 1, nil, "")
	_ = d.SetItemDiscount(0, DiscountFixed, dec("300"))
	got := d.Totals(decimal.Zero)
	assert.Equal(t, money.Minor(1000), got.Subtotal)
	assert.Equal(t, money.Minor(700), d.Items[0].Total)
}

func TestDraftTotalsAddsTipToDue(t *testing.T) {
	d := NewDraft()
	_, _ = d.AddItem(Product{ID: "1", Price: 1000}, 3, nil, "")
	_ = d.SetTip(250)
	got := d.Totals(dec("0.16"))
	assert.Equal(t, money.Minor(3480), got.Total)
	assert.Equal(t, money.Minor(250), got.Tip)
	assert.Equal(t, money.Minor(3730), got.DueAmount)
}
