package orderapi

import (
	"github.com/georgemunganga/printa-till/internal/common/apperr"
)

// Validate applies the rule every hold and invoice payload must pass before it is sent.
func (p *OrderPayload) Validate() error {
	if p == nil {
		return apperr.Validation("payload is required")
	}
	missing := map[string]string{}
	if p.Items == nil {
		missing["items"] = "required"
	}
	if p.Total == nil {
		missing["total"] = "required"
	}
	if p.SubTotal == nil {
		missing["sub_total"] = "required"
	}
	if p.DueAmount == nil {
		missing["due_amount"] = "required"
	}
	if p.UserID == "" {
		missing["user_id"] = "required"
	}
	if p.StoreID == "" {
		missing["store_id"] = "required"
	}
	if p.CashRegisterID == "" {
		missing["cash_register_id"] = "required"
	}
	if len(missing) > 0 {
		e := apperr.Validation("missing required fields")
		e.Fields = missing
		return e
	}

	if len(p.Items) == 0 {
		return apperr.Validation("order has no items")
	}
	for i, it := range p.Items {
		if it.Price == nil {
			return apperr.Validationf("item %d is missing price", i)
		}
		if it.Quantity == nil {
			return apperr.Validationf("item %d is missing quantity", i)
		}
	}
	return nil
}
