package pos

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/georgemunganga/printa-till/internal/common/apperr"
	"github.com/georgemunganga/printa-till/internal/common/mq"
	"github.com/georgemunganga/printa-till/internal/modules/cart"
	"github.com/georgemunganga/printa-till/internal/modules/money"
	"github.com/georgemunganga/printa-till/internal/modules/orderapi"
	"github.com/georgemunganga/printa-till/internal/modules/tables"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// Deps is everything a register session needs.
type Deps struct {
	Remote  orderapi.Client
	Tables  *tables.Tracker
	Repo    Repository
	Events  mq.Publisher
	Log     *zap.Logger
	TaxRate decimal.Decimal
	// StoreID is used when a request does not name a store.
	StoreID string
	Now     func() time.Time
}

// Registry hands out one Session per cash register.
type Registry struct {
	deps     Deps
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps) *Registry {
	if deps.Events == nil {
		deps.Events = mq.Nop{}
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Registry{deps: deps, sessions: map[string]*Session{}}
}

// Session returns the register's session, restoring its draft on first use.
func (r *Registry) Session(ctx context.Context, registerID string) (*Session, error) {
	if strings.TrimSpace(registerID) == "" {
		return nil, apperr.Validation("cash_register_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[registerID]; ok {
		return s, nil
	}
	s := &Session{
		registerID: registerID,
		deps:       &r.deps,
		log:        r.deps.Log.With(zap.String("register_id", registerID)),
		draft:      cart.NewDraft(),
	}
	if err := s.Restore(ctx); err != nil {
		return nil, err
	}
	r.sessions[registerID] = s
	return s, nil
}

// Session owns one register's draft. Its mutex is held across remote calls,
// so two holds of the same draft cannot both reach the server.
type Session struct {
	registerID string
	deps       *Deps
	log        *zap.Logger

	mu    sync.Mutex
	draft *cart.Draft
}

func (s *Session) RegisterID() string { return s.registerID }

// Restore replaces the draft with what the blob store holds for this register.
func (s *Session) Restore(ctx context.Context) error {
	d, err := loadDraft(ctx, s.deps.Repo, s.registerID)
	if err != nil {
		return fmt.Errorf("restore register %s: %w", s.registerID, err)
	}
	s.mu.Lock()
	s.draft = d
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the draft with freshly derived totals.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		RegisterID: s.registerID,
		State:      s.draft.State(),
		Cart:       s.draft.Clone(),
		Totals:     s.draft.Totals(s.deps.TaxRate),
	}
}

// persist writes a dirty draft. Failures are logged; the draft stays dirty
// and the next mutation retries.
func (s *Session) persist(ctx context.Context) {
	if !s.draft.Dirty() {
		return
	}
	if err := saveDraft(ctx, s.deps.Repo, s.registerID, s.draft); err != nil {
		s.log.Warn("persist draft failed", zap.Error(err))
		return
	}
	s.draft.MarkClean()
}

// mutate runs fn against the draft and persists whatever it changed.
func (s *Session) mutate(ctx context.Context, fn func(d *cart.Draft) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := fn(s.draft)
	s.persist(ctx)
	return err
}

func (s *Session) publish(ctx context.Context, key string, payload interface{}) {
	if err := s.deps.Events.Publish(ctx, key, payload); err != nil {
		s.log.Warn("publish event failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Session) identity(id Identity) Identity {
	if id.StoreID == "" {
		id.StoreID = s.deps.StoreID
	}
	if id.CashRegisterID == "" {
		id.CashRegisterID = s.registerID
	}
	return id
}

// ── Ledger ────────────────────────────────────────────────────────────────────

func (s *Session) AddItem(ctx context.Context, p cart.Product, quantity int, modifications []string, notes string) (int, error) {
	idx := -1
	err := s.mutate(ctx, func(d *cart.Draft) error {
		var err error
		idx, err = d.AddItem(p, quantity, modifications, notes)
		return err
	})
	return idx, err
}

func (s *Session) UpdateQuantity(ctx context.Context, ref cart.ItemRef, quantity int) error {
	return s.mutate(ctx, func(d *cart.Draft) error { return d.UpdateQuantity(ref, quantity) })
}

// SplitItem reports false when the split was a no-op.
func (s *Session) SplitItem(ctx context.Context, index, quantity int) bool {
	var ok bool
	_ = s.mutate(ctx, func(d *cart.Draft) error {
		ok = d.SplitItem(index, quantity)
		return nil
	})
	return ok
}

func (s *Session) RemoveItem(ctx context.Context, index int) error {
	return s.mutate(ctx, func(d *cart.Draft) error { return d.RemoveItem(index) })
}

func (s *Session) SetItemDiscount(ctx context.Context, index int, t cart.DiscountType, value decimal.Decimal) error {
	return s.mutate(ctx, func(d *cart.Draft) error { return d.SetItemDiscount(index, t, value) })
}

func (s *Session) UpdateItemDetails(ctx context.Context, index int, notes string, modifications []string) error {
	return s.mutate(ctx, func(d *cart.Draft) error { return d.UpdateItemDetails(index, notes, modifications) })
}

func (s *Session) SetOrderDiscount(ctx context.Context, t cart.DiscountType, value decimal.Decimal) error {
	return s.mutate(ctx, func(d *cart.Draft) error { return d.SetDiscount(t, value) })
}

func (s *Session) SetOrderType(ctx context.Context, t cart.OrderType) error {
	return s.mutate(ctx, func(d *cart.Draft) error { return d.SetOrderType(t) })
}

func (s *Session) SetNotes(ctx context.Context, notes string) error {
	return s.mutate(ctx, func(d *cart.Draft) error { d.SetNotes(notes); return nil })
}

func (s *Session) SetTip(ctx context.Context, tip money.Minor) error {
	return s.mutate(ctx, func(d *cart.Draft) error { return d.SetTip(tip) })
}

func (s *Session) SelectTables(ctx context.Context, refs []cart.TableRef) error {
	return s.mutate(ctx, func(d *cart.Draft) error { return d.SelectTables(refs) })
}

func (s *Session) SetCustomer(ctx context.Context, c *cart.Customer) error {
	return s.mutate(ctx, func(d *cart.Draft) error { d.SetCustomer(c); return nil })
}

// UpdateItem patches one line's details and quantity together. Details are
// applied first, so a quantity of zero still removes the line.
func (s *Session) UpdateItem(ctx context.Context, index int, req UpdateItemRequest) error {
	return s.mutate(ctx, func(d *cart.Draft) error {
		if index < 0 || index >= len(d.Items) {
			return apperr.Validation("item not in cart")
		}
		next := d.Clone()
		if req.Notes != nil || req.Modifications != nil {
			notes, mods := next.Items[index].Notes, next.Items[index].Modifications
			if req.Notes != nil {
				notes = *req.Notes
			}
			if req.Modifications != nil {
				mods = *req.Modifications
			}
			if err := next.UpdateItemDetails(index, notes, mods); err != nil {
				return err
			}
		}
		if req.Quantity != nil {
			if err := next.UpdateQuantity(cart.AtIndex(index), *req.Quantity); err != nil {
				return err
			}
		}
		*d = *next
		return nil
	})
}

// Patch applies order-level changes together; an invalid field changes nothing.
func (s *Session) Patch(ctx context.Context, p CartPatch) error {
	return s.mutate(ctx, func(d *cart.Draft) error {
		next := d.Clone()
		if err := p.apply(next); err != nil {
			return err
		}
		*d = *next
		return nil
	})
}

func (p CartPatch) apply(d *cart.Draft) error {
	if p.OrderType != nil {
		if err := d.SetOrderType(cart.OrderType(*p.OrderType)); err != nil {
			return err
		}
	}
	if p.DiscountType != nil || p.DiscountValue != nil {
		dt, dv := d.DiscountType, d.DiscountValue
		if p.DiscountType != nil {
			var ok bool
			if dt, ok = cart.ParseDiscountType(*p.DiscountType); !ok {
				return apperr.Validationf("invalid discount_type: %s (allowed: fixed, percent)", *p.DiscountType)
			}
		}
		if p.DiscountValue != nil {
			dv = *p.DiscountValue
		}
		if err := d.SetDiscount(dt, dv); err != nil {
			return err
		}
	}
	if p.Notes != nil {
		d.SetNotes(*p.Notes)
	}
	if p.Tip != nil {
		if err := d.SetTip(*p.Tip); err != nil {
			return err
		}
	}
	if p.SelectedTables != nil {
		if err := d.SelectTables(*p.SelectedTables); err != nil {
			return err
		}
	}
	if p.Customer != nil {
		c := *p.Customer
		d.SetCustomer(&c)
	}
	return nil
}

// ClearCart resets the ledger and every order-level field. It always succeeds.
func (s *Session) ClearCart(ctx context.Context) {
	_ = s.mutate(ctx, func(d *cart.Draft) error { d.Reset(); return nil })
}

// ── Lifecycle ─────────────────────────────────────────────────────────────────

// Hold parks the cart on the server. A draft resumed from a hold updates that
// hold instead of creating a new one. The draft is only cleared after the
// server accepts it.
func (s *Session) Hold(ctx context.Context, req HoldRequest) (*HoldResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draft.Empty() {
		return nil, apperr.Validation("cannot hold an empty cart")
	}
	if s.draft.EditingInvoiceID != "" {
		return nil, apperr.Statef("invoice %s is being edited; update or clear it first", s.draft.EditingInvoiceID)
	}

	id := s.identity(req.Identity)
	totals := s.draft.Totals(s.deps.TaxRate)
	p := buildPayload(s.draft, totals, id)
	p.ReferenceNumber = req.ReferenceNumber
	if p.ReferenceNumber == "" {
		p.ReferenceNumber = "HOLD-" + strings.ToUpper(uuid.NewString()[:8])
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	res := &HoldResult{ReferenceNumber: p.ReferenceNumber}
	if ref := s.draft.HoldReferenceID; ref != "" {
		if err := s.deps.Remote.UpdateHeldOrder(ctx, ref, p); err != nil {
			return nil, err
		}
		res.ID, res.Updated = ref, true
	} else {
		newID, err := s.deps.Remote.CreateHeldOrder(ctx, p)
		if err != nil {
			return nil, err
		}
		res.ID = newID.String()
	}

	s.draft.Reset()
	s.persist(ctx)
	if err := s.deps.Tables.Refresh(ctx); err != nil {
		s.log.Warn("held list refresh after hold failed", zap.Error(err))
	}
	s.log.Info("order held", zap.String("held_order_id", res.ID), zap.Bool("updated", res.Updated))
	s.publish(ctx, mq.KeyOrderHeld, heldEvent{
		HeldOrderID:     res.ID,
		ReferenceNumber: res.ReferenceNumber,
		CashRegisterID:  id.CashRegisterID,
		Updated:         res.Updated,
		Total:           totals.Total,
	})
	return res, nil
}

// LoadHeldOrder clears the cart, then builds the held order's draft off to the
// side and swaps it in only once it is complete. A held order that fails to
// build leaves the register empty.
func (s *Session) LoadHeldOrder(ctx context.Context, o orderapi.HeldOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft.Reset()
	s.persist(ctx)

	next, err := draftFromOrder(o.Order, o.TableRefs())
	if err != nil {
		return err
	}
	next.HoldReferenceID = o.ID.String()

	s.draft = next
	s.persist(ctx)
	s.log.Info("held order loaded", zap.String("held_order_id", o.ID.String()), zap.Int("lines", len(next.Items)))
	return nil
}

// LoadHeldOrderByID resolves the id against the held-order cache, then loads it.
func (s *Session) LoadHeldOrderByID(ctx context.Context, id string) error {
	o, ok, err := s.deps.Tables.Find(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Remote(http.StatusNotFound, nil)
	}
	return s.LoadHeldOrder(ctx, o)
}

// LoadInvoiceForEdit fetches an issued invoice and puts the register into
// invoice-editing mode. The current draft is only replaced once the invoice
// has been fetched and fully rebuilt.
func (s *Session) LoadInvoiceForEdit(ctx context.Context, invoiceID string) error {
	if invoiceID == "" {
		return apperr.Validation("invoice id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, err := s.deps.Remote.GetInvoice(ctx, invoiceID)
	if err != nil {
		return err
	}
	next, err := draftFromOrder(inv.Order, inv.Tables)
	if err != nil {
		return err
	}
	next.EditingInvoiceID = inv.ID.String()
	if next.EditingInvoiceID == "" {
		next.EditingInvoiceID = invoiceID
	}

	s.draft = next
	s.persist(ctx)
	s.log.Info("invoice loaded for edit", zap.String("invoice_id", next.EditingInvoiceID))
	return nil
}

// UpdateExistingInvoice resubmits the invoice being edited from the current
// cart and leaves editing mode.
func (s *Session) UpdateExistingInvoice(ctx context.Context, ident Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	invoiceID := s.draft.EditingInvoiceID
	if invoiceID == "" {
		return apperr.State("no invoice is being edited")
	}
	if s.draft.Empty() {
		return apperr.Validation("cannot save an invoice with no items")
	}

	totals := s.draft.Totals(s.deps.TaxRate)
	p := buildPayload(s.draft, totals, s.identity(ident))
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.deps.Remote.UpdateInvoice(ctx, invoiceID, p); err != nil {
		return err
	}

	s.draft.Reset()
	s.persist(ctx)
	s.log.Info("invoice updated", zap.String("invoice_id", invoiceID))
	s.publish(ctx, mq.KeyInvoiceUpdated, invoiceEvent{
		InvoiceID:      invoiceID,
		CashRegisterID: p.CashRegisterID,
		Total:          totals.Total,
	})
	return nil
}

// ConvertToInvoice issues an invoice for a held order, then removes the hold.
// Until the invoice is created every failure leaves the hold untouched. If the
// hold cannot be removed afterwards the created invoice is returned with the error.
func (s *Session) ConvertToInvoice(ctx context.Context, o orderapi.HeldOrder, req ConvertRequest) (*orderapi.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := Identity{
		UserID:         firstNonEmpty(o.UserID.String(), req.UserID),
		StoreID:        firstNonEmpty(o.StoreID.String(), s.deps.StoreID),
		CashRegisterID: firstNonEmpty(o.CashRegisterID.String(), s.registerID),
	}
	missing := map[string]string{}
	if o.ID == "" {
		missing["id"] = "required"
	}
	if id.UserID == "" {
		missing["user_id"] = "required"
	}
	if id.StoreID == "" {
		missing["store_id"] = "required"
	}
	if len(missing) > 0 {
		e := apperr.Validation("held order is missing required fields")
		e.Fields = missing
		return nil, e
	}

	d, err := draftFromOrder(o.Order, o.TableRefs())
	if err != nil {
		return nil, err
	}
	totals := d.Totals(s.deps.TaxRate)
	p := buildPayload(d, totals, id)
	if err := p.Validate(); err != nil {
		return nil, err
	}

	number, err := s.deps.Remote.NextInvoiceNumber(ctx, id.StoreID)
	if err != nil {
		return nil, err
	}
	now := s.deps.Now()
	p.InvoiceNumber = number
	p.HoldInvoiceID = o.ID.String()
	p.ReferenceNumber = o.ReferenceNumber
	p.InvoiceDate = now.Format(dateLayout)
	p.DueDate = now.AddDate(0, 0, req.DueDays).Format(dateLayout)

	invID, err := s.deps.Remote.CreateInvoice(ctx, p)
	if err != nil {
		return nil, err
	}
	inv, err := s.deps.Remote.GetInvoice(ctx, invID.String())
	if err != nil {
		return nil, fmt.Errorf("confirm invoice %s: %w", invID, err)
	}
	s.log.Info("invoice created",
		zap.String("invoice_id", invID.String()),
		zap.String("invoice_number", number),
		zap.String("held_order_id", o.ID.String()),
	)

	if err := s.deps.Remote.DeleteHeldOrder(ctx, o.ID.String()); err != nil {
		return inv, fmt.Errorf("invoice %s created but hold %s was not removed: %w", number, o.ID, err)
	}
	s.deps.Tables.Evict(o.ID.String())

	if s.draft.HoldReferenceID == o.ID.String() {
		s.draft.Reset()
		s.persist(ctx)
	}
	s.publish(ctx, mq.KeyInvoiceCreated, invoiceEvent{
		InvoiceID:      invID.String(),
		InvoiceNumber:  number,
		HoldInvoiceID:  o.ID.String(),
		CashRegisterID: id.CashRegisterID,
		Total:          totals.Total,
	})
	return inv, nil
}

// ConvertHeldOrderByID resolves the id against the held-order cache, then converts it.
func (s *Session) ConvertHeldOrderByID(ctx context.Context, id string, req ConvertRequest) (*orderapi.Invoice, error) {
	o, ok, err := s.deps.Tables.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Remote(http.StatusNotFound, nil)
	}
	return s.ConvertToInvoice(ctx, o, req)
}

// DeleteHeldOrder removes a hold on the server, then from the local cache.
// A draft resumed from that hold keeps its lines but becomes a new order.
func (s *Session) DeleteHeldOrder(ctx context.Context, id string) error {
	if id == "" {
		return apperr.Validation("held order id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deps.Remote.DeleteHeldOrder(ctx, id); err != nil {
		return err
	}
	s.deps.Tables.Evict(id)
	if s.draft.HoldReferenceID == id {
		s.draft.HoldReferenceID = ""
		s.persistForce(ctx)
	}
	s.log.Info("held order deleted", zap.String("held_order_id", id))
	s.publish(ctx, mq.KeyHoldDeleted, map[string]string{"held_order_id": id, "cash_register_id": s.registerID})
	return nil
}

// persistForce saves even when no ledger operation marked the draft dirty.
func (s *Session) persistForce(ctx context.Context) {
	if err := saveDraft(ctx, s.deps.Repo, s.registerID, s.draft); err != nil {
		s.log.Warn("persist draft failed", zap.Error(err))
		return
	}
	s.draft.MarkClean()
}

// ── Payment ───────────────────────────────────────────────────────────────────

// Pay records a payment against an invoice and frees the tables it used.
func (s *Session) Pay(ctx context.Context, req PayRequest) (*orderapi.Payment, error) {
	if req.InvoiceID == "" {
		return nil, apperr.Validation("invoice_id is required")
	}
	if req.Amount <= 0 {
		return nil, apperr.Validation("amount must be greater than zero")
	}
	if req.PaymentMethod == "" {
		return nil, apperr.Validation("payment_method is required")
	}
	method, ok := ParsePaymentMethod(req.PaymentMethod)
	if !ok {
		return nil, apperr.Validationf("invalid payment_method: %s (allowed: CASH, CARD, MOBILE_MONEY, VOUCHER)", req.PaymentMethod)
	}
	id := s.identity(req.Identity)
	if id.UserID == "" {
		return nil, apperr.Validation("user_id is required")
	}

	pay, err := s.deps.Remote.CreatePayment(ctx, &orderapi.PaymentPayload{
		InvoiceID:      req.InvoiceID,
		Amount:         req.Amount,
		PaymentMethod:  string(method),
		Reference:      req.Reference,
		UserID:         id.UserID,
		StoreID:        id.StoreID,
		CashRegisterID: id.CashRegisterID,
		PaymentDate:    s.deps.Now().Format(dateLayout),
		IdempotencyKey: uuid.NewString(),
		Tables:         req.Tables,
	})
	if err != nil {
		return nil, err
	}

	if err := s.deps.Tables.ReleaseTablesAfterPayment(ctx, req.Tables); err != nil {
		s.log.Warn("table release refresh failed", zap.Error(err))
	}
	s.log.Info("payment recorded",
		zap.String("invoice_id", req.InvoiceID),
		zap.Int64("amount", int64(req.Amount)),
		zap.String("method", string(method)),
	)
	s.publish(ctx, mq.KeyPaymentCompleted, paymentEvent{
		PaymentID:      pay.ID.String(),
		InvoiceID:      req.InvoiceID,
		Amount:         req.Amount,
		PaymentMethod:  method,
		CashRegisterID: id.CashRegisterID,
		Tables:         req.Tables,
	})
	return pay, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
