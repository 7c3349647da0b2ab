package pos

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/georgemunganga/printa-till/internal/common/apperr"
	"github.com/georgemunganga/printa-till/internal/modules/cart"
	"github.com/georgemunganga/printa-till/internal/modules/money"
	"github.com/georgemunganga/printa-till/internal/modules/orderapi"
	"github.com/georgemunganga/printa-till/internal/modules/tables"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// fakeRemote is an in-memory order service. failOn makes the named method
// return a remote error with the given status.
type fakeRemote struct {
	mu       sync.Mutex
	held     []orderapi.HeldOrder
	invoices map[string]*orderapi.Invoice
	tables   []orderapi.Table
	calls    []string
	failOn   map[string]int
	delay    time.Duration
	nextID   int

	created  []*orderapi.OrderPayload
	updated  map[string]*orderapi.OrderPayload
	payments []*orderapi.PaymentPayload
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		invoices: map[string]*orderapi.Invoice{},
		failOn:   map[string]int{},
		updated:  map[string]*orderapi.OrderPayload{},
		nextID:   100,
	}
}

func (f *fakeRemote) enter(name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	status, fail := f.failOn[name]
	delay := f.delay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		return apperr.Remote(status, nil)
	}
	return nil
}

func (f *fakeRemote) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeRemote) id() orderapi.ID {
	f.nextID++
	return orderapi.ID(fmt.Sprint(f.nextID))
}

func (f *fakeRemote) ListItems(ctx context.Context, q orderapi.ItemQuery) (*orderapi.ItemPage, error) {
	if err := f.enter("ListItems"); err != nil {
		return nil, err
	}
	return &orderapi.ItemPage{}, nil
}

func (f *fakeRemote) ListHeldOrders(context.Context) ([]orderapi.HeldOrder, error) {
	if err := f.enter("ListHeldOrders"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]orderapi.HeldOrder, len(f.held))
	for i, o := range f.held {
		o.Tables = append([]cart.TableRef{}, o.Tables...)
		o.HoldTables = append([]cart.TableRef{}, o.HoldTables...)
		out[i] = o
	}
	return out, nil
}

func (f *fakeRemote) CreateHeldOrder(_ context.Context, p *orderapi.OrderPayload) (orderapi.ID, error) {
	if err := f.enter("CreateHeldOrder"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	f.created = append(f.created, p)
	f.held = append(f.held, heldFromPayload(id, p))
	return id, nil
}

func (f *fakeRemote) UpdateHeldOrder(_ context.Context, id string, p *orderapi.OrderPayload) error {
	if err := f.enter("UpdateHeldOrder"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = p
	for i := range f.held {
		if f.held[i].ID.String() == id {
			f.held[i] = heldFromPayload(f.held[i].ID, p)
		}
	}
	return nil
}

func (f *fakeRemote) DeleteHeldOrder(_ context.Context, id string) error {
	if err := f.enter("DeleteHeldOrder"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.held {
		if f.held[i].ID.String() == id {
			f.held = append(f.held[:i], f.held[i+1:]...)
			return nil
		}
	}
	return apperr.Remote(404, nil)
}

func (f *fakeRemote) NextInvoiceNumber(context.Context, string) (string, error) {
	if err := f.enter("NextInvoiceNumber"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("INV-%04d", len(f.invoices)+1), nil
}

func (f *fakeRemote) CreateInvoice(_ context.Context, p *orderapi.OrderPayload) (orderapi.ID, error) {
	if err := f.enter("CreateInvoice"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id()
	inv := &orderapi.Invoice{
		Order:         heldFromPayload(id, p).Order,
		InvoiceNumber: p.InvoiceNumber,
		HoldInvoiceID: orderapi.ID(p.HoldInvoiceID),
		InvoiceDate:   p.InvoiceDate,
		DueDate:       p.DueDate,
	}
	f.invoices[id.String()] = inv
	return id, nil
}

func (f *fakeRemote) GetInvoice(_ context.Context, id string) (*orderapi.Invoice, error) {
	if err := f.enter("GetInvoice"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return nil, apperr.Remote(404, nil)
	}
	c := *inv
	return &c, nil
}

func (f *fakeRemote) UpdateInvoice(_ context.Context, id string, p *orderapi.OrderPayload) error {
	if err := f.enter("UpdateInvoice"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = p
	return nil
}

func (f *fakeRemote) ListTables(context.Context, string) ([]orderapi.Table, error) {
	if err := f.enter("ListTables"); err != nil {
		return nil, err
	}
	return f.tables, nil
}

func (f *fakeRemote) CreatePayment(_ context.Context, p *orderapi.PaymentPayload) (*orderapi.Payment, error) {
	if err := f.enter("CreatePayment"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, p)
	// the server drops the paid tables from its holds
	for i := range f.held {
		f.held[i].Tables = dropTables(f.held[i].Tables, p.Tables)
		f.held[i].HoldTables = dropTables(f.held[i].HoldTables, p.Tables)
	}
	return &orderapi.Payment{ID: f.id(), InvoiceID: orderapi.ID(p.InvoiceID), Amount: p.Amount, Status: "COMPLETED"}, nil
}

func dropTables(refs, paid []cart.TableRef) []cart.TableRef {
	var kept []cart.TableRef
	for _, r := range refs {
		keep := true
		for _, p := range paid {
			if p.TableID == r.TableID {
				keep = false
			}
		}
		if keep {
			kept = append(kept, r)
		}
	}
	return kept
}

// heldFromPayload stores a payload the way the backend would echo it back.
func heldFromPayload(id orderapi.ID, p *orderapi.OrderPayload) orderapi.HeldOrder {
	o := orderapi.HeldOrder{}
	o.ID = id
	o.ReferenceNumber = p.ReferenceNumber
	o.UserID = orderapi.ID(p.UserID)
	o.StoreID = orderapi.ID(p.StoreID)
	o.CashRegisterID = orderapi.ID(p.CashRegisterID)
	o.OrderType = p.OrderType
	o.DiscountType = p.DiscountType
	o.DiscountValue = p.DiscountValue
	o.DiscountAmount = p.DiscountAmount
	o.TaxAmount = p.TaxAmount
	o.Tip = p.Tip
	o.SubTotal = *p.SubTotal
	o.Total = *p.Total
	o.DueAmount = *p.DueAmount
	o.Notes = p.Notes
	o.Customer = p.Customer
	o.Tables = append([]cart.TableRef{}, p.Tables...)
	o.PaidStatus = orderapi.Unpaid
	for _, it := range p.Items {
		price := decimal.NewFromInt(int64(*it.Price))
		qty := *it.Quantity
		o.Items = append(o.Items, orderapi.Item{
			ItemID:        orderapi.ID(it.ItemID),
			Name:          it.Name,
			Price:         &price,
			Quantity:      &qty,
			Notes:         it.Notes,
			Modifications: it.Modifications,
			DiscountType:  it.DiscountType,
			DiscountValue: it.DiscountValue,
			PriceUnit:     money.UnitMinor,
		})
	}
	return o
}

type published struct {
	key     string
	payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, key string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{key, payload})
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.key
	}
	return out
}

type fixture struct {
	remote   *fakeRemote
	repo     Repository
	events   *recordingPublisher
	tracker  *tables.Tracker
	registry *Registry
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		remote: newFakeRemote(),
		repo:   NewMemoryRepository(),
		events: &recordingPublisher{},
	}
	f.tracker = tables.NewTracker(f.remote, zap.NewNop())
	f.registry = f.newRegistry()
	return f
}

// newRegistry builds a registry over the same store, as a restarted process would.
func (f *fixture) newRegistry() *Registry {
	return NewRegistry(Deps{
		Remote:  f.remote,
		Tables:  f.tracker,
		Repo:    f.repo,
		Events:  f.events,
		Log:     zap.NewNop(),
		TaxRate: decimal.RequireFromString("0.16"),
		StoreID: "store-1",
		Now:     func() time.Time { return fixedNow },
	})
}

var (
	burger = cart.Product{ID: "1", Name: "Burger", Price: 1000}
	fries  = cart.Product{ID: "2", Name: "Fries", Price: 350}
)

var cashier = Identity{UserID: "u-1", StoreID: "store-1"}

// flakyRepo fails writes to the keys in failPut.
type flakyRepo struct {
	Repository
	failPut map[string]bool
}

func (r *flakyRepo) Put(ctx context.Context, key string, value []byte) error {
	if r.failPut[key] {
		return fmt.Errorf("put %s: disk full", key)
	}
	return r.Repository.Put(ctx, key, value)
}
