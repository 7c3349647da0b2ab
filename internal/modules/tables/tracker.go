package tables

import (
	"context"
	"fmt"
	"sync"

	"github.com/georgemunganga/printa-till/internal/modules/cart"
	"github.com/georgemunganga/printa-till/internal/modules/orderapi"
	"go.uber.org/zap"
)

// Remote is the slice of the order service the tracker reads.
type Remote interface {
	ListHeldOrders(ctx context.Context) ([]orderapi.HeldOrder, error)
	ListTables(ctx context.Context, cashRegisterID string) ([]orderapi.Table, error)
}

// Tracker owns the process-wide held-order cache. Occupancy is always
// answered from that cache, so a stale cache gives stale answers until Refresh.
type Tracker struct {
	remote Remote
	log    *zap.Logger

	mu     sync.RWMutex
	held   []orderapi.HeldOrder
	loaded bool
}

func NewTracker(remote Remote, log *zap.Logger) *Tracker {
	return &Tracker{remote: remote, log: log.Named("tables")}
}

// Refresh replaces the cache with the server's held orders.
func (t *Tracker) Refresh(ctx context.Context) error {
	orders, err := t.remote.ListHeldOrders(ctx)
	if err != nil {
		return fmt.Errorf("refresh held orders: %w", err)
	}
	t.mu.Lock()
	t.held = orders
	t.loaded = true
	t.mu.Unlock()
	t.log.Debug("held orders refreshed", zap.Int("count", len(orders)))
	return nil
}

// HeldOrders returns a copy of the cache, refreshing first if it was never loaded.
func (t *Tracker) HeldOrders(ctx context.Context) ([]orderapi.HeldOrder, error) {
	if err := t.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]orderapi.HeldOrder, len(t.held))
	copy(out, t.held)
	return out, nil
}

// Find looks a held order up by id. A miss triggers one refresh.
func (t *Tracker) Find(ctx context.Context, id string) (orderapi.HeldOrder, bool, error) {
	if err := t.ensureLoaded(ctx); err != nil {
		return orderapi.HeldOrder{}, false, err
	}
	if o, ok := t.lookup(id); ok {
		return o, true, nil
	}
	if err := t.Refresh(ctx); err != nil {
		return orderapi.HeldOrder{}, false, err
	}
	o, ok := t.lookup(id)
	return o, ok, nil
}

func (t *Tracker) lookup(id string) (orderapi.HeldOrder, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, o := range t.held {
		if o.ID.String() == id {
			return o, true
		}
	}
	return orderapi.HeldOrder{}, false
}

// Evict drops a held order from the cache and reports whether it was there.
func (t *Tracker) Evict(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, o := range t.held {
		if o.ID.String() == id {
			t.held = append(t.held[:i], t.held[i+1:]...)
			return true
		}
	}
	return false
}

// Occupied loads the cache if it was never loaded, then answers IsOccupied.
func (t *Tracker) Occupied(ctx context.Context, tableID string) (bool, error) {
	if err := t.ensureLoaded(ctx); err != nil {
		return false, err
	}
	return t.IsOccupied(tableID), nil
}

// IsOccupied is true iff an unpaid cached held order references tableID
// in its tables or hold_tables list. It reads the cache as is: before the
// first load every table reads as free. Use Occupied on a cold tracker.
func (t *Tracker) IsOccupied(tableID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.occupant(tableID)
	return ok
}

func (t *Tracker) occupant(tableID string) (string, bool) {
	for _, o := range t.held {
		if !o.PaidStatus.IsUnpaid() {
			continue
		}
		if references(o.Tables, tableID) || references(o.HoldTables, tableID) {
			return o.ID.String(), true
		}
	}
	return "", false
}

func references(refs []cart.TableRef, tableID string) bool {
	for _, r := range refs {
		if r.TableID == tableID {
			return true
		}
	}
	return false
}

// ReleaseTablesAfterPayment removes the tables from every cached held order,
// then refreshes. A failed refresh is returned but the local release stays.
func (t *Tracker) ReleaseTablesAfterPayment(ctx context.Context, tables []cart.TableRef) error {
	if len(tables) == 0 {
		return nil
	}
	release := make(map[string]bool, len(tables))
	for _, r := range tables {
		release[r.TableID] = true
	}

	t.mu.Lock()
	for i := range t.held {
		t.held[i].Tables = without(t.held[i].Tables, release)
		t.held[i].HoldTables = without(t.held[i].HoldTables, release)
	}
	t.mu.Unlock()

	return t.Refresh(ctx)
}

func without(refs []cart.TableRef, release map[string]bool) []cart.TableRef {
	kept := make([]cart.TableRef, 0, len(refs))
	for _, r := range refs {
		if !release[r.TableID] {
			kept = append(kept, r)
		}
	}
	return kept
}

// TableStatus is a floor-plan table joined with its occupancy.
type TableStatus struct {
	orderapi.Table
	Occupied    bool   `json:"occupied"`
	HeldOrderID string `json:"held_order_id,omitempty"`
}

// Floor lists the register's tables with their occupancy.
func (t *Tracker) Floor(ctx context.Context, cashRegisterID string) ([]TableStatus, error) {
	if err := t.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	list, err := t.remote.ListTables(ctx, cashRegisterID)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]TableStatus, 0, len(list))
	for _, tb := range list {
		st := TableStatus{Table: tb}
		st.HeldOrderID, st.Occupied = t.occupant(tb.ID.String())
		out = append(out, st)
	}
	return out, nil
}

func (t *Tracker) ensureLoaded(ctx context.Context) error {
	t.mu.RLock()
	loaded := t.loaded
	t.mu.RUnlock()
	if loaded {
		return nil
	}
	return t.Refresh(ctx)
}
