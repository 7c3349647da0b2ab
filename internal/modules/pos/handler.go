package pos

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/georgemunganga/printa-till/internal/common/apperr"
	"github.com/georgemunganga/printa-till/internal/modules/auth"
	"github.com/georgemunganga/printa-till/internal/modules/cart"
	"github.com/georgemunganga/printa-till/internal/modules/money"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the till HTTP endpoints.
type Handler struct{ registry *Registry }

func NewHandler(registry *Registry) *Handler { return &Handler{registry: registry} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/pos/registers/{register_id}", func(r chi.Router) {
		r.Get("/cart", h.getCart)                               // GET    .../cart
		r.Delete("/cart", h.clearCart)                          // DELETE .../cart
		r.Patch("/cart", h.patchCart)                           // PATCH  .../cart
		r.Post("/cart/items", h.addItem)                        // POST   .../cart/items
		r.Patch("/cart/items/{index}", h.updateItem)            // PATCH  .../cart/items/{index}
		r.Delete("/cart/items/{index}", h.removeItem)           // DELETE .../cart/items/{index}
		r.Post("/cart/items/{index}/split", h.splitItem)        // POST   .../cart/items/{index}/split
		r.Patch("/cart/items/{index}/discount", h.itemDiscount) // PATCH  .../cart/items/{index}/discount
		r.Post("/hold", h.hold)                                 // POST   .../hold
		r.Get("/held", h.listHeld)                              // GET    .../held
		r.Post("/held/{id}/load", h.loadHeld)                   // POST   .../held/{id}/load
		r.Post("/held/{id}/invoice", h.convertHeld)             // POST   .../held/{id}/invoice
		r.Delete("/held/{id}", h.deleteHeld)                    // DELETE .../held/{id}
		r.Post("/invoices/{id}/edit", h.editInvoice)            // POST   .../invoices/{id}/edit
		r.Put("/invoice", h.updateInvoice)                      // PUT    .../invoice
		r.Post("/payments", h.pay)                              // POST   .../payments
		r.Get("/tables", h.floor)                               // GET    .../tables
		r.Get("/tables/{table_id}/occupied", h.occupied)        // GET    .../tables/{table_id}/occupied
	})
}

// ── Cart ──────────────────────────────────────────────────────────────────────

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respond(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.ClearCart(r.Context())
	respond(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) patchCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req CartPatch
	if !decode(w, r, &req) {
		return
	}
	if err := s.Patch(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req AddItemRequest
	if !decode(w, r, &req) {
		return
	}
	unit := money.UnitMinor
	if req.PriceUnit != "" {
		u, err := money.ParseUnit(req.PriceUnit)
		if err != nil || u == money.UnitAuto {
			respond(w, http.StatusBadRequest, map[string]string{"error": "invalid price_unit (allowed: minor, major)"})
			return
		}
		unit = u
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	p := cart.Product{
		ID:          req.ItemID,
		Name:        req.Name,
		Description: req.Description,
		Price:       money.Tag(req.Price, unit).Minor(),
	}
	idx, err := s.AddItem(r.Context(), p, req.Quantity, req.Modifications, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, map[string]interface{}{"index": idx, "snapshot": s.Snapshot()})
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	s, index, ok := h.sessionAndIndex(w, r)
	if !ok {
		return
	}
	var req UpdateItemRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.UpdateItem(r.Context(), index, req); err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	s, index, ok := h.sessionAndIndex(w, r)
	if !ok {
		return
	}
	if err := s.RemoveItem(r.Context(), index); err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) splitItem(w http.ResponseWriter, r *http.Request) {
	s, index, ok := h.sessionAndIndex(w, r)
	if !ok {
		return
	}
	var req SplitItemRequest
	if !decode(w, r, &req) {
		return
	}
	split := s.SplitItem(r.Context(), index, req.Quantity)
	respond(w, http.StatusOK, map[string]interface{}{"split": split, "snapshot": s.Snapshot()})
}

func (h *Handler) itemDiscount(w http.ResponseWriter, r *http.Request) {
	s, index, ok := h.sessionAndIndex(w, r)
	if !ok {
		return
	}
	var req DiscountRequest
	if !decode(w, r, &req) {
		return
	}
	dt, valid := cart.ParseDiscountType(req.DiscountType)
	if !valid {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid discount_type (allowed: fixed, percent)"})
		return
	}
	if err := s.SetItemDiscount(r.Context(), index, dt, req.DiscountValue); err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, s.Snapshot())
}

// ── Holds & invoices ──────────────────────────────────────────────────────────

func (h *Handler) hold(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req HoldRequest
	if !decode(w, r, &req) {
		return
	}
	req.UserID = userID(r, req.UserID)
	res, err := s.Hold(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusCreated
	if res.Updated {
		status = http.StatusOK
	}
	respond(w, status, res)
}

func (h *Handler) listHeld(w http.ResponseWriter, r *http.Request) {
	tracker := h.registry.deps.Tables
	if r.URL.Query().Get("refresh") == "true" {
		if err := tracker.Refresh(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	}
	orders, err := tracker.HeldOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, orders)
}

func (h *Handler) loadHeld(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.LoadHeldOrderByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) convertHeld(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ConvertRequest
	if !decode(w, r, &req) {
		return
	}
	req.UserID = userID(r, req.UserID)
	inv, err := s.ConvertHeldOrderByID(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, inv)
}

func (h *Handler) deleteHeld(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.DeleteHeldOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) editInvoice(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.LoadInvoiceForEdit(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, s.Snapshot())
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req Identity
	if !decode(w, r, &req) {
		return
	}
	req.UserID = userID(r, req.UserID)
	if err := s.UpdateExistingInvoice(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, s.Snapshot())
}

// ── Payments & tables ─────────────────────────────────────────────────────────

func (h *Handler) pay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req PayRequest
	if !decode(w, r, &req) {
		return
	}
	req.UserID = userID(r, req.UserID)
	p, err := s.Pay(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusCreated, p)
}

func (h *Handler) floor(w http.ResponseWriter, r *http.Request) {
	floor, err := h.registry.deps.Tables.Floor(r.Context(), chi.URLParam(r, "register_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, floor)
}

func (h *Handler) occupied(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "table_id")
	occupied, err := h.registry.deps.Tables.Occupied(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{"table_id": id, "occupied": occupied})
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	s, err := h.registry.Session(r.Context(), chi.URLParam(r, "register_id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) sessionAndIndex(w http.ResponseWriter, r *http.Request) (*Session, int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "index must be an integer"})
		return nil, 0, false
	}
	s, ok := h.session(w, r)
	return s, index, ok
}

// userID prefers the authenticated cashier over whatever the body claims.
func userID(r *http.Request, fromBody string) string {
	if id := auth.UserID(r.Context()); id != "" {
		return id
	}
	return fromBody
}

// decode reads a JSON body; an empty body leaves v at its zero value.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	if e, ok := apperr.As(err); ok {
		body := *e
		if error(e) != err {
			body.Message = err.Error()
		}
		respond(w, apperr.HTTPStatus(err), body)
		return
	}
	respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
