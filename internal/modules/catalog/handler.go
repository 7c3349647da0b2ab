package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/georgemunganga/printa-till/internal/common/apperr"
	"github.com/go-chi/chi/v5"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/items", h.listItems) // GET /api/v1/catalog/items
	})
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := Query{
		Search:      v.Get("search"),
		CategoryIDs: v["categories_id[]"],
		StoreID:     v.Get("store_id"),
	}
	if len(q.CategoryIDs) == 0 {
		q.CategoryIDs = v["categories_id"]
	}
	var err error
	if s := v.Get("page"); s != "" {
		if q.Page, err = strconv.Atoi(s); err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "invalid page"})
			return
		}
	}
	if s := v.Get("limit"); s != "" {
		if q.Limit, err = strconv.Atoi(s); err != nil {
			respond(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
	}

	page, err := h.service.ListItems(r.Context(), q)
	if err != nil {
		if e, ok := apperr.As(err); ok {
			respond(w, apperr.HTTPStatus(err), e)
			return
		}
		respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, page)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
