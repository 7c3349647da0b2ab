package orderapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/georgemunganga/printa-till/internal/common/apperr"
	"github.com/georgemunganga/printa-till/internal/modules/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc, catalogUnit money.Unit) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL + "/", Token: "secret", CatalogPriceUnit: catalogUnit}, zap.NewNop())
}

func TestRemoteStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		msg    string
	}{
		{http.StatusBadRequest, "invalid parameters"},
		{http.StatusUnauthorized, "authentication required"},
		{http.StatusNotFound, "not found"},
		{http.StatusUnprocessableEntity, "validation failed"},
		{http.StatusInternalServerError, "internal server error"},
		{http.StatusServiceUnavailable, "request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}, money.UnitMinor)

			_, err := c.ListHeldOrders(context.Background())
			e, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindRemote, e.Kind)
			assert.Equal(t, tt.status, e.Status)
			assert.Equal(t, tt.msg, e.Message)
		})
	}
}

func TestUnprocessableCarriesFieldErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"bad","errors":{"store_id":["The store id field is required."],"total":"must be positive"}}`))
	}, money.UnitMinor)

	_, err := c.CreateHeldOrder(context.Background(), &OrderPayload{})
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "validation failed", e.Message)
	assert.Equal(t, "The store id field is required.", e.Fields["store_id"])
	assert.Equal(t, "must be positive", e.Fields["total"])
}

func TestTransportFailureIsRemote(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(Options{BaseURL: srv.URL}, zap.NewNop())

	_, err := c.ListTables(context.Background(), "1")
	assert.Equal(t, apperr.KindRemote, apperr.KindOf(err))
}

func TestListItemsTagsCatalogPrices(t *testing.T) {
	body := `{"items":{"data":[
		{"id":1,"name":"Tea","price":0.5},
		{"id":"2","name":"Steak","price":150},
		{"id":3,"name":"Cake","price":"12.30"}
	]},"itemTotalCount":3}`

	tests := []struct {
		unit money.Unit
		want []money.Minor
	}{
		{money.UnitMajor, []money.Minor{50, 15000, 1230}},
		{money.UnitMinor, []money.Minor{1, 150, 12}},
		{money.UnitAuto, []money.Minor{50, 150, 1230}},
	}
	for _, tt := range tests {
		t.Run(string(tt.unit), func(t *testing.T) {
			var got *http.Request
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				got = r
				_, _ = w.Write([]byte(body))
			}, tt.unit)

			page, err := c.ListItems(context.Background(), ItemQuery{Search: "te", CategoryIDs: []string{"4", "5"}, StoreID: "9", Limit: 20})
			require.NoError(t, err)
			require.Len(t, page.Items, 3)
			assert.Equal(t, 3, page.Total)
			for i, want := range tt.want {
				assert.Equal(t, want, page.Items[i].Price, page.Items[i].Name)
			}
			assert.Equal(t, ID("2"), page.Items[1].ID)

			assert.Equal(t, "/items-by-category", got.URL.Path)
			assert.Equal(t, []string{"4", "5"}, got.URL.Query()["categories_id[]"])
			assert.Equal(t, "te", got.URL.Query().Get("search"))
			assert.Equal(t, "Bearer secret", got.Header.Get("Authorization"))
		})
	}
}

func TestListHeldOrders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/hold-invoices", r.URL.Path)
		_, _ = w.Write([]byte(`{"hold_invoices":{"data":[{
			"id":17,"paid_status":"UNPAID","sub_total":2000,"total":2000,
			"tables":[{"table_id":"T1","quantity":1}],
			"hold_tables":[{"table_id":"T2","quantity":1}],
			"items":[{"item_id":5,"name":"Burger","price":1000,"quantity":2}]
		}]}}`))
	}, money.UnitMinor)

	orders, err := c.ListHeldOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, ID("17"), o.ID)
	assert.True(t, o.PaidStatus.IsUnpaid())
	assert.Equal(t, "T1", o.Tables[0].TableID)
	assert.Equal(t, "T2", o.HoldTables[0].TableID)
	price, ok := o.Items[0].UnitPrice()
	require.True(t, ok)
	assert.Equal(t, money.Minor(1000), price)
}

func TestHeldPricesHonourConfiguredUnit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"invoice":{"id":3,"invoice_number":"INV-3","items":[{"item_id":1,"price":"10.00","quantity":1}]}}`))
	}))
	defer srv.Close()
	c := NewClient(Options{BaseURL: srv.URL, HeldPriceUnit: money.UnitMajor}, zap.NewNop())

	inv, err := c.GetInvoice(context.Background(), "3")
	require.NoError(t, err)
	assert.Equal(t, "INV-3", inv.InvoiceNumber)
	price, _ := inv.Items[0].UnitPrice()
	assert.Equal(t, money.Minor(1000), price)
}

func TestCreateHeldOrderSendsPayload(t *testing.T) {
	var sent map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &sent))
		_, _ = w.Write([]byte(`{"id":42,"success":true}`))
	}, money.UnitMinor)

	total := money.Minor(3000)
	id, err := c.CreateHeldOrder(context.Background(), &OrderPayload{UserID: "u1", Total: &total})
	require.NoError(t, err)
	assert.Equal(t, ID("42"), id)
	assert.Equal(t, float64(3000), sent["total"])
	assert.Equal(t, "u1", sent["user_id"])
}

func TestExplicitFailureIsRemote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"hold is locked"}`))
	}, money.UnitMinor)

	err := c.DeleteHeldOrder(context.Background(), "9")
	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindRemote, e.Kind)
	assert.Equal(t, "hold is locked", e.Message)
}

func TestNextInvoiceNumber(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/invoices/next-number", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("store_id"))
		_, _ = w.Write([]byte(`{"invoice_number":"INV-0001"}`))
	}, money.UnitMinor)

	n, err := c.NextInvoiceNumber(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", n)
}
