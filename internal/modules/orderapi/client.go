package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/georgemunganga/printa-till/internal/common/apperr"
	"github.com/georgemunganga/printa-till/internal/modules/money"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Client is the Remote Order Service as the till consumes it.
// Every method returns *apperr.Error (KindRemote) on transport or HTTP failure.
type Client interface {
	ListItems(ctx context.Context, q ItemQuery) (*ItemPage, error)

	ListHeldOrders(ctx context.Context) ([]HeldOrder, error)
	CreateHeldOrder(ctx context.Context, p *OrderPayload) (ID, error)
	UpdateHeldOrder(ctx context.Context, id string, p *OrderPayload) error
	DeleteHeldOrder(ctx context.Context, id string) error

	NextInvoiceNumber(ctx context.Context, storeID string) (string, error)
	CreateInvoice(ctx context.Context, p *OrderPayload) (ID, error)
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	UpdateInvoice(ctx context.Context, id string, p *OrderPayload) error

	ListTables(ctx context.Context, cashRegisterID string) ([]Table, error)
	CreatePayment(ctx context.Context, p *PaymentPayload) (*Payment, error)
}

// Options configures the HTTP client.
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// CatalogPriceUnit says how items-by-category prices are denominated.
	CatalogPriceUnit money.Unit
	// HeldPriceUnit says how item prices inside held orders and invoices are denominated.
	HeldPriceUnit money.Unit
}

type httpClient struct {
	baseURL string
	token   string
	http    *http.Client
	units   struct{ catalog, held money.Unit }
	log     *zap.Logger
}

func NewClient(opts Options, log *zap.Logger) Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.CatalogPriceUnit == "" {
		opts.CatalogPriceUnit = money.UnitAuto
	}
	if opts.HeldPriceUnit == "" {
		opts.HeldPriceUnit = money.UnitMinor
	}
	c := &httpClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		token:   opts.Token,
		http:    &http.Client{Timeout: opts.Timeout},
		log:     log.Named("orderapi"),
	}
	c.units.catalog = opts.CatalogPriceUnit
	c.units.held = opts.HeldPriceUnit
	return c
}

// ── Catalog ───────────────────────────────────────────────────────────────────

func (c *httpClient) ListItems(ctx context.Context, q ItemQuery) (*ItemPage, error) {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	for _, id := range q.CategoryIDs {
		v.Add("categories_id[]", id)
	}
	if q.StoreID != "" {
		v.Set("store_id", q.StoreID)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}

	var resp struct {
		Items struct {
			Data []struct {
				ID          ID              `json:"id"`
				Name        string          `json:"name"`
				Description string          `json:"description"`
				CategoryID  ID              `json:"categories_id"`
				Image       string          `json:"image"`
				Price       decimal.Decimal `json:"price"`
			} `json:"data"`
		} `json:"items"`
		ItemTotalCount int `json:"itemTotalCount"`
	}
	if err := c.do(ctx, http.MethodGet, "items-by-category", v, nil, &resp); err != nil {
		return nil, err
	}

	page := &ItemPage{Items: make([]CatalogItem, 0, len(resp.Items.Data)), Total: resp.ItemTotalCount}
	for _, it := range resp.Items.Data {
		page.Items = append(page.Items, CatalogItem{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			CategoryID:  it.CategoryID,
			Image:       it.Image,
			Price:       money.Tag(it.Price, c.units.catalog).Minor(),
		})
	}
	return page, nil
}

// ── Held orders ───────────────────────────────────────────────────────────────

func (c *httpClient) ListHeldOrders(ctx context.Context) ([]HeldOrder, error) {
	var resp struct {
		HoldInvoices struct {
			Data []HeldOrder `json:"data"`
		} `json:"hold_invoices"`
	}
	if err := c.do(ctx, http.MethodGet, "hold-invoices", nil, nil, &resp); err != nil {
		return nil, err
	}
	orders := resp.HoldInvoices.Data
	for i := range orders {
		c.tagItems(orders[i].Items)
	}
	return orders, nil
}

func (c *httpClient) CreateHeldOrder(ctx context.Context, p *OrderPayload) (ID, error) {
	var resp struct {
		ID      ID     `json:"id"`
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "hold-invoices", nil, p, &resp); err != nil {
		return "", err
	}
	if err := checkSuccess(resp.Success, resp.Message); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *httpClient) UpdateHeldOrder(ctx context.Context, id string, p *OrderPayload) error {
	var resp struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPut, "hold-invoices/"+url.PathEscape(id), nil, p, &resp); err != nil {
		return err
	}
	return checkSuccess(resp.Success, resp.Message)
}

func (c *httpClient) DeleteHeldOrder(ctx context.Context, id string) error {
	var resp struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, "hold-invoices/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return err
	}
	return checkSuccess(resp.Success, resp.Message)
}

// ── Invoices ──────────────────────────────────────────────────────────────────

func (c *httpClient) NextInvoiceNumber(ctx context.Context, storeID string) (string, error) {
	v := url.Values{}
	if storeID != "" {
		v.Set("store_id", storeID)
	}
	var resp struct {
		InvoiceNumber string `json:"invoice_number"`
	}
	if err := c.do(ctx, http.MethodGet, "invoices/next-number", v, nil, &resp); err != nil {
		return "", err
	}
	if resp.InvoiceNumber == "" {
		return "", &apperr.Error{Kind: apperr.KindRemote, Message: "no invoice number issued"}
	}
	return resp.InvoiceNumber, nil
}

func (c *httpClient) CreateInvoice(ctx context.Context, p *OrderPayload) (ID, error) {
	var resp struct {
		Invoice struct {
			ID ID `json:"id"`
		} `json:"invoice"`
	}
	if err := c.do(ctx, http.MethodPost, "invoices", nil, p, &resp); err != nil {
		return "", err
	}
	if resp.Invoice.ID == "" {
		return "", &apperr.Error{Kind: apperr.KindRemote, Message: "invoice created without an id"}
	}
	return resp.Invoice.ID, nil
}

func (c *httpClient) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	var resp struct {
		Invoice *Invoice `json:"invoice"`
	}
	if err := c.do(ctx, http.MethodGet, "invoices/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Invoice == nil {
		return nil, apperr.Remote(http.StatusNotFound, nil)
	}
	c.tagItems(resp.Invoice.Items)
	return resp.Invoice, nil
}

func (c *httpClient) UpdateInvoice(ctx context.Context, id string, p *OrderPayload) error {
	var resp struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPut, "invoices/"+url.PathEscape(id), nil, p, &resp); err != nil {
		return err
	}
	return checkSuccess(resp.Success, resp.Message)
}

// ── Tables & payments ─────────────────────────────────────────────────────────

func (c *httpClient) ListTables(ctx context.Context, cashRegisterID string) ([]Table, error) {
	v := url.Values{}
	if cashRegisterID != "" {
		v.Set("cash_register_id", cashRegisterID)
	}
	var resp struct {
		Data []Table `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "tables", v, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *httpClient) CreatePayment(ctx context.Context, p *PaymentPayload) (*Payment, error) {
	var resp struct {
		Success *bool    `json:"success"`
		Message string   `json:"message"`
		Payment *Payment `json:"payment"`
	}
	if err := c.do(ctx, http.MethodPost, "payments", nil, p, &resp); err != nil {
		return nil, err
	}
	if err := checkSuccess(resp.Success, resp.Message); err != nil {
		return nil, err
	}
	if resp.Payment == nil {
		return &Payment{InvoiceID: ID(p.InvoiceID), Amount: p.Amount, PaymentMethod: p.PaymentMethod}, nil
	}
	return resp.Payment, nil
}

// ── Transport ─────────────────────────────────────────────────────────────────

func (c *httpClient) tagItems(items []Item) {
	for i := range items {
		items[i].PriceUnit = c.units.held
	}
}

func (c *httpClient) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + "/" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("remote request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return apperr.Transport(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return apperr.Transport(err)
	}
	c.log.Debug("remote request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", res.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		e := apperr.Remote(res.StatusCode, nil)
		if res.StatusCode == http.StatusUnprocessableEntity {
			e.Fields = fieldErrors(raw)
		}
		c.log.Warn("remote request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", res.StatusCode),
		)
		return e
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &apperr.Error{Kind: apperr.KindRemote, Message: "malformed response", Status: res.StatusCode, Err: err}
	}
	return nil
}

// checkSuccess turns an explicit {"success": false} into a remote error.
func checkSuccess(success *bool, message string) error {
	if success == nil || *success {
		return nil
	}
	e := apperr.Remote(0, nil)
	if message != "" {
		e.Message = message
	}
	return e
}

// fieldErrors reads {"errors": {"field": ["msg", ...]}} from a 422 body.
func fieldErrors(raw []byte) map[string]string {
	var body struct {
		Errors map[string]json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || len(body.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(body.Errors))
	for field, msg := range body.Errors {
		var list []string
		if err := json.Unmarshal(msg, &list); err == nil {
			out[field] = strings.Join(list, "; ")
			continue
		}
		var s string
		if err := json.Unmarshal(msg, &s); err == nil {
			out[field] = s
		}
	}
	return out
}
