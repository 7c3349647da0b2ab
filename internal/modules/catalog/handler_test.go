package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/georgemunganga/printa-till/internal/common/apperr"
	"github.com/georgemunganga/printa-till/internal/modules/orderapi"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	got orderapi.ItemQuery
	err error
}

func (f *fakeRepo) ListItems(_ context.Context, q orderapi.ItemQuery) (*orderapi.ItemPage, error) {
	f.got = q
	if f.err != nil {
		return nil, f.err
	}
	return &orderapi.ItemPage{Items: []orderapi.CatalogItem{{ID: "1", Name: "Tea", Price: 50}}, Total: 1}, nil
}

func serve(t *testing.T, repo Repository, target string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	NewHandler(NewService(repo, "store-1")).RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListItemsAppliesDefaults(t *testing.T) {
	repo := &fakeRepo{}
	rec := serve(t, repo, "/api/v1/catalog/items?search=%20tea%20&categories_id[]=3&limit=500")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "tea", repo.got.Search)
	assert.Equal(t, []string{"3"}, repo.got.CategoryIDs)
	assert.Equal(t, "store-1", repo.got.StoreID)
	assert.Equal(t, 1, repo.got.Page)
	assert.Equal(t, maxLimit, repo.got.Limit)

	var page Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)
	assert.EqualValues(t, 50, page.Items[0].Price)
}

func TestListItemsBadLimit(t *testing.T) {
	rec := serve(t, &fakeRepo{}, "/api/v1/catalog/items?limit=ten")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListItemsRemoteFailure(t *testing.T) {
	rec := serve(t, &fakeRepo{err: apperr.Remote(http.StatusUnauthorized, nil)}, "/api/v1/catalog/items")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication required")
}
