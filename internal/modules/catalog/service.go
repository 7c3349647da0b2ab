package catalog

import (
	"context"
	"strings"

	"github.com/georgemunganga/printa-till/internal/modules/orderapi"
)

// Service defines catalog browsing.
type Service interface {
	ListItems(ctx context.Context, q Query) (*Page, error)
}

type service struct {
	repo         Repository
	defaultStore string
}

func NewService(repo Repository, defaultStore string) Service {
	return &service{repo: repo, defaultStore: defaultStore}
}

func (s *service) ListItems(ctx context.Context, q Query) (*Page, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.StoreID == "" {
		q.StoreID = s.defaultStore
	}

	res, err := s.repo.ListItems(ctx, orderapi.ItemQuery{
		Search:      strings.TrimSpace(q.Search),
		CategoryIDs: q.CategoryIDs,
		StoreID:     q.StoreID,
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		return nil, err
	}
	items := res.Items
	if items == nil {
		items = []orderapi.CatalogItem{}
	}
	return &Page{Items: items, Total: res.Total, Page: q.Page, Limit: q.Limit}, nil
}
