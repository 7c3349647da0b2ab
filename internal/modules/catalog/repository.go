package catalog

import (
	"context"

	"github.com/georgemunganga/printa-till/internal/modules/orderapi"
)

// Repository is where catalog items come from. orderapi.Client satisfies it.
type Repository interface {
	ListItems(ctx context.Context, q orderapi.ItemQuery) (*orderapi.ItemPage, error)
}
