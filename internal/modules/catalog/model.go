package catalog

import "github.com/georgemunganga/printa-till/internal/modules/orderapi"

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Query is what the till UI sends when browsing the catalog.
type Query struct {
	Search      string   `json:"search,omitempty"`
	CategoryIDs []string `json:"categories_id,omitempty"`
	StoreID     string   `json:"store_id,omitempty"`
	Page        int      `json:"page"`
	Limit       int      `json:"limit"`
}

// Page is one page of sellable items. Prices are minor units.
type Page struct {
	Items []orderapi.CatalogItem `json:"items"`
	Total int                    `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}
