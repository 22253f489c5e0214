package catalog

import "github.com/shopspring/decimal"

// Product is a catalog entry as the backend reports it. Price may be absent
// for freshly created products; the zero decimal stands in for it.
type Product struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category,omitempty"`
	Stock    int             `json:"stock,omitempty"`
	Barcode  string          `json:"barcode,omitempty"`
}
