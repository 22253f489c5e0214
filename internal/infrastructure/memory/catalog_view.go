package memory

import (
	"sync"

	"github.com/grocerpos/terminal/internal/domain/catalog"
)

// CatalogView is the terminal's read view of the product listing, refreshed
// after admin mutations. Readers always get a copy.
type CatalogView struct {
	mu       sync.RWMutex
	products []catalog.Product
}

func NewCatalogView() *CatalogView {
	return &CatalogView{}
}

func (v *CatalogView) Replace(products []catalog.Product) {
	clone := make([]catalog.Product, len(products))
	copy(clone, products)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.products = clone
}

func (v *CatalogView) Products() []catalog.Product {
	v.mu.RLock()
	defer v.mu.RUnlock()

	out := make([]catalog.Product, len(v.products))
	copy(out, v.products)
	return out
}
