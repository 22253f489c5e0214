package admin

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/grocerpos/terminal/internal/domain/catalog"
	"github.com/grocerpos/terminal/internal/infrastructure/memory"
	"github.com/grocerpos/terminal/internal/pkg/logging"
)

const (
	defaultCategory = "general"
	defaultStock    = 100
)

// Backend is the catalog maintenance slice of the REST client.
type Backend interface {
	CreateProduct(ctx context.Context, title string, price decimal.Decimal, category string, stock int) (catalog.Product, error)
	BindBarcode(ctx context.Context, productID int64, barcode string) error
	ListProducts(ctx context.Context) ([]catalog.Product, error)
}

// Service is the admin side-channel: it mutates the external catalog and
// keeps a local read view fresh. It never touches the cart.
type Service struct {
	backend Backend
	view    *memory.CatalogView
	sfg     singleflight.Group
}

func NewService(b Backend, view *memory.CatalogView) *Service {
	return &Service{backend: b, view: view}
}

// ParsePrice turns operator text input into a price. Non-numeric input is
// coerced to zero rather than rejected; the backend is the validator of
// record for prices.
func ParsePrice(text string) decimal.Decimal {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.Zero
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// CreateProduct registers a catalog entry and refreshes the listing on
// success. Empty category and non-positive stock fall back to the defaults.
func (s *Service) CreateProduct(ctx context.Context, title, priceText, category string, stock int) (catalog.Product, error) {
	if category == "" {
		category = defaultCategory
	}
	if stock <= 0 {
		stock = defaultStock
	}

	created, err := s.backend.CreateProduct(ctx, title, ParsePrice(priceText), category, stock)
	if err != nil {
		return catalog.Product{}, err
	}

	s.refresh(ctx)
	return created, nil
}

// BindBarcode attaches a barcode to a product and refreshes the listing on
// success.
func (s *Service) BindBarcode(ctx context.Context, productID int64, barcode string) error {
	if err := s.backend.BindBarcode(ctx, productID, barcode); err != nil {
		return err
	}

	s.refresh(ctx)
	return nil
}

// Refresh reloads the product listing. Concurrent refreshes collapse into a
// single backend call.
func (s *Service) Refresh(ctx context.Context) error {
	_, err, _ := s.sfg.Do("products", func() (interface{}, error) {
		products, err := s.backend.ListProducts(ctx)
		if err != nil {
			return nil, err
		}
		s.view.Replace(products)
		return nil, nil
	})
	return err
}

// Products returns the last refreshed listing.
func (s *Service) Products() []catalog.Product {
	return s.view.Products()
}

// refresh is the post-mutation variant: a refresh failure after a successful
// mutation is logged, not surfaced, since the mutation itself went through.
func (s *Service) refresh(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		logging.FromContext(ctx).Warn("catalog_refresh_failed", zap.Error(err))
	}
}
