package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/grocerpos/terminal/internal/domain/catalog"
	"github.com/grocerpos/terminal/internal/domain/checkout"
	"github.com/grocerpos/terminal/internal/infrastructure/metrics"
	"github.com/grocerpos/terminal/internal/pkg/logging"
)

// TokenSource supplies the bearer credential for authenticated calls. An
// empty token means the request goes out unauthenticated and the backend
// decides what to do with it.
type TokenSource interface {
	Token() string
}

// Client speaks the store backend's REST surface. One instance serves the
// whole terminal session.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	metrics *metrics.Metrics
}

func NewClient(baseURL string, tokens TokenSource, timeout time.Duration, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens:  tokens,
		metrics: m,
	}
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a bearer token. The backend expects the
// form-encoded shape, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("backend: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out loginResponse
	if err := c.do(req, "login", &out); err != nil {
		if _, ok := err.(*APIError); ok {
			return "", fmt.Errorf("%w: %w", ErrLoginRejected, err)
		}
		return "", err
	}
	return out.AccessToken, nil
}

// SearchProducts queries the catalog by free text or barcode.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]catalog.Product, error) {
	u := c.baseURL + "/products/search?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: build search request: %w", err)
	}

	var out []catalog.Product
	if err := c.do(req, "search", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListProducts returns the full catalog listing.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products", nil)
	if err != nil {
		return nil, fmt.Errorf("backend: build list request: %w", err)
	}

	var out []catalog.Product
	if err := c.do(req, "list_products", &out); err != nil {
		return nil, err
	}
	return out, nil
}

type createProductRequest struct {
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Stock    int     `json:"stock"`
}

// CreateProduct registers a new catalog entry. Authenticated.
func (c *Client) CreateProduct(ctx context.Context, title string, price decimal.Decimal, category string, stock int) (catalog.Product, error) {
	body := createProductRequest{
		Title:    title,
		Price:    price.InexactFloat64(),
		Category: category,
		Stock:    stock,
	}

	var out catalog.Product
	if err := c.postJSON(ctx, "/products", "create_product", body, &out); err != nil {
		return catalog.Product{}, err
	}
	return out, nil
}

type bindBarcodeRequest struct {
	ProductID int64  `json:"product_id"`
	Barcode   string `json:"barcode"`
}

// BindBarcode attaches a scannable code to an existing product. Authenticated.
func (c *Client) BindBarcode(ctx context.Context, productID int64, barcode string) error {
	body := bindBarcodeRequest{ProductID: productID, Barcode: barcode}
	return c.postJSON(ctx, "/products/barcode", "bind_barcode", body, nil)
}

type submitItem struct {
	ProductID int64   `json:"product_id"`
	Title     string  `json:"title"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type submitOrderRequest struct {
	Items         []submitItem `json:"items"`
	PaymentMethod string       `json:"payment_method"`
}

type submitOrderResponse struct {
	OrderID string          `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

// SubmitOrder sends a checkout snapshot. Authenticated. The returned total
// is the backend's; the client never second-guesses it.
func (c *Client) SubmitOrder(ctx context.Context, sub checkout.Submission) (checkout.Result, error) {
	body := submitOrderRequest{
		Items:         make([]submitItem, 0, len(sub.Lines)),
		PaymentMethod: string(sub.Method),
	}
	for _, l := range sub.Lines {
		body.Items = append(body.Items, submitItem{
			ProductID: l.ProductID,
			Title:     l.Title,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice.InexactFloat64(),
		})
	}

	var out submitOrderResponse
	if err := c.postJSON(ctx, "/checkout", "checkout", body, &out); err != nil {
		return checkout.Result{}, err
	}
	return checkout.Result{OrderID: out.OrderID, Total: out.Total}, nil
}

type generateQRRequest struct {
	OrderID string  `json:"order_id"`
	Amount  float64 `json:"amount"`
}

type generateQRResponse struct {
	QR string `json:"qr"`
}

// GenerateQR asks for the renderable payment payload of an accepted order.
// Authenticated. Can fail independently of the order submission.
func (c *Client) GenerateQR(ctx context.Context, orderID string, amount decimal.Decimal) (string, error) {
	body := generateQRRequest{OrderID: orderID, Amount: amount.InexactFloat64()}

	var out generateQRResponse
	if err := c.postJSON(ctx, "/payments/qr", "generate_qr", body, &out); err != nil {
		return "", err
	}
	return out.QR, nil
}

func (c *Client) postJSON(ctx context.Context, path, endpoint string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("backend: encode %s request: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("backend: build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, endpoint, out)
}

type detailResponse struct {
	Detail string `json:"detail"`
}

// do executes the request, attaches the bearer token when one exists, and
// maps the outcome: transport faults become *NetworkError, non-2xx responses
// become *APIError carrying the server's detail text.
func (c *Client) do(req *http.Request, endpoint string, out any) error {
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if c.metrics != nil {
		c.metrics.BackendDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		c.observe(endpoint, "network_error")
		logging.FromContext(req.Context()).Warn("backend_request_failed",
			zap.String("endpoint", endpoint),
			zap.Error(err),
		)
		return &NetworkError{Op: req.Method, URL: req.URL.String(), Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		c.observe(endpoint, "network_error")
		return &NetworkError{Op: req.Method, URL: req.URL.String(), Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var detail detailResponse
		_ = json.Unmarshal(raw, &detail)
		c.observe(endpoint, "rejected")
		logging.FromContext(req.Context()).Warn("backend_request_rejected",
			zap.String("endpoint", endpoint),
			zap.Int("status", res.StatusCode),
			zap.String("detail", detail.Detail),
		)
		return &APIError{StatusCode: res.StatusCode, Detail: detail.Detail}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			c.observe(endpoint, "decode_error")
			return fmt.Errorf("backend: decode %s response: %w", endpoint, err)
		}
	}

	c.observe(endpoint, "success")
	return nil
}

func (c *Client) observe(endpoint, outcome string) {
	if c.metrics == nil {
		return
	}
	c.metrics.BackendRequests.WithLabelValues(endpoint, outcome).Inc()
}
