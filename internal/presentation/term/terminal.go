package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/grocerpos/terminal/internal/application/admin"
	"github.com/grocerpos/terminal/internal/application/auth"
	"github.com/grocerpos/terminal/internal/application/sale"
	"github.com/grocerpos/terminal/internal/application/search"
	"github.com/grocerpos/terminal/internal/domain/catalog"
	"github.com/grocerpos/terminal/internal/domain/checkout"
)

// Terminal is the cashier-facing command loop. It is a thin shell over the
// application services; no sale logic lives here.
type Terminal struct {
	auth   *auth.Service
	sale   *sale.Service
	search *search.Service
	admin  *admin.Service

	in  io.Reader
	out io.Writer

	mu      sync.Mutex
	results []catalog.Product
}

func New(authSvc *auth.Service, saleSvc *sale.Service, searchSvc *search.Service, adminSvc *admin.Service, in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		auth:   authSvc,
		sale:   saleSvc,
		search: searchSvc,
		admin:  adminSvc,
		in:     in,
		out:    out,
	}
}

// OnResults is the sink for committed search queries; wire it into the
// search service as its Results callback.
func (t *Terminal) OnResults(query string, products []catalog.Product, err error) {
	if err != nil {
		t.printf("search %q failed: %s\n", query, err)
		return
	}

	t.mu.Lock()
	t.results = products
	t.mu.Unlock()

	if query == "" {
		return
	}
	if len(products) == 0 {
		t.printf("no matches for %q\n", query)
		return
	}
	for i, p := range products {
		t.printf("  [%d] %s  %s\n", i+1, p.Title, p.Price.StringFixed(2))
	}
}

// Run reads commands until EOF, "quit", or context cancellation.
func (t *Terminal) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(t.in)
	t.printf("grocer pos terminal — type 'help' for commands\n")

	for {
		t.prompt()
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		t.dispatch(ctx, cmd, args)
	}
}

func (t *Terminal) prompt() {
	if !t.auth.Authenticated() {
		t.printf("(login required) > ")
		return
	}
	t.printf("[%s] > ", t.sale.Status())
}

func (t *Terminal) dispatch(ctx context.Context, cmd string, args []string) {
	switch cmd {
	case "help":
		t.printHelp()
		return
	case "login":
		t.cmdLogin(ctx, args)
		return
	}

	// Everything below needs a session.
	if !t.auth.Authenticated() {
		t.printf("not logged in — use: login <username> <password>\n")
		return
	}

	switch cmd {
	case "logout":
		t.auth.Logout(ctx)
		t.printf("logged out\n")
	case "search":
		t.search.Query(ctx, strings.Join(args, " "))
	case "add":
		t.cmdAdd(args)
	case "bill":
		t.printBill()
	case "+":
		t.withProductID(args, t.sale.Increment)
	case "-":
		t.withProductID(args, t.sale.Decrement)
	case "rm":
		t.withProductID(args, t.sale.Remove)
	case "checkout":
		t.cmdCheckout(ctx, args)
	case "ack":
		if err := t.sale.Acknowledge(); err != nil {
			t.printf("nothing to acknowledge\n")
		}
	case "reset":
		t.sale.Reset()
		t.printf("sale reset\n")
	case "products":
		t.cmdProducts(ctx)
	case "newproduct":
		t.cmdNewProduct(ctx, args)
	case "barcode":
		t.cmdBarcode(ctx, args)
	default:
		t.printf("unknown command %q — type 'help'\n", cmd)
	}
}

func (t *Terminal) cmdLogin(ctx context.Context, args []string) {
	if len(args) != 2 {
		t.printf("usage: login <username> <password>\n")
		return
	}
	if err := t.auth.Login(ctx, args[0], args[1]); err != nil {
		t.printf("login failed: %s\n", err)
		return
	}
	t.printf("logged in as %s\n", args[0])
}

func (t *Terminal) cmdAdd(args []string) {
	if len(args) != 1 {
		t.printf("usage: add <result number>\n")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		t.printf("not a result number: %q\n", args[0])
		return
	}

	t.mu.Lock()
	results := t.results
	t.mu.Unlock()

	if n < 1 || n > len(results) {
		t.printf("no search result [%d]\n", n)
		return
	}
	p := results[n-1]
	t.sale.AddItem(p)
	t.printf("added %s\n", p.Title)
}

func (t *Terminal) printBill() {
	lines := t.sale.Lines()
	if len(lines) == 0 {
		t.printf("bill is empty\n")
		return
	}
	for _, l := range lines {
		t.printf("  %-6d %-24s %2d x %8s = %8s\n",
			l.ProductID, l.Title, l.Quantity, l.UnitPrice.StringFixed(2), l.Total().StringFixed(2))
	}
	t.printf("  subtotal: %s\n", t.sale.Subtotal().StringFixed(2))
}

func (t *Terminal) cmdCheckout(ctx context.Context, args []string) {
	if len(args) != 1 || (args[0] != "cash" && args[0] != "online") {
		t.printf("usage: checkout cash|online\n")
		return
	}
	method := checkout.PaymentMethod(args[0])

	result, err := t.sale.Checkout(ctx, method)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			t.printf("bill is empty, nothing to check out\n")
			return
		}
		stage, reason := t.sale.Failure()
		if stage == checkout.StageQR && result != nil {
			t.printf("order %s accepted but QR generation failed: %s\n", result.OrderID, reason)
		} else {
			t.printf("checkout failed: %s\n", reason)
		}
		// Dismissing the message is the acknowledgment.
		_ = t.sale.Acknowledge()
		return
	}

	if method == checkout.MethodCash {
		_ = t.sale.Acknowledge()
		return
	}

	if artifact := t.sale.Artifact(); artifact != nil {
		t.printf("order %s total %s — scan to pay:\n%s\n", result.OrderID, result.Total.StringFixed(2), artifact.QR)
	}
}

func (t *Terminal) cmdProducts(ctx context.Context) {
	if err := t.admin.Refresh(ctx); err != nil {
		t.printf("listing failed: %s\n", err)
		return
	}
	for _, p := range t.admin.Products() {
		t.printf("  %-6d %-24s %8s  stock %d  %s\n", p.ID, p.Title, p.Price.StringFixed(2), p.Stock, p.Barcode)
	}
}

func (t *Terminal) cmdNewProduct(ctx context.Context, args []string) {
	if len(args) < 2 {
		t.printf("usage: newproduct <price> <title...>\n")
		return
	}
	title := strings.Join(args[1:], " ")
	created, err := t.admin.CreateProduct(ctx, title, args[0], "", 0)
	if err != nil {
		t.printf("create failed: %s\n", err)
		return
	}
	t.printf("created %q (id %d)\n", created.Title, created.ID)
}

func (t *Terminal) cmdBarcode(ctx context.Context, args []string) {
	if len(args) != 2 {
		t.printf("usage: barcode <product id> <code>\n")
		return
	}
	productID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		t.printf("not a product id: %q\n", args[0])
		return
	}
	if err := t.admin.BindBarcode(ctx, productID, args[1]); err != nil {
		t.printf("barcode bind failed: %s\n", err)
		return
	}
	t.printf("barcode saved\n")
}

func (t *Terminal) withProductID(args []string, fn func(int64)) {
	if len(args) != 1 {
		t.printf("usage: <+|-|rm> <product id>\n")
		return
	}
	productID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		t.printf("not a product id: %q\n", args[0])
		return
	}
	fn(productID)
}

func (t *Terminal) printHelp() {
	t.printf(`commands:
  login <user> <pass>        start a session
  logout                     end the session
  search <text>              find products by name or barcode
  add <n>                    add search result n to the bill
  bill                       show the bill
  + <id> / - <id> / rm <id>  adjust or remove a line
  checkout cash|online       complete the sale
  ack                        dismiss a completed/failed outcome
  reset                      abandon the sale
  products                   list the catalog (admin)
  newproduct <price> <title> create a product (admin)
  barcode <id> <code>        bind a barcode (admin)
  quit
`)
}

func (t *Terminal) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(t.out, format, args...)
}
