package cart

import (
	"github.com/shopspring/decimal"

	"github.com/grocerpos/terminal/internal/domain/catalog"
)

// Line is one product entry on the bill. UnitPrice is captured when the
// product is first added; later catalog price changes do not touch it.
type Line struct {
	ProductID int64
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
}

func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ordered set of lines for the in-progress sale. It is a value:
// every mutation returns a fresh Cart and leaves the receiver untouched, so
// a reader holding an older Cart always sees a complete snapshot.
type Cart struct {
	lines []Line
}

func New() Cart {
	return Cart{}
}

// Add merges the product into the cart: an existing line for the same
// product gains quantity 1, otherwise a new line is appended at the end.
func (c Cart) Add(p catalog.Product) Cart {
	for i, l := range c.lines {
		if l.ProductID == p.ID {
			return c.withQuantity(i, l.Quantity+1)
		}
	}
	next := make([]Line, len(c.lines), len(c.lines)+1)
	copy(next, c.lines)
	next = append(next, Line{
		ProductID: p.ID,
		Title:     p.Title,
		UnitPrice: p.Price,
		Quantity:  1,
	})
	return Cart{lines: next}
}

// Increment bumps the quantity of the matching line. Unknown products are a
// no-op.
func (c Cart) Increment(productID int64) Cart {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return c.withQuantity(i, l.Quantity+1)
		}
	}
	return c
}

// Decrement lowers the quantity of the matching line, flooring at 1. A line
// never leaves the cart through Decrement; that is what Remove is for.
func (c Cart) Decrement(productID int64) Cart {
	for i, l := range c.lines {
		if l.ProductID == productID {
			if l.Quantity <= 1 {
				return c
			}
			return c.withQuantity(i, l.Quantity-1)
		}
	}
	return c
}

// Remove deletes the line entirely regardless of quantity.
func (c Cart) Remove(productID int64) Cart {
	for i, l := range c.lines {
		if l.ProductID == productID {
			next := make([]Line, 0, len(c.lines)-1)
			next = append(next, c.lines[:i]...)
			next = append(next, c.lines[i+1:]...)
			return Cart{lines: next}
		}
	}
	return c
}

// Subtotal recomputes the bill total from scratch on every call.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// Lines returns a copy in insertion order.
func (c Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c Cart) Len() int {
	return len(c.lines)
}

func (c Cart) Empty() bool {
	return len(c.lines) == 0
}

func (c Cart) withQuantity(idx, quantity int) Cart {
	next := make([]Line, len(c.lines))
	copy(next, c.lines)
	next[idx].Quantity = quantity
	return Cart{lines: next}
}
