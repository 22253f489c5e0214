package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grocerpos/terminal/internal/domain/catalog"
)

func product(id int64, title string, price string) catalog.Product {
	return catalog.Product{ID: id, Title: title, Price: decimal.RequireFromString(price)}
}

func TestAddMergesSameProduct(t *testing.T) {
	c := New()
	milk := product(1, "Milk", "2.50")

	for i := 0; i < 5; i++ {
		c = c.Add(milk)
	}

	require.Equal(t, 1, c.Len())
	line := c.Lines()[0]
	assert.Equal(t, int64(1), line.ProductID)
	assert.Equal(t, 5, line.Quantity)
	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("2.50")))
}

func TestAddPreservesInsertionOrder(t *testing.T) {
	c := New().
		Add(product(3, "Soap", "5.00")).
		Add(product(1, "Milk", "2.50")).
		Add(product(2, "Bread", "1.20")).
		Add(product(3, "Soap", "5.00"))

	lines := c.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{lines[0].ProductID, lines[1].ProductID, lines[2].ProductID})
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestAddCapturesPriceAtAddTime(t *testing.T) {
	p := product(1, "Milk", "2.50")
	c := New().Add(p)

	// A later catalog price change must not reach the line already on the bill.
	p.Price = decimal.RequireFromString("9.99")
	c = c.Add(p)

	line := c.Lines()[0]
	assert.Equal(t, 2, line.Quantity)
	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("2.50")))
}

func TestAddZeroValuePrice(t *testing.T) {
	c := New().Add(catalog.Product{ID: 7, Title: "Mystery item"})

	require.Equal(t, 1, c.Len())
	assert.True(t, c.Lines()[0].UnitPrice.IsZero())
	assert.True(t, c.Subtotal().IsZero())
}

func TestDecrementFloorsAtOne(t *testing.T) {
	c := New().Add(product(1, "Milk", "2.50"))

	c = c.Decrement(1)
	c = c.Decrement(1)

	require.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Lines()[0].Quantity)
}

func TestIncrementDecrementUnknownProductIsNoop(t *testing.T) {
	c := New().Add(product(1, "Milk", "2.50"))

	before := c.Lines()
	c = c.Increment(99)
	c = c.Decrement(99)

	assert.Equal(t, before, c.Lines())
}

func TestRemoveDeletesRegardlessOfQuantity(t *testing.T) {
	c := New().Add(product(1, "Milk", "2.50"))
	c = c.Increment(1)
	c = c.Increment(1)

	c = c.Remove(1)

	assert.True(t, c.Empty())
}

func TestSubtotal(t *testing.T) {
	tests := []struct {
		name string
		cart Cart
		want string
	}{
		{
			name: "empty cart",
			cart: New(),
			want: "0",
		},
		{
			name: "single line",
			cart: New().Add(product(1, "Milk", "2.50")).Increment(1),
			want: "5.00",
		},
		{
			name: "mixed lines",
			cart: New().
				Add(product(1, "Milk", "2.50")).
				Add(product(2, "Soap", "5.00")).
				Increment(1).
				Increment(1),
			want: "12.50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := decimal.RequireFromString(tt.want)
			assert.True(t, tt.cart.Subtotal().Equal(want), "subtotal %s, want %s", tt.cart.Subtotal(), want)
			// Recomputation without mutation is stable.
			assert.True(t, tt.cart.Subtotal().Equal(want))
		})
	}
}

func TestMutationsDoNotAliasOldSnapshots(t *testing.T) {
	base := New().Add(product(1, "Milk", "2.50")).Add(product(2, "Soap", "5.00"))
	snapshot := base.Lines()

	mutated := base.Increment(1).Remove(2)

	// The pre-mutation view is intact.
	require.Len(t, snapshot, 2)
	assert.Equal(t, 1, snapshot[0].Quantity)
	assert.Equal(t, 2, base.Len())

	require.Equal(t, 1, mutated.Len())
	assert.Equal(t, 2, mutated.Lines()[0].Quantity)
}

func TestLinesReturnsACopy(t *testing.T) {
	c := New().Add(product(1, "Milk", "2.50"))

	lines := c.Lines()
	lines[0].Quantity = 42

	assert.Equal(t, 1, c.Lines()[0].Quantity)
}
