package cart

import (
	"testing"

	"abaya-store/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id uuid.UUID, qty int, size, color string, price int64) model.CartItem {
	return model.CartItem{
		ProductID: id,
		Quantity:  qty,
		Size:      size,
		Color:     color,
		Price:     decimal.NewFromInt(price),
	}
}

func assertTotalsConsistent(t *testing.T, c *model.Cart) {
	t.Helper()

	wantCount := 0
	wantTotal := decimal.Zero
	for _, it := range c.Items {
		require.Greater(t, it.Quantity, 0, "cart must never hold a non-positive quantity")
		wantCount += it.Quantity
		wantTotal = wantTotal.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	count, total := Totals(c)
	assert.Equal(t, wantCount, count)
	assert.True(t, wantTotal.Equal(total), "total %s != %s", total, wantTotal)
}

func TestAdd(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()

	t.Run("Appends new line", func(t *testing.T) {
		c := New()
		require.NoError(t, Add(c, item(productA, 2, "M", "black", 1000)))

		require.Len(t, c.Items, 1)
		assert.Equal(t, 2, c.Items[0].Quantity)
		assertTotalsConsistent(t, c)
	})

	t.Run("Same key increments instead of duplicating", func(t *testing.T) {
		c := New()
		require.NoError(t, Add(c, item(productA, 2, "M", "black", 1000)))
		require.NoError(t, Add(c, item(productA, 3, "M", "black", 1200)))

		require.Len(t, c.Items, 1)
		assert.Equal(t, 5, c.Items[0].Quantity)
		assert.True(t, decimal.NewFromInt(1000).Equal(c.Items[0].Price), "captured price is kept")
		assertTotalsConsistent(t, c)
	})

	t.Run("Different size or color is a separate line", func(t *testing.T) {
		c := New()
		require.NoError(t, Add(c, item(productA, 1, "M", "black", 1000)))
		require.NoError(t, Add(c, item(productA, 1, "L", "black", 1000)))
		require.NoError(t, Add(c, item(productA, 1, "M", "navy", 1000)))
		require.NoError(t, Add(c, item(productB, 1, "M", "black", 500)))

		assert.Len(t, c.Items, 4)
		assertTotalsConsistent(t, c)
	})

	t.Run("Rejects non-positive quantity", func(t *testing.T) {
		c := New()
		err := Add(c, item(productA, 0, "M", "black", 1000))

		assert.ErrorIs(t, err, model.ErrInvalidQuantity)
		assert.Empty(t, c.Items)
	})
}

func TestUpdateQuantity(t *testing.T) {
	productA := uuid.New()
	key := model.LineKey{ProductID: productA, Size: "M", Color: "black"}

	tests := []struct {
		name          string
		quantity      int
		expectMatched bool
		expectItems   int
		expectTotal   int64
	}{
		{name: "Overwrites quantity", quantity: 5, expectMatched: true, expectItems: 1, expectTotal: 5000},
		{name: "Zero removes the line", quantity: 0, expectMatched: true, expectItems: 0, expectTotal: 0},
		{name: "Negative removes the line", quantity: -3, expectMatched: true, expectItems: 0, expectTotal: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			require.NoError(t, Add(c, item(productA, 2, "M", "black", 1000)))

			matched := UpdateQuantity(c, key, tt.quantity)

			assert.Equal(t, tt.expectMatched, matched)
			assert.Len(t, c.Items, tt.expectItems)
			_, total := Totals(c)
			assert.True(t, decimal.NewFromInt(tt.expectTotal).Equal(total))
			assertTotalsConsistent(t, c)
		})
	}

	t.Run("Missing line is reported", func(t *testing.T) {
		c := New()
		require.NoError(t, Add(c, item(productA, 2, "M", "black", 1000)))

		matched := UpdateQuantity(c, model.LineKey{ProductID: productA, Size: "S", Color: "black"}, 4)

		assert.False(t, matched)
		assert.Equal(t, 2, c.Items[0].Quantity)
	})
}

func TestRemove(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()

	c := New()
	require.NoError(t, Add(c, item(productA, 1, "M", "black", 1000)))
	require.NoError(t, Add(c, item(productB, 2, "S", "white", 700)))

	assert.False(t, Remove(c, model.LineKey{ProductID: productA, Size: "M", Color: "white"}))
	assert.Len(t, c.Items, 2)

	assert.True(t, Remove(c, model.LineKey{ProductID: productA, Size: "M", Color: "black"}))
	require.Len(t, c.Items, 1)
	assert.Equal(t, productB, c.Items[0].ProductID)
	assertTotalsConsistent(t, c)
}

func TestClear(t *testing.T) {
	c := New()
	require.NoError(t, Add(c, item(uuid.New(), 3, "M", "black", 1000)))

	Clear(c)

	assert.Empty(t, c.Items)
	count, total := Totals(c)
	assert.Equal(t, 0, count)
	assert.True(t, total.IsZero())
}

func TestMutationSequenceKeepsTotalsConsistent(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	sizes := []string{"S", "M"}
	c := New()

	for step := 0; step < 60; step++ {
		id := ids[step%len(ids)]
		size := sizes[step%len(sizes)]
		key := model.LineKey{ProductID: id, Size: size, Color: "black"}

		switch step % 4 {
		case 0, 1:
			require.NoError(t, Add(c, item(id, step%3+1, size, "black", int64(100*(step%5+1)))))
		case 2:
			UpdateQuantity(c, key, step%4-1)
		case 3:
			Remove(c, key)
		}
		assertTotalsConsistent(t, c)
	}
}

func TestMerge(t *testing.T) {
	productA := uuid.New()
	productB := uuid.New()
	productC := uuid.New()

	server := New()
	require.NoError(t, Add(server, item(productA, 1, "M", "black", 1000)))
	require.NoError(t, Add(server, item(productB, 2, "L", "navy", 800)))

	guest := New()
	require.NoError(t, Add(guest, item(productA, 2, "M", "black", 900)))
	require.NoError(t, Add(guest, item(productC, 1, "S", "white", 500)))

	merged := Merge(server, guest)

	require.Len(t, merged.Items, 3)
	i := Find(merged, model.LineKey{ProductID: productA, Size: "M", Color: "black"})
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, 3, merged.Items[i].Quantity)
	assert.True(t, decimal.NewFromInt(1000).Equal(merged.Items[i].Price), "server price wins")
	assert.GreaterOrEqual(t, Find(merged, model.LineKey{ProductID: productC, Size: "S", Color: "white"}), 0)
	assertTotalsConsistent(t, merged)

	// inputs are untouched
	assert.Equal(t, 1, server.Items[0].Quantity)
	assert.Len(t, guest.Items, 2)
}

func TestMerge_NilCarts(t *testing.T) {
	guest := New()
	require.NoError(t, Add(guest, item(uuid.New(), 2, "M", "black", 300)))

	assert.Len(t, Merge(nil, guest).Items, 1)
	assert.Len(t, Merge(guest, nil).Items, 1)
	assert.Empty(t, Merge(nil, nil).Items)
}

func TestView(t *testing.T) {
	productA := uuid.New()
	c := New()
	require.NoError(t, Add(c, item(productA, 2, "M", "black", 1000)))

	product := &model.Product{ID: productA, Name: "Classic Abaya"}
	view := View(c, map[string]*model.Product{productA.String(): product})

	require.Len(t, view.Items, 1)
	assert.Equal(t, product, view.Items[0].Product)
	assert.Equal(t, 2, view.ItemCount)
	assert.True(t, decimal.NewFromInt(2000).Equal(view.Total))
	assert.NotNil(t, view.UpdatedAt)

	// example: qty 0 empties the cart
	UpdateQuantity(c, model.LineKey{ProductID: productA, Size: "M", Color: "black"}, 0)
	view = View(c, nil)
	assert.Empty(t, view.Items)
	assert.True(t, view.Total.IsZero())
}
