// Package cart holds the line-item rules shared by the user and guest cart stores.
// Functions mutate the cart in place and never leave a non-positive quantity behind.
package cart

import (
	"time"

	"abaya-store/internal/model"

	"github.com/shopspring/decimal"
)

// New returns an empty cart.
func New() *model.Cart {
	return &model.Cart{Items: []model.CartItem{}}
}

// Find returns the index of the line item with the given key, or -1.
func Find(c *model.Cart, key model.LineKey) int {
	for i, item := range c.Items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

// Add increments the quantity of a matching line item, or appends item as a new line.
// The price of an existing line is left untouched.
func Add(c *model.Cart, item model.CartItem) error {
	if item.Quantity < 1 {
		return model.ErrInvalidQuantity
	}

	if i := Find(c, item.Key()); i >= 0 {
		c.Items[i].Quantity += item.Quantity
	} else {
		c.Items = append(c.Items, item)
	}
	touch(c)
	return nil
}

// UpdateQuantity overwrites the quantity of the matching line item.
// A quantity of zero or less removes the line. It reports whether a line matched.
func UpdateQuantity(c *model.Cart, key model.LineKey, quantity int) bool {
	i := Find(c, key)
	if i < 0 {
		return false
	}

	if quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	} else {
		c.Items[i].Quantity = quantity
	}
	touch(c)
	return true
}

// Remove deletes the matching line item. It reports whether a line matched.
func Remove(c *model.Cart, key model.LineKey) bool {
	i := Find(c, key)
	if i < 0 {
		return false
	}

	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	touch(c)
	return true
}

// Clear empties the cart.
func Clear(c *model.Cart) {
	c.Items = []model.CartItem{}
	touch(c)
}

// Totals returns the number of units and the sum of price x quantity.
func Totals(c *model.Cart) (int, decimal.Decimal) {
	count := 0
	total := decimal.Zero
	for _, item := range c.Items {
		count += item.Quantity
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return count, total
}

// Merge folds guest into server: lines are unioned by (productId, size, color),
// quantities summed, and the server price wins when both carts hold the line.
// Either argument may be nil. The result is a new cart.
func Merge(server, guest *model.Cart) *model.Cart {
	merged := New()
	if server != nil {
		merged.Items = append(merged.Items, server.Items...)
	}
	if guest != nil {
		for _, item := range guest.Items {
			if item.Quantity < 1 {
				continue
			}
			if i := Find(merged, item.Key()); i >= 0 {
				merged.Items[i].Quantity += item.Quantity
				continue
			}
			merged.Items = append(merged.Items, item)
		}
	}
	touch(merged)
	return merged
}

// View builds the caller-facing cart with derived totals. products may be nil.
func View(c *model.Cart, products map[string]*model.Product) *model.CartView {
	view := &model.CartView{Items: make([]model.CartLine, 0, len(c.Items))}
	for _, item := range c.Items {
		line := model.CartLine{CartItem: item}
		if products != nil {
			line.Product = products[item.ProductID.String()]
		}
		view.Items = append(view.Items, line)
	}
	view.ItemCount, view.Total = Totals(c)
	if !c.UpdatedAt.IsZero() {
		updated := c.UpdatedAt
		view.UpdatedAt = &updated
	}
	return view
}

func touch(c *model.Cart) {
	c.UpdatedAt = time.Now().UTC()
}
