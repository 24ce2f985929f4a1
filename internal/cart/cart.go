// Package cart holds the session cart: a list of product snapshots with
// quantities, owned by a single restaurant.
package cart

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxQuantity bounds the quantity of one cart item.
const MaxQuantity = 99

var (
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 99")
	ErrForeignProduct  = errors.New("product belongs to another restaurant")
)

// Product is the snapshot of a catalog product taken when it is added.
type Product struct {
	ID           uuid.UUID       `json:"id"`
	RestaurantID uuid.UUID       `json:"restaurantId"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"imageUrl"`
}

type Item struct {
	Product
	Quantity int `json:"quantity"`
}

// Line is what order creation receives for one cart item.
type Line struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type Cart struct {
	RestaurantID uuid.UUID `json:"restaurantId"`
	Items        []Item    `json:"items"`
}

func New(restaurantID uuid.UUID) *Cart {
	return &Cart{RestaurantID: restaurantID}
}

func (c *Cart) find(id uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// AddProduct appends p or, when it is already in the cart, adds quantity to it.
func (c *Cart) AddProduct(p Product, quantity int) error {
	if quantity < 1 || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if c.RestaurantID == uuid.Nil {
		c.RestaurantID = p.RestaurantID
	}
	if p.RestaurantID != c.RestaurantID {
		return ErrForeignProduct
	}

	if i := c.find(p.ID); i >= 0 {
		if c.Items[i].Quantity > MaxQuantity-quantity {
			return ErrInvalidQuantity
		}
		c.Items[i].Quantity += quantity
		return nil
	}
	c.Items = append(c.Items, Item{Product: p, Quantity: quantity})
	return nil
}

// IncreaseQuantity reports whether the product was in the cart. It never
// goes above MaxQuantity.
func (c *Cart) IncreaseQuantity(id uuid.UUID) bool {
	i := c.find(id)
	if i < 0 {
		return false
	}
	if c.Items[i].Quantity < MaxQuantity {
		c.Items[i].Quantity++
	}
	return true
}

// DecreaseQuantity never goes below 1; use RemoveProduct to drop an item.
func (c *Cart) DecreaseQuantity(id uuid.UUID) bool {
	i := c.find(id)
	if i < 0 {
		return false
	}
	if c.Items[i].Quantity > 1 {
		c.Items[i].Quantity--
	}
	return true
}

func (c *Cart) RemoveProduct(id uuid.UUID) bool {
	i := c.find(id)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (c *Cart) TotalQuantity() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Lines() []Line {
	lines := make([]Line, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, Line{ProductID: it.ID, Quantity: it.Quantity})
	}
	return lines
}
