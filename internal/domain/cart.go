package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartItem struct {
	ID          string          `db:"id"`
	ProductCode string          `db:"product_code"`
	Name        string          `db:"name"`
	ImageUrl    string          `db:"image_url"`
	Quantity    int32           `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
	Available   bool            `db:"available"`
}

// LineTotal is unit price times quantity, floored at zero when the price
// or quantity is not usable.
func (i *CartItem) LineTotal() decimal.Decimal {
	if i.Quantity <= 0 || i.UnitPrice.IsNegative() {
		return decimal.Zero
	}

	return i.UnitPrice.Mul(decimal.NewFromInt32(i.Quantity))
}

type Cart struct {
	ID       string          `db:"id"`
	UserID   string          `db:"user_id"`
	Items    []CartItem      `db:"-"`
	Subtotal decimal.Decimal `db:"subtotal"`
	Total    decimal.Decimal `db:"total"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

func NewCart(userID string, ttlDays int) *Cart {
	now := time.Now()

	cart := &Cart{
		ID:        GenerateCartID(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.AddDate(0, 0, ttlDays),
	}
	cart.CalculateTotals()

	return cart
}

// AddItem merges into an existing line with the same product code, otherwise
// appends a new line. At most one line per product code exists at any time.
func (c *Cart) AddItem(newItem CartItem) {
	merged := false
	for i := range c.Items {
		if c.Items[i].ProductCode == newItem.ProductCode {
			c.Items[i].Quantity += newItem.Quantity
			merged = true
			break
		}
	}

	if !merged {
		c.Items = append(c.Items, newItem)
	}

	c.UpdatedAt = time.Now()
	c.CalculateTotals()
}

// UpdateItemQuantity replaces the quantity of the matching line. A missing
// line is a silent no-op; existence is checked by the service before calling.
func (c *Cart) UpdateItemQuantity(productCode string, quantity int32) {
	for i := range c.Items {
		if c.Items[i].ProductCode == productCode {
			c.Items[i].Quantity = quantity
			c.UpdatedAt = time.Now()
			c.CalculateTotals()
			return
		}
	}
}

func (c *Cart) RemoveItem(productCode string) {
	items := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductCode != productCode {
			items = append(items, item)
		}
	}

	c.Items = items
	c.UpdatedAt = time.Now()
	c.CalculateTotals()
}

func (c *Cart) Clear() {
	c.Items = nil
	c.UpdatedAt = time.Now()
	c.CalculateTotals()
}

func (c *Cart) CalculateTotals() {
	sum := decimal.Zero
	for i := range c.Items {
		sum = sum.Add(c.Items[i].LineTotal())
	}

	c.Subtotal = sum
	c.Total = sum
}

func (c *Cart) TotalItems() int32 {
	var count int32
	for i := range c.Items {
		count += c.Items[i].Quantity
	}

	return count
}

func (c *Cart) HasItem(productCode string) bool {
	for i := range c.Items {
		if c.Items[i].ProductCode == productCode {
			return true
		}
	}

	return false
}

func GenerateCartID() string {
	return "CART-" + uuid.NewString()
}

func GenerateItemID() string {
	return "ITEM-" + uuid.NewString()
}
