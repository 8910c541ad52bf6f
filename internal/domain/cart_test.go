package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestItem(code string, quantity int32, price string) CartItem {
	return CartItem{
		ID:          GenerateItemID(),
		ProductCode: code,
		Name:        "Test " + code,
		Quantity:    quantity,
		UnitPrice:   decimal.RequireFromString(price),
		Available:   true,
	}
}

func TestAddItem_MergesSameProductCode(t *testing.T) {
	cart := NewCart("user-1", 30)

	cart.AddItem(newTestItem("SKU1", 2, "10.00"))
	cart.AddItem(newTestItem("SKU1", 3, "10.00"))

	require.Len(t, cart.Items, 1)
	require.EqualValues(t, 5, cart.Items[0].Quantity)
	require.True(t, cart.Total.Equal(decimal.RequireFromString("50.00")))
}

func TestAddItem_TwiceSameLine(t *testing.T) {
	cart := NewCart("", 30)

	cart.AddItem(newTestItem("SKU1", 2, "10.00"))
	cart.AddItem(newTestItem("SKU1", 2, "10.00"))

	require.Len(t, cart.Items, 1)
	require.EqualValues(t, 4, cart.Items[0].Quantity)
	require.True(t, cart.Total.Equal(decimal.RequireFromString("40.00")))
}

func TestAddItem_DistinctProductsKeepSeparateLines(t *testing.T) {
	cart := NewCart("user-1", 30)

	cart.AddItem(newTestItem("SKU1", 1, "9.99"))
	cart.AddItem(newTestItem("SKU2", 2, "0.01"))

	require.Len(t, cart.Items, 2)
	require.EqualValues(t, 3, cart.TotalItems())
	require.True(t, cart.Total.Equal(decimal.RequireFromString("10.01")))
}

func TestTotals_ExactThroughEveryIntermediateState(t *testing.T) {
	cart := NewCart("user-1", 30)

	expect := func(total string) {
		want := decimal.RequireFromString(total)
		require.True(t, cart.Total.Equal(want), "want %s, got %s", want, cart.Total)
		require.True(t, cart.Subtotal.Equal(cart.Total))
	}

	cart.AddItem(newTestItem("SKU1", 3, "0.10"))
	expect("0.30")

	cart.AddItem(newTestItem("SKU2", 1, "19.95"))
	expect("20.25")

	cart.UpdateItemQuantity("SKU1", 7)
	expect("20.65")

	cart.RemoveItem("SKU2")
	expect("0.70")

	cart.Clear()
	expect("0")
}

func TestUpdateItemQuantity_MissingLineIsNoOp(t *testing.T) {
	cart := NewCart("user-1", 30)
	cart.AddItem(newTestItem("SKU1", 2, "10.00"))

	cart.UpdateItemQuantity("NOPE", 5)

	require.Len(t, cart.Items, 1)
	require.EqualValues(t, 2, cart.Items[0].Quantity)
	require.True(t, cart.Total.Equal(decimal.RequireFromString("20.00")))
}

func TestRemoveItem_IsIdempotent(t *testing.T) {
	cart := NewCart("user-1", 30)
	cart.AddItem(newTestItem("SKU1", 2, "10.00"))

	cart.RemoveItem("SKU1")
	require.Empty(t, cart.Items)
	require.True(t, cart.Total.IsZero())

	cart.RemoveItem("SKU1")
	require.Empty(t, cart.Items)
	require.True(t, cart.Total.IsZero())
	require.True(t, cart.Subtotal.IsZero())
}

func TestLineTotal_FlooredAtZero(t *testing.T) {
	badPrice := CartItem{ProductCode: "SKU1", Quantity: 2, UnitPrice: decimal.RequireFromString("-1.00")}
	require.True(t, badPrice.LineTotal().IsZero())

	badQuantity := CartItem{ProductCode: "SKU1", Quantity: 0, UnitPrice: decimal.RequireFromString("5.00")}
	require.True(t, badQuantity.LineTotal().IsZero())
}

func TestTotalItems_SumsLineQuantities(t *testing.T) {
	cart := NewCart("user-1", 30)
	require.EqualValues(t, 0, cart.TotalItems())

	cart.AddItem(newTestItem("SKU1", 2, "1.00"))
	cart.AddItem(newTestItem("SKU2", 3, "1.00"))

	require.EqualValues(t, 5, cart.TotalItems())
}

func TestNewCart_SetsIdentityAndExpiry(t *testing.T) {
	cart := NewCart("user-1", 30)

	require.Contains(t, cart.ID, "CART-")
	require.Equal(t, "user-1", cart.UserID)
	require.True(t, cart.ExpiresAt.After(cart.CreatedAt))
	require.True(t, cart.Total.IsZero())
}

func TestHasItem(t *testing.T) {
	cart := NewCart("user-1", 30)
	cart.AddItem(newTestItem("SKU1", 1, "1.00"))

	require.True(t, cart.HasItem("SKU1"))
	require.False(t, cart.HasItem("SKU2"))
}
