package domain

import "github.com/shopspring/decimal"

// Cart lifecycle events, relayed to kafka through the outbox.

type CartCreatedEvent struct {
	CartID string `json:"cart_id"`
	UserID string `json:"user_id,omitempty"`
}

type ItemAddedEvent struct {
	CartID      string          `json:"cart_id"`
	ProductCode string          `json:"product_code"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type ItemQuantityUpdatedEvent struct {
	CartID      string `json:"cart_id"`
	ProductCode string `json:"product_code"`
	Quantity    int32  `json:"quantity"`
}

type ItemRemovedEvent struct {
	CartID      string `json:"cart_id"`
	ProductCode string `json:"product_code"`
}

type CartClearedEvent struct {
	CartID string `json:"cart_id"`
}

type CartDeletedEvent struct {
	CartID string `json:"cart_id"`
}
