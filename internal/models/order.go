package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order quantity bounds per placement.
const (
	MinOrderQuantity = 1
	MaxOrderQuantity = 50
)

// Order represents one member pre-order. Item and purchaser details are
// copied onto the record at placement so it stays readable after the catalog
// or the member profile changes.
type Order struct {
	ID              string          `json:"id"`
	ItemID          string          `json:"itemId"`
	ItemName        string          `json:"itemName"`
	SelectedSize    string          `json:"selectedSize,omitempty"`
	IncludeInitials bool            `json:"includeInitials"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	TotalPrice      decimal.Decimal `json:"totalPrice"`
	Quantity        int             `json:"quantity"`
	VenmoAgreed     bool            `json:"venmoAgreed"`
	UserID          string          `json:"userId"`
	UserName        string          `json:"userName"`
	UserInitials    string          `json:"userInitials,omitempty"`
	UserEmail       string          `json:"userEmail"`
	Fulfilled       bool            `json:"fulfilled"`
	FulfilledAt     *time.Time      `json:"fulfilledAt,omitempty"`
	FulfilledBy     string          `json:"fulfilledBy,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// NewOrder assembles an open order from a validated placement. The unit price
// is resolved from the item for the selected size and the total is the unit
// price times quantity, rounded to cents.
func NewOrder(user *User, item *MerchItem, quantity int, selectedSize string, includeInitials bool) *Order {
	unit := item.UnitPriceFor(selectedSize)
	return &Order{
		ID:              uuid.New().String(),
		ItemID:          item.ID,
		ItemName:        item.Name,
		SelectedSize:    selectedSize,
		IncludeInitials: includeInitials,
		UnitPrice:       unit,
		TotalPrice:      unit.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
		Quantity:        quantity,
		VenmoAgreed:     true,
		UserID:          user.ID,
		UserName:        user.Name,
		UserInitials:    user.Initials,
		UserEmail:       user.Email,
		CreatedAt:       time.Now().UTC(),
	}
}

// FulfillmentTime returns the sort key for the fulfilled partition, falling
// back to the placement time for legacy records without a stamp.
func (o *Order) FulfillmentTime() time.Time {
	if o.FulfilledAt != nil {
		return *o.FulfilledAt
	}
	return o.CreatedAt
}
