package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SizeTwoXL is the one size in the standard run that may carry its own price.
const SizeTwoXL = "2XL"

// MaxItemPrice is the upper bound for item and size-override prices.
var MaxItemPrice = decimal.NewFromInt(10000)

// StandardSizes returns a fresh copy of the size run assigned to sized items.
func StandardSizes() []string {
	return []string{"S", "M", "L", "XL", SizeTwoXL}
}

// MerchItem represents one listing in the merch catalog
type MerchItem struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Price         decimal.Decimal     `json:"price"`
	Image         string              `json:"image"`
	Sizes         []string            `json:"sizes"`
	AllowInitials bool                `json:"allowInitials"`
	Paused        bool                `json:"paused"`
	TwoXLPrice    decimal.NullDecimal `json:"twoXlPrice"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// NewMerchItem creates a published item with generated ID and timestamps.
// Sized items start with the full standard run.
func NewMerchItem(name string, price decimal.Decimal, image string, includeSizes, allowInitials bool) *MerchItem {
	item := &MerchItem{
		ID:            uuid.New().String(),
		Name:          strings.TrimSpace(name),
		Price:         price.Round(2),
		Image:         image,
		AllowInitials: allowInitials,
		CreatedAt:     time.Now().UTC(),
	}
	if includeSizes {
		item.Sizes = StandardSizes()
	}
	return item
}

// HasSizes reports whether orders for this item must pick a size.
func (m *MerchItem) HasSizes() bool {
	return len(m.Sizes) > 0
}

// SizeAllowed reports whether size is in this item's run. The comparison is
// exact; callers normalize input first.
func (m *MerchItem) SizeAllowed(size string) bool {
	for _, s := range m.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// UnitPriceFor returns the effective per-unit price for a selected size,
// honoring the 2XL override when one is set.
func (m *MerchItem) UnitPriceFor(size string) decimal.Decimal {
	if size == SizeTwoXL && m.TwoXLPrice.Valid {
		return m.TwoXLPrice.Decimal
	}
	return m.Price
}
