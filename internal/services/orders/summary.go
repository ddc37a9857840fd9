package orders

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/1020robert/delph-merch/internal/models"
)

// ItemTally aggregates the open orders for one catalog item.
type ItemTally struct {
	ItemID       string          `json:"itemId"`
	ItemName     string          `json:"itemName"`
	Quantity     int             `json:"quantity"`
	BySize       map[string]int  `json:"bySize,omitempty"`
	WithInitials int             `json:"withInitials"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// Summary totals the outstanding orders, the numbers the owner needs to
// place the bulk order with the vendor and chase payments.
type Summary struct {
	OpenOrders  int             `json:"openOrders"`
	OpenRevenue decimal.Decimal `json:"openRevenue"`
	Items       []ItemTally     `json:"items"`
}

// Summarize tallies every open order by item. Fulfilled orders are done and
// stay out of the totals. Only the owner may summarize.
func (s *Service) Summarize(actingOwner *models.User) (*Summary, error) {
	if err := s.requireOwner(actingOwner); err != nil {
		return nil, err
	}

	all, err := s.orders.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	summary := &Summary{OpenRevenue: decimal.Zero, Items: []ItemTally{}}
	tallies := make(map[string]*ItemTally)
	var order []string

	for _, o := range all {
		if o.Fulfilled {
			continue
		}
		t, ok := tallies[o.ItemID]
		if !ok {
			t = &ItemTally{ItemID: o.ItemID, ItemName: o.ItemName, Revenue: decimal.Zero}
			tallies[o.ItemID] = t
			order = append(order, o.ItemID)
		}
		t.Quantity += o.Quantity
		if o.SelectedSize != "" {
			if t.BySize == nil {
				t.BySize = make(map[string]int)
			}
			t.BySize[o.SelectedSize] += o.Quantity
		}
		if o.IncludeInitials {
			t.WithInitials += o.Quantity
		}
		t.Revenue = t.Revenue.Add(o.TotalPrice)

		summary.OpenOrders++
		summary.OpenRevenue = summary.OpenRevenue.Add(o.TotalPrice)
	}

	for _, id := range order {
		summary.Items = append(summary.Items, *tallies[id])
	}
	return summary, nil
}
