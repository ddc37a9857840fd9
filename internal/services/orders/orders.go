// Package orders implements order placement and the fulfillment lifecycle.
// An order is a point-in-time receipt: everything needed to read it later is
// copied on at placement, so catalog edits and deletions never reach back
// into the order log.
package orders

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/1020robert/delph-merch/internal/apperr"
	"github.com/1020robert/delph-merch/internal/config"
	"github.com/1020robert/delph-merch/internal/models"
	"github.com/1020robert/delph-merch/internal/services/notify"
	"github.com/1020robert/delph-merch/internal/storage"
)

// Service handles the order lifecycle
type Service struct {
	cfg      *config.Config
	items    *storage.ItemRepository
	orders   *storage.OrderRepository
	notifier *notify.Notifier
	log      zerolog.Logger
}

// NewService creates a new order service
func NewService(cfg *config.Config, items *storage.ItemRepository, orders *storage.OrderRepository, notifier *notify.Notifier, log zerolog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		items:    items,
		orders:   orders,
		notifier: notifier,
		log:      log,
	}
}

// PlaceInput contains a member's order submission.
type PlaceInput struct {
	ItemID          string
	Quantity        int
	VenmoAgreed     bool
	SelectedSize    string
	IncludeInitials bool
}

// PlaceResult is a placed order plus what happened to the owner
// notification. Notification failures never fail the order.
type PlaceResult struct {
	Order        *models.Order
	Notification notify.Status
}

// Place validates a submission against the current catalog and appends the
// order to the log.
func (s *Service) Place(user *models.User, input PlaceInput) (*PlaceResult, error) {
	if user == nil {
		return nil, apperr.Unauthorized("not signed in")
	}
	if input.Quantity < models.MinOrderQuantity || input.Quantity > models.MaxOrderQuantity {
		return nil, apperr.Validation("quantity must be between %d and %d", models.MinOrderQuantity, models.MaxOrderQuantity)
	}
	if !input.VenmoAgreed {
		return nil, apperr.Validation("you must agree to pay over Venmo")
	}

	item, err := s.items.FindByID(input.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if item == nil {
		return nil, apperr.NotFound("no merch item with id %s", input.ItemID)
	}
	if item.Paused {
		return nil, apperr.Conflict("%s is paused and cannot be ordered right now", item.Name)
	}

	size := strings.TrimSpace(input.SelectedSize)
	if item.HasSizes() {
		if size == "" {
			return nil, apperr.Validation("a size is required for %s", item.Name)
		}
		if !item.SizeAllowed(size) {
			return nil, apperr.Validation("size %s is not offered for %s", size, item.Name)
		}
	} else {
		// Unsized items never record a size, whatever the client sent.
		size = ""
	}

	// Initials only stick when the item supports them.
	includeInitials := input.IncludeInitials && item.AllowInitials

	order := models.NewOrder(user, item, input.Quantity, size, includeInitials)
	if err := s.orders.Append(order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	status := s.notifier.OrderPlaced(order)
	s.log.Info().
		Str("orderId", order.ID).
		Str("itemId", order.ItemID).
		Str("userId", order.UserID).
		Str("total", order.TotalPrice.StringFixed(2)).
		Msg("order placed")

	return &PlaceResult{Order: order, Notification: status}, nil
}

// Fulfill marks an order fulfilled with a stamp of when and by whom.
// Fulfilling an already fulfilled order keeps the original stamp. Only the
// owner may fulfill.
func (s *Service) Fulfill(actingOwner *models.User, orderID string) (*models.Order, error) {
	if err := s.requireOwner(actingOwner); err != nil {
		return nil, err
	}

	var fulfilled *models.Order
	err := s.orders.Mutate(func(orders []models.Order) ([]models.Order, error) {
		for i := range orders {
			if orders[i].ID != orderID {
				continue
			}
			if !orders[i].Fulfilled {
				now := time.Now().UTC()
				orders[i].Fulfilled = true
				orders[i].FulfilledAt = &now
				orders[i].FulfilledBy = actingOwner.Email
			}
			existing := orders[i]
			fulfilled = &existing
			return orders, nil
		}
		return orders, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	if fulfilled == nil {
		return nil, apperr.NotFound("no order with id %s", orderID)
	}

	s.log.Info().Str("orderId", fulfilled.ID).Str("by", actingOwner.Email).Msg("order fulfilled")
	return fulfilled, nil
}

// OrderBook is the owner's view of the order log, split by state. Open
// orders are newest first; fulfilled orders most recently fulfilled first.
type OrderBook struct {
	Open      []models.Order `json:"open"`
	Fulfilled []models.Order `json:"fulfilled"`
}

// List returns the full order book. Only the owner may list.
func (s *Service) List(actingOwner *models.User) (*OrderBook, error) {
	if err := s.requireOwner(actingOwner); err != nil {
		return nil, err
	}

	all, err := s.orders.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	book := &OrderBook{Open: []models.Order{}, Fulfilled: []models.Order{}}
	for _, o := range all {
		if o.Fulfilled {
			book.Fulfilled = append(book.Fulfilled, o)
		} else {
			book.Open = append(book.Open, o)
		}
	}
	sort.SliceStable(book.Open, func(i, j int) bool {
		return book.Open[i].CreatedAt.After(book.Open[j].CreatedAt)
	})
	sort.SliceStable(book.Fulfilled, func(i, j int) bool {
		return book.Fulfilled[i].FulfillmentTime().After(book.Fulfilled[j].FulfillmentTime())
	})
	return book, nil
}

// ListMine returns the calling member's own orders, newest first.
func (s *Service) ListMine(user *models.User) ([]models.Order, error) {
	if user == nil {
		return nil, apperr.Unauthorized("not signed in")
	}
	all, err := s.orders.All()
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}
	mine := []models.Order{}
	for _, o := range all {
		if o.UserID == user.ID {
			mine = append(mine, o)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})
	return mine, nil
}

func (s *Service) requireOwner(user *models.User) error {
	if user == nil {
		return apperr.Unauthorized("not signed in")
	}
	if !s.cfg.IsOwner(user.Email) {
		return apperr.Forbidden("owner access required")
	}
	return nil
}
