// Package catalog manages the merch listing lifecycle: creation with an
// image, the owner's toggles, and removal.
package catalog

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/1020robert/delph-merch/internal/apperr"
	"github.com/1020robert/delph-merch/internal/config"
	"github.com/1020robert/delph-merch/internal/models"
	"github.com/1020robert/delph-merch/internal/storage"
)

// Service handles catalog operations
type Service struct {
	cfg   *config.Config
	items *storage.ItemRepository
	store *storage.Store
	log   zerolog.Logger
}

// NewService creates a new catalog service
func NewService(cfg *config.Config, store *storage.Store, log zerolog.Logger) *Service {
	return &Service{
		cfg:   cfg,
		items: store.Items(),
		store: store,
		log:   log,
	}
}

// CreateInput contains a new listing and its image upload.
type CreateInput struct {
	Name          string
	Price         decimal.Decimal
	ImageName     string
	ImageData     []byte
	IncludeSizes  bool
	AllowInitials bool
}

// Create validates the listing, stores its image, and publishes it.
func (s *Service) Create(input CreateInput) (*models.MerchItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("item name is required")
	}
	price, err := normalizePrice(input.Price)
	if err != nil {
		return nil, err
	}

	imagePath, err := s.saveImage(input.ImageName, input.ImageData)
	if err != nil {
		return nil, err
	}

	item := models.NewMerchItem(name, price, imagePath, input.IncludeSizes, input.AllowInitials)
	err = s.items.Mutate(func(items []models.MerchItem) ([]models.MerchItem, error) {
		return append(items, *item), nil
	})
	if err != nil {
		// The image landed on disk before the write failed; don't leak it.
		if relErr := s.store.ReleaseUpload(imagePath); relErr != nil {
			s.log.Error().Err(relErr).Str("image", imagePath).Msg("failed to remove orphaned image")
		}
		return nil, fmt.Errorf("failed to save item: %w", err)
	}

	s.log.Info().Str("itemId", item.ID).Str("name", item.Name).Msg("merch item created")
	return item, nil
}

// UpdatePatch carries the owner's partial update. Nil fields stay unchanged.
type UpdatePatch struct {
	IncludeSizes  *bool         `json:"includeSizes"`
	AllowInitials *bool         `json:"allowInitials"`
	Paused        *bool         `json:"paused"`
	TwoXLPrice    OptionalPrice `json:"twoXlPrice"`
}

// Update applies a patch to one item. Validation failures leave the item
// untouched.
func (s *Service) Update(id string, patch UpdatePatch) (*models.MerchItem, error) {
	var updated *models.MerchItem
	err := s.items.Mutate(func(items []models.MerchItem) ([]models.MerchItem, error) {
		for i := range items {
			if items[i].ID != id {
				continue
			}
			item := &items[i]

			if patch.IncludeSizes != nil {
				if *patch.IncludeSizes {
					if !item.HasSizes() {
						item.Sizes = models.StandardSizes()
					}
				} else {
					// Dropping the size run also drops the 2XL override;
					// an override without sizes is unreachable.
					item.Sizes = nil
					item.TwoXLPrice = decimal.NullDecimal{}
				}
			}
			if patch.AllowInitials != nil {
				item.AllowInitials = *patch.AllowInitials
			}
			if patch.Paused != nil {
				item.Paused = *patch.Paused
			}
			if patch.TwoXLPrice.Set {
				if patch.TwoXLPrice.Value.Valid {
					if !item.HasSizes() {
						return nil, apperr.Validation("a 2XL price needs the item to offer sizes")
					}
					price, err := normalizePrice(patch.TwoXLPrice.Value.Decimal)
					if err != nil {
						return nil, err
					}
					item.TwoXLPrice = decimal.NewNullDecimal(price)
				} else {
					item.TwoXLPrice = decimal.NullDecimal{}
				}
			}

			snapshot := *item
			updated = &snapshot
			return items, nil
		}
		return nil, apperr.NotFound("no merch item with id %s", id)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("itemId", updated.ID).Msg("merch item updated")
	return updated, nil
}

// Delete removes an item from the catalog along with its managed image.
// Placed orders keep their copied item details.
func (s *Service) Delete(id string) (*models.MerchItem, error) {
	var removed *models.MerchItem
	err := s.items.Mutate(func(items []models.MerchItem) ([]models.MerchItem, error) {
		for i := range items {
			if items[i].ID == id {
				item := items[i]
				removed = &item
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, apperr.NotFound("no merch item with id %s", id)
	})
	if err != nil {
		return nil, err
	}

	// The listing is gone either way; a stuck image file is only logged.
	if err := s.store.ReleaseUpload(removed.Image); err != nil {
		s.log.Error().Err(err).Str("image", removed.Image).Msg("failed to remove item image")
	}

	s.log.Info().Str("itemId", removed.ID).Str("name", removed.Name).Msg("merch item deleted")
	return removed, nil
}

// ListPublic returns the items members can see and order.
func (s *Service) ListPublic() ([]models.MerchItem, error) {
	return s.items.Published()
}

// ListAll returns every item, paused ones included, for the admin view.
func (s *Service) ListAll() ([]models.MerchItem, error) {
	return s.items.All()
}

func normalizePrice(p decimal.Decimal) (decimal.Decimal, error) {
	if !p.IsPositive() {
		return decimal.Decimal{}, apperr.Validation("price must be greater than zero")
	}
	if p.GreaterThan(models.MaxItemPrice) {
		return decimal.Decimal{}, apperr.Validation("price cannot exceed %s", models.MaxItemPrice.String())
	}
	return p.Round(2), nil
}
