package storage

import (
	"github.com/1020robert/delph-merch/internal/models"
)

// ItemRepository provides merch catalog data access
type ItemRepository struct {
	c *collection
}

// All returns every catalog item, paused ones included.
func (r *ItemRepository) All() ([]models.MerchItem, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	var items []models.MerchItem
	if err := r.c.load(&items); err != nil {
		return nil, err
	}
	return items, nil
}

// Published returns the items visible to members.
func (r *ItemRepository) Published() ([]models.MerchItem, error) {
	items, err := r.All()
	if err != nil {
		return nil, err
	}
	published := make([]models.MerchItem, 0, len(items))
	for _, item := range items {
		if !item.Paused {
			published = append(published, item)
		}
	}
	return published, nil
}

// FindByID retrieves an item by ID, returning nil when no record matches.
func (r *ItemRepository) FindByID(id string) (*models.MerchItem, error) {
	items, err := r.All()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, nil
}

// Mutate loads the collection, applies fn, and persists what fn returns, all
// under the collection lock. An error from fn abandons the write.
func (r *ItemRepository) Mutate(fn func(items []models.MerchItem) ([]models.MerchItem, error)) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	var items []models.MerchItem
	if err := r.c.load(&items); err != nil {
		return err
	}
	updated, err := fn(items)
	if err != nil {
		return err
	}
	return r.c.save(updated)
}
