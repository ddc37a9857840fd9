package storage

import (
	"github.com/1020robert/delph-merch/internal/models"
)

// OrderRepository provides order log data access
type OrderRepository struct {
	c *collection
}

// All returns every order ever placed, in placement order.
func (r *OrderRepository) All() ([]models.Order, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	var orders []models.Order
	if err := r.c.load(&orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByID retrieves an order by ID, returning nil when no record matches.
func (r *OrderRepository) FindByID(id string) (*models.Order, error) {
	orders, err := r.All()
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if orders[i].ID == id {
			return &orders[i], nil
		}
	}
	return nil, nil
}

// Append adds one order to the log.
func (r *OrderRepository) Append(o *models.Order) error {
	return r.Mutate(func(orders []models.Order) ([]models.Order, error) {
		return append(orders, *o), nil
	})
}

// Mutate loads the collection, applies fn, and persists what fn returns, all
// under the collection lock. An error from fn abandons the write.
func (r *OrderRepository) Mutate(fn func(orders []models.Order) ([]models.Order, error)) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	var orders []models.Order
	if err := r.c.load(&orders); err != nil {
		return err
	}
	updated, err := fn(orders)
	if err != nil {
		return err
	}
	return r.c.save(updated)
}
