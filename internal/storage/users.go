package storage

import (
	"github.com/1020robert/delph-merch/internal/models"
)

// UserRepository provides user data access
type UserRepository struct {
	c *collection
}

// All returns every user record.
func (r *UserRepository) All() ([]models.User, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	var users []models.User
	if err := r.c.load(&users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindByID retrieves a user by ID, returning nil when no record matches.
func (r *UserRepository) FindByID(id string) (*models.User, error) {
	users, err := r.All()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, nil
}

// FindByEmail retrieves a user by normalized email, returning nil when no
// record matches.
func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	users, err := r.All()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Email == email {
			return &users[i], nil
		}
	}
	return nil, nil
}

// Save inserts the user or replaces the record carrying the same ID.
func (r *UserRepository) Save(u *models.User) error {
	return r.Mutate(func(users []models.User) ([]models.User, error) {
		for i := range users {
			if users[i].ID == u.ID {
				users[i] = *u
				return users, nil
			}
		}
		return append(users, *u), nil
	})
}

// Mutate loads the collection, applies fn, and persists what fn returns, all
// under the collection lock. An error from fn abandons the write.
func (r *UserRepository) Mutate(fn func(users []models.User) ([]models.User, error)) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	var users []models.User
	if err := r.c.load(&users); err != nil {
		return err
	}
	updated, err := fn(users)
	if err != nil {
		return err
	}
	return r.c.save(updated)
}
