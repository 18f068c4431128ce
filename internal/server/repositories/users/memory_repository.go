package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps records in process memory. Records are copied on
// the way in and out so callers never share state with the repository.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User
	order []string
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]*models.User), now: time.Now}
}

func (r *MemoryRepository) Find(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u.Clone(), nil
}

// FindAll returns records in insertion order.
func (r *MemoryRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.User, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.users[id].Clone())
	}
	return result, nil
}

func (r *MemoryRepository) Save(ctx context.Context, user *models.User) (*models.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	saved := user.Clone()
	now := r.now().UTC()

	if saved.ID == "" {
		saved.ID = uuid.NewString()
		saved.CreatedAt = now
		saved.UpdatedAt = now
		r.users[saved.ID] = saved
		r.order = append(r.order, saved.ID)
		return saved.Clone(), nil
	}

	existing, ok := r.users[saved.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	saved.CreatedAt = existing.CreatedAt
	saved.UpdatedAt = now
	r.users[saved.ID] = saved
	return saved.Clone(), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return false, nil
	}
	delete(r.users, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}
