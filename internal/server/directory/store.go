package directory

import (
	"context"

	"github.com/dmitrijs2005/userdir/internal/server/models"
)

// Store persists user records keyed by an opaque id.
//
// Find returns common.ErrorNotFound when no record has the id. Save assigns
// an id when the record has none and overwrites otherwise. Delete reports
// whether a record was removed.
type Store interface {
	Find(ctx context.Context, id string) (*models.User, error)
	FindAll(ctx context.Context) ([]*models.User, error)
	Save(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ViewCache caches public views. Lookups report found=false on a miss.
//
// Fills are versioned: a reader takes UserVersion or ListVersion before it
// reads the store and passes it to SetUser or SetList. The fill is dropped
// when InvalidateUser ran in between.
type ViewCache interface {
	GetUser(ctx context.Context, id string) (models.PublicUser, bool, error)
	UserVersion(ctx context.Context, id string) (int64, error)
	SetUser(ctx context.Context, user models.PublicUser, version int64) error
	GetList(ctx context.Context) ([]models.PublicUser, bool, error)
	ListVersion(ctx context.Context) (int64, error)
	SetList(ctx context.Context, users []models.PublicUser, version int64) error
	InvalidateUser(ctx context.Context, id string) error
}
