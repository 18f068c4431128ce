package users

import (
	"context"

	"github.com/dmitrijs2005/userdir/internal/server/models"
)

type Repository interface {
	Find(ctx context.Context, id string) (*models.User, error)
	FindAll(ctx context.Context) ([]*models.User, error)
	Save(ctx context.Context, user *models.User) (*models.User, error)
	Delete(ctx context.Context, id string) (bool, error)
}
