// Package directory implements the user directory operations. Every
// operation is authorized against the caller's principal before the store
// is touched or a password is hashed.
package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/userdir/internal/common"
	"github.com/dmitrijs2005/userdir/internal/logging"
	"github.com/dmitrijs2005/userdir/internal/server/authz"
	"github.com/dmitrijs2005/userdir/internal/server/credentials"
	"github.com/dmitrijs2005/userdir/internal/server/models"
)

// CreateInput carries the fields of a new user.
type CreateInput struct {
	Username string
	Password string
}

// UpdateInput carries optional replacements; empty fields are left as is.
type UpdateInput struct {
	Username string
	Password string
}

type Service struct {
	store  Store
	guard  *authz.Guard
	creds  *credentials.Manager
	cache  ViewCache
	logger logging.Logger
}

type Option func(*Service)

// WithCache puts c in front of the store for reads.
func WithCache(c ViewCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Service) { s.logger = l.With("module", "directory") }
}

func NewService(store Store, guard *authz.Guard, creds *credentials.Manager, opts ...Option) *Service {
	s := &Service{store: store, guard: guard, creds: creds, logger: logging.Nop{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ListUsers returns the public view of every record in store order.
func (s *Service) ListUsers(ctx context.Context, p authz.Principal) ([]models.PublicUser, error) {
	if err := s.guard.Authorize(p, authz.OpRead); err != nil {
		return nil, err
	}

	var (
		version int64
		fill    bool
	)
	if s.cache != nil {
		list, ok, err := s.cache.GetList(ctx)
		if err != nil {
			s.logger.Warn(ctx, "cache read failed", "error", err)
		} else if ok {
			return list, nil
		}
		if version, err = s.cache.ListVersion(ctx); err != nil {
			s.logger.Warn(ctx, "cache version read failed", "error", err)
		} else {
			fill = true
		}
	}

	users, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	result := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		if u == nil {
			continue
		}
		result = append(result, u.Public())
	}

	if fill {
		if err := s.cache.SetList(ctx, result, version); err != nil {
			s.logger.Warn(ctx, "cache write failed", "error", err)
		}
	}
	return result, nil
}

// GetUser returns the public view of the record with id.
func (s *Service) GetUser(ctx context.Context, p authz.Principal, id string) (models.PublicUser, error) {
	if err := s.guard.Authorize(p, authz.OpRead); err != nil {
		return models.PublicUser{}, err
	}

	var (
		version int64
		fill    bool
	)
	if s.cache != nil {
		u, ok, err := s.cache.GetUser(ctx, id)
		if err != nil {
			s.logger.Warn(ctx, "cache read failed", "id", id, "error", err)
		} else if ok {
			return u, nil
		}
		if version, err = s.cache.UserVersion(ctx, id); err != nil {
			s.logger.Warn(ctx, "cache version read failed", "id", id, "error", err)
		} else {
			fill = true
		}
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return models.PublicUser{}, err
	}

	view := user.Public()
	if fill {
		if err := s.cache.SetUser(ctx, view, version); err != nil {
			s.logger.Warn(ctx, "cache write failed", "id", id, "error", err)
		}
	}
	return view, nil
}

// CreateUser stores a new record with a freshly salted credential.
func (s *Service) CreateUser(ctx context.Context, p authz.Principal, in CreateInput) (models.PublicUser, error) {
	if err := s.guard.Authorize(p, authz.OpWrite); err != nil {
		return models.PublicUser{}, err
	}
	if strings.TrimSpace(in.Username) == "" {
		return models.PublicUser{}, fmt.Errorf("%w: username is required", common.ErrorValidation)
	}
	if in.Password == "" {
		return models.PublicUser{}, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	user := &models.User{UserName: in.Username}
	if err := s.creds.SetPassword(user, in.Password); err != nil {
		return models.PublicUser{}, fmt.Errorf("error setting password: %w", err)
	}

	saved, err := s.store.Save(ctx, user)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("error creating user: %w", err)
	}

	s.invalidate(ctx, saved.ID)
	s.logger.Info(ctx, "user created", "id", saved.ID, "by", p.Name)
	return saved.Public(), nil
}

// UpdateUser overwrites the username and/or password of the record with id.
// A password change regenerates the salt. With both fields empty the record
// is saved unchanged.
func (s *Service) UpdateUser(ctx context.Context, p authz.Principal, id string, in UpdateInput) (models.PublicUser, error) {
	if err := s.guard.Authorize(p, authz.OpWrite); err != nil {
		return models.PublicUser{}, err
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return models.PublicUser{}, err
	}

	user := current.Clone()
	if strings.TrimSpace(in.Username) != "" {
		user.UserName = in.Username
	}
	if in.Password != "" {
		if err := s.creds.SetPassword(user, in.Password); err != nil {
			return models.PublicUser{}, fmt.Errorf("error setting password: %w", err)
		}
	}

	saved, err := s.store.Save(ctx, user)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("error updating user %s: %w", id, err)
	}

	s.invalidate(ctx, id)
	s.logger.Info(ctx, "user updated", "id", id, "by", p.Name,
		"username_changed", user.UserName != current.UserName, "password_changed", in.Password != "")
	return saved.Public(), nil
}

// DeleteUser removes the record with id.
func (s *Service) DeleteUser(ctx context.Context, p authz.Principal, id string) (models.Confirmation, error) {
	if err := s.guard.Authorize(p, authz.OpDelete); err != nil {
		return models.Confirmation{}, err
	}

	if _, err := s.find(ctx, id); err != nil {
		return models.Confirmation{}, err
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return models.Confirmation{}, fmt.Errorf("error deleting user %s: %w", id, err)
	}
	if !deleted {
		// removed by someone else between Find and Delete
		return models.Confirmation{}, fmt.Errorf("user %s: %w", id, common.ErrorNotFound)
	}

	s.invalidate(ctx, id)
	s.logger.Info(ctx, "user deleted", "id", id, "by", p.Name)
	return models.Confirmation{ID: id}, nil
}

// VerifyPassword reports whether candidate is the current password of the
// record with id.
func (s *Service) VerifyPassword(ctx context.Context, p authz.Principal, id, candidate string) (bool, error) {
	if err := s.guard.Authorize(p, authz.OpVerify); err != nil {
		return false, err
	}

	user, err := s.find(ctx, id)
	if err != nil {
		return false, err
	}

	return s.creds.Verify(candidate, user.PasswordSalt, user.PasswordHash), nil
}

func (s *Service) find(ctx context.Context, id string) (*models.User, error) {
	user, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", id, err)
	}
	return user, nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateUser(ctx, id); err != nil {
		s.logger.Warn(ctx, "cache invalidation failed", "id", id, "error", err)
	}
}
