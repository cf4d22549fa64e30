package service

import (
	"context"
	"errors"
	"strings"

	"github.com/GoSim-25-26J-441/marketplace-backend/internal/auth/domain"
)

type UserStore interface {
	GetByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	UpdateLastLogin(ctx context.Context, externalID string) error
}

type ProfileService struct {
	users UserStore
}

func NewProfileService(users UserStore) *ProfileService {
	return &ProfileService{users: users}
}

func (s *ProfileService) Get(ctx context.Context, externalID string) (*domain.User, error) {
	return s.users.GetByExternalID(ctx, externalID)
}

// Sync creates the profile on first sign-in and merges provided fields on
// later ones. New profiles default to the buyer role.
func (s *ProfileService) Sync(ctx context.Context, req *domain.SyncUserRequest) (*domain.User, error) {
	if req.Role != "" && !req.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	existing, err := s.users.GetByExternalID(ctx, req.ExternalID)
	switch {
	case err == nil:
		if email := strings.TrimSpace(req.Email); email != "" {
			existing.Email = &email
		}
		apply(existing, req.DisplayName, req.PhotoURL, req.Organization, req.Role, req.Preferences)
		if err := s.users.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	user := &domain.User{
		ExternalID:   req.ExternalID,
		DisplayName:  req.DisplayName,
		PhotoURL:     req.PhotoURL,
		Organization: req.Organization,
		Role:         req.Role,
		Preferences:  make(map[string]interface{}),
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		user.Email = &email
	}
	if user.Role == "" {
		user.Role = domain.RoleBuyer
	}
	for k, v := range req.Preferences {
		user.Preferences[k] = v
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *ProfileService) Update(ctx context.Context, externalID string, req *domain.UpdateUserRequest) (*domain.User, error) {
	if req.Role != "" && !req.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	user, err := s.users.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}

	apply(user, req.DisplayName, req.PhotoURL, req.Organization, req.Role, req.Preferences)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *ProfileService) RecordLogin(ctx context.Context, externalID string) error {
	return s.users.UpdateLastLogin(ctx, externalID)
}

// apply overwrites fields that were provided. Preferences are merged key by key.
func apply(u *domain.User, displayName, photoURL, organization *string, role domain.Role, prefs map[string]interface{}) {
	if displayName != nil {
		u.DisplayName = displayName
	}
	if photoURL != nil {
		u.PhotoURL = photoURL
	}
	if organization != nil {
		u.Organization = organization
	}
	if role != "" {
		u.Role = role
	}
	if len(prefs) > 0 {
		if u.Preferences == nil {
			u.Preferences = make(map[string]interface{})
		}
		for k, v := range prefs {
			u.Preferences[k] = v
		}
	}
}
