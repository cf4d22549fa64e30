package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidRole  = errors.New("role must be buyer, seller or both")
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleBoth   Role = "both"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleBoth:
		return true
	default:
		return false
	}
}

// User is a marketplace profile. ExternalID is the identity provider's id and
// the same value projects and bids carry as owner and seller.
type User struct {
	ExternalID   string                 `json:"external_id"`
	Email        *string                `json:"email,omitempty"`
	DisplayName  *string                `json:"display_name,omitempty"`
	PhotoURL     *string                `json:"photo_url,omitempty"`
	Role         Role                   `json:"role"`
	Organization *string                `json:"organization,omitempty"`
	Preferences  map[string]interface{} `json:"preferences,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
	LastLoginAt  *time.Time             `json:"last_login_at,omitempty"`
}

// SyncUserRequest carries identity data after sign-in. Nil or empty fields
// leave the stored value alone.
type SyncUserRequest struct {
	ExternalID   string
	Email        string
	DisplayName  *string
	PhotoURL     *string
	Role         Role
	Organization *string
	Preferences  map[string]interface{}
}

type UpdateUserRequest struct {
	DisplayName  *string
	PhotoURL     *string
	Role         Role
	Organization *string
	Preferences  map[string]interface{}
}
