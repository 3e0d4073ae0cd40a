// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"sahara/internal/domain/entity"

	"github.com/pkg/errors"
)

// ErrUserNotFound is returned when a profile lookup by phone number misses.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines read access to the user directory, plus push token
// registration. The notification core never mutates profile fields; tokens
// are the one exception and are always added with set-union semantics.
type UserRepository interface {
	// FindByPhone retrieves a single profile by its phone number key.
	// Returns ErrUserNotFound when no such profile exists.
	FindByPhone(ctx context.Context, phoneNumber string) (*entity.UserProfile, error)

	// FindByAttribute retrieves all profiles whose named attribute equals the
	// given value. The caller is responsible for restricting field names.
	FindByAttribute(ctx context.Context, field, value string) ([]*entity.UserProfile, error)

	// ForEachUser streams the entire directory in pages of at most pageSize
	// profiles, invoking fn once per profile. Enumeration stops at the first
	// error returned by fn.
	ForEachUser(ctx context.Context, pageSize int, fn func(*entity.UserProfile) error) error

	// AddPushToken adds a device token to the profile's token set.
	// Adding an already-registered token is a no-op, not a duplicate.
	AddPushToken(ctx context.Context, phoneNumber, token string) error
}
