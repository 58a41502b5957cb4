package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOwner   Role = "owner"
	RoleStudent Role = "student"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email has already been taken")
	ErrTokenNotFound      = errors.New("token not found")
	ErrPasswordTooLong    = errors.New("the password field must not be greater than 72 bytes")
)

type User struct {
	ID           int64     `json:"id"`
	UUID         uuid.UUID `json:"uuid"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Token is the persisted half of an access token: the JWT carries its ID
// and a token is only valid while its row exists and has not expired.
type Token struct {
	ID        uuid.UUID
	UserID    int64
	ExpiresAt time.Time
}

type IssuedToken struct {
	Plain     string
	ExpiresAt time.Time
}

// Identity is the authenticated caller.
type Identity struct {
	ID      int64
	Name    string
	Role    Role
	TokenID uuid.UUID
}

func (i Identity) IsOwner() bool { return i.Role == RoleOwner }

// CanActFor reports whether the caller may read or change data owned by studentID.
func (i Identity) CanActFor(studentID int64) bool {
	return i.ID == studentID || i.IsOwner()
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}
