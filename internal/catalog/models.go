package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrSupplierNotFound  = errors.New("supplier not found")
	ErrDuplicateCategory = errors.New("category name has already been taken")
	ErrDuplicateSupplier = errors.New("supplier code has already been taken")
)

type Category struct {
	ID        int64     `json:"-"`
	UUID      uuid.UUID `json:"uuid"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Supplier struct {
	ID        int64     `json:"-"`
	UUID      uuid.UUID `json:"uuid"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SupplierInput struct {
	Code    string
	Name    string
	Address string
	Phone   string
	Email   string
}
