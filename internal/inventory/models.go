package inventory

import (
	"errors"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrDuplicateProduct = errors.New("product name has already been taken")
	ErrUnknownCategory  = errors.New("the selected category id is invalid")
	ErrUnknownSupplier  = errors.New("the selected supplier id is invalid")
)

// Largest price and stock a product may carry. Stock is an INTEGER column.
const (
	MaxPrice    int64 = 1_000_000_000_000
	MaxQuantity int64 = math.MaxInt32
)

type Product struct {
	ID          int64     `json:"id"`
	UUID        uuid.UUID `json:"uuid"`
	CategoryID  int64     `json:"category_id"`
	SupplierID  int64     `json:"supplier_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Image       string    `json:"image"`
	Price       int64     `json:"price"`
	Quantity    int       `json:"quantity"`
	Description string    `json:"description"`
	// StockVersion grows by one with every write that may move the quantity.
	StockVersion int64     `json:"stock_version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProductView is a product joined with the names of its category and supplier.
type ProductView struct {
	Product
	CategoryName string `json:"category_name"`
	SupplierName string `json:"supplier_name"`
}

type ProductInput struct {
	CategoryID  int64
	SupplierID  int64
	Name        string
	Price       int64
	Quantity    int
	Description string
}

type Image struct {
	Filename string
	Body     io.Reader
}
