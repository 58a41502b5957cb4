package orders

import (
	"errors"
	"math"
	"time"

	"github.com/ariefcatur/go-inventory-orders.git/internal/inventory"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrTotalOverflow   = errors.New("total price is too large for this quantity")
)

type Order struct {
	ID         int64     `json:"-"`
	UUID       uuid.UUID `json:"uuid"`
	StudentID  int64     `json:"student_id"`
	ProductID  int64     `json:"product_id"`
	Quantity   int       `json:"quantity"`
	TotalPrice int64     `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// OrderView is an order joined with the names it is displayed with.
type OrderView struct {
	Order
	StudentName  string `json:"student_name"`
	ProductName  string `json:"product_name"`
	CategoryName string `json:"category_name"`
}

// StockRejection explains why an order was refused: the product does not
// have enough units left.
type StockRejection struct {
	ProductName  string `json:"product_name"`
	ProductStock int    `json:"product_stock"`
	RequestStock int    `json:"request_stock"`
}

// Result is the outcome of a create or update. Exactly one of Order and
// Rejection is meaningful: a rejected request leaves no trace in storage.
type Result struct {
	Order     Order
	Product   inventory.Product
	Rejection *StockRejection
}

func (r Result) Rejected() bool { return r.Rejection != nil }

// total prices quantity units, refusing a result that does not fit in int64.
func total(price int64, quantity int) (int64, error) {
	if quantity > 0 && price > math.MaxInt64/int64(quantity) {
		return 0, ErrTotalOverflow
	}
	return price * int64(quantity), nil
}
