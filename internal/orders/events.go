package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventOrderTransactionCreated = "OrderTransactionCreated"
	EventOrderTransactionUpdated = "OrderTransactionUpdated"
	EventOrderTransactionDeleted = "OrderTransactionDeleted"

	EventProductStockChanged = "ProductStockChanged"
	EventProductDeleted      = "ProductDeleted"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order or product uuid
	Payload       json.RawMessage `json:"payload"`
}

type OrderTransactionPayload struct {
	OrderUUID   uuid.UUID `json:"order_uuid"`
	StudentID   int64     `json:"student_id"`
	ProductID   int64     `json:"product_id"`
	ProductUUID uuid.UUID `json:"product_uuid,omitempty"`
	ProductName string    `json:"product_name,omitempty"`
	Quantity    int       `json:"quantity"`
	TotalPrice  int64     `json:"total_price"`
	// Stock left on the product after the change; absent for deletes,
	// which do not touch stock.
	RemainingStock *int  `json:"remaining_stock,omitempty"`
	StockVersion   int64 `json:"stock_version,omitempty"`
}

// ProductStockPayload carries the stock an owner edit left on a product.
type ProductStockPayload struct {
	ProductID      int64     `json:"product_id"`
	ProductUUID    uuid.UUID `json:"product_uuid"`
	ProductName    string    `json:"product_name"`
	RemainingStock int       `json:"remaining_stock"`
	StockVersion   int64     `json:"stock_version"`
}
