package orders

import (
	"context"
	"time"

	"github.com/ariefcatur/go-inventory-orders.git/internal/auth"
	"github.com/ariefcatur/go-inventory-orders.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-inventory-orders.git/internal/kafka"
	"github.com/ariefcatur/go-inventory-orders.git/internal/paging"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type OrderReader interface {
	ViewByUUID(ctx context.Context, id uuid.UUID) (OrderView, error)
	ListByStudent(ctx context.Context, studentID int64) ([]OrderView, error)
	List(ctx context.Context, p paging.Params) (paging.Page[OrderView], error)
	UUIDsByProduct(ctx context.Context, productID int64) ([]uuid.UUID, error)
	UUIDsByCategory(ctx context.Context, categoryID int64) ([]uuid.UUID, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type ViewCache interface {
	Get(ctx context.Context, id string) (OrderView, bool, error)
	Set(ctx context.Context, id string, v OrderView) error
	Delete(ctx context.Context, id string) error
}

// Engine is the only component that moves product stock. Every create and
// update checks availability and writes stock and order together inside one
// unit of work, holding the product row lock from the check to the commit.
type Engine struct {
	UoW       UnitOfWork
	Orders    OrderReader
	Publisher Publisher
	Cache     ViewCache
	Service   string
	Log       logrus.FieldLogger
}

func (e *Engine) Create(ctx context.Context, caller auth.Identity, productID int64, quantity int) (Result, error) {
	if quantity <= 0 {
		return Result{}, ErrInvalidQuantity
	}

	var res Result
	err := e.UoW.Within(ctx, func(ctx context.Context, tx Tx) error {
		p, err := tx.Products().LockByID(ctx, productID)
		if err != nil {
			return err
		}
		res.Product = p
		if p.Quantity < quantity {
			res.Rejection = &StockRejection{ProductName: p.Name, ProductStock: p.Quantity, RequestStock: quantity}
			return nil
		}
		price, err := total(p.Price, quantity)
		if err != nil {
			return err
		}

		if err := tx.Products().Decrement(ctx, p.ID, quantity); err != nil {
			return err
		}
		o := Order{
			UUID:       uuid.New(),
			StudentID:  caller.ID,
			ProductID:  p.ID,
			Quantity:   quantity,
			TotalPrice: price,
		}
		if err := tx.Orders().Insert(ctx, &o); err != nil {
			return err
		}
		res.Order = o
		res.Product.Quantity -= quantity
		res.Product.StockVersion++
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if res.Rejected() {
		e.logRejection(caller, res)
		return res, nil
	}

	e.Log.WithFields(logrus.Fields{
		"order_uuid": res.Order.UUID, "product_id": res.Product.ID, "user_id": caller.ID, "quantity": quantity,
	}).Info("order transaction created")
	e.publish(EventOrderTransactionCreated, res.Order, &res.Product)
	return res, nil
}

// Update points the order at productID with the new quantity. The stock
// reserved is the difference between the new and the previous quantity,
// taken from the target product even when the product changes.
func (e *Engine) Update(ctx context.Context, caller auth.Identity, orderUUID uuid.UUID, productID int64, quantity int) (Result, error) {
	if quantity <= 0 {
		return Result{}, ErrInvalidQuantity
	}

	var res Result
	err := e.UoW.Within(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.Orders().LockByUUID(ctx, orderUUID)
		if err != nil {
			return err
		}
		if !caller.CanActFor(o.StudentID) {
			return auth.ErrUnauthorized
		}
		p, err := tx.Products().LockByID(ctx, productID)
		if err != nil {
			return err
		}
		res.Product = p

		delta := quantity - o.Quantity
		if p.Quantity < delta {
			res.Rejection = &StockRejection{ProductName: p.Name, ProductStock: p.Quantity, RequestStock: quantity}
			return nil
		}
		price, err := total(p.Price, quantity)
		if err != nil {
			return err
		}
		switch {
		case delta > 0:
			err = tx.Products().Decrement(ctx, p.ID, delta)
		case delta < 0:
			err = tx.Products().Increment(ctx, p.ID, -delta)
		}
		if err != nil {
			return err
		}

		o.ProductID = p.ID
		o.Quantity = quantity
		o.TotalPrice = price
		if err := tx.Orders().Update(ctx, &o); err != nil {
			return err
		}
		res.Order = o
		if delta != 0 {
			res.Product.Quantity -= delta
			res.Product.StockVersion++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if res.Rejected() {
		e.logRejection(caller, res)
		return res, nil
	}

	e.invalidate(ctx, orderUUID)
	e.Log.WithFields(logrus.Fields{
		"order_uuid": orderUUID, "product_id": res.Product.ID, "user_id": caller.ID, "quantity": quantity,
	}).Info("order transaction updated")
	e.publish(EventOrderTransactionUpdated, res.Order, &res.Product)
	return res, nil
}

// Delete removes the order. Stock taken by the order is not given back.
func (e *Engine) Delete(ctx context.Context, caller auth.Identity, orderUUID uuid.UUID) error {
	var deleted Order
	err := e.UoW.Within(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.Orders().LockByUUID(ctx, orderUUID)
		if err != nil {
			return err
		}
		if !caller.CanActFor(o.StudentID) {
			return auth.ErrUnauthorized
		}
		deleted = o
		return tx.Orders().Delete(ctx, orderUUID)
	})
	if err != nil {
		return err
	}

	e.invalidate(ctx, orderUUID)
	e.Log.WithFields(logrus.Fields{"order_uuid": orderUUID, "user_id": caller.ID}).Info("order transaction deleted")
	e.publish(EventOrderTransactionDeleted, deleted, nil)
	return nil
}

func (e *Engine) Get(ctx context.Context, caller auth.Identity, orderUUID uuid.UUID) (OrderView, error) {
	v, err := e.view(ctx, orderUUID)
	if err != nil {
		return OrderView{}, err
	}
	if !caller.CanActFor(v.StudentID) {
		return OrderView{}, auth.ErrUnauthorized
	}
	return v, nil
}

// ListByStudent returns the student's orders and their summed total price.
// The caller is authorized before anything is looked up.
func (e *Engine) ListByStudent(ctx context.Context, caller auth.Identity, studentID int64) ([]OrderView, int64, error) {
	if !caller.CanActFor(studentID) {
		return nil, 0, auth.ErrUnauthorized
	}
	views, err := e.Orders.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, 0, err
	}
	if len(views) == 0 {
		return nil, 0, ErrOrderNotFound
	}
	var total int64
	for _, v := range views {
		total += v.TotalPrice
	}
	return views, total, nil
}

func (e *Engine) List(ctx context.Context, caller auth.Identity, p paging.Params) (paging.Page[OrderView], error) {
	if !caller.IsOwner() {
		return paging.Page[OrderView]{}, auth.ErrUnauthorized
	}
	return e.Orders.List(ctx, p)
}

func (e *Engine) view(ctx context.Context, orderUUID uuid.UUID) (OrderView, error) {
	key := orderUUID.String()
	if e.Cache != nil {
		if v, ok, err := e.Cache.Get(ctx, key); err == nil && ok {
			return v, nil
		}
	}
	v, err := e.Orders.ViewByUUID(ctx, orderUUID)
	if err != nil {
		return OrderView{}, err
	}
	if e.Cache != nil {
		if err := e.Cache.Set(ctx, key, v); err != nil {
			e.Log.WithError(err).Warn("cache order view")
		}
	}
	return v, nil
}

func (e *Engine) invalidate(ctx context.Context, orderUUID uuid.UUID) {
	if e.Cache == nil {
		return
	}
	if err := e.Cache.Delete(ctx, orderUUID.String()); err != nil {
		e.Log.WithError(err).WithField("order_uuid", orderUUID).Warn("invalidate order view")
	}
}

func (e *Engine) logRejection(caller auth.Identity, res Result) {
	e.Log.WithFields(logrus.Fields{
		"product_id":    res.Product.ID,
		"user_id":       caller.ID,
		"product_stock": res.Rejection.ProductStock,
		"request_stock": res.Rejection.RequestStock,
	}).Info("order transaction rejected: stock not available")
}

// StockChanged publishes the stock a product edit left behind and drops the
// cached views that show the product's old name.
func (e *Engine) StockChanged(ctx context.Context, p inventory.Product) {
	e.forgetProduct(ctx, p.ID)
	e.emit(EventProductStockChanged, PartitionKey(p.ID), p.UUID.String(), stockPayload(p))
}

// ProductRemoved publishes a final stock version that takes the product out
// of the low stock index.
func (e *Engine) ProductRemoved(ctx context.Context, p inventory.Product) {
	e.forgetProduct(ctx, p.ID)
	p.StockVersion++
	e.emit(EventProductDeleted, PartitionKey(p.ID), p.UUID.String(), stockPayload(p))
}

// CategoryRenamed drops the cached views that show the category's old name.
func (e *Engine) CategoryRenamed(ctx context.Context, categoryID int64) {
	e.forget(ctx, logrus.Fields{"category_id": categoryID}, func() ([]uuid.UUID, error) {
		return e.Orders.UUIDsByCategory(ctx, categoryID)
	})
}

func stockPayload(p inventory.Product) ProductStockPayload {
	return ProductStockPayload{
		ProductID:      p.ID,
		ProductUUID:    p.UUID,
		ProductName:    p.Name,
		RemainingStock: p.Quantity,
		StockVersion:   p.StockVersion,
	}
}

func (e *Engine) forgetProduct(ctx context.Context, productID int64) {
	e.forget(ctx, logrus.Fields{"product_id": productID}, func() ([]uuid.UUID, error) {
		return e.Orders.UUIDsByProduct(ctx, productID)
	})
}

func (e *Engine) forget(ctx context.Context, fields logrus.Fields, affected func() ([]uuid.UUID, error)) {
	if e.Cache == nil {
		return
	}
	ids, err := affected()
	if err != nil {
		e.Log.WithError(err).WithFields(fields).Warn("list cached order views")
		return
	}
	for _, id := range ids {
		e.invalidate(ctx, id)
	}
}

// publish emits the order event after commit. A nil product marks a change
// that did not touch stock.
func (e *Engine) publish(eventType string, o Order, p *inventory.Product) {
	payload := OrderTransactionPayload{
		OrderUUID:  o.UUID,
		StudentID:  o.StudentID,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice,
	}
	if p != nil {
		stock := p.Quantity
		payload.ProductUUID = p.UUID
		payload.ProductName = p.Name
		payload.RemainingStock = &stock
		payload.StockVersion = p.StockVersion
	}
	e.emit(eventType, PartitionKey(o.ProductID), o.UUID.String(), payload)
}

func (e *Engine) emit(eventType string, key []byte, correlationID string, payload any) {
	if e.Publisher == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      e.Service,
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
	e.Publisher.Publish(key, kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
