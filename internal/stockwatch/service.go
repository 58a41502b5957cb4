package stockwatch

import (
	"context"
	"fmt"

	kafkax "github.com/ariefcatur/go-inventory-orders.git/internal/kafka"
	"github.com/ariefcatur/go-inventory-orders.git/internal/orders"
	"github.com/ariefcatur/go-inventory-orders.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Index interface {
	Apply(ctx context.Context, productID, version int64, stock int, low bool) (bool, error)
}

// Service keeps the low stock index in step with stock events from orders
// and product edits.
type Service struct {
	Redis       redis.Cmdable
	Index       Index
	Threshold   int
	ServiceName string
	Log         logrus.FieldLogger
}

// stockState is what every stock carrying payload shares.
type stockState struct {
	ProductID      int64 `json:"product_id"`
	RemainingStock *int  `json:"remaining_stock"`
	StockVersion   int64 `json:"stock_version"`
}

var stockEvents = map[string]bool{
	orders.EventOrderTransactionCreated: true,
	orders.EventOrderTransactionUpdated: true,
	orders.EventProductStockChanged:     true,
	orders.EventProductDeleted:          true,
}

// HandleOrderTransaction is installed as the consumer handler.
func (s *Service) HandleOrderTransaction(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		// poison message, committing it keeps the partition moving
		s.Log.WithError(err).WithField("offset", m.Offset).Warn("skip undecodable event")
		return nil
	}
	if !stockEvents[env.EventType] {
		return nil
	}

	st, err := kafkax.UnwrapPayload[stockState](env.Payload)
	if err != nil {
		s.Log.WithError(err).WithField("event_id", env.EventID).Warn("skip undecodable payload")
		return nil
	}
	if st.RemainingStock == nil {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	seen, err := redisx.Exists(ctx, s.Redis, dkey)
	if err != nil || seen {
		return err
	}

	stock := *st.RemainingStock
	low := stock <= s.Threshold && env.EventType != orders.EventProductDeleted
	log := s.Log.WithFields(logrus.Fields{
		"product_id": st.ProductID, "stock": stock, "stock_version": st.StockVersion, "event_id": env.EventID,
	})
	applied, err := s.Index.Apply(ctx, st.ProductID, st.StockVersion, stock, low)
	if err != nil {
		return err
	}
	switch {
	case !applied:
		log.Debug("stale stock event ignored")
	case low:
		log.Info("product at low stock")
	}

	// mark only after the index write so a failed write is retried
	_, err = redisx.Claim(ctx, s.Redis, dkey, redisx.TTLDedup)
	return err
}
