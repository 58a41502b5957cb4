package kafka

import (
	"context"
	"errors"
	"hash/fnv"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Handler returns nil only when the message was processed and its offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r       MessageReader
	workers int
	log     logrus.FieldLogger
}

func NewConsumer(brokers []string, group, topic string, workers int, log logrus.FieldLogger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return NewConsumerWithReader(r, workers, log.WithFields(logrus.Fields{"group": group, "topic": topic}))
}

func NewConsumerWithReader(r MessageReader, workers int, log logrus.FieldLogger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, log: log}
}

// Start fetches messages and hands them to the workers until ctx is
// cancelled. Messages that share a key always go to the same worker, so they
// are handled in the order they were fetched. A message is committed only
// after h succeeds; failures are logged and left uncommitted.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	lanes := make([]chan kafka.Message, c.workers)
	g, gctx := errgroup.WithContext(ctx)

	for i := range lanes {
		lane := make(chan kafka.Message, 4)
		lanes[i] = lane
		g.Go(func() error {
			for m := range lane {
				if err := h(gctx, m); err != nil {
					c.log.WithError(err).WithField("offset", m.Offset).Error("handle message")
					continue
				}
				if err := c.r.CommitMessages(gctx, m); err != nil {
					c.log.WithError(err).WithField("offset", m.Offset).Error("commit message")
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, lane := range lanes {
				close(lane)
			}
		}()
		for {
			m, err := c.r.FetchMessage(gctx)
			if err != nil {
				if gctx.Err() != nil || errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			select {
			case lanes[c.lane(m)] <- m:
			case <-gctx.Done():
				return nil
			}
		}
	})

	return g.Wait()
}

// lane picks the worker for m by its key. Keyless messages stay with their
// partition.
func (c *Consumer) lane(m kafka.Message) int {
	if len(m.Key) == 0 {
		return m.Partition % c.workers
	}
	h := fnv.New32a()
	_, _ = h.Write(m.Key)
	return int(h.Sum32() % uint32(c.workers))
}
