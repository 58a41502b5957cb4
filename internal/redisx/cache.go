package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// JSONCache stores values of T as JSON under fmt.Sprintf(Key, id).
type JSONCache[T any] struct {
	Client redis.Cmdable
	Key    string
	TTL    time.Duration
}

func (c *JSONCache[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var v T
	b, err := c.Client.Get(ctx, fmt.Sprintf(c.Key, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, errors.Wrap(err, "cache get")
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, false, errors.Wrap(err, "cache decode")
	}
	return v, true, nil
}

func (c *JSONCache[T]) Set(ctx context.Context, id string, v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "cache encode")
	}
	return errors.Wrap(c.Client.Set(ctx, fmt.Sprintf(c.Key, id), b, c.TTL).Err(), "cache set")
}

func (c *JSONCache[T]) Delete(ctx context.Context, id string) error {
	return errors.Wrap(c.Client.Del(ctx, fmt.Sprintf(c.Key, id)).Err(), "cache delete")
}
