package redisx

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type LowStockEntry struct {
	ProductID int64 `json:"product_id"`
	Stock     int   `json:"stock"`
}

// LowStockIndex is a sorted set of product ids scored by remaining stock.
// Each product also records the stock version last applied, so a late event
// cannot overwrite a newer one.
type LowStockIndex struct {
	Client redis.Cmdable
}

// KEYS[1] version hash, KEYS[2] low stock set.
// ARGV: product id, version, stock, "1" to index or "0" to drop.
var applyStock = redis.NewScript(`
local cur = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '-1')
if tonumber(ARGV[2]) < cur then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
if ARGV[4] == '1' then
  redis.call('ZADD', KEYS[2], ARGV[3], ARGV[1])
else
  redis.call('ZREM', KEYS[2], ARGV[1])
end
return 1
`)

// Apply indexes the product when low is set and drops it otherwise. It
// reports false when a newer version was already applied.
func (x *LowStockIndex) Apply(ctx context.Context, productID, version int64, stock int, low bool) (bool, error) {
	flag := "0"
	if low {
		flag = "1"
	}
	n, err := applyStock.Run(ctx, x.Client, []string{KeyStockVersion, KeyLowStock},
		productID, version, stock, flag).Int()
	if err != nil {
		return false, errors.Wrap(err, "apply low stock")
	}
	return n == 1, nil
}

// List returns the indexed products, lowest stock first.
func (x *LowStockIndex) List(ctx context.Context) ([]LowStockEntry, error) {
	zs, err := x.Client.ZRangeWithScores(ctx, KeyLowStock, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "zrange low stock")
	}
	out := make([]LowStockEntry, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, LowStockEntry{ProductID: id, Stock: int(z.Score)})
	}
	return out, nil
}
