package redisx

import "time"

const (
	// Cached order view: order:view:{order_uuid} -> OrderView json
	KeyOrderView = "order:view:%s"

	// Fixed window counter: ratelimit:{scope}:{client}
	KeyRateLimit = "ratelimit:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Products at or under the low stock threshold, scored by stock.
	KeyLowStock = "stock:low"

	// Last applied stock version per product: stock:version {product_id} -> version
	KeyStockVersion = "stock:version"
)

var (
	TTLOrderView = 5 * time.Minute
	TTLDedup     = 48 * time.Hour
)
