package orders

import (
	"context"

	"github.com/ariefcatur/go-inventory-orders.git/internal/inventory"
	"github.com/ariefcatur/go-inventory-orders.git/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductLocker interface {
	LockByID(ctx context.Context, id int64) (inventory.Product, error)
	Decrement(ctx context.Context, id int64, amount int) error
	Increment(ctx context.Context, id int64, amount int) error
}

type OrderWriter interface {
	LockByUUID(ctx context.Context, id uuid.UUID) (Order, error)
	Insert(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Tx exposes the stores that take part in one unit of work.
type Tx interface {
	Products() ProductLocker
	Orders() OrderWriter
}

// UnitOfWork runs fn atomically: every write made through tx is committed
// when fn returns nil and discarded when it returns an error.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type PgUnitOfWork struct{ Pool *pgxpool.Pool }

func (u *PgUnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return postgres.InTx(ctx, u.Pool, func(tx pgx.Tx) error {
		return fn(ctx, pgTx{tx: tx})
	})
}

type pgTx struct{ tx pgx.Tx }

func (t pgTx) Products() ProductLocker { return &inventory.Store{DB: t.tx} }
func (t pgTx) Orders() OrderWriter     { return &Repo{DB: t.tx} }
