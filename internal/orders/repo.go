package orders

import (
	"context"

	"github.com/ariefcatur/go-inventory-orders.git/internal/paging"
	"github.com/ariefcatur/go-inventory-orders.git/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

type Repo struct{ DB postgres.DBTX }

const orderColumns = `o.id, o.uuid, o.student_id, o.product_id, o.quantity, o.total_price, o.created_at, o.updated_at`

const viewSelect = `SELECT ` + orderColumns + `, u.name, p.name, c.name
	FROM order_transactions o
	JOIN users u ON u.id = o.student_id
	JOIN products p ON p.id = o.product_id
	JOIN categories c ON c.id = p.category_id`

func scanOrder(row pgx.Row, extra ...any) (Order, error) {
	var o Order
	dest := []any{&o.ID, &o.UUID, &o.StudentID, &o.ProductID, &o.Quantity, &o.TotalPrice, &o.CreatedAt, &o.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return o, err
}

func scanView(row pgx.Row) (OrderView, error) {
	var v OrderView
	o, err := scanOrder(row, &v.StudentName, &v.ProductName, &v.CategoryName)
	v.Order = o
	return v, err
}

func collectViews(rows pgx.Rows) ([]OrderView, error) {
	defer rows.Close()
	var out []OrderView
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// LockByUUID loads the order and holds a row lock on it until the
// surrounding transaction ends.
func (r *Repo) LockByUUID(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := scanOrder(r.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM order_transactions o WHERE o.uuid=$1 FOR UPDATE`, id))
	if postgres.IsNoRows(err) {
		return Order{}, ErrOrderNotFound
	}
	return o, errors.Wrap(err, "lock order")
}

func (r *Repo) Insert(ctx context.Context, o *Order) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO order_transactions(uuid, student_id, product_id, quantity, total_price)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id, created_at, updated_at`,
		o.UUID, o.StudentID, o.ProductID, o.Quantity, o.TotalPrice,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	return errors.Wrap(err, "insert order")
}

// Update rewrites product, quantity and total price. The owning student is
// never changed.
func (r *Repo) Update(ctx context.Context, o *Order) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE order_transactions SET product_id=$2, quantity=$3, total_price=$4, updated_at=NOW()
		WHERE uuid=$1
		RETURNING updated_at`,
		o.UUID, o.ProductID, o.Quantity, o.TotalPrice,
	).Scan(&o.UpdatedAt)
	if postgres.IsNoRows(err) {
		return ErrOrderNotFound
	}
	return errors.Wrap(err, "update order")
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM order_transactions WHERE uuid=$1`, id)
	if err != nil {
		return errors.Wrap(err, "delete order")
	}
	if ct.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *Repo) ViewByUUID(ctx context.Context, id uuid.UUID) (OrderView, error) {
	v, err := scanView(r.DB.QueryRow(ctx, viewSelect+` WHERE o.uuid=$1`, id))
	if postgres.IsNoRows(err) {
		return OrderView{}, ErrOrderNotFound
	}
	return v, errors.Wrap(err, "select order")
}

func (r *Repo) ListByStudent(ctx context.Context, studentID int64) ([]OrderView, error) {
	rows, err := r.DB.Query(ctx, viewSelect+` WHERE o.student_id=$1 ORDER BY o.created_at DESC`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "select student orders")
	}
	return collectViews(rows)
}

// UUIDsByProduct lists the orders placed on the product.
func (r *Repo) UUIDsByProduct(ctx context.Context, productID int64) ([]uuid.UUID, error) {
	return r.uuids(ctx, `SELECT uuid FROM order_transactions WHERE product_id=$1`, productID)
}

// UUIDsByCategory lists the orders placed on products of the category.
func (r *Repo) UUIDsByCategory(ctx context.Context, categoryID int64) ([]uuid.UUID, error) {
	return r.uuids(ctx, `
		SELECT o.uuid FROM order_transactions o JOIN products p ON p.id = o.product_id
		WHERE p.category_id=$1`, categoryID)
}

func (r *Repo) uuids(ctx context.Context, q string, arg int64) ([]uuid.UUID, error) {
	rows, err := r.DB.Query(ctx, q, arg)
	if err != nil {
		return nil, errors.Wrap(err, "select order uuids")
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	return ids, errors.Wrap(err, "scan order uuids")
}

// List returns orders newest first, filtered by product name. Without
// pagination only the newest page is returned.
func (r *Repo) List(ctx context.Context, p paging.Params) (paging.Page[OrderView], error) {
	page := paging.Page[OrderView]{CurrentPage: p.CurrentPage(), Paginated: p.Paginate}
	pattern := p.Pattern()

	if err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM order_transactions o JOIN products p ON p.id = o.product_id
		WHERE ($1 = '' OR p.name ILIKE $1)`, pattern,
	).Scan(&page.Total); err != nil {
		return page, errors.Wrap(err, "count orders")
	}

	rows, err := r.DB.Query(ctx,
		viewSelect+` WHERE ($1 = '' OR p.name ILIKE $1) ORDER BY o.created_at DESC LIMIT $2 OFFSET $3`,
		pattern, paging.PerPage, p.Offset())
	if err != nil {
		return page, errors.Wrap(err, "select orders")
	}
	page.Items, err = collectViews(rows)
	return page, err
}
