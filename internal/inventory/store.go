package inventory

import (
	"context"

	"github.com/ariefcatur/go-inventory-orders.git/internal/paging"
	"github.com/ariefcatur/go-inventory-orders.git/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Store reads and writes products. Bound to a pool it runs standalone; bound
// to a pgx.Tx it takes part in the caller's unit of work.
type Store struct{ DB postgres.DBTX }

const productColumns = `p.id, p.uuid, p.category_id, p.supplier_id, p.name, p.slug, p.image,
	p.price, p.quantity, p.description, p.stock_version, p.created_at, p.updated_at`

func scanProduct(row pgx.Row, extra ...any) (Product, error) {
	var p Product
	dest := []any{&p.ID, &p.UUID, &p.CategoryID, &p.SupplierID, &p.Name, &p.Slug, &p.Image,
		&p.Price, &p.Quantity, &p.Description, &p.StockVersion, &p.CreatedAt, &p.UpdatedAt}
	err := row.Scan(append(dest, extra...)...)
	return p, err
}

func scanView(row pgx.Row) (ProductView, error) {
	var v ProductView
	p, err := scanProduct(row, &v.CategoryName, &v.SupplierName)
	v.Product = p
	return v, err
}

const viewFrom = ` FROM products p
	JOIN categories c ON c.id = p.category_id
	JOIN suppliers s ON s.id = p.supplier_id`

func (s *Store) GetByUUID(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := scanProduct(s.DB.QueryRow(ctx, `SELECT `+productColumns+` FROM products p WHERE p.uuid=$1`, id))
	if postgres.IsNoRows(err) {
		return Product{}, ErrProductNotFound
	}
	return p, errors.Wrap(err, "select product")
}

func (s *Store) ViewByUUID(ctx context.Context, id uuid.UUID) (ProductView, error) {
	v, err := scanView(s.DB.QueryRow(ctx,
		`SELECT `+productColumns+`, c.name, s.name`+viewFrom+` WHERE p.uuid=$1`, id))
	if postgres.IsNoRows(err) {
		return ProductView{}, ErrProductNotFound
	}
	return v, errors.Wrap(err, "select product view")
}

func (s *Store) List(ctx context.Context, p paging.Params) (paging.Page[ProductView], error) {
	page := paging.Page[ProductView]{CurrentPage: p.CurrentPage(), Paginated: p.Paginate}
	pattern := p.Pattern()

	if err := s.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM products p WHERE ($1 = '' OR p.name ILIKE $1)`, pattern,
	).Scan(&page.Total); err != nil {
		return page, errors.Wrap(err, "count products")
	}

	q := `SELECT ` + productColumns + `, c.name, s.name` + viewFrom +
		` WHERE ($1 = '' OR p.name ILIKE $1) ORDER BY p.created_at DESC`
	args := []any{pattern}
	if p.Paginate {
		q += ` LIMIT $2 OFFSET $3`
		args = append(args, paging.PerPage, p.Offset())
	}
	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return page, errors.Wrap(err, "select products")
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return page, errors.Wrap(err, "scan product")
		}
		page.Items = append(page.Items, v)
	}
	return page, rows.Err()
}

func (s *Store) Create(ctx context.Context, p *Product) error {
	err := s.DB.QueryRow(ctx, `
		INSERT INTO products(uuid, category_id, supplier_id, name, slug, image, price, quantity, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, stock_version, created_at, updated_at`,
		p.UUID, p.CategoryID, p.SupplierID, p.Name, p.Slug, p.Image, p.Price, p.Quantity, p.Description,
	).Scan(&p.ID, &p.StockVersion, &p.CreatedAt, &p.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrDuplicateProduct
	}
	return errors.Wrap(err, "insert product")
}

func (s *Store) Update(ctx context.Context, p *Product) error {
	err := s.DB.QueryRow(ctx, `
		UPDATE products
		SET category_id=$2, supplier_id=$3, name=$4, slug=$5, image=$6, price=$7, quantity=$8,
		    description=$9, stock_version=stock_version+1, updated_at=NOW()
		WHERE uuid=$1
		RETURNING id, stock_version, created_at, updated_at`,
		p.UUID, p.CategoryID, p.SupplierID, p.Name, p.Slug, p.Image, p.Price, p.Quantity, p.Description,
	).Scan(&p.ID, &p.StockVersion, &p.CreatedAt, &p.UpdatedAt)
	switch {
	case postgres.IsNoRows(err):
		return ErrProductNotFound
	case postgres.IsUniqueViolation(err):
		return ErrDuplicateProduct
	}
	return errors.Wrap(err, "update product")
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM products WHERE uuid=$1`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// LockByID loads the product and holds a row lock on it until the
// surrounding transaction ends. Only meaningful when DB is a pgx.Tx.
func (s *Store) LockByID(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(s.DB.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.id=$1 FOR UPDATE`, id))
	if postgres.IsNoRows(err) {
		return Product{}, ErrProductNotFound
	}
	return p, errors.Wrap(err, "lock product")
}

// Decrement subtracts amount from the product's stock and bumps its stock
// version. It does not check the floor; callers verify availability under
// LockByID first. The table's CHECK constraint still rejects a negative result.
func (s *Store) Decrement(ctx context.Context, id int64, amount int) error {
	return s.adjust(ctx, id, -amount)
}

func (s *Store) Increment(ctx context.Context, id int64, amount int) error {
	return s.adjust(ctx, id, amount)
}

func (s *Store) adjust(ctx context.Context, id int64, delta int) error {
	ct, err := s.DB.Exec(ctx, `
		UPDATE products SET quantity = quantity + $2, stock_version = stock_version + 1, updated_at=NOW()
		WHERE id=$1`, id, delta)
	if err != nil {
		return errors.Wrap(err, "adjust stock")
	}
	if ct.RowsAffected() != 1 {
		return ErrProductNotFound
	}
	return nil
}
