package catalog

import (
	"context"

	"github.com/ariefcatur/go-inventory-orders.git/internal/paging"
	"github.com/ariefcatur/go-inventory-orders.git/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

type CategoryRepo struct{ DB postgres.DBTX }

const categoryColumns = `id, uuid, name, slug, created_at, updated_at`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.UUID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *CategoryRepo) List(ctx context.Context, p paging.Params) (paging.Page[Category], error) {
	page := paging.Page[Category]{CurrentPage: p.CurrentPage(), Paginated: p.Paginate}
	pattern := p.Pattern()

	if err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM categories WHERE ($1 = '' OR name ILIKE $1)`, pattern,
	).Scan(&page.Total); err != nil {
		return page, errors.Wrap(err, "count categories")
	}

	q := `SELECT ` + categoryColumns + ` FROM categories WHERE ($1 = '' OR name ILIKE $1) ORDER BY created_at DESC`
	args := []any{pattern}
	if p.Paginate {
		q += ` LIMIT $2 OFFSET $3`
		args = append(args, paging.PerPage, p.Offset())
	}
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return page, errors.Wrap(err, "select categories")
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return page, errors.Wrap(err, "scan category")
		}
		page.Items = append(page.Items, c)
	}
	return page, rows.Err()
}

func (r *CategoryRepo) GetByUUID(ctx context.Context, id uuid.UUID) (Category, error) {
	c, err := scanCategory(r.DB.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE uuid=$1`, id))
	if postgres.IsNoRows(err) {
		return Category{}, ErrCategoryNotFound
	}
	return c, errors.Wrap(err, "select category")
}

func (r *CategoryRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id=$1)`, id).Scan(&ok)
	return ok, errors.Wrap(err, "category exists")
}

func (r *CategoryRepo) Create(ctx context.Context, c *Category) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO categories(uuid, name, slug) VALUES ($1,$2,$3)
		RETURNING id, created_at, updated_at`, c.UUID, c.Name, c.Slug,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrDuplicateCategory
	}
	return errors.Wrap(err, "insert category")
}

func (r *CategoryRepo) Update(ctx context.Context, c *Category) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE categories SET name=$2, slug=$3, updated_at=NOW() WHERE uuid=$1
		RETURNING id, created_at, updated_at`, c.UUID, c.Name, c.Slug,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	switch {
	case postgres.IsNoRows(err):
		return ErrCategoryNotFound
	case postgres.IsUniqueViolation(err):
		return ErrDuplicateCategory
	}
	return errors.Wrap(err, "update category")
}

func (r *CategoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM categories WHERE uuid=$1`, id)
	if err != nil {
		return errors.Wrap(err, "delete category")
	}
	if ct.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// EnsureByName inserts the category unless one with that name already exists.
func (r *CategoryRepo) EnsureByName(ctx context.Context, c *Category) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO categories(uuid, name, slug) VALUES ($1,$2,$3)
		ON CONFLICT (name) DO NOTHING`, c.UUID, c.Name, c.Slug)
	return errors.Wrap(err, "seed category")
}
