package catalog

import (
	"context"

	"github.com/ariefcatur/go-inventory-orders.git/internal/paging"
	"github.com/ariefcatur/go-inventory-orders.git/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

type SupplierRepo struct{ DB postgres.DBTX }

const supplierColumns = `id, uuid, code, name, slug, address, phone, email, created_at, updated_at`

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.UUID, &s.Code, &s.Name, &s.Slug, &s.Address, &s.Phone, &s.Email, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *SupplierRepo) List(ctx context.Context, p paging.Params) (paging.Page[Supplier], error) {
	page := paging.Page[Supplier]{CurrentPage: p.CurrentPage(), Paginated: p.Paginate}
	pattern := p.Pattern()

	if err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM suppliers WHERE ($1 = '' OR name ILIKE $1)`, pattern,
	).Scan(&page.Total); err != nil {
		return page, errors.Wrap(err, "count suppliers")
	}

	q := `SELECT ` + supplierColumns + ` FROM suppliers WHERE ($1 = '' OR name ILIKE $1) ORDER BY created_at DESC`
	args := []any{pattern}
	if p.Paginate {
		q += ` LIMIT $2 OFFSET $3`
		args = append(args, paging.PerPage, p.Offset())
	}
	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return page, errors.Wrap(err, "select suppliers")
	}
	defer rows.Close()
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return page, errors.Wrap(err, "scan supplier")
		}
		page.Items = append(page.Items, s)
	}
	return page, rows.Err()
}

func (r *SupplierRepo) GetByUUID(ctx context.Context, id uuid.UUID) (Supplier, error) {
	s, err := scanSupplier(r.DB.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE uuid=$1`, id))
	if postgres.IsNoRows(err) {
		return Supplier{}, ErrSupplierNotFound
	}
	return s, errors.Wrap(err, "select supplier")
}

func (r *SupplierRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM suppliers WHERE id=$1)`, id).Scan(&ok)
	return ok, errors.Wrap(err, "supplier exists")
}

func (r *SupplierRepo) Create(ctx context.Context, s *Supplier) error {
	err := r.DB.QueryRow(ctx, `
		INSERT INTO suppliers(uuid, code, name, slug, address, phone, email)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at`,
		s.UUID, s.Code, s.Name, s.Slug, s.Address, s.Phone, s.Email,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrDuplicateSupplier
	}
	return errors.Wrap(err, "insert supplier")
}

func (r *SupplierRepo) Update(ctx context.Context, s *Supplier) error {
	err := r.DB.QueryRow(ctx, `
		UPDATE suppliers SET code=$2, name=$3, slug=$4, address=$5, phone=$6, email=$7, updated_at=NOW()
		WHERE uuid=$1
		RETURNING id, created_at, updated_at`,
		s.UUID, s.Code, s.Name, s.Slug, s.Address, s.Phone, s.Email,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	switch {
	case postgres.IsNoRows(err):
		return ErrSupplierNotFound
	case postgres.IsUniqueViolation(err):
		return ErrDuplicateSupplier
	}
	return errors.Wrap(err, "update supplier")
}

func (r *SupplierRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM suppliers WHERE uuid=$1`, id)
	if err != nil {
		return errors.Wrap(err, "delete supplier")
	}
	if ct.RowsAffected() == 0 {
		return ErrSupplierNotFound
	}
	return nil
}
