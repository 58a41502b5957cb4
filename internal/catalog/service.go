package catalog

import (
	"context"

	"github.com/ariefcatur/go-inventory-orders.git/internal/paging"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type CategoryStore interface {
	List(ctx context.Context, p paging.Params) (paging.Page[Category], error)
	GetByUUID(ctx context.Context, id uuid.UUID) (Category, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type SupplierStore interface {
	List(ctx context.Context, p paging.Params) (paging.Page[Supplier], error)
	GetByUUID(ctx context.Context, id uuid.UUID) (Supplier, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, s *Supplier) error
	Update(ctx context.Context, s *Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RenameListener hears about renamed categories.
type RenameListener interface {
	CategoryRenamed(ctx context.Context, categoryID int64)
}

type Service struct {
	Categories CategoryStore
	Suppliers  SupplierStore
	Renames    RenameListener
}

func (s *Service) ListCategories(ctx context.Context, p paging.Params) (paging.Page[Category], error) {
	// the category index is always paginated
	p.Paginate = true
	return s.Categories.List(ctx, p)
}

func (s *Service) Category(ctx context.Context, id uuid.UUID) (Category, error) {
	return s.Categories.GetByUUID(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, name string) (Category, error) {
	c := Category{UUID: uuid.New(), Name: name, Slug: slug.Make(name)}
	if err := s.Categories.Create(ctx, &c); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, name string) (Category, error) {
	c := Category{UUID: id, Name: name, Slug: slug.Make(name)}
	if err := s.Categories.Update(ctx, &c); err != nil {
		return Category{}, err
	}
	if s.Renames != nil {
		s.Renames.CategoryRenamed(ctx, c.ID)
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.Categories.Delete(ctx, id)
}

func (s *Service) CategoryExists(ctx context.Context, id int64) (bool, error) {
	return s.Categories.Exists(ctx, id)
}

func (s *Service) ListSuppliers(ctx context.Context, p paging.Params) (paging.Page[Supplier], error) {
	return s.Suppliers.List(ctx, p)
}

func (s *Service) Supplier(ctx context.Context, id uuid.UUID) (Supplier, error) {
	return s.Suppliers.GetByUUID(ctx, id)
}

func (s *Service) CreateSupplier(ctx context.Context, in SupplierInput) (Supplier, error) {
	sp := newSupplier(uuid.New(), in)
	if err := s.Suppliers.Create(ctx, &sp); err != nil {
		return Supplier{}, err
	}
	return sp, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id uuid.UUID, in SupplierInput) (Supplier, error) {
	sp := newSupplier(id, in)
	if err := s.Suppliers.Update(ctx, &sp); err != nil {
		return Supplier{}, err
	}
	return sp, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	return s.Suppliers.Delete(ctx, id)
}

func (s *Service) SupplierExists(ctx context.Context, id int64) (bool, error) {
	return s.Suppliers.Exists(ctx, id)
}

func newSupplier(id uuid.UUID, in SupplierInput) Supplier {
	return Supplier{
		UUID:    id,
		Code:    in.Code,
		Name:    in.Name,
		Slug:    slug.Make(in.Name),
		Address: in.Address,
		Phone:   in.Phone,
		Email:   in.Email,
	}
}
