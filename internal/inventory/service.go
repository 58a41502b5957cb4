package inventory

import (
	"context"
	"io"

	"github.com/ariefcatur/go-inventory-orders.git/internal/paging"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
)

type ProductStore interface {
	GetByUUID(ctx context.Context, id uuid.UUID) (Product, error)
	ViewByUUID(ctx context.Context, id uuid.UUID) (ProductView, error)
	List(ctx context.Context, p paging.Params) (paging.Page[ProductView], error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type References interface {
	CategoryExists(ctx context.Context, id int64) (bool, error)
	SupplierExists(ctx context.Context, id int64) (bool, error)
}

type ImageStore interface {
	Put(dir, filename string, body io.Reader) (string, error)
	Remove(path string) error
}

// StockNotifier hears about saved product edits. Edits may overwrite the
// quantity and rename the product.
type StockNotifier interface {
	StockChanged(ctx context.Context, p Product)
	ProductRemoved(ctx context.Context, p Product)
}

const imageDir = "images"

// Service implements the product edit operations. Stock levels only move
// through the order engine; product edits may overwrite the quantity.
type Service struct {
	Products ProductStore
	Refs     References
	Images   ImageStore
	Events   StockNotifier
	Log      logrus.FieldLogger
}

func (s *Service) List(ctx context.Context, p paging.Params) (paging.Page[ProductView], error) {
	return s.Products.List(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (ProductView, error) {
	return s.Products.ViewByUUID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in ProductInput, img Image) (ProductView, error) {
	if err := s.checkRefs(ctx, in); err != nil {
		return ProductView{}, err
	}
	path, err := s.Images.Put(imageDir, img.Filename, img.Body)
	if err != nil {
		return ProductView{}, err
	}

	p := Product{UUID: uuid.New(), Image: path}
	apply(&p, in)
	if err := s.Products.Create(ctx, &p); err != nil {
		s.removeImage(path)
		return ProductView{}, err
	}
	s.stockChanged(ctx, p)
	return s.Products.ViewByUUID(ctx, p.UUID)
}

// Update rewrites the product. A nil img keeps the current image; otherwise
// the new image replaces it and the old file is removed once the row is saved.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in ProductInput, img *Image) (ProductView, error) {
	p, err := s.Products.GetByUUID(ctx, id)
	if err != nil {
		return ProductView{}, err
	}
	if err := s.checkRefs(ctx, in); err != nil {
		return ProductView{}, err
	}

	oldImage := p.Image
	if img != nil {
		path, err := s.Images.Put(imageDir, img.Filename, img.Body)
		if err != nil {
			return ProductView{}, err
		}
		p.Image = path
	}
	apply(&p, in)
	if err := s.Products.Update(ctx, &p); err != nil {
		if img != nil {
			s.removeImage(p.Image)
		}
		return ProductView{}, err
	}
	if img != nil {
		s.removeImage(oldImage)
	}
	s.stockChanged(ctx, p)
	return s.Products.ViewByUUID(ctx, p.UUID)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.Products.GetByUUID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Products.Delete(ctx, id); err != nil {
		return err
	}
	s.removeImage(p.Image)
	if s.Events != nil {
		s.Events.ProductRemoved(ctx, p)
	}
	return nil
}

func (s *Service) stockChanged(ctx context.Context, p Product) {
	if s.Events != nil {
		s.Events.StockChanged(ctx, p)
	}
}

func (s *Service) checkRefs(ctx context.Context, in ProductInput) error {
	ok, err := s.Refs.CategoryExists(ctx, in.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownCategory
	}
	ok, err = s.Refs.SupplierExists(ctx, in.SupplierID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownSupplier
	}
	return nil
}

func (s *Service) removeImage(path string) {
	if path == "" {
		return
	}
	if err := s.Images.Remove(path); err != nil {
		s.Log.WithError(err).WithField("image", path).Warn("remove image")
	}
}

// apply copies the editable fields; the slug always follows the name.
func apply(p *Product, in ProductInput) {
	p.CategoryID = in.CategoryID
	p.SupplierID = in.SupplierID
	p.Name = in.Name
	p.Slug = slug.Make(in.Name)
	p.Price = in.Price
	p.Quantity = in.Quantity
	p.Description = in.Description
}
