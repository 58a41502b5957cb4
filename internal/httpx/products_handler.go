package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-inventory-orders.git/internal/inventory"
	"github.com/ariefcatur/go-inventory-orders.git/internal/money"
	"github.com/ariefcatur/go-inventory-orders.git/internal/paging"
	"github.com/ariefcatur/go-inventory-orders.git/internal/redisx"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	maxImageSize = 2 << 20
	maxFormSize  = 8 << 20
)

var (
	imageExts  = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".webp": true}
	imageTypes = map[string]bool{"image/png": true, "image/jpeg": true, "image/webp": true}
)

type ProductService interface {
	List(ctx context.Context, p paging.Params) (paging.Page[inventory.ProductView], error)
	Get(ctx context.Context, id uuid.UUID) (inventory.ProductView, error)
	Create(ctx context.Context, in inventory.ProductInput, img inventory.Image) (inventory.ProductView, error)
	Update(ctx context.Context, id uuid.UUID, in inventory.ProductInput, img *inventory.Image) (inventory.ProductView, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type LowStockLister interface {
	List(ctx context.Context) ([]redisx.LowStockEntry, error)
}

type ProductsHandler struct {
	Products  ProductService
	LowStock  LowStockLister
	PublicURL string
	Log       logrus.FieldLogger
}

type productRequest struct {
	CategoryID  string `form:"category_id" validate:"required,number"`
	SupplierID  string `form:"supplier_id" validate:"required,number"`
	Name        string `form:"name" validate:"required,min=3,max=255"`
	Price       string `form:"price" validate:"required,number"`
	Quantity    string `form:"quantity" validate:"required,number"`
	Description string `form:"description" validate:"omitempty,min=3,max=255"`
}

// productBody is a product as listed: price formatted and image as a URL.
type productBody struct {
	inventory.ProductView
	Price string `json:"price"`
	Image string `json:"image"`
}

func (h *ProductsHandler) imageURL(path string) string {
	return strings.TrimRight(h.PublicURL, "/") + "/storage/" + path
}

func (h *ProductsHandler) body(p inventory.ProductView) productBody {
	return productBody{ProductView: p, Price: money.Format(p.Price), Image: h.imageURL(p.Image)}
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	page, err := h.Products.List(r.Context(), listParams(r))
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	if len(page.Items) == 0 {
		respond(w, http.StatusOK, "Products not available", nil, nil)
		return
	}
	out := make([]productBody, 0, len(page.Items))
	for _, p := range page.Items {
		out = append(out, h.body(p))
	}
	respond(w, http.StatusOK, "List of products", out,
		withPage(meta{"total_products": len(out)}, page.Meta()))
}

func (h *ProductsHandler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "uuid", inventory.ErrProductNotFound)
	if err == nil {
		var p inventory.ProductView
		if p, err = h.Products.Get(r.Context(), id); err == nil {
			respond(w, http.StatusOK, "Product found", h.body(p), nil)
			return
		}
	}
	fail(w, h.Log, err)
}

func (h *ProductsHandler) store(w http.ResponseWriter, r *http.Request) {
	in, img, err := h.parse(r, true)
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	p, err := h.Products.Create(r.Context(), in, *img)
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusCreated, "Product created successfully", p.Product, h.editMeta(p))
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "uuid", inventory.ErrProductNotFound)
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	in, img, err := h.parse(r, false)
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	p, err := h.Products.Update(r.Context(), id, in, img)
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusOK, "Product updated successfully", p.Product, h.editMeta(p))
}

func (h *ProductsHandler) destroy(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "uuid", inventory.ErrProductNotFound)
	if err == nil {
		err = h.Products.Delete(r.Context(), id)
	}
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusOK, "Product deleted successfully", nil, nil)
}

func (h *ProductsHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	entries, err := h.LowStock.List(r.Context())
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusOK, "Low stock products", entries, meta{"total_products": len(entries)})
}

func (h *ProductsHandler) editMeta(p inventory.ProductView) meta {
	return meta{
		"category_name": p.CategoryName,
		"supplier_name": p.SupplierName,
		"image_url":     h.imageURL(p.Image),
	}
}

// parse reads the multipart product form. The image is mandatory only when
// requireImage is set; otherwise a nil image keeps the current one.
func (h *ProductsHandler) parse(r *http.Request, requireImage bool) (inventory.ProductInput, *inventory.Image, error) {
	if err := r.ParseMultipartForm(maxFormSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return inventory.ProductInput{}, nil, invalid("image", "The request must be a valid multipart form.")
	}
	req := productRequest{
		CategoryID:  r.FormValue("category_id"),
		SupplierID:  r.FormValue("supplier_id"),
		Name:        r.FormValue("name"),
		Price:       r.FormValue("price"),
		Quantity:    r.FormValue("quantity"),
		Description: r.FormValue("description"),
	}
	verr := check(req)
	img, ierr := readImage(r, requireImage)

	// report every bad field at once
	fields := fieldErrors{}
	for _, err := range []error{verr, ierr} {
		var ve *validationError
		if err == nil {
			continue
		}
		if !errors.As(err, &ve) {
			return inventory.ProductInput{}, nil, err
		}
		for k, v := range ve.fields {
			fields[k] = append(fields[k], v...)
		}
	}

	in := inventory.ProductInput{Name: req.Name, Description: req.Description}
	in.CategoryID = fields.bounded("category_id", req.CategoryID, math.MaxInt64)
	in.SupplierID = fields.bounded("supplier_id", req.SupplierID, math.MaxInt64)
	in.Price = fields.bounded("price", req.Price, inventory.MaxPrice)
	in.Quantity = int(fields.bounded("quantity", req.Quantity, inventory.MaxQuantity))
	if len(fields) > 0 {
		return inventory.ProductInput{}, nil, &validationError{fields: fields}
	}
	return in, img, nil
}

// bounded parses a digit string that already passed validation. Values that
// overflow or exceed max are recorded as a field error. Fields that already
// failed are skipped.
func (fe fieldErrors) bounded(field, raw string, limit int64) int64 {
	if _, bad := fe[field]; bad {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n > limit {
		fe[field] = append(fe[field], fmt.Sprintf("The %s field must not be greater than %d.", strings.ReplaceAll(field, "_", " "), limit))
		return 0
	}
	return n
}

func readImage(r *http.Request, required bool) (*inventory.Image, error) {
	f, fh, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		if required {
			return nil, invalid("image", "The image field is required.")
		}
		return nil, nil
	}
	if err != nil {
		return nil, invalid("image", "The image failed to upload.")
	}
	defer f.Close()

	if fh.Size > maxImageSize {
		return nil, invalid("image", "The image field must not be greater than 2048 kilobytes.")
	}
	if !imageExts[strings.ToLower(filepath.Ext(fh.Filename))] {
		return nil, invalid("image", "The image field must be a file of type: png, jpg, jpeg, webp.")
	}
	body, err := sniffImage(f)
	if err != nil {
		return nil, err
	}
	return &inventory.Image{Filename: fh.Filename, Body: body}, nil
}

// sniffImage checks the content type and returns the whole file.
func sniffImage(f multipart.File) (io.Reader, error) {
	b, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "read image")
	}
	if !imageTypes[http.DetectContentType(b)] {
		return nil, invalid("image", "The image field must be an image.")
	}
	return bytes.NewReader(b), nil
}
