package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-inventory-orders.git/internal/catalog"
	"github.com/ariefcatur/go-inventory-orders.git/internal/paging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CatalogService interface {
	ListCategories(ctx context.Context, p paging.Params) (paging.Page[catalog.Category], error)
	Category(ctx context.Context, id uuid.UUID) (catalog.Category, error)
	CreateCategory(ctx context.Context, name string) (catalog.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name string) (catalog.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListSuppliers(ctx context.Context, p paging.Params) (paging.Page[catalog.Supplier], error)
	Supplier(ctx context.Context, id uuid.UUID) (catalog.Supplier, error)
	CreateSupplier(ctx context.Context, in catalog.SupplierInput) (catalog.Supplier, error)
	UpdateSupplier(ctx context.Context, id uuid.UUID, in catalog.SupplierInput) (catalog.Supplier, error)
	DeleteSupplier(ctx context.Context, id uuid.UUID) error
}

type CatalogHandler struct {
	Catalog CatalogService
	Log     logrus.FieldLogger
}

type categoryRequest struct {
	Name string `json:"name" validate:"required,min=3,max=255"`
}

type supplierRequest struct {
	Code    string `json:"code" validate:"required,len=3,numeric"`
	Name    string `json:"name" validate:"required,min=3,max=255"`
	Address string `json:"address" validate:"required,min=3,max=255"`
	Phone   string `json:"phone" validate:"required,numeric,max=32"`
	Email   string `json:"email" validate:"required,email,max=255"`
}

func (req supplierRequest) input() catalog.SupplierInput {
	return catalog.SupplierInput{Code: req.Code, Name: req.Name, Address: req.Address, Phone: req.Phone, Email: req.Email}
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	page, err := h.Catalog.ListCategories(r.Context(), listParams(r))
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	if len(page.Items) == 0 {
		respond(w, http.StatusOK, "Categories not available", nil, nil)
		return
	}
	respond(w, http.StatusOK, "List of categories", page.Items,
		withPage(meta{"total_categories": len(page.Items)}, page.Meta()))
}

func (h *CatalogHandler) showCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "uuid", catalog.ErrCategoryNotFound)
	if err == nil {
		var c catalog.Category
		if c, err = h.Catalog.Category(r.Context(), id); err == nil {
			respond(w, http.StatusOK, "Category found", c, meta{"updated_at": c.UpdatedAt})
			return
		}
	}
	fail(w, h.Log, err)
}

func (h *CatalogHandler) storeCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.Log, err)
		return
	}
	c, err := h.Catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusCreated, "Category created", c, nil)
}

func (h *CatalogHandler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "uuid", catalog.ErrCategoryNotFound)
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.Log, err)
		return
	}
	c, err := h.Catalog.UpdateCategory(r.Context(), id, req.Name)
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusOK, "Category updated", c, nil)
}

func (h *CatalogHandler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "uuid", catalog.ErrCategoryNotFound)
	if err == nil {
		err = h.Catalog.DeleteCategory(r.Context(), id)
	}
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusOK, "Category deleted", nil, nil)
}

func (h *CatalogHandler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	page, err := h.Catalog.ListSuppliers(r.Context(), listParams(r))
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	if len(page.Items) == 0 {
		respond(w, http.StatusOK, "Suppliers not available", nil, nil)
		return
	}
	respond(w, http.StatusOK, "List of suppliers", page.Items,
		withPage(meta{"total_suppliers": len(page.Items)}, page.Meta()))
}

func (h *CatalogHandler) showSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "uuid", catalog.ErrSupplierNotFound)
	if err == nil {
		var s catalog.Supplier
		if s, err = h.Catalog.Supplier(r.Context(), id); err == nil {
			respond(w, http.StatusOK, "Supplier found", s, nil)
			return
		}
	}
	fail(w, h.Log, err)
}

func (h *CatalogHandler) storeSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.Log, err)
		return
	}
	s, err := h.Catalog.CreateSupplier(r.Context(), req.input())
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusCreated, "Supplier created", s, nil)
}

func (h *CatalogHandler) updateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "uuid", catalog.ErrSupplierNotFound)
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	var req supplierRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.Log, err)
		return
	}
	s, err := h.Catalog.UpdateSupplier(r.Context(), id, req.input())
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusOK, "Supplier updated", s, nil)
}

func (h *CatalogHandler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "uuid", catalog.ErrSupplierNotFound)
	if err == nil {
		err = h.Catalog.DeleteSupplier(r.Context(), id)
	}
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusOK, "Supplier deleted", nil, nil)
}
