package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-inventory-orders.git/internal/auth"
	"github.com/ariefcatur/go-inventory-orders.git/internal/money"
	"github.com/ariefcatur/go-inventory-orders.git/internal/orders"
	"github.com/ariefcatur/go-inventory-orders.git/internal/paging"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type OrderEngine interface {
	Create(ctx context.Context, caller auth.Identity, productID int64, quantity int) (orders.Result, error)
	Update(ctx context.Context, caller auth.Identity, orderUUID uuid.UUID, productID int64, quantity int) (orders.Result, error)
	Delete(ctx context.Context, caller auth.Identity, orderUUID uuid.UUID) error
	Get(ctx context.Context, caller auth.Identity, orderUUID uuid.UUID) (orders.OrderView, error)
	ListByStudent(ctx context.Context, caller auth.Identity, studentID int64) ([]orders.OrderView, int64, error)
	List(ctx context.Context, caller auth.Identity, p paging.Params) (paging.Page[orders.OrderView], error)
}

type TransactionsHandler struct {
	Engine OrderEngine
	Log    logrus.FieldLogger
}

type transactionRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type transactionBody struct {
	UUID       uuid.UUID `json:"uuid"`
	ProductID  int64     `json:"product_id"`
	Quantity   int       `json:"quantity"`
	TotalPrice string    `json:"total_price"`
}

type orderBody struct {
	orders.OrderView
	TotalPrice string `json:"total_price"`
}

type studentOrderBody struct {
	orders.OrderView
	FormattedTotalPrice string `json:"formatted_total_price"`
}

func (h *TransactionsHandler) index(w http.ResponseWriter, r *http.Request) {
	page, err := h.Engine.List(r.Context(), identity(r), listParams(r))
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	if len(page.Items) == 0 {
		respond(w, http.StatusOK, "Order Transaction not available", nil, nil)
		return
	}
	out := make([]orderBody, 0, len(page.Items))
	for _, v := range page.Items {
		out = append(out, orderBody{OrderView: v, TotalPrice: money.Format(v.TotalPrice)})
	}
	respond(w, http.StatusOK, "List of order", out, withPage(meta{"total_order": len(out)}, page.Meta()))
}

func (h *TransactionsHandler) store(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.Log, err)
		return
	}
	res, err := h.Engine.Create(r.Context(), identity(r), req.ProductID, req.Quantity)
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	h.result(w, res, http.StatusCreated, "Order Transaction created")
}

func (h *TransactionsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "uuid", orders.ErrOrderNotFound)
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		fail(w, h.Log, err)
		return
	}
	res, err := h.Engine.Update(r.Context(), identity(r), id, req.ProductID, req.Quantity)
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	h.result(w, res, http.StatusOK, "Order Transaction updated")
}

// result writes a create or update outcome. A stock rejection is a
// successful response carrying the reason in its metadata.
func (h *TransactionsHandler) result(w http.ResponseWriter, res orders.Result, code int, message string) {
	if res.Rejected() {
		respond(w, http.StatusOK, "Stock not available", nil, meta{
			"product_name":  res.Rejection.ProductName,
			"product_stock": res.Rejection.ProductStock,
			"request_stock": res.Rejection.RequestStock,
		})
		return
	}
	respond(w, code, message, transactionBody{
		UUID:       res.Order.UUID,
		ProductID:  res.Order.ProductID,
		Quantity:   res.Order.Quantity,
		TotalPrice: money.Format(res.Order.TotalPrice),
	}, meta{"product_name": res.Product.Name})
}

func (h *TransactionsHandler) show(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "uuid", orders.ErrOrderNotFound)
	if err == nil {
		var v orders.OrderView
		if v, err = h.Engine.Get(r.Context(), identity(r), id); err == nil {
			respond(w, http.StatusOK, "Order transaction found", orderBody{OrderView: v, TotalPrice: money.Format(v.TotalPrice)}, nil)
			return
		}
	}
	fail(w, h.Log, err)
}

// byStudent answers 401 to a foreign non-owner caller whether or not the
// student exists. An id that does not parse names no student.
func (h *TransactionsHandler) byStudent(w http.ResponseWriter, r *http.Request) {
	studentID, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	views, total, err := h.Engine.ListByStudent(r.Context(), identity(r), studentID)
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	out := make([]studentOrderBody, 0, len(views))
	for _, v := range views {
		out = append(out, studentOrderBody{OrderView: v, FormattedTotalPrice: money.Format(v.TotalPrice)})
	}
	respond(w, http.StatusOK, "Order transaction found", out, meta{"total_transactions": money.Format(total)})
}

func (h *TransactionsHandler) destroy(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "uuid", orders.ErrOrderNotFound)
	if err == nil {
		err = h.Engine.Delete(r.Context(), identity(r), id)
	}
	if err != nil {
		fail(w, h.Log, err)
		return
	}
	respond(w, http.StatusOK, "Order deleted successfully", nil, nil)
}
