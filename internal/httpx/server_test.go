package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-inventory-orders.git/internal/auth"
	"github.com/ariefcatur/go-inventory-orders.git/internal/catalog"
	"github.com/ariefcatur/go-inventory-orders.git/internal/inventory"
	"github.com/ariefcatur/go-inventory-orders.git/internal/orders"
	"github.com/ariefcatur/go-inventory-orders.git/internal/paging"
	"github.com/ariefcatur/go-inventory-orders.git/internal/redisx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	studentID = auth.Identity{ID: 7, Name: "Budi", Role: auth.RoleStudent}
	ownerID   = auth.Identity{ID: 1, Name: "Owner", Role: auth.RoleOwner}
)

type fakeAuth struct{ tokens map[string]auth.Identity }

func (f *fakeAuth) Authenticate(_ context.Context, raw string) (auth.Identity, error) {
	id, ok := f.tokens[raw]
	if !ok {
		return auth.Identity{}, auth.ErrUnauthorized
	}
	return id, nil
}

func (f *fakeAuth) Register(_ context.Context, name, email, password string) (auth.User, auth.IssuedToken, error) {
	if len(password) > 72 {
		return auth.User{}, auth.IssuedToken{}, auth.ErrPasswordTooLong
	}
	return auth.User{ID: 9, Name: name, Email: email}, auth.IssuedToken{Plain: "new-token"}, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (auth.User, auth.IssuedToken, error) {
	if password != "secret" {
		return auth.User{}, auth.IssuedToken{}, auth.ErrInvalidCredentials
	}
	return auth.User{ID: 7, Email: email}, auth.IssuedToken{Plain: "student", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAuth) Logout(context.Context, auth.Identity) error { return nil }

func (f *fakeAuth) Me(_ context.Context, id auth.Identity) (auth.User, error) {
	return auth.User{ID: id.ID, Name: id.Name, Role: id.Role}, nil
}

func (f *fakeAuth) ListUsers(context.Context) ([]auth.User, error) {
	return []auth.User{{ID: 1}, {ID: 7}}, nil
}

type fakeCatalog struct{ created []string }

func (f *fakeCatalog) ListCategories(context.Context, paging.Params) (paging.Page[catalog.Category], error) {
	return paging.Page[catalog.Category]{
		Items: []catalog.Category{{Name: "Food"}}, Total: 1, CurrentPage: 1, Paginated: true,
	}, nil
}
func (f *fakeCatalog) Category(context.Context, uuid.UUID) (catalog.Category, error) {
	return catalog.Category{}, catalog.ErrCategoryNotFound
}
func (f *fakeCatalog) CreateCategory(_ context.Context, name string) (catalog.Category, error) {
	f.created = append(f.created, name)
	return catalog.Category{UUID: uuid.New(), Name: name, Slug: strings.ToLower(name)}, nil
}
func (f *fakeCatalog) UpdateCategory(context.Context, uuid.UUID, string) (catalog.Category, error) {
	return catalog.Category{}, catalog.ErrDuplicateCategory
}
func (f *fakeCatalog) DeleteCategory(context.Context, uuid.UUID) error { return nil }
func (f *fakeCatalog) ListSuppliers(context.Context, paging.Params) (paging.Page[catalog.Supplier], error) {
	return paging.Page[catalog.Supplier]{}, nil
}
func (f *fakeCatalog) Supplier(context.Context, uuid.UUID) (catalog.Supplier, error) {
	return catalog.Supplier{}, catalog.ErrSupplierNotFound
}
func (f *fakeCatalog) CreateSupplier(_ context.Context, in catalog.SupplierInput) (catalog.Supplier, error) {
	return catalog.Supplier{Code: in.Code, Name: in.Name}, nil
}
func (f *fakeCatalog) UpdateSupplier(context.Context, uuid.UUID, catalog.SupplierInput) (catalog.Supplier, error) {
	return catalog.Supplier{}, nil
}
func (f *fakeCatalog) DeleteSupplier(context.Context, uuid.UUID) error { return nil }

type fakeProducts struct {
	in    inventory.ProductInput
	image []byte
}

func (f *fakeProducts) List(context.Context, paging.Params) (paging.Page[inventory.ProductView], error) {
	return paging.Page[inventory.ProductView]{Items: []inventory.ProductView{{
		Product: inventory.Product{Name: "Roti", Price: 1000, Image: "images/roti.png"},
	}}}, nil
}
func (f *fakeProducts) Get(context.Context, uuid.UUID) (inventory.ProductView, error) {
	return inventory.ProductView{}, inventory.ErrProductNotFound
}
func (f *fakeProducts) Create(_ context.Context, in inventory.ProductInput, img inventory.Image) (inventory.ProductView, error) {
	f.in = in
	f.image, _ = io.ReadAll(img.Body)
	return inventory.ProductView{
		Product:      inventory.Product{Name: in.Name, Price: in.Price, Quantity: in.Quantity, Image: "images/x.png"},
		CategoryName: "Food",
		SupplierName: "Acme",
	}, nil
}
func (f *fakeProducts) Update(context.Context, uuid.UUID, inventory.ProductInput, *inventory.Image) (inventory.ProductView, error) {
	return inventory.ProductView{}, nil
}
func (f *fakeProducts) Delete(context.Context, uuid.UUID) error { return nil }

// fakeEngine answers with a fixed stock of 2 units at 1000 each.
type fakeEngine struct{ err error }

func (f *fakeEngine) Create(_ context.Context, caller auth.Identity, productID int64, quantity int) (orders.Result, error) {
	if f.err != nil {
		return orders.Result{}, f.err
	}
	p := inventory.Product{ID: productID, Name: "Roti", Price: 1000, Quantity: 2}
	if quantity > p.Quantity {
		return orders.Result{Product: p, Rejection: &orders.StockRejection{ProductName: "Roti", ProductStock: 2, RequestStock: quantity}}, nil
	}
	o := orders.Order{UUID: uuid.New(), StudentID: caller.ID, ProductID: productID, Quantity: quantity, TotalPrice: 1000 * int64(quantity)}
	return orders.Result{Order: o, Product: p}, nil
}
func (f *fakeEngine) Update(ctx context.Context, caller auth.Identity, _ uuid.UUID, productID int64, quantity int) (orders.Result, error) {
	return f.Create(ctx, caller, productID, quantity)
}
func (f *fakeEngine) Delete(context.Context, auth.Identity, uuid.UUID) error { return orders.ErrOrderNotFound }
func (f *fakeEngine) Get(context.Context, auth.Identity, uuid.UUID) (orders.OrderView, error) {
	return orders.OrderView{}, orders.ErrOrderNotFound
}
func (f *fakeEngine) ListByStudent(_ context.Context, caller auth.Identity, id int64) ([]orders.OrderView, int64, error) {
	if !caller.CanActFor(id) {
		return nil, 0, auth.ErrUnauthorized
	}
	return []orders.OrderView{{Order: orders.Order{TotalPrice: 1500}}, {Order: orders.Order{TotalPrice: 2500}}}, 4000, nil
}
func (f *fakeEngine) List(context.Context, auth.Identity, paging.Params) (paging.Page[orders.OrderView], error) {
	return paging.Page[orders.OrderView]{}, nil
}

type fixture struct {
	srv      http.Handler
	catalog  *fakeCatalog
	products *fakeProducts
	engine   *fakeEngine
}

func newFixture(t *testing.T, opts ...func(*Deps)) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	f := &fixture{catalog: &fakeCatalog{}, products: &fakeProducts{}, engine: &fakeEngine{}}
	d := Deps{
		Auth:          &fakeAuth{tokens: map[string]auth.Identity{"student": studentID, "owner": ownerID}},
		Catalog:       f.catalog,
		Products:      f.products,
		LowStock:      &redisx.LowStockIndex{Client: rdb},
		Engine:        f.engine,
		LoginLimit:    &redisx.FixedWindowLimiter{Client: rdb, Scope: "login", Limit: 5, Window: time.Minute},
		ProductsLimit: &redisx.FixedWindowLimiter{Client: rdb, Scope: "products-int", Limit: 2, Window: time.Minute},
		APIKey:        "k3y",
		PublicURL:     "http://localhost:8081",
		Log:           log,
	}
	for _, o := range opts {
		o(&d)
	}
	f.srv = NewRouter(d)
	return f
}

func (f *fixture) do(t *testing.T, method, path, token string, body any, hdr ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	return f.send(t, req)
}

func (f *fixture) send(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStoreTransaction(t *testing.T) {
	f := newFixture(t)

	t.Run("created", func(t *testing.T) {
		rec, out := f.do(t, http.MethodPost, "/transactions", "student", map[string]any{"product_id": 1, "quantity": 2})
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, true, out["status"])
		data := out["data"].(map[string]any)
		assert.Equal(t, "Rp. 2,000", data["total_price"])
		assert.Equal(t, float64(2), data["quantity"])
		assert.Equal(t, "Roti", out["metadata"].(map[string]any)["product_name"])
	})

	t.Run("stock rejection is a successful envelope", func(t *testing.T) {
		rec, out := f.do(t, http.MethodPost, "/transactions", "student", map[string]any{"product_id": 1, "quantity": 3})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, out["status"])
		assert.Equal(t, "Stock not available", out["message"])
		assert.Nil(t, out["data"])
		md := out["metadata"].(map[string]any)
		assert.Equal(t, float64(2), md["product_stock"])
		assert.Equal(t, float64(3), md["request_stock"])
		assert.Equal(t, "Roti", md["product_name"])
	})

	t.Run("validation", func(t *testing.T) {
		rec, out := f.do(t, http.MethodPost, "/transactions", "student", map[string]any{"product_id": 1, "quantity": 0})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, false, out["status"])
		errs := out["metadata"].(map[string]any)["errors"].(map[string]any)
		assert.Contains(t, errs, "quantity")
		assert.NotContains(t, errs, "product_id")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec, out := f.do(t, http.MethodPost, "/transactions", "", map[string]any{"product_id": 1, "quantity": 1})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, false, out["status"])

		rec, _ = f.do(t, http.MethodPost, "/transactions", "forged", map[string]any{"product_id": 1, "quantity": 1})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("total out of range is a quantity error", func(t *testing.T) {
		f.engine.err = orders.ErrTotalOverflow
		defer func() { f.engine.err = nil }()
		rec, out := f.do(t, http.MethodPost, "/transactions", "student", map[string]any{"product_id": 1, "quantity": 2})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, out["metadata"].(map[string]any)["errors"], "quantity")
	})

	t.Run("internal failure surfaces the message", func(t *testing.T) {
		f.engine.err = errors.New("connection reset")
		defer func() { f.engine.err = nil }()
		rec, out := f.do(t, http.MethodPost, "/transactions", "student", map[string]any{"product_id": 1, "quantity": 1})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "connection reset", out["message"])
	})
}

func TestTransactionErrors(t *testing.T) {
	f := newFixture(t)

	rec, out := f.do(t, http.MethodGet, "/transactions/"+uuid.NewString(), "student", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, out["status"])

	rec, _ = f.do(t, http.MethodGet, "/transactions/not-a-uuid", "student", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = f.do(t, http.MethodDelete, "/transactions/"+uuid.NewString(), "student", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// the listing is for owners only
	rec, _ = f.do(t, http.MethodGet, "/transactions", "student", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, out = f.do(t, http.MethodGet, "/transactions", "owner", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Order Transaction not available", out["message"])
}

func TestTransactionsByStudent(t *testing.T) {
	f := newFixture(t)

	rec, out := f.do(t, http.MethodGet, "/transactions/student/7", "student", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Rp. 4,000", out["metadata"].(map[string]any)["total_transactions"])
	first := out["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "Rp. 1,500", first["formatted_total_price"])

	rec, _ = f.do(t, http.MethodGet, "/transactions/student/8", "student", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/transactions/student/8", "owner", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProductsInt(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/products-int", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for i := 0; i < 2; i++ {
		rec, out := f.do(t, http.MethodGet, "/products-int", "", nil, "X-API-KEY", "k3y")
		require.Equal(t, http.StatusOK, rec.Code)
		item := out["data"].([]any)[0].(map[string]any)
		assert.Equal(t, "Rp. 1,000", item["price"])
		assert.Equal(t, "http://localhost:8081/storage/images/roti.png", item["image"])
	}

	rec, out := f.do(t, http.MethodGet, "/products-int", "", nil, "X-API-KEY", "k3y")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, map[string]any{
		"success": false,
		"message": "Too many requests, please try again later.",
		"code":    float64(429),
	}, out)
}

func TestProductsIntIgnoresForwardedHeaders(t *testing.T) {
	f := newFixture(t)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec, _ := f.do(t, http.MethodGet, "/products-int", "", nil,
			"X-API-KEY", "k3y",
			"X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i+1),
			"X-Real-IP", fmt.Sprintf("10.0.1.%d", i+1))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestProductsIntTrustedProxy(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.TrustProxy = true })

	for i := 0; i < 3; i++ {
		rec, _ := f.do(t, http.MethodGet, "/products-int", "", nil,
			"X-API-KEY", "k3y", "X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i+1))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestProductsIndexNeedsTokenAndKey(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodGet, "/products", "student", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/products", "", nil, "X-API-KEY", "k3y")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/products", "student", nil, "X-API-KEY", "k3y")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func productForm(t *testing.T, fields map[string]string, filename string, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/products", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer owner")
	return req
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func TestStoreProduct(t *testing.T) {
	fields := map[string]string{
		"category_id": "1", "supplier_id": "2", "name": "Roti Bakar", "price": "12000", "quantity": "20",
	}

	t.Run("created", func(t *testing.T) {
		f := newFixture(t)
		rec, out := f.send(t, productForm(t, fields, "roti.png", pngBytes))
		require.Equal(t, http.StatusCreated, rec.Code, out)
		assert.Equal(t, inventory.ProductInput{CategoryID: 1, SupplierID: 2, Name: "Roti Bakar", Price: 12000, Quantity: 20}, f.products.in)
		assert.Equal(t, pngBytes, f.products.image)
		md := out["metadata"].(map[string]any)
		assert.Equal(t, "Food", md["category_name"])
		assert.Equal(t, "http://localhost:8081/storage/images/x.png", md["image_url"])
	})

	t.Run("image required", func(t *testing.T) {
		f := newFixture(t)
		rec, out := f.send(t, productForm(t, fields, "", nil))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, out["metadata"].(map[string]any)["errors"], "image")
	})

	t.Run("image must be an image", func(t *testing.T) {
		f := newFixture(t)
		rec, out := f.send(t, productForm(t, fields, "roti.png", []byte("plain text, not a picture")))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, out["metadata"].(map[string]any)["errors"], "image")

		rec, _ = f.send(t, productForm(t, fields, "roti.gif", pngBytes))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("reports every bad field", func(t *testing.T) {
		f := newFixture(t)
		bad := map[string]string{"category_id": "x", "name": "ab", "price": "1.5", "quantity": "-1"}
		rec, out := f.send(t, productForm(t, bad, "roti.png", pngBytes))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		errs := out["metadata"].(map[string]any)["errors"].(map[string]any)
		for _, k := range []string{"category_id", "supplier_id", "name", "price", "quantity"} {
			assert.Contains(t, errs, k)
		}
	})

	t.Run("out of range numbers are field errors", func(t *testing.T) {
		f := newFixture(t)
		huge := map[string]string{
			"category_id": "1", "supplier_id": "2", "name": "Roti Bakar",
			"price": "99999999999999999999999", "quantity": "99999999999999999999",
		}
		rec, out := f.send(t, productForm(t, huge, "roti.png", pngBytes))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		errs := out["metadata"].(map[string]any)["errors"].(map[string]any)
		assert.Contains(t, errs, "price")
		assert.Contains(t, errs, "quantity")
		assert.NotContains(t, errs, "category_id")
		assert.Equal(t, inventory.ProductInput{}, f.products.in, "the service must not be called")

		over := map[string]string{
			"category_id": "1", "supplier_id": "2", "name": "Roti Bakar",
			"price": "1000000000001", "quantity": "2147483648",
		}
		rec, out = f.send(t, productForm(t, over, "roti.png", pngBytes))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		errs = out["metadata"].(map[string]any)["errors"].(map[string]any)
		assert.Equal(t, []any{"The quantity field must not be greater than 2147483647."}, errs["quantity"])
		assert.Contains(t, errs, "price")

		at := map[string]string{
			"category_id": "1", "supplier_id": "2", "name": "Roti Bakar",
			"price": "1000000000000", "quantity": "2147483647",
		}
		rec, _ = f.send(t, productForm(t, at, "roti.png", pngBytes))
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, inventory.MaxPrice, f.products.in.Price)
		assert.Equal(t, 2147483647, f.products.in.Quantity)
	})

	t.Run("owner only", func(t *testing.T) {
		f := newFixture(t)
		req := productForm(t, fields, "roti.png", pngBytes)
		req.Header.Set("Authorization", "Bearer student")
		rec, _ := f.send(t, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCategories(t *testing.T) {
	f := newFixture(t)

	rec, out := f.do(t, http.MethodGet, "/categories", "student", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	md := out["metadata"].(map[string]any)
	assert.Equal(t, float64(10), md["per_page"])
	assert.Equal(t, float64(1), md["total_categories"])

	rec, _ = f.do(t, http.MethodPost, "/categories", "student", map[string]any{"name": "Snacks"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.catalog.created)

	rec, out = f.do(t, http.MethodPost, "/categories", "owner", map[string]any{"name": "Snacks"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "snacks", out["data"].(map[string]any)["slug"])

	rec, out = f.do(t, http.MethodPut, "/categories/"+uuid.NewString(), "owner", map[string]any{"name": "Food"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, out["metadata"].(map[string]any)["errors"], "name")

	rec, _ = f.do(t, http.MethodGet, "/categories/"+uuid.NewString(), "owner", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, out = f.do(t, http.MethodGet, "/suppliers", "student", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Suppliers not available", out["message"])
}

func TestSupplierValidation(t *testing.T) {
	f := newFixture(t)
	rec, out := f.do(t, http.MethodPost, "/suppliers", "owner", map[string]any{
		"code": "12", "name": "Acme", "address": "Jl. Merdeka 1", "phone": "0812", "email": "nope",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := out["metadata"].(map[string]any)["errors"].(map[string]any)
	assert.Contains(t, errs, "code")
	assert.Contains(t, errs, "email")
	assert.NotContains(t, errs, "phone")

	rec, out = f.do(t, http.MethodPost, "/suppliers", "owner", map[string]any{
		"code": "123", "name": "Acme", "address": "Jl. Merdeka 1", "phone": strings.Repeat("8", 33), "email": "acme@example.com",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs = out["metadata"].(map[string]any)["errors"].(map[string]any)
	assert.Equal(t, []any{"The phone field must not be greater than 32 characters."}, errs["phone"])
}

func TestAuthEndpoints(t *testing.T) {
	f := newFixture(t)

	rec, out := f.do(t, http.MethodPost, "/registration", "", map[string]any{
		"name": "Budi", "email": "budi@example.com", "password": "secret1", "password_confirmation": "secret2",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, out["metadata"].(map[string]any)["errors"], "password_confirmation")

	rec, out = f.do(t, http.MethodPost, "/registration", "", map[string]any{
		"name": "Budi", "email": "budi@example.com", "password": "secret1", "password_confirmation": "secret1",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "new-token", out["data"].(map[string]any)["token"])

	rec, out = f.do(t, http.MethodPost, "/login", "", map[string]any{"email": "budi@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", out["message"])

	rec, out = f.do(t, http.MethodPost, "/login", "", map[string]any{"email": "budi@example.com", "password": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, out["metadata"], "expires_at")

	rec, _ = f.do(t, http.MethodGet, "/user-list", "student", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, out = f.do(t, http.MethodGet, "/user-list", "owner", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), out["metadata"].(map[string]any)["total_users"])

	rec, _ = f.do(t, http.MethodPost, "/logout", "student", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegistrationPasswordLength(t *testing.T) {
	f := newFixture(t)
	register := func(password string) (*httptest.ResponseRecorder, map[string]any) {
		return f.do(t, http.MethodPost, "/registration", "", map[string]any{
			"name": "Budi", "email": "budi@example.com", "password": password, "password_confirmation": password,
		})
	}

	rec, out := register(strings.Repeat("a", 73))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, out["metadata"].(map[string]any)["errors"], "password")

	// 60 runes pass the length rule but take 120 bytes
	rec, out = register(strings.Repeat("é", 60))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := out["metadata"].(map[string]any)["errors"].(map[string]any)
	assert.Equal(t, []any{auth.ErrPasswordTooLong.Error()}, errs["password"])

	rec, _ = register(strings.Repeat("a", 72))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	f := newFixture(t)
	body := map[string]any{"email": "budi@example.com", "password": "wrong"}
	for i := 0; i < 5; i++ {
		rec, _ := f.do(t, http.MethodPost, "/login", "", body, "X-Forwarded-For", fmt.Sprintf("172.16.0.%d", i))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec, out := f.do(t, http.MethodPost, "/login", "", body, "X-Forwarded-For", "172.16.0.99")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, false, out["success"])
}

func TestLowStock(t *testing.T) {
	f := newFixture(t)
	rec, out := f.do(t, http.MethodGet, "/products-low-stock", "owner", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), out["metadata"].(map[string]any)["total_products"])

	rec, _ = f.do(t, http.MethodGet, "/products-low-stock", "student", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
