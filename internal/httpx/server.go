package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators the router wires into its handlers.
type Deps struct {
	Auth          AuthService
	Catalog       CatalogService
	Products      ProductService
	LowStock      LowStockLister
	Engine        OrderEngine
	Files         http.Handler
	LoginLimit    Limiter
	ProductsLimit Limiter
	APIKey        string
	PublicURL     string
	// TrustProxy lets X-Forwarded-For and X-Real-IP replace the peer
	// address. Enable only behind a proxy that overwrites those headers.
	TrustProxy bool
	Log        logrus.FieldLogger
}

func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: d.Log, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if d.Files != nil {
		r.Handle("/storage/*", http.StripPrefix("/storage/", d.Files))
	}

	ah := &AuthHandler{Auth: d.Auth, Log: d.Log}
	ch := &CatalogHandler{Catalog: d.Catalog, Log: d.Log}
	ph := &ProductsHandler{Products: d.Products, LowStock: d.LowStock, PublicURL: d.PublicURL, Log: d.Log}
	th := &TransactionsHandler{Engine: d.Engine, Log: d.Log}

	authed := requireAuth(d.Auth)
	apiKey := requireAPIKey(d.APIKey)

	r.Post("/registration", ah.registration)
	r.With(rateLimit(d.LoginLimit, d.Log)).Post("/login", ah.login)
	r.With(apiKey, rateLimit(d.ProductsLimit, d.Log)).Get("/products-int", ph.list)

	r.Group(func(r chi.Router) {
		r.Use(authed)

		r.Post("/logout", ah.logout)
		r.Get("/user", ah.me)
		r.With(requireOwner).Get("/user-list", ah.users)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", ch.listCategories)
			r.Group(func(r chi.Router) {
				r.Use(requireOwner)
				r.Post("/", ch.storeCategory)
				r.Get("/{uuid}", ch.showCategory)
				r.Put("/{uuid}", ch.updateCategory)
				r.Patch("/{uuid}", ch.updateCategory)
				r.Delete("/{uuid}", ch.deleteCategory)
			})
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", ch.listSuppliers)
			r.Group(func(r chi.Router) {
				r.Use(requireOwner)
				r.Post("/", ch.storeSupplier)
				r.Get("/{uuid}", ch.showSupplier)
				r.Put("/{uuid}", ch.updateSupplier)
				r.Patch("/{uuid}", ch.updateSupplier)
				r.Delete("/{uuid}", ch.deleteSupplier)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.With(apiKey).Get("/", ph.list)
			r.Group(func(r chi.Router) {
				r.Use(requireOwner)
				r.Post("/", ph.store)
				r.Get("/{uuid}", ph.show)
				r.Put("/{uuid}", ph.update)
				r.Patch("/{uuid}", ph.update)
				r.Delete("/{uuid}", ph.destroy)
			})
		})
		r.With(requireOwner).Get("/products-low-stock", ph.lowStock)

		r.Route("/transactions", func(r chi.Router) {
			r.With(requireOwner).Get("/", th.index)
			r.Post("/", th.store)
			r.Get("/student/{id}", th.byStudent)
			r.Get("/{uuid}", th.show)
			r.Put("/{uuid}", th.update)
			r.Patch("/{uuid}", th.update)
			r.Delete("/{uuid}", th.destroy)
		})
	})
	return r
}
