package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-inventory-orders.git/internal/auth"
	"github.com/ariefcatur/go-inventory-orders.git/internal/catalog"
	"github.com/ariefcatur/go-inventory-orders.git/internal/config"
	"github.com/ariefcatur/go-inventory-orders.git/internal/httpx"
	"github.com/ariefcatur/go-inventory-orders.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-inventory-orders.git/internal/kafka"
	"github.com/ariefcatur/go-inventory-orders.git/internal/orders"
	"github.com/ariefcatur/go-inventory-orders.git/internal/postgres"
	"github.com/ariefcatur/go-inventory-orders.git/internal/redisx"
	"github.com/ariefcatur/go-inventory-orders.git/internal/storage"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "inventory-api",
		Usage:  "inventory and order transaction API",
		Action: serve,
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the HTTP API", Action: serve},
			{
				Name:  "migrate",
				Usage: "apply or roll back the schema",
				Subcommands: []*cli.Command{
					{Name: "up", Action: func(c *cli.Context) error { return migrate(c, postgres.MigrateUp) }},
					{Name: "down", Action: func(c *cli.Context) error { return migrate(c, postgres.MigrateDown) }},
				},
			},
			{Name: "seed", Usage: "create the default categories and the owner account", Action: seed},
		},
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("exit")
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config")
	}
	log := cfg.Logger()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		return errors.Wrap(err, "db connect")
	}
	defer db.Close()

	rdb, err := redisx.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.Brokers(), orders.TopicOrderTransactions, 1024, log)
	prod.Start(ctx)

	disk := storage.NewDisk(cfg.StorageDir)
	authRepo := &auth.Repo{DB: db}
	catalogSvc := &catalog.Service{
		Categories: &catalog.CategoryRepo{DB: db},
		Suppliers:  &catalog.SupplierRepo{DB: db},
	}
	engine := &orders.Engine{
		UoW:       &orders.PgUnitOfWork{Pool: db},
		Orders:    &orders.Repo{DB: db},
		Publisher: prod,
		Cache:     &redisx.JSONCache[orders.OrderView]{Client: rdb, Key: redisx.KeyOrderView, TTL: redisx.TTLOrderView},
		Service:   cfg.ServiceName,
		Log:       log,
	}
	catalogSvc.Renames = engine

	router := httpx.NewRouter(httpx.Deps{
		Auth: &auth.Service{
			Users:  authRepo,
			Tokens: authRepo,
			Secret: []byte(cfg.JWTSecret),
			TTL:    cfg.TokenTTL,
			Log:    log,
		},
		Catalog: catalogSvc,
		Products: &inventory.Service{
			Products: &inventory.Store{DB: db},
			Refs:     catalogSvc,
			Images:   disk,
			Events:   engine,
			Log:      log,
		},
		LowStock:      &redisx.LowStockIndex{Client: rdb},
		Engine:        engine,
		Files:         disk.Handler(),
		LoginLimit:    &redisx.FixedWindowLimiter{Client: rdb, Scope: "login", Limit: 5, Window: time.Minute},
		ProductsLimit: &redisx.FixedWindowLimiter{Client: rdb, Scope: "products-int", Limit: 2, Window: time.Minute},
		APIKey:        cfg.APIKey,
		PublicURL:     cfg.PublicURL,
		TrustProxy:    cfg.TrustProxy,
		Log:           log,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(sctx)
		// flush queued events once no handler can publish any more
		prod.Close()
		prod.WaitClosed()
		return err
	})
	return g.Wait()
}

func migrate(c *cli.Context, run func(dsn string) error) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config")
	}
	if err := run(cfg.PostgresDSN); err != nil {
		return err
	}
	cfg.Logger().WithField("command", c.Command.Name).Info("migration done")
	return nil
}

var defaultCategories = []string{"Food", "Drink"}

func seed(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "config")
	}
	log := cfg.Logger()

	db, err := postgres.Connect(c.Context, cfg.PostgresDSN)
	if err != nil {
		return errors.Wrap(err, "db connect")
	}
	defer db.Close()

	categories := &catalog.CategoryRepo{DB: db}
	for _, name := range defaultCategories {
		cat := catalog.Category{UUID: uuid.New(), Name: name, Slug: slug.Make(name)}
		if err := categories.EnsureByName(c.Context, &cat); err != nil {
			return err
		}
	}
	log.WithField("categories", defaultCategories).Info("categories seeded")

	if cfg.OwnerEmail == "" || cfg.OwnerPassword == "" {
		log.Warn("OWNER_EMAIL or OWNER_PASSWORD not set, skipping owner account")
		return nil
	}
	repo := &auth.Repo{DB: db}
	svc := &auth.Service{Users: repo, Tokens: repo, Secret: []byte(cfg.JWTSecret), TTL: cfg.TokenTTL, Log: log}
	u, err := svc.EnsureOwner(c.Context, cfg.OwnerName, cfg.OwnerEmail, cfg.OwnerPassword)
	if err != nil {
		return errors.Wrap(err, "seed owner")
	}
	log.WithField("user_id", u.ID).Info("owner account ready")
	return nil
}
