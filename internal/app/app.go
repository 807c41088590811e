// Package app assembles the bridge: session state, credential store,
// transport client, service adapters, list controllers and the HTTP router.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-bizdata/internal/config"
	httpapi "github.com/tbourn/go-bizdata/internal/http"
	"github.com/tbourn/go-bizdata/internal/http/handlers"
	"github.com/tbourn/go-bizdata/internal/listquery"
	"github.com/tbourn/go-bizdata/internal/repo"
	"github.com/tbourn/go-bizdata/internal/services"
	"github.com/tbourn/go-bizdata/internal/session"
	"github.com/tbourn/go-bizdata/internal/transport"
)

// List names served under /lists/:name.
const (
	ListProducts   = "products"
	ListVariants   = "variants"
	ListExpenses   = "expenses"
	ListBrands     = "brands"
	ListCategories = "categories"
	ListGroups     = "groups"
	ListTags       = "tags"
	ListSuppliers  = "suppliers"
)

// App is a fully wired bridge.
type App struct {
	Engine   *gin.Engine
	Session  *session.State
	Client   *transport.Client
	Lists    *listquery.Registry
	Auth     *services.AuthService
	Products *services.ProductService
	Expenses *services.ExpenseService

	db *gorm.DB
}

// New builds the bridge from cfg. A persisted token, if any, is restored
// before the first request so lists can load without a new login.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Session: session.New()}

	var store session.Store
	if cfg.CredentialsDB != "" {
		db, err := repo.OpenSQLite(cfg.CredentialsDB)
		if err != nil {
			return nil, fmt.Errorf("open credentials db: %w", err)
		}
		if err := repo.AutoMigrate(db); err != nil {
			closeDB(db)
			return nil, fmt.Errorf("migrate credentials db: %w", err)
		}
		a.db = db
		cs := repo.NewCredentialStore(db, cfg.CredentialProfile)
		store = cs
		restored, err := a.Session.Restore(ctx, cs)
		if err != nil {
			log.Warn().Err(err).Msg("credential restore failed")
		}
		log.Info().Str("profile", cs.Profile()).Bool("restored", restored).Msg("credential store ready")
	}

	client, err := transport.New(transport.Config{
		BaseURL:   cfg.Client.BaseURL,
		Timeout:   cfg.Client.Timeout,
		RateRPS:   cfg.Client.RateRPS,
		RateBurst: cfg.Client.RateBurst,
	}, a.Session)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Client = client

	a.Auth = services.NewAuthService(client, a.Session, store)
	a.Products = services.NewProductService(client)
	a.Expenses = services.NewExpenseService(client)
	a.Lists = newRegistry(client, a.Products, a.Expenses, cfg)

	gin.SetMode(cfg.GinMode)
	a.Engine = gin.New()
	h := handlers.New(a.Auth, a.Lists, services.NewUploadService(client), cfg.UploadMaxBytes)
	httpapi.RegisterRoutes(a.Engine, h, cfg)

	return a, nil
}

func newRegistry(client services.Doer, products *services.ProductService, expenses *services.ExpenseService, cfg config.Config) *listquery.Registry {
	opts := func(name string) []listquery.Option {
		return []listquery.Option{
			listquery.WithName(name),
			listquery.WithKeywordDelay(cfg.Lists.SearchDelay),
			listquery.WithFilterDelay(cfg.Lists.FilterDelay),
			listquery.WithFetchTimeout(cfg.Lists.FetchTimeout),
			listquery.WithLogger(log.Logger),
		}
	}

	reg := listquery.NewRegistry()
	reg.Register(listquery.New(services.ProductSource(products), opts(ListProducts)...))
	reg.Register(listquery.New(services.VariantSource(products), opts(ListVariants)...))
	reg.Register(listquery.New(services.ExpenseSource(expenses), opts(ListExpenses)...))
	reg.Register(listquery.New(services.CatalogSource(services.NewBrandService(client)), opts(ListBrands)...))
	reg.Register(listquery.New(services.CatalogSource(services.NewCategoryService(client)), opts(ListCategories)...))
	reg.Register(listquery.New(services.CatalogSource(services.NewGroupService(client)), opts(ListGroups)...))
	reg.Register(listquery.New(services.TagSource(services.NewTagService(client)), opts(ListTags)...))
	if sup := services.NewSupplierService(client, cfg.SuppliersPath); sup.Configured() {
		reg.Register(listquery.New(services.SupplierSource(sup), opts(ListSuppliers)...))
	}
	return reg
}

// Close stops every list controller and releases the credential store.
func (a *App) Close() {
	if a.Lists != nil {
		a.Lists.Close()
	}
	if a.db != nil {
		closeDB(a.db)
		a.db = nil
	}
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
