// Package main provides the zoneflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/zoneflow/zoneflow/pkg/eventbus"
	"github.com/zoneflow/zoneflow/pkg/flows"
	"github.com/zoneflow/zoneflow/pkg/irods"
	"github.com/zoneflow/zoneflow/pkg/lock"
	"github.com/zoneflow/zoneflow/pkg/notify"
	"github.com/zoneflow/zoneflow/pkg/persistence"
	"github.com/zoneflow/zoneflow/pkg/taskflow"
	"github.com/zoneflow/zoneflow/pkg/web"
	"github.com/zoneflow/zoneflow/pkg/zonecfg"
	"github.com/zoneflow/zoneflow/pkg/zones"
)

type APIConfig struct {
	StorageRoot        string
	ChecksumScheme     irods.ChecksumScheme
	ValidateLimit      int
	ProhibitedSuffixes []string
	AdminUser          string
	ScriptUser         string
}

type API struct {
	logger   *slog.Logger
	store    persistence.Persistence
	storage  irods.Client
	eventBus eventbus.EventBus
	locks    *lock.Service
	config   APIConfig
	validate *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	store persistence.Persistence,
	storage irods.Client,
	eventBus eventbus.EventBus,
	locks *lock.Service,
	config APIConfig,
) *API {
	return &API{
		logger:   logger,
		store:    store,
		storage:  storage,
		eventBus: eventBus,
		locks:    locks,
		config:   config,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	dispatcher := notify.NewDispatcher(a.logger,
		notify.NewAlertHook(a.store.Alerts()),
		notify.NewEventHook(a.eventBus),
	)
	zoneService := zones.NewService(a.store, dispatcher, a.config.ValidateLimit, a.logger)
	extensions := zonecfg.NewRegistry(zonecfg.NewProteomicsSMB())

	registry := taskflow.NewRegistry()
	flows.Register(registry, flows.Deps{
		Storage:    a.storage,
		Zones:      zoneService,
		Store:      a.store,
		Paths:      irods.NewPathBuilder(a.config.StorageRoot),
		Extensions: extensions,
		Config: flows.Config{
			ChecksumScheme:     a.config.ChecksumScheme,
			AdminUser:          a.config.AdminUser,
			ScriptUser:         a.config.ScriptUser,
			ProhibitedSuffixes: a.config.ProhibitedSuffixes,
		},
		Logger: a.logger,
	})

	engine := taskflow.NewEngine(registry, a.locks, a.logger)
	handlers := web.NewHandlers(
		zoneService, a.store, engine, a.eventBus, extensions, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("zoneflow API")
	})

	handlers.RegisterRoutes(app)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
