package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	appmodules "blog/app"
	"blog/app/jobs"
	"blog/app/posts"
	"blog/app/search"
	coremodules "blog/core/app"
	"blog/core/app/authentication"
	"blog/core/cache"
	"blog/core/config"
	"blog/core/database"
	"blog/core/emitter"
	"blog/core/logger"
	"blog/core/module"
	"blog/core/router"
	"blog/core/router/middleware"
	"blog/core/scheduler"
	"blog/core/storage"
	"blog/core/types"
	"blog/core/websocket"

	"github.com/joho/godotenv"
)

// @title Blog Admin API
// @description Admin API of the blog: posts, bulk actions, search index and users
// @version 1.0.0
// @BasePath /admin
// @schemes http https
// @accept json
// @produce json
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter your token with the prefix "Bearer "

// App represents the blog application
type App struct {
	config      *config.Config
	db          *database.Database
	router      *router.Router
	adminRouter *router.RouterGroup
	logger      logger.Logger
	emitter     *emitter.Emitter
	storage     *storage.ActiveStorage
	cache       cache.Store
	index       *search.Index
	tokens      *authentication.TokenManager
	scheduler   *scheduler.CronScheduler
	wsHub       *websocket.Hub
	appModules  *appmodules.AppModules

	// State
	running bool
	verbose bool
}

// New creates a new application instance
func New() *App {
	verbose := false
	for _, arg := range os.Args {
		if arg == "-v" || arg == "--verbose" {
			verbose = true
			break
		}
	}
	return &App{verbose: verbose}
}

// Start initializes and starts the application
func (app *App) Start() error {
	return app.
		loadEnvironment().
		initConfig().
		initLogger().
		initDatabase().
		initInfrastructure().
		initRouter().
		autoDiscoverModules().
		setupJobs().
		setupRoutes().
		displayServerInfo().
		run()
}

// Reindex rebuilds the search index from the database and exits
func (app *App) Reindex() error {
	app.loadEnvironment().initConfig().initLogger().initDatabase()
	defer app.db.Close()

	index, err := search.OpenIndex(app.config.SearchIndexPath)
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	defer index.Close()

	service := search.NewSearchService(app.db.DB, index, app.logger, app.config.SearchResultLimit)
	stats, err := service.Rebuild(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d posts, removed %d stale documents in %s\n", stats.Indexed, stats.Removed, stats.Duration)
	return nil
}

// loadEnvironment loads environment variables
func (app *App) loadEnvironment() *App {
	// a missing .env file is fine, the environment may already be set
	_ = godotenv.Load()
	return app
}

// initConfig initializes configuration
func (app *App) initConfig() *App {
	app.config = config.NewConfig()
	return app
}

// initLogger initializes the logger
func (app *App) initLogger() *App {
	level := "debug"
	if app.config.IsProduction() {
		level = "info"
	}
	log, err := logger.NewLogger(logger.Config{
		Environment: app.config.Env,
		LogPath:     "logs",
		Level:       level,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	app.logger = log
	return app
}

// initDatabase initializes the database connection
func (app *App) initDatabase() *App {
	db, err := database.InitDB(app.config)
	if err != nil {
		app.logger.Error("Failed to initialize database", logger.Err(err))
		panic(fmt.Sprintf("Database initialization failed: %v", err))
	}

	app.db = db

	if app.verbose {
		app.logger.Info("Database connected", logger.String("driver", app.config.DBDriver))
	}

	return app
}

// initInfrastructure initializes core infrastructure components
func (app *App) initInfrastructure() *App {
	app.emitter = emitter.New()

	storageConfig := storage.Config{
		Provider:  app.config.StorageProvider,
		Path:      app.config.StoragePath,
		BaseURL:   app.config.StorageBaseURL,
		APIKey:    app.config.StorageAPIKey,
		APISecret: app.config.StorageAPISecret,
		Endpoint:  app.config.StorageEndpoint,
		Bucket:    app.config.StorageBucket,
		Region:    app.config.StorageRegion,
		AccountID: app.config.StorageAccountID,
		CDN:       app.config.CDN,
	}

	activeStorage, err := storage.NewActiveStorage(app.db.DB, storageConfig)
	if err != nil {
		app.logger.Error("Failed to initialize storage", logger.Err(err))
		panic(fmt.Sprintf("Storage initialization failed: %v", err))
	}
	app.storage = activeStorage

	store, err := cache.New(app.config.CacheBackend, app.db.DB)
	if err != nil {
		app.logger.Error("Failed to initialize cache", logger.Err(err))
		panic(fmt.Sprintf("Cache initialization failed: %v", err))
	}
	app.cache = store

	index, err := search.OpenIndex(app.config.SearchIndexPath)
	if err != nil {
		app.logger.Error("Failed to open search index", logger.Err(err))
		panic(fmt.Sprintf("Search index initialization failed: %v", err))
	}
	app.index = index

	app.tokens = authentication.NewTokenManager(app.config.JWTSecret, app.config.JWTExpiration)
	app.scheduler = scheduler.NewCronScheduler(app.logger)

	if app.verbose {
		app.logger.Info("Infrastructure initialized",
			logger.String("storage", app.config.StorageProvider),
			logger.String("cache", app.config.CacheBackend),
			logger.String("index", index.Path()))
	}

	return app
}

// initRouter initializes the router with middleware
func (app *App) initRouter() *App {
	app.router = router.New()
	app.router.SetLogger(app.logger)
	middleware.ApplyConfigurableMiddleware(app.router, &app.config.Middleware, app.logger)

	app.adminRouter = app.router.Group("/admin", authentication.RequireAdmin(app.tokens))

	app.setupStaticRoutes()
	app.initWebSocket()

	if app.verbose {
		app.logger.Info("Router and middleware initialized")
	}

	return app
}

// setupStaticRoutes configures static file serving
func (app *App) setupStaticRoutes() {
	app.router.Static("/static", "./static")
	if app.config.StorageProvider == "" || app.config.StorageProvider == "local" {
		app.router.Static("/storage", app.config.StoragePath)
	}
}

// initWebSocket mounts the admin live feed if enabled
func (app *App) initWebSocket() {
	if !app.config.WebSocketEnabled {
		return
	}

	app.wsHub = websocket.InitWebSocketModule(app.adminRouter, app.logger)

	if app.verbose {
		app.logger.Info("WebSocket initialized")
	}
}

func (app *App) dependencies() module.Dependencies {
	return module.Dependencies{
		DB:          app.db.DB,
		Router:      app.router.Group(""),
		AdminRouter: app.adminRouter,
		Logger:      app.logger,
		Emitter:     app.emitter,
		Storage:     app.storage,
		Cache:       app.cache,
		Hub:         app.wsHub,
		Config:      app.config,
	}
}

// autoDiscoverModules registers core modules, then app modules
func (app *App) autoDiscoverModules() *App {
	deps := app.dependencies()
	initializer := module.NewInitializer(app.logger)

	coreProvider := coremodules.NewCoreModules(appmodules.GetSearchRegistry(), app.tokens, app.scheduler)
	core, err := module.NewCoreOrchestrator(initializer, coreProvider).InitializeCoreModules(deps)
	if err != nil {
		app.logger.Error("Failed to initialize core modules", logger.Err(err))
	}

	app.appModules = appmodules.NewAppModules(app.index)
	initialized, err := module.NewAppOrchestrator(initializer, app.appModules).InitializeAppModules(deps)
	if err != nil {
		app.logger.Error("Failed to initialize app modules", logger.Err(err))
	}

	if app.verbose {
		app.logger.Info("Modules initialized",
			logger.Int("core", len(core)),
			logger.Int("app", len(initialized)))
	}

	return app
}

// setupJobs registers and starts the scheduled jobs
func (app *App) setupJobs() *App {
	err := jobs.SetupScheduler(app.scheduler, app.appModules.SearchService, app.cache, app.config.SearchReindexCron, app.logger)
	if err != nil {
		app.logger.Error("Failed to register scheduled jobs", logger.Err(err))
	}
	app.scheduler.Start()
	return app
}

// setupRoutes sets up basic system routes
func (app *App) setupRoutes() *App {
	app.router.GET("/health", func(c *router.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":  "ok",
			"version": app.config.Version,
		})
	})

	app.router.GET("/", func(c *router.Context) error {
		return c.Redirect(http.StatusFound, "/blog/")
	})

	var pageNotFound router.HandlerFunc
	if mod, ok := module.GetModule("posts"); ok {
		if postsModule, ok := mod.(*posts.Module); ok {
			pageNotFound = postsModule.Views.NotFound
		}
	}

	app.router.NotFound(func(c *router.Context) error {
		if strings.HasPrefix(c.Request.URL.Path, "/admin") || pageNotFound == nil {
			return c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "Not found"})
		}
		return pageNotFound(c)
	})

	return app
}

// displayServerInfo shows server startup information
func (app *App) displayServerInfo() *App {
	localIP := app.getLocalIP()
	port := app.config.ServerPort

	fmt.Printf("\n\033[1;32mBlog Ready!\033[0m\n\n")
	fmt.Printf("\033[36mServer URLs:\033[0m\n")
	fmt.Printf("  Local:   http://localhost%s/blog/\n", port)
	fmt.Printf("  Network: http://%s%s/blog/\n", localIP, port)
	fmt.Printf("  Admin:   http://localhost%s/admin\n\n", port)

	return app
}

// getLocalIP gets the local network IP address
func (app *App) getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "localhost"
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return "localhost"
}

// run starts the HTTP server and blocks until it stops or a signal arrives
func (app *App) run() error {
	app.running = true
	port := app.config.ServerPort

	if app.verbose {
		app.logger.Info("Server starting", logger.String("port", port))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() { serverErr <- app.router.Run(port) }()

	select {
	case err := <-serverErr:
		app.Stop()
		if err == nil {
			return nil
		}
		if errors.Is(err, syscall.EADDRINUSE) {
			app.logger.Error("Server failed to start - Port already in use",
				logger.String("port", port),
				logger.Err(err))
			return fmt.Errorf("port %s is already in use. Please:\n  • Stop any other servers running on this port\n  • Change the SERVER_PORT in your .env file\n  • Use a different port with: export SERVER_PORT=:8101", port)
		}
		app.logger.Error("Server failed to start", logger.Err(err))
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		return app.Stop()
	}
}

// Stop shuts the server down and releases the index and database
func (app *App) Stop() error {
	if !app.running {
		return nil
	}
	app.running = false
	app.logger.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := app.router.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := app.scheduler.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}
	if err := app.index.Close(); err != nil {
		errs = append(errs, fmt.Errorf("search index: %w", err))
	}
	if err := app.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	_ = app.logger.Sync()

	return errors.Join(errs...)
}

func main() {
	app := New()

	var err error
	if len(os.Args) > 1 && os.Args[1] == "reindex" {
		err = app.Reindex()
	} else {
		err = app.Start()
	}

	if err != nil {
		fmt.Printf("\n\033[31mApplication failed:\033[0m\n%v\n\n", err)
		os.Exit(1)
	}
}
