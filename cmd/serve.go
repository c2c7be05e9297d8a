package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"modforge/core/config"
	"modforge/core/database"
	"modforge/core/history"
	"modforge/core/loader"
	"modforge/core/logger"
	"modforge/core/middleware/auth"
	"modforge/core/middleware/rayid"
	"modforge/core/source"
	"modforge/core/watch"

	"modforge/feature/catalog"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the content collection and serve the catalog API",
	Long: `Runs a full load cycle, starts the HTTP catalog, and keeps the
collection fresh through hot reload when enabled.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Build the pipeline manager
		mgr, err := buildManager(cfg, logg)
		if err != nil {
			logg.Fatal("Failed to build pipeline", zap.Error(err))
		}

		// 4. Connect the cycle journal (optional)
		var journal *history.Recorder
		if db, dbErr := database.Connect(cfg.Database); dbErr != nil {
			logg.Warn("Optional database connection failed", zap.Error(dbErr))
		} else {
			journal = history.NewRecorder(db, logg)
			if migErr := journal.Migrate(); migErr != nil {
				logg.Warn("Cycle journal migration failed", zap.Error(migErr))
				journal = nil
			} else {
				journal.Attach(mgr.Bus())
				logg.Info("Cycle journal connected")
			}
		}

		// 5. Initial full load
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := mgr.Load(ctx); err != nil {
			logg.Fatal("Initial load failed", zap.Error(err))
		}

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// Middleware Registration
		// RayID must be first to trace everything
		app.Use(rayid.New())

		// Logging middleware (Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Auth (protect the API)
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		// 7. Load Features
		reg := loader.NewManager()
		reg.Register(catalog.NewFeature(mgr, journal, logg))
		if err := reg.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 8. Hot reload watcher
		if mgr.HotReload() {
			roots := watchRoots(cfg)
			if len(roots) == 0 {
				logg.Warn("Hot reload enabled but no watchable sources configured")
			} else {
				debounce := time.Duration(cfg.Pipeline.DebounceMillis) * time.Millisecond
				go func() {
					if watchErr := watch.Watch(ctx, mgr, roots, debounce, logg); watchErr != nil {
						logg.Error("Watcher failed", zap.Error(watchErr))
					}
				}()
			}
		}

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		cancel()
		_ = app.Shutdown()
		mgr.UnloadAll()
	},
}

// watchRoots collects the filesystem roots of every watchable source.
func watchRoots(cfg *config.Config) []string {
	sources, err := buildSources(cfg)
	if err != nil {
		return nil
	}
	var roots []string
	for _, src := range sources {
		if w, ok := src.(source.Watchable); ok {
			roots = append(roots, w.WatchRoots()...)
		}
	}
	return roots
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
