package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/maintenance"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/kafka"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/telemetry"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// storage adaptadores de persistencia elegidos por LEDGER_STORAGE.
type storage struct {
	txRunner  inventory.TxRunner
	documents repository.DocumentRepository
	movements repository.MovementRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Ledger.Storage).
		Str("shortage_policy", cfg.Ledger.ShortagePolicy).
		Msg("iniciando aplicación")

	ctx := context.Background()

	otelProviders, err := telemetry.Setup(ctx, cfg.App.Name, cfg.Telemetry, log.Component("telemetry"))
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar telemetría")
	}
	metrics, err := telemetry.NewLedgerMetrics(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("registrar métricas del libro")
	}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	// Redis opcional: idempotencia compartida y lock de tareas entre instancias
	var (
		idempotency httpRouter.IdempotencyStore
		taskLock    maintenance.TaskLock = cache.LocalTaskLock{}
		tasks       []maintenance.Task
		redisClient *redis.Client
	)
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisClient.Close()
		idempotency = cache.NewRedisIdempotencyStore(redisClient, "")
		taskLock = cache.NewRedisTaskLock(redisClient)
	} else {
		memStore := cache.NewMemoryIdempotencyStore()
		idempotency = memStore
		tasks = append(tasks, maintenance.NewIdempotencyPurgeTask(memStore, log))
	}

	var notifier inventory.Notifier = inventory.NopNotifier{}
	if cfg.Kafka.Enabled() {
		kn := kafka.NewNotifier(cfg.Kafka)
		defer func() {
			if err := kn.Close(); err != nil {
				log.Warn().Err(err).Msg("cerrar productor Kafka")
			}
		}()
		notifier = kn
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("notificaciones Kafka habilitadas")
	}

	ledger := inventory.NewStockLedger(store.movements, metrics, log, inventory.LedgerConfig{
		StorageTimeout:  cfg.Ledger.StorageTimeout,
		HistoryPageSize: cfg.Ledger.HistoryPageSize,
	})
	guard := inventory.NewAvailabilityGuard(ledger)
	workflow := inventory.NewWorkflowUseCase(store.txRunner, store.documents, ledger, guard, notifier, log,
		inventory.WorkflowConfig{
			StorageTimeout: cfg.Ledger.StorageTimeout,
			ShortagePolicy: inventory.ShortagePolicy(cfg.Ledger.ShortagePolicy),
		})

	tasks = append(tasks, maintenance.NewLedgerAuditTask(store.movements, metrics, log))
	scheduler := maintenance.NewScheduler(taskLock, log, maintenance.SchedulerConfig{
		Interval: cfg.Ledger.AuditInterval,
		Timeout:  time.Minute,
	}, tasks...)
	scheduler.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (generado con swag init)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Inventario Ledger API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Ledger.Storage})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Workflow:       workflow,
		Ledger:         ledger,
		Guard:          guard,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Ledger.IdempotencyTTL,
		JWTSecret:      cfg.JWT.Secret,
		Logger:         log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := workflow.Drain(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("notificaciones pendientes sin enviar")
	}
	if err := scheduler.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del mantenimiento")
	}
	if err := otelProviders.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de la telemetría")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Ledger.Storage == "memory" {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		mem := memory.New()
		return &storage{txRunner: mem, documents: mem.Documents(), movements: mem.Movements(), close: func() {}}, nil
	}

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(cfg.DB.ConnectionString(), log.Component("migrate")); err != nil {
			return nil, err
		}
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &storage{
		txRunner:  postgres.NewTxRunner(pool),
		documents: postgres.NewDocumentRepository(pool),
		movements: postgres.NewMovementRepository(pool),
		close:     pool.Close,
	}, nil
}
