package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/config"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/database"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/domain"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/handler"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/logger"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/repository"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/service"
	"github.com/locvowork/employee_management_sample/reportgateway/internal/storage"
	"github.com/locvowork/employee_management_sample/reportgateway/pkg/excelmap"
)

type App struct {
	Echo      *echo.Echo
	DB        *sql.DB
	Datastore *database.DatastoreClient
	Elastic   *database.ElasticSearchClient
	Dict      *service.DictService
	Export    *service.ExportService
}

func NewApp() *App {
	return &App{
		Echo: echo.New(),
	}
}

// Initialize loads the configuration and builds the HTTP gateway.
func (a *App) Initialize(ctx context.Context) error {
	if err := a.InitializeServices(ctx); err != nil {
		return err
	}

	exportHandler := handler.NewExportHandler(a.Export)
	a.RegisterMiddlewares()
	a.RegisterRoutes(exportHandler)
	return nil
}

// InitializeServices loads the configuration and connects the export
// service to its data sources. The CLI uses it without the HTTP layer.
func (a *App) InitializeServices(ctx context.Context) error {
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig

	logger.InitLogging(cfg.LOG_FILE_PATH, cfg.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	engine, err := excelmap.ParseEngine(cfg.EXPORT_ENGINE)
	if err != nil {
		return fmt.Errorf("EXPORT_ENGINE: %w", err)
	}

	db, err := database.NewPostgresDB(ctx, database.Config{
		Host:            cfg.DB_HOST,
		Port:            cfg.DB_PORT,
		User:            cfg.DB_USER,
		Password:        cfg.DB_PASSWORD,
		DBName:          cfg.DB_NAME,
		SSLMode:         cfg.DB_SSL_MODE,
		MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
		MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
		ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = db

	dictSource, err := a.dictSource(ctx)
	if err != nil {
		return err
	}
	a.Dict = service.NewDictService(dictSource, cfg.DICT_CACHE_TTL)

	opts := []service.ExportOption{
		service.WithDict(a.Dict),
		service.WithEngine(engine),
		service.WithSchemaFile(cfg.EXPORT_SCHEMA_PATH),
	}

	if cfg.ES_URL != "" {
		es, err := database.NewElasticSearchClient(cfg.ES_URL, cfg.ES_INDEX)
		if err != nil {
			return err
		}
		a.Elastic = es
		opts = append(opts, service.WithSource(service.SourceElastic, es))
	}

	if cfg.MINIO_ENDPOINT != "" {
		storageCfg := storage.Config{
			Endpoint:  cfg.MINIO_ENDPOINT,
			AccessKey: cfg.MINIO_ACCESS_KEY,
			SecretKey: cfg.MINIO_SECRET_KEY,
			UseSSL:    cfg.MINIO_USE_SSL,
			Bucket:    cfg.MINIO_BUCKET,
			URLExpiry: cfg.MINIO_URL_EXPIRY,
		}
		client, err := storage.NewClient(storageCfg)
		if err != nil {
			return err
		}
		archiver := storage.NewArchiver(client, storageCfg)
		if err := archiver.EnsureBucket(ctx); err != nil {
			logger.WarnLog(ctx, "Export archive bucket not ready: %v", err)
		}
		opts = append(opts, service.WithArchiver(archiver))
	}

	a.Export = service.NewExportService(repository.NewEmployeeRepository(db), opts...)
	return nil
}

func (a *App) dictSource(ctx context.Context) (domain.DictSource, error) {
	switch src := config.DefaultEnvConfig.DICT_SOURCE; src {
	case service.DictSourcePostgres:
		return repository.NewDictRepository(a.DB), nil
	case service.DictSourceDatastore:
		ds, err := database.NewDatastoreClient(ctx, config.DefaultEnvConfig.DATASTORE_PROJECT_ID)
		if err != nil {
			return nil, err
		}
		a.Datastore = ds
		return ds, nil
	case service.DictSourceStatic:
		return service.DefaultDictEntries, nil
	default:
		return nil, fmt.Errorf("unknown DICT_SOURCE %q", src)
	}
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	a.Echo.Use(requestLogger)
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

// requestLogger stores a request scoped zerolog logger in the request context.
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		ctx := logger.WithLogger(req.Context(), map[string]interface{}{
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			"path":       req.URL.Path,
		})
		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}

func (a *App) RegisterRoutes(exportHandler *handler.ExportHandler) {
	exportGroup := a.Echo.Group("/export")
	exportGroup.GET("/employees", exportHandler.ExportEmployeesHandler)
	exportGroup.GET("/employees/template", exportHandler.TemplateHandler)
	exportGroup.GET("/departments/summary", exportHandler.DepartmentSummaryHandler)
	exportGroup.POST("/employees/archive", exportHandler.ArchiveHandler)
}

// Close releases the connections opened by InitializeServices.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Datastore != nil {
		a.Datastore.Close()
	}
}

func (a *App) Run() error {
	defer a.Close()
	return a.Echo.Start(":" + strconv.Itoa(config.DefaultEnvConfig.APP_PORT))
}
