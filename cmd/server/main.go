package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"arkiv/internal/auth"
	"arkiv/internal/cache"
	"arkiv/internal/config"
	natsevents "arkiv/internal/events/nats"
	"arkiv/internal/handler"
	"arkiv/internal/middleware"
	"arkiv/internal/observability/metrics"
	"arkiv/internal/repository/postgres"
	"arkiv/internal/service/docstore"
	"arkiv/internal/storage/localfs"
	"arkiv/internal/storage/minio"

	"arkiv/internal/domain/services"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()
	logger := config.NewLogger(cfg.Environment)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"storage_backend", cfg.StorageBackend,
	)

	ctx := context.Background()

	// Database
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}
	logger.Info("database connected")

	// Repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgres.NewFolderRepository(repoConfig)
	docRepo := postgres.NewDocumentRepository(repoConfig)
	workflowRepo := postgres.NewWorkflowRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Blob storage for version bytes
	var blobs services.BlobStore
	switch cfg.StorageBackend {
	case "s3":
		blobs, err = minio.New(ctx, minio.Options{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			log.Fatalf("Failed to create s3 blob store: %v", err)
		}
	default:
		blobs, err = localfs.New(cfg.StoragePath)
		if err != nil {
			log.Fatalf("Failed to create local blob store: %v", err)
		}
	}

	// Optional ingestion event publishing
	var events services.EventPublisher
	if cfg.NATSURL != "" {
		publisher, err := natsevents.New(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer publisher.Close()
		events = publisher
		logger.Info("event publishing enabled", "subject", cfg.NATSSubject)
	}

	// Optional folder summary cache
	var summaryCache docstore.SummaryCache
	if cfg.RedisURL != "" {
		sc, err := cache.NewSummaryCache(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer sc.Close()
		summaryCache = sc
		logger.Info("summary cache enabled")
	}

	// Services
	workflowRegistry := docstore.NewWorkflowRegistry(workflowRepo, folderRepo, logger)
	folderService := docstore.NewFolderService(folderRepo, docRepo, txManager, summaryCache, logger)
	treeService := docstore.NewTreeService(folderRepo, docRepo, summaryCache, logger)
	ingestService := docstore.NewIngestService(docRepo, folderRepo, workflowRegistry, txManager, blobs, events, summaryCache, logger)

	logger.Info("services initialized")

	// Handlers
	serverMetrics := metrics.NewHTTPServerMetrics("arkiv")
	folderHandler := handler.NewFolderHandler(folderService, treeService, workflowRegistry, logger)
	docHandler := handler.NewDocumentHandler(ingestService, serverMetrics, logger)

	// HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", docHandler.HealthCheck)
	mux.Handle("GET /metrics", serverMetrics.Handler())

	// Folder routes
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders/tree", folderHandler.GetTree) // Must come before {id} route
	mux.HandleFunc("GET /api/folders/{id}", folderHandler.GetFolder)
	mux.HandleFunc("PATCH /api/folders/{id}", folderHandler.UpdateFolder)
	mux.HandleFunc("POST /api/folders/{id}/move", folderHandler.MoveFolder)
	mux.HandleFunc("DELETE /api/folders/{id}", folderHandler.DeleteFolder)
	mux.HandleFunc("GET /api/folders/{id}/children", folderHandler.ListChildren)
	mux.HandleFunc("GET /api/folders/{id}/summary", folderHandler.GetFolderSummary)
	mux.HandleFunc("GET /api/folders/{id}/has-workflow", folderHandler.HasWorkflow)

	// Document routes
	mux.HandleFunc("POST /api/documents/upload", docHandler.Upload)
	mux.HandleFunc("GET /api/documents/{id}", docHandler.GetDocument)
	mux.HandleFunc("GET /api/documents/{id}/content", docHandler.GetContent)
	mux.HandleFunc("POST /api/documents/{id}/resolve-duplicate", docHandler.ResolveDuplicate)
	mux.HandleFunc("DELETE /api/documents/{id}", docHandler.DeleteDocument)

	// Build middleware chain (applied in reverse order, they wrap each other)
	// Order: CORS → Recovery → RequestID → AccessLog → Metrics → Auth → Routes
	var root http.Handler = mux

	if cfg.JWKSURL != "" {
		verifier, err := auth.NewJWKSVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer verifier.Close()
		root = middleware.Auth(verifier)(root)
	} else {
		logger.Warn("DEV MODE: auth disabled, all requests run as configured dev user", "user_id", cfg.DevUserID)
		root = middleware.DevAuth(cfg.DevUserID)(root)
	}

	root = serverMetrics.Middleware("arkiv", root)
	root = middleware.AccessLog(logger)(root)
	root = middleware.RequestID(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // Large uploads and content downloads
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
