package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"

	"commerce-core-square-layer/internal/application"
	"commerce-core-square-layer/internal/domain"
	"commerce-core-square-layer/internal/infrastructure/lock"
	"commerce-core-square-layer/internal/infrastructure/metrics"
	"commerce-core-square-layer/internal/infrastructure/repository"
	"commerce-core-square-layer/internal/infrastructure/square"
	"commerce-core-square-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	// Get configuration from environment
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	environment := domain.Environment(os.Getenv("SQUARE_ENVIRONMENT"))
	if environment == "" {
		environment = domain.EnvironmentSandbox
	}

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "http://localhost:8080"
	}

	squareCfg := square.Config{
		ApplicationID: os.Getenv("SQUARE_APPLICATION_ID"),
		Secret:        os.Getenv("SQUARE_SECRET"),
		Environment:   environment,
		RedirectURI:   os.Getenv("SQUARE_REDIRECT_URI"),
	}
	if squareCfg.ApplicationID == "" || squareCfg.Secret == "" {
		logger.Fatal().Msg("SQUARE_APPLICATION_ID and SQUARE_SECRET environment variables are required")
	}
	if squareCfg.RedirectURI == "" {
		squareCfg.RedirectURI = appURL + "/auth/callback"
	}

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(os.Getenv("MONGODB_DATABASE"))

	// Initialize repositories
	integrationRepo := repository.NewMongoIntegrationRepository(db)
	mappingRepo := repository.NewMongoMappingRepository(db)
	syncLogRepo := repository.NewMongoSyncLogRepository(db)
	platformStore := repository.NewMongoPlatformStore(db)

	// Initialize rate limiter for the Square API
	rateLimiter, err := square.NewRateLimiter(
		envInt("SQUARE_RATE_LIMIT_PER_SECOND", 10),
		envInt("SQUARE_RATE_LIMIT_PER_MINUTE", 500),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid rate limit configuration")
	}

	// Sync locks are in-process unless a Redis address is configured, in
	// which case they are shared across replicas.
	var syncLock ports.SyncLock = lock.NewMemorySyncLock()
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		syncLock = lock.NewRedisSyncLock(redisClient, application.DefaultRunTimeout, logger)
		logger.Info().Str("addr", redisAddr).Msg("Using Redis-backed sync locks")
	}

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Initialize the Square client and application services
	providerClient := square.NewClient(squareCfg, logger)

	connectionService := application.NewConnectionService(
		integrationRepo,
		syncLogRepo,
		providerClient,
		environment,
		logger,
	)

	syncService := application.NewSyncService(
		integrationRepo,
		mappingRepo,
		syncLogRepo,
		platformStore,
		providerClient,
		connectionService,
		syncLock,
		rateLimiter,
		m,
		environment,
		logger,
	).WithConcurrency(envInt("SYNC_BATCH_CONCURRENCY", application.DefaultBatchConcurrency))

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Tenant middleware (extracts the tenant ID from the X-Tenant-ID header).
	// Public routes like /health and the OAuth callback are skipped.
	r.Use(tenantIDMiddleware(logger))

	// Public routes (no tenant ID required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// OAuth routes
	r.Get("/auth/connect", oauthConnectHandler(connectionService, logger))
	r.Get("/auth/callback", oauthCallbackHandler(connectionService, logger))

	// Sync and integration routes
	r.Post("/sync", triggerSyncHandler(syncService, logger))
	r.Get("/integrations/status", integrationStatusHandler(connectionService, logger))
	r.Delete("/integrations", disconnectHandler(connectionService, logger))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Str("environment", string(environment)).Msg("Starting API server")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// publicRoutes need no tenant header: health and metrics for monitoring, and
// the OAuth routes because merchants reach them through browser redirects —
// /auth/connect identifies the tenant by query parameter and /auth/callback
// recovers it from the state parameter.
var publicRoutes = map[string]bool{
	"/health":        true,
	"/metrics":       true,
	"/auth/connect":  true,
	"/auth/callback": true,
}

// tenantIDMiddleware requires the X-Tenant-ID header on tenant-scoped routes
// and places it in the request context.
func tenantIDMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicRoutes[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			tenantID := r.Header.Get("X-Tenant-ID")
			if tenantID == "" {
				logger.Warn().Str("path", r.URL.Path).Msg("Missing X-Tenant-ID header")
				http.Error(w, "X-Tenant-ID header is required", http.StatusUnauthorized)
				return
			}

			ctx := domain.WithTenantID(r.Context(), tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// oauthConnectHandler starts the authorization flow by redirecting the
// tenant to Square's consent page.
func oauthConnectHandler(connections *application.ConnectionService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.URL.Query().Get("tenant_id")
		if tenantID == "" {
			tenantID = r.Header.Get("X-Tenant-ID")
		}
		if tenantID == "" {
			http.Error(w, "tenant_id parameter is required", http.StatusBadRequest)
			return
		}

		authURL, err := connections.GenerateAuthorizationURL(tenantID)
		if err != nil {
			logger.Error().Err(err).Str("tenantID", tenantID).Msg("Failed to build authorization URL")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// oauthCallbackHandler completes the authorization flow. The tenant is
// recovered from the state parameter rather than a header because Square
// makes this request.
func oauthCallbackHandler(connections *application.ConnectionService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")
		if code == "" || state == "" {
			http.Error(w, "Missing required parameters", http.StatusBadRequest)
			return
		}

		_, tenantID, err := application.ParseState(state)
		if err != nil {
			logger.Warn().Err(err).Msg("Rejected OAuth callback with malformed state")
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}

		ctx = domain.WithTenantID(ctx, tenantID)
		integration, err := connections.Connect(ctx, tenantID, code)
		if err != nil {
			logger.Error().Err(err).Str("tenantID", tenantID).Msg("Failed to complete authorization")
			http.Error(w, "Failed to complete authorization", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":     "connected",
			"merchantId": integration.MerchantID,
		})
	}
}

type triggerSyncRequest struct {
	Type      domain.SyncType      `json:"type"`
	Direction domain.SyncDirection `json:"direction"`
}

// triggerSyncHandler runs a sync for the tenant in the request context. A
// run already in flight for the same tenant and sync type yields 409.
func triggerSyncHandler(syncService *application.SyncService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID := domain.GetTenantIDFromContext(ctx)

		var req triggerSyncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Type != domain.SyncTypeCatalog && req.Type != domain.SyncTypeInventory {
			http.Error(w, "type must be catalog or inventory", http.StatusBadRequest)
			return
		}
		if req.Direction != domain.DirectionToProvider && req.Direction != domain.DirectionFromProvider {
			http.Error(w, "direction must be to_provider or from_provider", http.StatusBadRequest)
			return
		}

		summary, err := syncService.TriggerSync(ctx, tenantID, req.Type, req.Direction)
		switch {
		case errors.Is(err, domain.ErrSyncInProgress):
			http.Error(w, "A sync of this type is already running for this tenant", http.StatusConflict)
			return
		case errors.Is(err, domain.ErrNotConnected):
			http.Error(w, "Tenant is not connected to Square", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case errors.Is(err, domain.ErrReauthorizationRequired):
			w.WriteHeader(http.StatusUnauthorized)
		case err != nil:
			logger.Error().Err(err).Str("tenantID", tenantID).Msg("Sync run failed")
			w.WriteHeader(http.StatusBadGateway)
		}
		json.NewEncoder(w).Encode(summary)
	}
}

func integrationStatusHandler(connections *application.ConnectionService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID := domain.GetTenantIDFromContext(ctx)

		status, err := connections.Status(ctx, tenantID)
		if err != nil {
			logger.Error().Err(err).Str("tenantID", tenantID).Msg("Failed to get integration status")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}

func disconnectHandler(connections *application.ConnectionService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tenantID := domain.GetTenantIDFromContext(ctx)

		if err := connections.Disconnect(ctx, tenantID); err != nil {
			if errors.Is(err, domain.ErrNotConnected) {
				http.Error(w, "Tenant is not connected to Square", http.StatusNotFound)
				return
			}
			logger.Error().Err(err).Str("tenantID", tenantID).Msg("Failed to disconnect")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "disconnected"})
	}
}
