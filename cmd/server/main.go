// The UOLink API server: a university note-sharing platform backend.
//
// This package wires the application together; behavior lives in the
// subpackages:
//
//   - internal/handlers: HTTP request handlers for all API endpoints
//   - internal/models: data models and database schemas
//   - internal/auth: authentication, OAuth, 2FA, and session tokens
//   - internal/notes, internal/aura: note listings, votes, and the
//     reputation ledger
//   - internal/cache: two-tier query cache (Redis + in-process)
//   - internal/warming: background cache warming
//   - internal/realtime: WebSocket hub for live notifications
//   - internal/moderation: upload-time content screening
//   - internal/search: Elasticsearch indexing and queries
//   - internal/storage: file storage (Cloudflare R2)
//   - internal/email: transactional email (SES)
//   - internal/middleware: rate limiting, caching, security headers,
//     metrics, and tracing
//   - internal/database: connection pooling and migrations
//
// See the individual package documentation for details.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/alerts"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/aura"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/auth"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/cache"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/config"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/database"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/email"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/handlers"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/middleware"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/moderation"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/notes"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/notifications"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/realtime"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/search"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/storage"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/telemetry"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/timetable"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/validation"
	"github.com/Aazib-Ai/UOLink-App-sub006/internal/warming"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE")); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Log.Sync()

	logger.Log.Info("UOLink backend starting")

	// OpenTelemetry (optional, driven by OTEL_ENABLED)
	samplingRate := 1.0
	if v := os.Getenv("OTEL_SAMPLING_RATE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			samplingRate = parsed
		}
	}
	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "uolink-backend",
		Environment:  os.Getenv("ENVIRONMENT"),
		OTLPEndpoint: os.Getenv("OTLP_ENDPOINT"),
		Enabled:      os.Getenv("OTEL_ENABLED") == "true",
		SamplingRate: samplingRate,
	})
	if err != nil {
		logger.Log.Warn("Failed to initialize tracing, continuing without", zap.Error(err))
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		}()
	}

	// Database is the only hard dependency.
	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis backs the cross-instance cache tier; without it the query
	// cache runs local-only.
	redisClient, err := cache.NewRedisClient(
		os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"), os.Getenv("REDIS_PASSWORD"))
	if err != nil {
		logger.Log.Warn("Redis unavailable, query cache is local-only", zap.Error(err))
		redisClient = nil
	}
	cache.NewStore(redisClient)

	// Fail fast when a required backing service is down.
	validator := validation.NewServiceValidator()
	if err := validator.ValidateServices(context.Background()); err != nil {
		logger.Log.Fatal("Service validation failed", zap.Error(err))
	}

	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Log.Fatal("JWT_SECRET environment variable is required")
	}

	googleConfig, err := config.LoadGoogleOAuthConfig()
	if err != nil {
		logger.Log.Warn("Google OAuth disabled", zap.Error(err))
		googleConfig = nil
	}

	// Core services
	authService := auth.NewService(jwtSecret, googleConfig)
	auraService := aura.NewService()
	notesService := notes.NewService(auraService)
	timetableService := timetable.NewService()
	moderationEngine := moderation.NewEngine()

	// Realtime hub feeds the notification service's live pushes.
	hub := realtime.NewHub()
	go hub.Run()
	wsHandler := realtime.NewHandler(hub, authService)
	notificationService := notifications.NewService(hub)

	h := handlers.NewHandlers(
		authService, notesService, auraService,
		timetableService, notificationService, moderationEngine,
	)
	h.SetRealtimeHub(hub)

	// Cloudflare R2 file storage
	r2Client, err := storage.NewR2Client(storage.R2Config{
		Endpoint:        os.Getenv("R2_ENDPOINT"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		Bucket:          os.Getenv("R2_BUCKET"),
		PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	})
	if err != nil {
		logger.Log.Warn("R2 storage disabled, uploads will fail", zap.Error(err))
	} else {
		h.SetStorage(r2Client)
	}

	// SES transactional email
	emailService, err := email.NewEmailService(
		os.Getenv("AWS_REGION"),
		os.Getenv("EMAIL_FROM_ADDRESS"),
		os.Getenv("EMAIL_FROM_NAME"),
		os.Getenv("APP_BASE_URL"),
	)
	if err != nil {
		logger.Log.Warn("Email disabled, verification and reset emails will be skipped", zap.Error(err))
	} else {
		h.SetEmailSender(emailService)
	}

	// Elasticsearch search
	var reconciler *search.ReconciliationService
	searchClient, err := search.NewClient()
	if err != nil {
		logger.Log.Warn("Search disabled", zap.Error(err))
	} else {
		if err := searchClient.InitializeIndices(context.Background()); err != nil {
			logger.Log.Warn("Failed to initialize search indices", zap.Error(err))
		}
		h.SetSearchClient(searchClient)

		reconciler = search.NewReconciliationService(searchClient, 30*time.Minute)
		reconciler.Start()
		defer reconciler.Stop()
	}

	// Cache warming keeps the hot listings primed.
	warmingScheduler := warming.NewScheduler(notesService, auraService, warming.DefaultInterval)
	warmingScheduler.Start()
	defer warmingScheduler.Stop()
	h.SetWarmingScheduler(warmingScheduler)

	// Metric-driven operational alerts
	alertManager := alerts.NewManager()
	alertEvaluator := alerts.NewEvaluator(alertManager)
	alertEvaluator.InitializeDefaultRules()
	stopAlerts := alertEvaluator.StartEvaluationLoop(time.Minute)
	defer close(stopAlerts)
	h.SetAlertManager(alertManager)

	router := buildRouter(h, wsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logger.Log.Info("UOLink backend listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := wsHandler.Shutdown(ctx); err != nil {
		logger.Log.Warn("WebSocket shutdown incomplete", zap.Error(err))
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server exited")
}

func buildRouter(h *handlers.Handlers, wsHandler *realtime.Handler) *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CorrelationMiddleware())
	router.Use(middleware.GinLoggerMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.TracingMiddleware("uolink-backend"))
	router.Use(middleware.SpanEnrichmentMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		corsConfig.AllowOrigins = []string{origins}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// PWA shell, when bundled with the server. Cache-Control per asset
	// class comes from the security headers middleware.
	if staticDir := os.Getenv("STATIC_DIR"); staticDir != "" {
		router.Static("/assets", staticDir+"/assets")
		router.StaticFile("/manifest.json", staticDir+"/manifest.json")
		router.StaticFile("/sw.js", staticDir+"/sw.js")
		router.StaticFile("/", staticDir+"/index.html")
	}

	api := router.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authGroup.Use(middleware.RateLimitSmartAuth())
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.POST("/login/2fa", h.LoginWith2FA)
			authGroup.POST("/logout", h.AuthMiddleware(), h.Logout)

			authGroup.GET("/google", h.GoogleLogin)
			authGroup.GET("/google/callback", h.GoogleCallback)

			authGroup.POST("/password-reset", h.RequestPasswordReset)
			authGroup.POST("/password-reset/confirm", h.ConfirmPasswordReset)
			authGroup.POST("/verify-email", h.VerifyEmail)
			authGroup.POST("/resend-verification", h.AuthMiddleware(), h.ResendVerification)

			authGroup.GET("/me", h.AuthMiddleware(), h.Me)

			authGroup.GET("/2fa", h.AuthMiddleware(), h.Get2FAStatus)
			authGroup.POST("/2fa/setup", h.AuthMiddleware(), h.Begin2FASetup)
			authGroup.POST("/2fa/confirm", h.AuthMiddleware(), h.Confirm2FASetup)
			authGroup.POST("/2fa/disable", h.AuthMiddleware(), h.Disable2FA)
		}

		// Public browsing; viewer flags light up when a token is present.
		public := api.Group("")
		public.Use(middleware.RateLimitSmartDefault(), h.OptionalAuthMiddleware())
		{
			public.GET("/notes", h.ListNotes)
			public.GET("/notes/recent", h.RecentNotes)
			// Filters and the leaderboard render the same for every
			// viewer, so their responses are safe to cache whole.
			public.GET("/notes/filters", middleware.ResponseCacheMiddleware(5*time.Minute), h.GetFilterOptions)
			public.GET("/notes/:id", h.GetNote)
			public.GET("/notes/:id/download", h.DownloadNote)
			public.GET("/leaderboard", middleware.ResponseCacheMiddleware(time.Minute), h.GetLeaderboard)
			public.GET("/users/:username", h.GetProfile)
			public.GET("/users/:username/notes", h.GetProfileNotes)
			public.POST("/client-errors", h.ReportClientErrors)
		}

		searchGroup := api.Group("/search")
		searchGroup.Use(middleware.RateLimitSmartSearch(), h.OptionalAuthMiddleware())
		{
			searchGroup.GET("/notes", h.SearchNotes)
			searchGroup.GET("/users", h.SearchUsers)
			searchGroup.GET("/users/suggest", h.SuggestUsers)
		}

		private := api.Group("")
		private.Use(middleware.RateLimitSmartDefault(), h.AuthMiddleware())
		{
			private.POST("/notes", middleware.RateLimitSmartUpload(), h.UploadNote)
			private.PATCH("/notes/:id", h.UpdateNote)
			private.DELETE("/notes/:id", h.DeleteNote)
			private.POST("/notes/:id/vote", h.VoteNote)
			private.POST("/notes/:id/save", h.SaveNote)
			private.DELETE("/notes/:id/save", h.UnsaveNote)

			private.PATCH("/me", h.UpdateProfile)
			private.POST("/me/avatar", h.UploadAvatar)
			private.GET("/me/saved", h.SavedNotes)
			private.GET("/me/aura", h.GetAuraHistory)

			private.GET("/me/notifications", h.GetNotifications)
			private.POST("/me/notifications/:id/read", h.MarkNotificationRead)
			private.POST("/me/notifications/read-all", h.MarkAllNotificationsRead)

			private.GET("/timetable", h.GetTimetable)
			private.POST("/timetable", h.CreateTimetableEntry)
			private.PATCH("/timetable/:id", h.UpdateTimetableEntry)
			private.DELETE("/timetable/:id", h.DeleteTimetableEntry)

			private.POST("/reports", h.CreateReport)
		}

		mod := api.Group("/moderation")
		mod.Use(h.AuthMiddleware(), middleware.RequireModerator())
		{
			mod.GET("/reports", h.ListReports)
			mod.POST("/reports/:id/review", h.ReviewReport)
			mod.GET("/notes/pending", h.PendingNotes)
			mod.POST("/notes/:id/remove", h.RemoveNote)
			mod.POST("/notes/:id/restore", h.RestoreNote)
			mod.POST("/users/:id/aura", h.AdjustAura)

			mod.GET("/ops/cache", h.CacheStats)
			mod.POST("/ops/cache/clear", h.FlushCache)
			mod.POST("/ops/cache/warm", h.WarmCache)
			mod.GET("/ops/realtime", h.RealtimeStats)
			mod.GET("/ops/alerts", h.Alerts)
			mod.POST("/ops/alerts/:id/resolve", h.ResolveAlert)
			mod.GET("/ops/client-errors", h.ListClientErrors)
		}

		ws := api.Group("/ws")
		{
			ws.GET("", wsHandler.HandleWebSocket)
			ws.GET("/stats", h.AuthMiddleware(), middleware.RequireModerator(), wsHandler.HandleStats)
		}
	}

	return router
}
