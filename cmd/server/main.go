package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aniss699/bidguard/internal/cache"
	"github.com/aniss699/bidguard/internal/database"
	"github.com/aniss699/bidguard/internal/encoding"
	"github.com/aniss699/bidguard/internal/engine"
	"github.com/aniss699/bidguard/internal/errors"
	"github.com/aniss699/bidguard/internal/integrity"
	"github.com/aniss699/bidguard/internal/marketprice"
	"github.com/aniss699/bidguard/internal/monitoring"
	"github.com/aniss699/bidguard/internal/ratelimit"
	"github.com/aniss699/bidguard/internal/scoring"
	"github.com/aniss699/bidguard/internal/security"
	"github.com/aniss699/bidguard/internal/types"
)

// serverDeps bundles everything the HTTP layer needs. Keeping it explicit
// makes the router testable with httptest.
type serverDeps struct {
	scorer     *scoring.Engine
	detector   *integrity.Detector
	resolver   *marketprice.Resolver
	repo       *database.Repository
	dispatcher *engine.Dispatcher
	limiter    *ratelimit.RateLimiter
	metrics    *monitoring.Metrics
	logger     *monitoring.Logger
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment with defaults
	dataDir := getEnvOrDefault("DATA_DIR", "./data")
	port := getEnvOrDefault("PORT", "8080")
	redisAddr := os.Getenv("REDIS_ADDR")
	redisPassword := os.Getenv("REDIS_PASSWORD")
	integrityConfigPath := os.Getenv("INTEGRITY_CONFIG")
	workers := getEnvIntOrDefault("ANALYSIS_WORKERS", 0)
	cacheTTL := getEnvIntOrDefault("REPORT_CACHE_TTL_MINUTES", 15)

	db, err := database.NewDB(dataDir)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	repo := database.NewRepository(db)

	scoringEngine, err := scoring.NewEngine(scoring.DefaultConfig())
	if err != nil {
		exitOnConfigError("Invalid scoring weights", err)
	}

	integrityConfig := integrity.DefaultConfig()
	if integrityConfigPath != "" {
		integrityConfig, err = integrity.LoadConfig(integrityConfigPath)
		if err != nil {
			exitOnConfigError("Failed to load integrity config from "+integrityConfigPath, err)
		}
	}
	detector, err := integrity.NewDetector(integrityConfig)
	if err != nil {
		exitOnConfigError("Invalid integrity detection thresholds", err)
	}

	// Redis is optional; without it rate limiting falls back to in-memory
	// buckets and market prices to the static table
	redisClient, err := ratelimit.NewRedisClient(redisAddr, redisPassword, 0)
	if err != nil {
		slog.Warn("Redis unavailable, continuing with fallbacks", "error", err)
	}
	defer redisClient.Close()

	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig(), appMetrics)
	resolver := marketprice.NewResolver(redisClient.GetClient(), appLogger.Logger)

	reportCache := cache.NewReportCache(time.Duration(cacheTTL) * time.Minute)
	encoder := encoding.NewCanonicalEncoder()

	pipeline := engine.NewIntegrityPipeline(detector, resolver, repo, reportCache, encoder, appMetrics, appLogger.Logger)
	dispatcher := engine.NewDispatcher(pipeline, workers, appMetrics, appLogger.Logger)
	defer dispatcher.Stop()

	deps := &serverDeps{
		scorer:     scoringEngine,
		detector:   detector,
		resolver:   resolver,
		repo:       repo,
		dispatcher: dispatcher,
		limiter:    limiter,
		metrics:    appMetrics,
		logger:     appLogger,
	}

	r := buildRouter(deps)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func buildRouter(deps *serverDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(monitoring.MonitoringMiddleware(deps.metrics, deps.logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())
	r.Use(security.HeadersMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{getEnvOrDefault("CORS_ORIGIN", "*")}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	if corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowOrigins = nil
	}
	r.Use(cors.New(corsConfig))

	r.Use(deps.limiter.IPRateLimitMiddleware())

	r.GET("/health", deps.handleHealth)
	r.GET("/metrics", deps.handleMetrics)

	r.POST("/score", deps.handleScore)
	r.POST("/integrity", deps.handleIntegrity)

	missions := r.Group("/missions")
	missions.POST("/:id/analyze", deps.limiter.MissionRateLimitMiddleware(), deps.handleAnalyze)
	missions.GET("/:id/report", deps.handleReport)

	return r
}

// handleScore evaluates one bid against its mission and provider profile
func (s *serverDeps) handleScore(c *gin.Context) {
	var req types.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("Invalid score request", err.Error()))
		return
	}
	if req.Bid.MissionID != "" && req.Bid.MissionID != req.Mission.ID {
		c.Error(errors.NewValidationError("Bid does not belong to the given mission"))
		return
	}

	start := time.Now()
	report := s.scorer.ScoreBid(req.Bid, req.Mission, req.Provider)
	s.metrics.IncrementBidsScored()
	s.logger.ScoreLogger(req.Bid.ID, req.Mission.ID, report.FinalScore, report.Confidence, time.Since(start))

	c.JSON(http.StatusOK, report)
}

// handleIntegrity runs a synchronous dumping/collusion analysis over the
// posted bid set
func (s *serverDeps) handleIntegrity(c *gin.Context) {
	var req types.IntegrityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("Invalid integrity request", err.Error()))
		return
	}

	var marketPrice decimal.Decimal
	if req.MarketPrice != nil {
		marketPrice = *req.MarketPrice
	} else {
		marketPrice = s.resolver.Resolve(c.Request.Context(), req.Category)
	}

	start := time.Now()
	report := s.detector.Analyze(req.Bids, marketPrice)
	s.logger.IntegrityLogger(req.MissionID, len(req.Bids), len(report.SkippedBids),
		string(report.Dumping.Severity), report.Collusion.Confidence, time.Since(start))

	if len(report.PartialReasons) > 0 {
		// still a 200: the caller gets the report plus the skipped stages
		errors.LogError(c, errors.NewPartialAnalysisError(report.PartialReasons))
	}

	c.JSON(http.StatusOK, report)
}

type analyzeRequest struct {
	Mission types.Mission `json:"mission" binding:"required"`
	Bids    []types.Bid   `json:"bids" binding:"required"`
}

// handleAnalyze stores the mission snapshot and schedules an asynchronous
// integrity analysis. The response carries a request id only; the report is
// fetched from the report endpoint once published.
func (s *serverDeps) handleAnalyze(c *gin.Context) {
	missionID := c.Param("id")

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidationError("Invalid analyze request", err.Error()))
		return
	}
	if req.Mission.ID != "" && req.Mission.ID != missionID {
		c.Error(errors.NewValidationError("Mission id mismatch between path and body"))
		return
	}
	req.Mission.ID = missionID

	if err := s.repo.UpsertMission(req.Mission); err != nil {
		c.Error(errors.NewInternalError("Failed to store mission", err))
		return
	}
	if err := s.repo.ReplaceBids(missionID, req.Bids); err != nil {
		c.Error(errors.NewInternalError("Failed to store bids", err))
		return
	}

	version := s.dispatcher.Trigger(missionID)
	s.logger.DispatchLogger("triggered", missionID, version)

	c.JSON(http.StatusAccepted, gin.H{
		"mission_id": missionID,
		"request_id": uuid.NewString(),
		"status":     "scheduled",
	})
}

// handleReport returns the last published integrity report for a mission
func (s *serverDeps) handleReport(c *gin.Context) {
	missionID := c.Param("id")

	report, hash, err := s.repo.GetReport(missionID)
	if err != nil {
		c.Error(errors.NewInternalError("Failed to load report", err))
		return
	}
	if report == nil {
		c.Error(errors.NewNotFoundError("report for mission " + missionID))
		return
	}

	c.Header("X-Snapshot-Hash", hash)
	c.Data(http.StatusOK, "application/json", report)
}

func (s *serverDeps) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

func (s *serverDeps) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetStats())
}

// exitOnConfigError logs a startup misconfiguration as a typed error and
// terminates; a half-configured engine must never serve scores
func exitOnConfigError(message string, cause error) {
	appErr := errors.NewConfigurationError(message, cause)
	slog.Error(appErr.Error(),
		"error_code", appErr.ErrCode(),
		"cause", cause)
	os.Exit(1)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
