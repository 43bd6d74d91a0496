package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/textile_backend/config"
	"bitbucket.org/mmdatafocus/textile_backend/models"
	"bitbucket.org/mmdatafocus/textile_backend/utils"
	"bitbucket.org/mmdatafocus/textile_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

var dataSource models.DataSource

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

// respondError maps domain errors to HTTP statuses. Validation and limit
// violations are the caller's fault; transition conflicts are 409 so retry
// loops can tell them apart from bad input.
func respondError(c *gin.Context, err error) {
	var validationErr *utils.ValidationError
	var overLimitErr *utils.OverLimitError
	var transitionErr *utils.InvalidTransitionError
	var persistenceErr *utils.PersistenceError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error(), "field": validationErr.Field})
	case errors.As(err, &overLimitErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": overLimitErr.Error(), "limit": overLimitErr.Limit.StringFixed(2)})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{"error": transitionErr.Error()})
	case utils.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
	case errors.Is(err, models.ErrFixtureReadOnly):
		c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrFixtureReadOnly.Error()})
	case errors.As(err, &persistenceErr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// mutationsAllowed rejects writes while serving from the fixture snapshot.
func mutationsAllowed(c *gin.Context) bool {
	if config.DataSourceMode() == "fixture" {
		respondError(c, models.ErrFixtureReadOnly)
		return false
	}
	return true
}

// bindJSON decodes the request body, flattening validator failures into a
// field -> message map so clients see which field was rejected.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return false
	}
	return true
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func createObligationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mutationsAllowed(c) {
			return
		}
		var input models.NewObligation
		if !bindJSON(c, &input) {
			return
		}
		obligation, err := models.CreateObligation(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, obligation)
	}
}

func getObligationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		obligation, err := dataSource.GetObligation(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"obligation": obligation,
			"remaining":  obligation.Remaining().StringFixed(2),
		})
	}
}

func listObligationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.ObligationFilter{
			CurrentStatus:    models.ObligationStatus(c.Query("status")),
			CounterpartyType: models.CounterpartyType(c.Query("counterparty_type")),
			OverdueOnly:      strings.EqualFold(c.Query("overdue_only"), "true"),
		}
		if v := c.Query("kind"); v != "" {
			kind, err := models.ParseObligationKind(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid kind"})
				return
			}
			filter.Kind = kind
		}
		if v := c.Query("counterparty_id"); v != "" {
			id, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid counterparty_id"})
				return
			}
			filter.CounterpartyId = id
		}
		obligations, err := dataSource.ListObligations(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"obligations": obligations})
	}
}

func cancelObligationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mutationsAllowed(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		force := strings.EqualFold(c.Query("force"), "true")
		obligation, err := models.CancelObligation(c.Request.Context(), id, force)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, obligation)
	}
}

func recordTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mutationsAllowed(c) {
			return
		}
		var input models.NewTransaction
		if !bindJSON(c, &input) {
			return
		}
		txn, err := models.RecordTransaction(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, txn)
	}
}

func listTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		obligationId, err := strconv.Atoi(c.Query("obligation_id"))
		if err != nil || obligationId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "obligation_id is required"})
			return
		}
		txns, err := dataSource.ListTransactions(c.Request.Context(), obligationId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"transactions": txns})
	}
}

type updateChequeRequest struct {
	Status        models.ChequeStatus `json:"status" binding:"required"`
	ClearanceDate *time.Time          `json:"clearance_date"`
}

func updateChequeStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mutationsAllowed(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		var req updateChequeRequest
		if !bindJSON(c, &req) {
			return
		}
		txn, err := models.UpdateChequeStatus(c.Request.Context(), id, req.Status, req.ClearanceDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, txn)
	}
}

func listPendingChequesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		txns, err := dataSource.ListPendingCheques(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"pending_cheques": txns})
	}
}

func createInventoryStockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mutationsAllowed(c) {
			return
		}
		var input models.NewInventoryStock
		if !bindJSON(c, &input) {
			return
		}
		stock, err := models.CreateInventoryStock(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, stock)
	}
}

func getInventoryStockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		stock, err := dataSource.GetInventoryStock(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stock)
	}
}

type adjustQuantityRequest struct {
	Delta         decimal.Decimal              `json:"delta"`
	ReferenceType models.MovementReferenceType `json:"reference_type"`
	ReferenceId   int                          `json:"reference_id"`
	MovementDate  *time.Time                   `json:"movement_date"`
}

func adjustQuantityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mutationsAllowed(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		var req adjustQuantityRequest
		if !bindJSON(c, &req) {
			return
		}
		if req.Delta.IsZero() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "delta must be non-zero"})
			return
		}
		refType := req.ReferenceType
		if refType == "" {
			refType = models.MovementReferenceTypeAdjustment
		}
		movementDate := time.Now().UTC()
		if req.MovementDate != nil {
			movementDate = *req.MovementDate
		}
		newQty, err := models.AdjustQuantity(c.Request.Context(), id, req.Delta, models.MovementRef{
			Type: refType,
			Id:   req.ReferenceId,
			Date: movementDate,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"stock_id":         id,
			"current_quantity": newQty.String(),
		})
	}
}

func listInventoryMovementsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		movements, err := dataSource.ListInventoryMovements(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"movements": movements})
	}
}

func createDyeingRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mutationsAllowed(c) {
			return
		}
		var input models.NewDyeingRun
		if !bindJSON(c, &input) {
			return
		}
		run, err := models.CreateDyeingRun(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, run)
	}
}

func getDyeingRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		run, err := dataSource.GetDyeingRun(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

func completeDyeingRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mutationsAllowed(c) {
			return
		}
		id, ok := pathId(c)
		if !ok {
			return
		}
		var input workflow.CompleteDyeingRunInput
		if !bindJSON(c, &input) {
			return
		}
		run, err := workflow.CompleteDyeingRun(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, run)
	}
}

func getCounterpartyBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c)
		if !ok {
			return
		}
		businessId, _ := utils.GetBusinessIdFromContext(c.Request.Context())

		var balance models.CounterpartyBalance
		cacheKey := models.CounterpartyBalanceCacheKey(businessId, id)
		if hit, err := config.GetRedisObject(cacheKey, &balance); err == nil && hit {
			c.JSON(http.StatusOK, balance)
			return
		}

		db := config.GetDB()
		err := db.WithContext(c.Request.Context()).
			Where("business_id = ? AND counterparty_id = ?", businessId, id).
			First(&balance).Error
		if err != nil {
			// No settlements processed yet; report zero balances.
			c.JSON(http.StatusOK, models.CounterpartyBalance{
				BusinessId:     businessId,
				CounterpartyId: id,
			})
			return
		}
		_ = config.SetRedisObject(cacheKey, balance, time.Hour)
		c.JSON(http.StatusOK, balance)
	}
}

type outboxReplayRequest struct {
	RecordId int `json:"record_id"`
}

// Ops tooling: requeue a DEAD/FAILED outbox row for another publish attempt.
func outboxReplayHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
		if !ok || businessId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "business id is required"})
			return
		}
		var req outboxReplayRequest
		if !bindJSON(c, &req) {
			return
		}
		if req.RecordId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "record_id is required"})
			return
		}

		db := config.GetDB()
		now := time.Now().UTC()
		if err := db.WithContext(c.Request.Context()).
			Model(&models.LedgerEventRecord{}).
			Where("id = ? AND business_id = ?", req.RecordId, businessId).
			Updates(map[string]interface{}{
				"publish_status":     models.OutboxPublishStatusFailed,
				"next_attempt_at":    &now,
				"locked_at":          nil,
				"locked_by":          nil,
				"last_publish_error": nil,
			}).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"business_id":     businessId,
			"record_id":       req.RecordId,
			"publish_status":  models.OutboxPublishStatusFailed,
			"next_attempt_at": now.Format(time.RFC3339Nano),
		})
	}
}

func reconcileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
		if !ok || businessId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "business id is required"})
			return
		}
		cid, err := models.RunReconciliationChecks(c.Request.Context(), businessId)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"business_id":    businessId,
			"correlation_id": cid,
		})
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB is ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness. Fixture mode has no DB.
		if config.DataSourceMode() != "fixture" && config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})
	// Tenant scoping: every app endpoint acts on one business.
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Next()
			return
		}
		businessId := c.GetHeader("x-business-id")
		if businessId == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "x-business-id header is required"})
			return
		}
		ctx := utils.SetBusinessIdInContext(c.Request.Context(), businessId)
		ctx = utils.SetUserIdInContext(ctx, 0)
		ctx = utils.SetUserNameInContext(ctx, "System")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "x-business-id", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/obligations", createObligationHandler())
	r.GET("/obligations", listObligationsHandler())
	r.GET("/obligations/:id", getObligationHandler())
	r.POST("/obligations/:id/cancel", cancelObligationHandler())

	r.POST("/transactions", recordTransactionHandler())
	r.GET("/transactions", listTransactionsHandler())
	r.PATCH("/cheques/:id", updateChequeStatusHandler())
	r.GET("/cheques/pending", listPendingChequesHandler())

	r.POST("/inventory-stocks", createInventoryStockHandler())
	r.GET("/inventory-stocks/:id", getInventoryStockHandler())
	r.POST("/inventory-stocks/:id/adjust", adjustQuantityHandler())
	r.GET("/inventory-stocks/:id/movements", listInventoryMovementsHandler())

	r.POST("/dyeing-runs", createDyeingRunHandler())
	r.GET("/dyeing-runs/:id", getDyeingRunHandler())
	r.PATCH("/dyeing-runs/:id/complete", completeDyeingRunHandler())

	r.GET("/counterparties/:id/balance", getCounterpartyBalanceHandler())

	// Ops tooling: replay outbox messages that were marked DEAD/FAILED and
	// run drift checks on demand.
	r.POST("/internal/ops/outbox/replay", outboxReplayHandler())
	r.POST("/internal/ops/reconcile", reconcileHandler())

	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	// Connect dependencies after the port is open. Fixture mode serves a
	// read-only snapshot and needs neither MySQL nor the workers.
	if config.DataSourceMode() != "fixture" {
		config.ConnectDatabaseWithRetry()
		config.ConnectRedisWithRetry()

		db := config.GetDB()
		sqlDB, _ := db.DB()
		defer func() {
			if sqlDB != nil {
				_ = sqlDB.Close()
			}
		}()
		// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
		// Allow disabling migrations on startup (run them as a separate job instead).
		if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
			models.MigrateTable()
		} else {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
		}

		// Start outbox dispatcher (publishes AFTER commit) and, when Pub/Sub
		// is configured, the balance-rebuild subscriber.
		go workflow.NewOutboxDispatcher(db, logger).Run(workerCtx)
		go func() {
			if err := workflow.RunLedgerEventSubscriber(workerCtx); err != nil {
				logger.WithFields(logrus.Fields{"field": "subscriber"}).Error("ledger event subscriber stopped: " + err.Error())
			}
		}()

		// Set the session isolation level to READ COMMITTED
		for attempt := 1; ; attempt++ {
			err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
			if err == nil {
				break
			}
			sleep := time.Second * time.Duration(1<<min(attempt, 5))
			if sleep > 30*time.Second {
				sleep = 30 * time.Second
			}
			logger.WithFields(logrus.Fields{
				"field":   "database",
				"attempt": attempt,
			}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
			time.Sleep(sleep)
		}
	}

	var err error
	dataSource, err = models.SelectDataSource(logger)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "datasource"}).Panic("could not initialize data source: " + err.Error())
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelWorkers()

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// Get the IP address or user identifier from the request.
	key := c.ClientIP() // Assuming IP-based rate limiting

	// Check if the key exists in Redis.
	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	// If the key exists, get the current count.
	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the count exceeds the limit, return an error response.
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
