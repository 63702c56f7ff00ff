package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/qolae/readers-dashboard-api/api/swagger"
	"github.com/qolae/readers-dashboard-api/internal/handler"
	"github.com/qolae/readers-dashboard-api/internal/middleware"
	"github.com/qolae/readers-dashboard-api/internal/models"
	"github.com/qolae/readers-dashboard-api/internal/repository"
	"github.com/qolae/readers-dashboard-api/internal/service"
	"github.com/qolae/readers-dashboard-api/internal/ssot"
	"github.com/qolae/readers-dashboard-api/pkg/cache"
	"github.com/qolae/readers-dashboard-api/pkg/config"
	"github.com/qolae/readers-dashboard-api/pkg/database"
	"github.com/qolae/readers-dashboard-api/pkg/logger"
	"github.com/qolae/readers-dashboard-api/pkg/mailer"
	corsmiddleware "github.com/qolae/readers-dashboard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/qolae/readers-dashboard-api/pkg/middleware/requestid"
	"github.com/qolae/readers-dashboard-api/pkg/storage"
)

// @title QOLAE Readers Dashboard API
// @version 1.0.0
// @description Reader onboarding, NDA signing and report review workflow
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}

	artifacts, err := storage.NewArtifactStore(cfg.NDA.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("artifact store init failed", "error", err)
	}
	downloadSigner := storage.NewDownloadTokenSigner(cfg.NDA.DownloadSecret, cfg.NDA.DownloadTTL)

	validate := validator.New()

	// Repositories.
	readerRepo := repository.NewReaderRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	versionRepo := repository.NewNdaVersionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Upstream clients.
	ssotClient := ssot.NewClient(cfg.SSOT, logr)
	hrClient := ssot.NewComplianceClient(cfg.HR, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	notifier := service.NewNotifier(mailer.New(cfg.SMTP, logr), cfg.Mailer, logr)
	notifier.Start(ctx)
	defer notifier.Stop()

	previews := service.NewPreviewCache(cfg.NDA.PreviewTTL, nil, logr)
	previews.Janitor(artifacts)
	previews.StartSweep(ctx, cfg.NDA.SweepInterval)

	authSvc := service.NewAuthService(readerRepo, ssotClient, notifier, activityRepo, metricsSvc, cfg.JWT, cfg.Auth, logr)
	readerSvc := service.NewReaderService(readerRepo, notifier, activityRepo, validate, logr)
	ndaSvc := service.NewNdaService(readerRepo, versionRepo, activityRepo, artifacts, downloadSigner,
		service.NewSignatureInserter(logr), previews, metricsSvc, cfg.NDA.CounterSigAsset, logr)
	versionSvc := service.NewNdaVersionService(versionRepo, artifacts, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, readerRepo, notifier, activityRepo, validate, metricsSvc, cfg.Auth.DefaultDeadline, logr)
	paymentSvc := service.NewPaymentService(assignmentRepo, readerRepo, notifier, activityRepo, metricsSvc, logr)
	activitySvc := service.NewActivityService(activityRepo, logr)
	dashboardSvc := service.NewDashboardService(readerRepo, assignmentRepo, hrClient, cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	readerHandler := handler.NewReaderHandler(readerSvc)
	ndaHandler := handler.NewNdaHandler(ndaSvc, cfg.NDA.WizardBase)
	versionHandler := handler.NewNdaVersionHandler(versionSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc, dashboardSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, dashboardSvc)
	activityHandler := handler.NewActivityHandler(activitySvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix + "/v1")

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/verify-code", authHandler.VerifyCode)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/session", middleware.JWT(authSvc), authHandler.Session)
	}

	admin := string(models.RoleAdmin)

	readers := api.Group("/readers", middleware.JWT(authSvc))
	{
		readers.POST("", middleware.RBAC(admin), middleware.Audit(activitySvc, "reader created"), readerHandler.Create)
		readers.GET("", middleware.RBAC(admin), readerHandler.List)
		readers.GET("/:pin", middleware.RBAC(admin, "SELF"), readerHandler.Get)
		readers.PUT("/:pin", middleware.RBAC(admin, "SELF"), readerHandler.Update)
		readers.PATCH("/:pin/status", middleware.RBAC(admin), middleware.Audit(activitySvc, "reader status changed"), readerHandler.UpdateStatus)
	}

	nda := api.Group("/nda", middleware.JWT(authSvc))
	{
		nda.POST("/continue-to-sign", ndaHandler.ContinueToSign)
		nda.POST("/preview", ndaHandler.GeneratePreview)
		nda.GET("/preview-pdf", ndaHandler.PreviewPDF)
		nda.POST("/sign", ndaHandler.Sign)
		nda.GET("/status", ndaHandler.Status)
		nda.GET("/view", ndaHandler.View)

		nda.GET("/versions", middleware.RBAC(admin), versionHandler.List)
		nda.GET("/versions/current", versionHandler.Current)
		nda.POST("/versions", middleware.RBAC(admin), middleware.Audit(activitySvc, "nda version registered"), versionHandler.Create)
		nda.POST("/versions/:id/publish", middleware.RBAC(admin), middleware.Audit(activitySvc, "nda version published"), versionHandler.Publish)
	}
	// Token-authenticated, used from emailed links without a session.
	api.GET("/nda/download", ndaHandler.Download)

	workGate := middleware.WorkGate(readerRepo, hrClient)

	assignments := api.Group("/assignments", middleware.JWT(authSvc))
	{
		assignments.POST("", middleware.RBAC(admin), middleware.Audit(activitySvc, "assignment created"), assignmentHandler.Create)
		assignments.GET("", middleware.RBAC(admin), assignmentHandler.List)
		assignments.GET("/mine", workGate, assignmentHandler.ListMine)
		assignments.GET("/:id", assignmentHandler.Get)
		assignments.POST("/:id/correction", workGate, assignmentHandler.SubmitCorrection)
		assignments.POST("/:id/approve", middleware.RBAC(admin), middleware.Audit(activitySvc, "correction approved"), assignmentHandler.Approve)
		assignments.PATCH("/:id/payment", middleware.RBAC(admin), middleware.Audit(activitySvc, "payment updated"), paymentHandler.Update)
	}

	api.GET("/payments/unpaid", middleware.JWT(authSvc), paymentHandler.UnpaidTotal)
	api.GET("/activity", middleware.JWT(authSvc), activityHandler.List)
	api.GET("/dashboard/summary", middleware.JWT(authSvc), dashboardHandler.Summary)
	api.GET("/metrics/snapshot", middleware.JWT(authSvc), middleware.RBAC(admin), metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	if err := server.Shutdown(context.Background()); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
