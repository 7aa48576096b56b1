package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"pharmacy_backend/internal/config"
	"pharmacy_backend/internal/database"
	"pharmacy_backend/internal/jobs"
	"pharmacy_backend/internal/middleware"
	"pharmacy_backend/internal/router"
	"pharmacy_backend/pkg/utils"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		utils.InitLogger(utils.LoggerOptions{})
		utils.LogError(err, "Failed to load configuration")
		os.Exit(2)
	}

	utils.InitLogger(cfg.Log)
	utils.ExposeInternalDetails = cfg.IsDevelopment()
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		utils.LogError(err, "Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.SchemaApply {
		if err := database.ApplySchema(ctx, db); err != nil {
			return err
		}
	}

	tokens := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	svc := router.NewServices(db, tokens)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	engine.Use(utils.GinLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader, "Content-Disposition"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, svc, tokens)

	alerts := jobs.NewStockAlertJob(svc.Inventory, cfg.ExpiryWarningDays)
	if err := alerts.Start(cfg.StockAlertSchedule); err != nil {
		return err
	}
	defer alerts.Stop()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "env": cfg.AppEnv})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		utils.LogInfo("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
