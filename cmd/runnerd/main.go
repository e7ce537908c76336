package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FlowerRealm/oi-code-extension-sub002/internal/common/httpmw"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/runner/controller"
	"github.com/FlowerRealm/oi-code-extension-sub002/internal/runner/service"
	"github.com/FlowerRealm/oi-code-extension-sub002/pkg/utils/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	registry, err := service.New(service.Config{
		CacheDir: appCfg.Cache.Dir,
		CacheTTL: appCfg.Cache.TTL,
		WorkRoot: appCfg.Engine.WorkRoot,
		Detect:   appCfg.Detect.toDetectConfig(),
		Limiter:  appCfg.Limiter.toLimiterConfig(),
		Engine:   appCfg.Engine.toEngineConfig(),
	})
	if err != nil {
		logger.Error(context.Background(), "init registry failed", zap.Error(err))
		return
	}

	httpServer := buildHTTPServer(appCfg.Server, registry)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "runner http server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

func buildHTTPServer(cfg ServerConfig, registry *service.Registry) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpmw.RequestContextMiddleware())
	router.Use(requestLogger())

	api := router.Group("/api/v1")
	runnerController := controller.NewRunnerController(registry)
	api.GET("/toolchains", runnerController.GetToolchains)
	api.POST("/run", runnerController.Run)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
