package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/voice-studio/internal/app"
	"github.com/joseph-ayodele/voice-studio/internal/async"
	"github.com/joseph-ayodele/voice-studio/internal/auth"
	"github.com/joseph-ayodele/voice-studio/internal/common"
	"github.com/joseph-ayodele/voice-studio/internal/export"
	repo "github.com/joseph-ayodele/voice-studio/internal/repository"
	"github.com/joseph-ayodele/voice-studio/internal/server"
	"github.com/joseph-ayodele/voice-studio/internal/voices"
)

func main() {
	var (
		envFile = flag.String("env", ".env", "dotenv file to load if present")
		inmem   = flag.Bool("inmem", false, "use an in-memory SQLite store")
	)
	flag.Parse()

	cfg, err := common.LoadConfig(*envFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	if *inmem {
		cfg.Database.Driver = "sqlite"
		cfg.Database.DSN = ":memory:"
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build runtime", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			logger.Error("close runtime", "error", err)
		}
	}()

	if err := repo.HealthCheck(ctx, rt.Store, 5*time.Second, logger); err != nil {
		logger.Error("failed to ping store", "error", err)
		os.Exit(1)
	}

	var queue async.Queue
	switch cfg.Queue.Driver {
	case "sqs":
		client, err := app.NewSQSClient(cfg.Queue)
		if err != nil {
			logger.Error("failed to create sqs client", "error", err)
			os.Exit(1)
		}
		queue = async.NewSQSQueue(client, cfg.Queue.SQSURL, logger)
	default:
		queue = async.NewProcessorQueue(rt.Processor, logger,
			async.WithWorkers(cfg.Queue.Workers),
			async.WithQueueSize(cfg.Queue.Size),
			async.WithProcessTimeout(cfg.Queue.JobTimeout),
		)
	}

	var authenticator auth.Authenticator = auth.HeaderAuthenticator{}
	if cfg.Auth.Mode == "jwt" {
		authenticator = auth.NewJWKSAuthenticator(ctx, auth.JWKSConfig{
			JWKSURL:  cfg.Auth.JWKSURL,
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		}, logger)
	} else {
		logger.Warn("voiced.auth.header_mode", "note", "X-User-ID is trusted without verification")
	}

	api := server.New(server.Options{
		Voices:        voices.NewService(rt.Store, queue, rt.Hub, logger),
		Export:        export.NewService(rt.Store.Voices(), logger),
		Auth:          authenticator,
		Store:         rt.Store,
		WebhookSecret: cfg.Server.WebhookSecret,
		Logger:        logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// gRPC health for orchestrators
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reporter := server.NewHealthReporter(healthServer, rt.Store, cfg.Server.HealthInterval, logger)
	go reporter.Run(ctx)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()
	go func() {
		logger.Info("voiced listening", "http_addr", cfg.Server.HTTPAddr, "grpc_addr", cfg.Server.GRPCAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("voiced shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
}
