package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"fuelcontrol/internal/auth"
	"fuelcontrol/internal/config"
	"fuelcontrol/internal/notifier"
	"fuelcontrol/internal/ratelimit"
	"fuelcontrol/internal/receipts"
	"fuelcontrol/internal/server"
	"fuelcontrol/internal/storage"
	"fuelcontrol/internal/store"
	"fuelcontrol/internal/telegram"
	"fuelcontrol/internal/util"
	"fuelcontrol/internal/wizard"
)

func main() {
	cfg, err := config.Load(config.DefaultPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger(cfg.LogLevel)

	st, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	blobs, err := newBlobStore(cfg)
	if err != nil {
		log.Fatalf("failed to init file storage: %v", err)
	}
	authManager, err := auth.NewManager(cfg.JWTSecret, cfg.AdminLogin, cfg.AdminPasswordHash)
	if err != nil {
		log.Fatalf("failed to init auth: %v", err)
	}

	var loginLimiter *ratelimit.FixedWindowLimiter
	if cfg.RedisAddr != "" {
		loginLimiter, err = ratelimit.NewFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "", cfg.LoginRateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	} else {
		logger.Warn("redis not configured, login rate limiting disabled")
	}

	receiptService := receipts.NewService(st, logger)

	var adminChatID int64
	if cfg.AdminChatID != "" {
		adminChatID, err = strconv.ParseInt(cfg.AdminChatID, 10, 64)
		if err != nil {
			log.Fatalf("invalid admin chat id %q: %v", cfg.AdminChatID, err)
		}
	}

	var bot *telegram.Client
	if cfg.TelegramToken != "" {
		bot = telegram.NewClient(cfg.TelegramToken, "")
	} else {
		logger.Warn("telegram token not configured, bot and notifier disabled")
	}
	maintenance := notifier.New(st, bot, adminChatID, cfg.NotifyHour, time.Minute, logger)

	httpServer, err := server.New(server.Config{
		Store:        st,
		Auth:         authManager,
		Blobs:        blobs,
		Receipts:     receiptService,
		Maintenance:  maintenance,
		LoginLimiter: loginLimiter,
		WebOrigin:    cfg.WebOrigin,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	g.Go(func() error {
		slog.Info("fuelcontrol server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if bot != nil {
		wiz := wizard.New(st, bot, blobs, receiptService, logger)
		poller := telegram.NewPoller(bot, wiz, cfg.PollInterval(), logger)
		g.Go(func() error { return poller.Run(ctx) })

		if adminChatID != 0 {
			if err := bot.SendMessage(adminChatID, "🚗 Fleet control bot started.", nil); err != nil {
				logger.Warn("startup notice failed", "error", err)
			}
			g.Go(func() error { return maintenance.Run(ctx) })
		} else {
			logger.Warn("admin chat id not configured, maintenance alerts disabled")
		}
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("shutdown with error", "error", err)
	}
	slog.Info("fuelcontrol stopped")
}

func newBlobStore(cfg config.FileConfig) (storage.BlobStore, error) {
	if cfg.StorageBackend == "minio" {
		return storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	}
	return storage.NewFileStore(cfg.DataDir)
}
