package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	pgrepo "github.com/misgastos/expenses-api/internal/adapters/db/postgres"
	transport "github.com/misgastos/expenses-api/internal/adapters/transport/http"
	apphash "github.com/misgastos/expenses-api/internal/app/auth/hash"
	appsvc "github.com/misgastos/expenses-api/internal/app/auth/service"
	apptoken "github.com/misgastos/expenses-api/internal/app/auth/token"
	"github.com/misgastos/expenses-api/internal/infra/config"
	lg "github.com/misgastos/expenses-api/internal/infra/log"
	"github.com/misgastos/expenses-api/internal/infra/migrate"
	"github.com/misgastos/expenses-api/internal/infra/obs"
)

func main() {
	zapLog := lg.Must(os.Getenv("LOG_LEVEL"))
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	obs.Init()

	codec, err := apptoken.NewHMACCodec(cfg)
	if err != nil {
		zapLog.Fatal("failed to init token codec", zap.Error(err))
	}

	userRepo := pgrepo.NewPostgresUserRepo(db)
	hasher := apphash.NewArgon2Hasher(cfg.PasswordPepper)
	svc := appsvc.New(userRepo, hasher, codec, validator.New())

	handler := transport.NewHandler(svc, zapLog)
	router := transport.NewRouter(handler, cfg, zapLog)

	srv := &http.Server{Addr: cfg.HTTPAddress, Handler: router}
	rootCtx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		zapLog.Info("http server listening", zap.String("addr", cfg.HTTPAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		return srv.Shutdown(ctxShutdown)
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutdown signal received")
	cancel()

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
	zapLog.Info("server stopped")
}
