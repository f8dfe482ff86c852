package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatehouse-project/gatehouse/internal/config"
	"github.com/gatehouse-project/gatehouse/internal/db"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/service"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store/sqlite"
	"github.com/gatehouse-project/gatehouse/internal/httpapi"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "gatehouse-server ", log.LstdFlags|log.LUTC)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn, db.SeedDevOptions{}); err != nil {
			logger.Fatalf("seed dev data: %v", err)
		}
	}

	writer := db.NewWorker(conn)
	defer writer.Close()

	// Stores
	tokenStore := sqlite.NewTokenStore(conn, writer)
	shiftStore := sqlite.NewShiftStore(conn, writer)
	auditStore := sqlite.NewAuditStore(conn, writer)
	attendanceStore := sqlite.NewAttendanceStore(conn, writer)
	overrideStore := sqlite.NewOverrideStore(conn, writer)
	directoryStore := sqlite.NewDirectoryStore(conn)

	// Services
	auditLog := service.NewAuditLog(auditStore, directoryStore, logger)
	validator := service.NewTokenValidator(tokenStore, attendanceStore, auditLog,
		service.TokenMode(cfg.TokenMode), logger)
	shifts := service.NewShiftManager(shiftStore, auditLog)
	overrides := service.NewOverrideAuthorizer(overrideStore, attendanceStore, auditLog, logger)
	guards := service.NewGuardVerifier(directoryStore, []byte(cfg.JWTSecret),
		time.Duration(cfg.ClaimTTLHours)*time.Hour)

	sweeper := service.NewTokenSweeper(tokenStore, service.SweeperConfig{
		RetentionDays: cfg.TokenRetentionDays,
		IntervalHours: cfg.SweepIntervalHours,
	}, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:    logger,
		Addr:      cfg.HTTPAddr,
		Validator: validator,
		Shifts:    shifts,
		Overrides: overrides,
		Guards:    guards,
		Audit:     auditLog,
	})

	go func() {
		logger.Printf("listening on %s (env=%s token_mode=%s)", cfg.HTTPAddr, cfg.Env, cfg.TokenMode)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
