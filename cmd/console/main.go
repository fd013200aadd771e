package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/audit"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/bootstrap"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/console/handler"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/console/server"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/console/service"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/engine"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/handoff"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg := infra.ResolveConfig()

	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Контекст для управления жизненным циклом фоновых горутин.
	// SIGINT/SIGTERM отменяет его и запускает graceful shutdown.
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Метрики
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := engine.NewMetrics(reg)

	// 2. Внешние ресурсы (каждый может отсутствовать)
	backend, closeBackend := bootstrap.Backend(appCtx, cfg, logger)
	defer closeBackend()

	rdb := bootstrap.Realtime(cfg, logger)
	if rdb != nil {
		defer rdb.Close()
	}

	gw := engine.NewGateway(cfg, backend, bootstrap.LLM(cfg, logger), rdb, metrics, logger)

	// 3. Store + локальная персистентность
	var persister store.Persister
	if cfg.Feature(infra.FeaturePersistence) {
		db, err := store.OpenSQLite(cfg.Storage.Path)
		if err != nil {
			logger.Warn("local storage unavailable, state will not survive restart", zap.Error(err))
		} else {
			defer db.Close()
			persister = db
		}
	}
	st := store.New(cfg, persister, logger)
	st.SetPersistFailureCounter(metrics.StorePersistFailures)
	if err := st.InitializeFromStorage(appCtx); err != nil {
		logger.Warn("failed to restore state snapshot", zap.Error(err))
	}

	// 4. Журнал алертов: Store -> backend
	if cfg.Feature(infra.FeatureJournal) && gw.Available() {
		journal := audit.NewJournal(gw, cfg.Thresholds.JournalBuffer, cfg.Thresholds.JournalBatch,
			cfg.Intervals.JournalFlush, metrics.JournalBufferFill, logger)
		journal.Start()
		defer journal.Stop()
		st.SetAlertSink(journal.Log)
	}

	// 5. Поллеры и realtime-подписки
	hooks := engine.NewHooks(cfg, gw, st, metrics, logger)
	unmount := hooks.Supervisor().Mount(appCtx)
	defer unmount()

	// 6. Сервисы и HTTP
	validator, signer := bootstrap.Auth(cfg, logger)
	stateSvc := service.NewStateService(st, gw, cfg.Thresholds.AgentRowLimit, cfg.Thresholds.AlertRowLimit, logger)
	handlers := server.Handlers{
		Auth:      handler.NewAuthHandler(service.NewAuthService(cfg.Auth, signer, st, logger)),
		Dashboard: handler.NewDashboardHandler(stateSvc),
		Query:     handler.NewQueryHandler(stateSvc),
		Handoff:   handler.NewHandoffHandler(handoff.NewService(gw, logger)),
		Agents:    handler.NewAgentHandler(service.NewAgentService(gw, st, logger), logger),
		Stream:    handler.NewStreamHandler(stateSvc, cfg.Stream, logger),
	}
	console := server.NewConsoleServer(cfg, logger, validator, reg, handlers)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      console,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("mission control started",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Environment),
			zap.Bool("backend", gw.Available()),
			zap.Bool("realtime", rdb != nil),
			zap.Bool("auth", validator != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-appCtx.Done()
	logger.Info("mission control stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	// дальше отрабатывают defer: unmount поллеров, drain журнала, закрытие ресурсов
}
