// Package bootstrap собирает внешние ресурсы по конфигу. Каждый ресурс
// опционален: при незаданных параметрах возвращается nil и компонент деградирует.
package bootstrap

import (
	"context"
	"errors"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/connectors"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/engine"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra/auth"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/repository/postgres"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend выбирает драйвер по backend.driver. nil: gateway всегда на синтетике.
// Недоступность при старте не фатальна: backend подключится позже, а до того сработает фолбэк.
func Backend(ctx context.Context, cfg *infra.Config, logger *zap.Logger) (engine.Backend, func()) {
	if !cfg.Backend.Available() {
		logger.Warn("backend is not configured, serving synthetic data", zap.String("driver", cfg.Backend.Driver))
		return nil, func() {}
	}

	switch cfg.Backend.Driver {
	case "postgres":
		repo, err := postgres.NewBackendRepo(ctx, cfg.Backend)
		if err != nil {
			logger.Error("postgres backend is misconfigured", zap.Error(err))
			return nil, func() {}
		}
		pCtx, cancel := context.WithTimeout(ctx, cfg.Backend.ProbeTimeout)
		defer cancel()
		if err := repo.Ping(pCtx); err != nil {
			logger.Warn("postgres backend unreachable at startup", zap.Error(err))
		} else if err := repo.EnsureSchema(pCtx); err != nil {
			logger.Warn("postgres schema check failed", zap.Error(err))
		}
		return repo, repo.Close

	default:
		rest := connectors.NewRESTBackend(cfg.Backend, cfg.Endpoints)
		pCtx, cancel := context.WithTimeout(ctx, cfg.Backend.ProbeTimeout)
		defer cancel()
		if err := rest.Ping(pCtx); err != nil {
			logger.Warn("rest backend unreachable at startup", zap.Error(err))
		}
		return rest, func() {}
	}
}

// Realtime: клиент Redis для push-канала. nil: подписки no-op.
func Realtime(cfg *infra.Config, logger *zap.Logger) *redis.Client {
	if !cfg.Realtime.Available() || !cfg.Feature(infra.FeatureRealtime) {
		logger.Warn("realtime is not configured, polling only")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Realtime.Addr,
		Password: cfg.Realtime.Password,
		DB:       cfg.Realtime.DB,
	})
}

// LLM: OpenAI-совместимый провайдер. nil: gateway отдает заглушку.
func LLM(cfg *infra.Config, logger *zap.Logger) engine.Completer {
	if !cfg.LLM.Available() || !cfg.Feature(infra.FeatureLLMChat) {
		logger.Warn("llm is not configured, chat answers with mock text")
		return nil
	}
	return connectors.NewOpenAICompleter(cfg.LLM)
}

// Auth разбирает ключи RS256. Оба результата nil: auth не настроен, консоль открыта.
// Неполная или битая настройка закрывает защищенные роуты через auth.Locked.
func Auth(cfg *infra.Config, logger *zap.Logger) (auth.TokenValidator, *auth.Signer) {
	if !cfg.Auth.Configured() {
		return nil, nil
	}
	if !cfg.Auth.Available() {
		err := errors.New("public key, private key and operator password hash are required together")
		logger.Error("auth is partially configured, protected routes are locked", zap.Error(err))
		return auth.Locked(err), nil
	}
	pub, priv, err := auth.ParseKeyPair([]byte(cfg.Auth.PublicKeyData), []byte(cfg.Auth.PrivateKeyData))
	if err != nil {
		logger.Error("invalid auth keys, protected routes are locked", zap.Error(err))
		return auth.Locked(err), nil
	}
	return auth.NewRSAValidator(pub), auth.NewSigner(priv, cfg.Auth.TokenTTL)
}
