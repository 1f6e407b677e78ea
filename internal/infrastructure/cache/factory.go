package cache

import (
	"fmt"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewIdempotencyStore builds the store selected by cfg.Backend.
// The redis backend needs a connected client.
func NewIdempotencyStore(cfg config.IdempotencyConfig, client redis.UniversalClient, logger *zap.Logger) (shared.IdempotencyStore, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("idempotency backend %q requires a redis client", cfg.Backend)
		}
		logger.Info("Using Redis idempotency store")
		return NewRedisIdempotencyStore(client, ""), nil
	case config.BackendMemory, "":
		logger.Warn("Using in-memory idempotency store; webhook dedup is not shared across instances")
		return NewMemoryIdempotencyStore(0), nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.Backend)
	}
}
