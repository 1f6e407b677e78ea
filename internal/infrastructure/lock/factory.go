package lock

import (
	"fmt"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/tx"
	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// New builds the locker selected by cfg.Backend
func New(cfg config.LockConfig, client redis.UniversalClient, logger *zap.Logger) (tx.Locker, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("lock backend %q requires a redis client", cfg.Backend)
		}
		logger.Info("Using Redis keyed lock", zap.Duration("ttl", cfg.TTL))
		return NewRedisLocker(client, cfg.TTL, logger), nil
	case config.BackendMemory, "":
		logger.Info("Using in-process keyed lock")
		return NewMemoryLocker(), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}
