package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/jhoicas/bodegas-api/internal/application/ports"
	"github.com/jhoicas/bodegas-api/internal/domain"
	"github.com/jhoicas/bodegas-api/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
)

var _ ports.Locker = (*Locker)(nil)

// Locker candado distribuido con redislock. Si no se obtiene dentro del tiempo de espera
// devuelve domain.ErrConflict.
type Locker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	log    *logger.Logger
}

// NewLocker construye el candado. ttl es la vida máxima del candado.
func NewLocker(rdb goredis.UniversalClient, ttl time.Duration, log *logger.Logger) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Locker{client: redislock.New(rdb), ttl: ttl, wait: 5 * time.Second, log: log}
}

// Acquire obtiene el candado reintentando cada 100ms hasta agotar la espera.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	lock, err := l.client.Obtain(waitCtx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(100 * time.Millisecond),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("candado %s ocupado: %w", key, domain.ErrConflict)
		}
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func() {
		// el contexto de la petición puede estar cancelado al liberar
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el candado")
		}
	}, nil
}
