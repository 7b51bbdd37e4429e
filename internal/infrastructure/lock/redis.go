package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stocktake-api/internal/domain"
	"github.com/jhoicas/stocktake-api/pkg/logger"
)

const (
	defaultTTL       = 30 * time.Second
	defaultRetryStep = 50 * time.Millisecond
	defaultRetries   = 40
)

// RedisLocker candado distribuido por conteo sobre Redis (bsm/redislock), para varias
// instancias de la API contra el mismo almacén.
type RedisLocker struct {
	client  *redislock.Client
	prefix  string
	ttl     time.Duration
	retries int
	log     *logger.Logger
}

// RedisOptions configuración del locker.
type RedisOptions struct {
	Prefix  string        // por defecto "stocktake:lock"
	TTL     time.Duration // vida máxima del candado
	Retries int           // reintentos antes de devolver domain.ErrTaskBusy
}

// NewRedisClient crea el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}

// NewRedisLocker construye el locker sobre un cliente existente.
func NewRedisLocker(rdb redis.UniversalClient, opts RedisOptions, log *logger.Logger) *RedisLocker {
	if opts.Prefix == "" {
		opts.Prefix = "stocktake:lock"
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RedisLocker{
		client:  redislock.New(rdb),
		prefix:  opts.Prefix,
		ttl:     opts.TTL,
		retries: opts.Retries,
		log:     log,
	}
}

// Acquire obtiene el candado de countID reintentando con espera lineal.
// Si no lo consigue devuelve domain.ErrTaskBusy.
func (l *RedisLocker) Acquire(ctx context.Context, countID string) (func(), error) {
	key := l.Key(countID)
	lk, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(defaultRetryStep), l.retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, domain.NewTaskError(countID, "", domain.ErrTaskBusy)
	}
	if err != nil {
		return nil, fmt.Errorf("obtener candado %s: %w", key, err)
	}
	return func() {
		// Release usa un contexto propio: el de la solicitud puede estar cancelado.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lk.Release(rctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("key", key).Msg("no se pudo liberar el candado")
		}
	}, nil
}

// Key clave de Redis para el candado de countID.
func (l *RedisLocker) Key(countID string) string {
	return l.prefix + ":" + countID
}
