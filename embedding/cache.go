package embedding

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/minio/highwayhash"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "nafee3:embedding:"

// NewRedisCache puts a Redis read-through cache in front of a model. Entries
// are keyed by model, dimension and text. A zero dimension accepts any length.
func NewRedisCache(ctx context.Context, cfg CacheConfig, dimension int, next Model) (Model, error) {
	if cfg.Addr == "" {
		return nil, errors.New("cache: addr is required when cache is enabled")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log := zap.L().With(
		zap.String("service", "embedding"),
		zap.String("cache", "redis"),
		zap.String("model", next.Name()),
		zap.Int("dimension", dimension),
	)

	return &redisCache{client, next, dimension, cfg.TTL, log}, nil
}

type redisCache struct {
	client *redis.Client
	next      Model
	dimension int
	ttl       time.Duration
	log    *zap.Logger
}

func (c *redisCache) Name() string {
	return c.next.Name()
}

func (c *redisCache) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(c.next.Name(), c.dimension, text)

	bs, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		vec, err := decodeVector(bs, c.dimension)
		if err == nil {
			return vec, nil
		}

		c.log.Warn(err.Error(), zap.String("key", key))

	case !errors.Is(err, redis.Nil):
		c.log.Warn(err.Error(), zap.String("key", key))
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.client.Set(ctx, key, encodeVector(vec), c.ttl).Err(); err != nil {
		c.log.Warn(err.Error(), zap.String("key", key))
	}

	return vec, nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

func cacheKey(model string, dimension int, text string) string {
	sum := highwayhash.Sum([]byte(text), hashKey)
	return cacheKeyPrefix + model + ":" + strconv.Itoa(dimension) + ":" + hex.EncodeToString(sum[:])
}

func encodeVector(vec []float32) []byte {
	bs := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(bs[4*i:], math.Float32bits(v))
	}

	return bs
}

func decodeVector(bs []byte, dimension int) ([]float32, error) {
	if len(bs) == 0 || len(bs)%4 != 0 {
		return nil, fmt.Errorf("invalid cached vector length %d", len(bs))
	}

	if dimension > 0 && len(bs)/4 != dimension {
		return nil, fmt.Errorf("cached vector has %d dimensions, want %d", len(bs)/4, dimension)
	}

	vec := make([]float32, len(bs)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(bs[4*i:]))
	}

	return vec, nil
}
