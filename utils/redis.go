package utils

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cppla/sharehub/config"
)

const redisOpTimeout = 2 * time.Second

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// GetRedis returns the shared Redis client, or nil when no Redis host is configured.
func GetRedis() *redis.Client {
	redisOnce.Do(func() {
		cfg := config.Get()
		if cfg.RedisHost == "" {
			return
		}
		redisClient = redis.NewClient(&redis.Options{
			Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			DialTimeout:  3 * time.Second,
			ReadTimeout:  redisOpTimeout,
			WriteTimeout: redisOpTimeout,
		})
		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			Sugar.Warnf("redis ping failed addr=%s err=%v", redisClient.Options().Addr, err)
		}
	})
	return redisClient
}

// CloseRedis closes the shared client if one was opened. It fits GraceServer's shutdown hooks.
func CloseRedis(context.Context) error {
	if redisClient == nil {
		return nil
	}
	return redisClient.Close()
}

// expiringKeys maps keys to values that vanish after a TTL.
// Entries live in Redis under prefix when Redis is configured, otherwise in process memory.
type expiringKeys struct {
	prefix string

	mu  sync.Mutex
	mem map[string]expiringEntry
}

type expiringEntry struct {
	value   string
	expires time.Time
}

func newExpiringKeys(prefix string) *expiringKeys {
	return &expiringKeys{prefix: prefix, mem: map[string]expiringEntry{}}
}

// Put stores value under key for ttl. Non-positive TTLs are ignored.
func (k *expiringKeys) Put(key, value string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		defer cancel()
		if err := rc.Set(ctx, k.prefix+key, value, ttl).Err(); err != nil {
			Sugar.Warnf("redis set failed key=%s err=%v", k.prefix+key, err)
		}
		return
	}
	now := time.Now()
	k.mu.Lock()
	defer k.mu.Unlock()
	k.sweepLocked(now)
	k.mem[key] = expiringEntry{value: value, expires: now.Add(ttl)}
}

// Has reports whether key is present and unexpired. Redis errors read as absent.
func (k *expiringKeys) Has(key string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		defer cancel()
		n, err := rc.Exists(ctx, k.prefix+key).Result()
		return err == nil && n > 0
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.mem[key]
	if ok && !time.Now().Before(e.expires) {
		delete(k.mem, key)
		return false
	}
	return ok
}

// Take removes key and returns its value if it was present and unexpired. Each key is taken at most once.
func (k *expiringKeys) Take(key string) (string, bool) {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
		defer cancel()
		v, err := rc.GetDel(ctx, k.prefix+key).Result()
		return v, err == nil && v != ""
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.mem[key]
	delete(k.mem, key)
	if !ok || !time.Now().Before(e.expires) {
		return "", false
	}
	return e.value, true
}

func (k *expiringKeys) sweepLocked(now time.Time) {
	for key, e := range k.mem {
		if !now.Before(e.expires) {
			delete(k.mem, key)
		}
	}
}

var (
	revokedTokens = newExpiringKeys("jwt:blacklist:")
	oauthStates   = newExpiringKeys("oauth:state:")
)

// BlacklistToken revokes token until expiresAt, after which it would be rejected anyway.
func BlacklistToken(token string, expiresAt time.Time) {
	revokedTokens.Put(token, "1", time.Until(expiresAt))
}

// IsTokenBlacklisted reports whether token was revoked before its expiry.
func IsTokenBlacklisted(token string) bool {
	return revokedTokens.Has(token)
}

// SaveState records an OAuth state issued for provider, for ttl, defaulting to ten minutes.
func SaveState(state, provider string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	oauthStates.Put(state, provider, ttl)
}

// ConsumeState reports whether state was issued for provider and is unexpired.
// The state is invalidated either way, so a mismatched callback cannot be retried.
func ConsumeState(state, provider string) bool {
	issuedFor, ok := oauthStates.Take(state)
	return ok && issuedFor == provider
}
