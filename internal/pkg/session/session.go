package session

import (
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/ClipFox/internal/pkg/cache"
	"github.com/ManuelReschke/ClipFox/internal/pkg/env"
)

var sessionStore *session.Store

// NewRedisStorage creates Fiber storage on the cache server in the given
// logical database. Sessions use DB 1 and the rate limiter DB 2 so neither
// collides with the cache in DB 0.
func NewRedisStorage(database int) *redis.Storage {
	cacheClient := cache.GetClient()
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: database,
		Reset:    false,
	})
}

// NewSessionStore opens the session store shared with the account service,
// which issues the cookie. This service only reads it.
func NewSessionStore() *session.Store {
	sessionStore = session.New(session.Config{
		Storage:        NewRedisStorage(1),
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		Expiration:     time.Hour * 1,
		KeyLookup:      "cookie:session_id",
	})

	return sessionStore
}

// SetSessionStore replaces the shared store.
func SetSessionStore(s *session.Store) {
	sessionStore = s
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// GetSessionValue retrieves a value by key from the user's individual session
func GetSessionValue(c *fiber.Ctx, key string) string {
	if sessionStore == nil {
		return ""
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}

	value := sess.Get(key)
	if value == nil {
		return ""
	}

	if strValue, ok := value.(string); ok {
		return strValue
	}

	return ""
}
