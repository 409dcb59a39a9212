package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitrise-io/bitrise-plugins-code-copilot/common"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/copilot"
	"github.com/bitrise-io/bitrise-plugins-code-copilot/logger"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for unknown or expired session ids
var ErrNotFound = errors.New("session not found")

// Store keeps sessions between requests. Implementations hand out copies,
// so a session changed by one request is only visible to others after Save.
type Store interface {
	Get(ctx context.Context, id string) (*copilot.Session, error)
	Save(ctx context.Context, s *copilot.Session) error
	Delete(ctx context.Context, id string) error
}

// NewStore creates the store named in the server settings
func NewStore(ctx context.Context, settings common.Server) (Store, error) {
	ttl := time.Duration(settings.SessionTTLMinutes) * time.Minute

	switch settings.SessionStore {
	case common.SessionStoreMemory, "":
		logger.Debugf("Using in-memory session store, idle expiry %s", ttl)
		return NewMemoryStore(ttl), nil
	case common.SessionStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     settings.RedisAddr,
			Password: settings.RedisPassword,
			DB:       settings.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", settings.RedisAddr, err)
		}
		logger.Debugf("Using redis session store at %s, ttl %s", settings.RedisAddr, ttl)
		return NewRedisStore(client, ttl), nil
	default:
		return nil, fmt.Errorf("unsupported session store: %s", settings.SessionStore)
	}
}

func clone(s *copilot.Session) *copilot.Session {
	c := *s
	if s.Last != nil {
		last := *s.Last
		c.Last = &last
	}
	return &c
}
