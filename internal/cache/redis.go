package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/yakoovad/committee-engine/internal/model"
	"github.com/yakoovad/committee-engine/internal/service"
	"github.com/yakoovad/committee-engine/pkg/logger"
	"go.uber.org/zap"
)

const (
	keyPrefix       = "committee-engine:committees"
	redeleteTimeout = 2 * time.Second
)

var roles = []model.Role{model.RoleAdmin, model.RoleUser}

// NewClient parses a redis:// url and checks that the server answers.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, errors.New("redis url is empty")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 2 * time.Second
	opt.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

var _ service.CommitteeCache = (*CommitteeCache)(nil)

// CommitteeCache stores each caller's committee list as JSON under a per user key.
type CommitteeCache struct {
	client   *redis.Client
	ttl      time.Duration
	redelete time.Duration
}

func NewCommitteeCache(client *redis.Client, ttl time.Duration) *CommitteeCache {
	return &CommitteeCache{client: client, ttl: ttl}
}

// WithRedelete repeats every invalidation after d. A reader that loaded a list
// before the write committed may store it after the first delete; the second
// delete drops it. Zero disables the repeat.
func (c *CommitteeCache) WithRedelete(d time.Duration) *CommitteeCache {
	c.redelete = d
	return c
}

func key(userID int64, role model.Role) string {
	return fmt.Sprintf("%s:%d:%s", keyPrefix, userID, role)
}

func (c *CommitteeCache) GetCommittees(ctx context.Context, p model.Principal) ([]*model.Committee, bool, error) {
	raw, err := c.client.Get(ctx, key(p.ID, p.Role)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "get committees")
	}

	var res []*model.Committee
	if err = json.Unmarshal(raw, &res); err != nil {
		return nil, false, errors.Wrap(err, "decode committees")
	}
	return res, true, nil
}

func (c *CommitteeCache) SetCommittees(ctx context.Context, p model.Principal, committees []*model.Committee) error {
	raw, err := json.Marshal(committees)
	if err != nil {
		return errors.Wrap(err, "encode committees")
	}
	return errors.Wrap(c.client.Set(ctx, key(p.ID, p.Role), raw, c.ttl).Err(), "set committees")
}

// Invalidate drops the cached lists of the users under every role.
func (c *CommitteeCache) Invalidate(ctx context.Context, userIDs ...int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(userIDs)*len(roles))
	for _, id := range userIDs {
		for _, r := range roles {
			keys = append(keys, key(id, r))
		}
	}

	if c.redelete > 0 {
		c.scheduleRedelete(context.WithoutCancel(ctx), keys)
	}

	return errors.Wrap(c.client.Del(ctx, keys...).Err(), "invalidate committees")
}

func (c *CommitteeCache) scheduleRedelete(ctx context.Context, keys []string) {
	time.AfterFunc(c.redelete, func() {
		delCtx, cancel := context.WithTimeout(ctx, redeleteTimeout)
		defer cancel()

		if err := c.client.Del(delCtx, keys...).Err(); err != nil {
			logger.FromContext(ctx).Warn("failed to repeat committee cache invalidation",
				zap.Strings("keys", keys),
				zap.Error(err))
		}
	})
}
