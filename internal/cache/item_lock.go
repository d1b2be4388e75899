package cache

import (
	"context"
	"time"

	"github.com/pricetide/internal/logger"

	"github.com/google/uuid"
)

const (
	itemLockTTL        = 30 * time.Second
	itemLockRetryDelay = 50 * time.Millisecond
	itemLockMaxWait    = 10 * time.Second
)

// 只有持有者能释放锁
var itemUnlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// WithItemLock 在跨进程商品锁内执行 fn。
// Redis 未启用时退化为直接执行（进程内互斥由调用方的本地锁保证）；
// 超过最大等待时间仍未取到锁时记录告警后继续执行，避免调度卡死。
func WithItemLock(itemID string, fn func() error) error {
	if !Enabled() {
		return fn()
	}

	ctx := context.Background()
	key := prefixedKey("item_lock:" + itemID)
	token := uuid.NewString()

	deadline := time.Now().Add(itemLockMaxWait)
	acquired := false
	for time.Now().Before(deadline) {
		ok, err := redisClient.SetNX(ctx, key, token, itemLockTTL).Result()
		if err != nil {
			logger.Warnw("cache_item_lock_acquire_failed", "item_id", itemID, "error", err)
			break
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(itemLockRetryDelay)
	}
	if !acquired {
		logger.Warnw("cache_item_lock_timeout", "item_id", itemID)
		return fn()
	}

	defer func() {
		if err := redisClient.Eval(ctx, itemUnlockScript, []string{key}, token).Err(); err != nil {
			logger.Warnw("cache_item_lock_release_failed", "item_id", itemID, "error", err)
		}
	}()
	return fn()
}
