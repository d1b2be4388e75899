package service

import "sync"

// itemLockSet 按商品ID串行化本进程内的价格变更。
// 跨进程的互斥由调度事件的原子认领与可选的 Redis 锁保证。
type itemLockSet struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newItemLockSet() *itemLockSet {
	return &itemLockSet{locks: make(map[string]*sync.Mutex)}
}

// Lock 获取商品锁，返回解锁函数
func (s *itemLockSet) Lock(itemID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[itemID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[itemID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
