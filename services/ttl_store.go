package services

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// TTLStore 為行程內的 EphemeralStore，每筆資料寫入後 ttl 到期即失效
type TTLStore struct {
	cache *ttlcache.Cache[string, any]
}

func NewTTLStore(ttl time.Duration) *TTLStore {
	cache := ttlcache.New[string, any](
		ttlcache.WithTTL[string, any](ttl),
		ttlcache.WithDisableTouchOnHit[string, any](),
	)
	go cache.Start()
	return &TTLStore{cache: cache}
}

func storeKey(orderKey, key string) string {
	return orderKey + "\x00" + key
}

func (s *TTLStore) Get(orderKey, key string, def any) any {
	item := s.cache.Get(storeKey(orderKey, key))
	if item == nil {
		return def
	}
	return item.Value()
}

func (s *TTLStore) Set(orderKey, key string, value any) {
	s.cache.Set(storeKey(orderKey, key), value, ttlcache.DefaultTTL)
}

func (s *TTLStore) Remove(orderKey, key string) {
	s.cache.Delete(storeKey(orderKey, key))
}

func (s *TTLStore) Len() int {
	return s.cache.Len()
}

// Close 停止背景的過期清理
func (s *TTLStore) Close() {
	s.cache.Stop()
}
