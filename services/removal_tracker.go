package services

import (
	"hash/fnv"
	"sort"
	"sync"
)

const (
	removedGiftsKey = "gwp_removedGifts"
	trackerStripes  = 64
)

// EphemeralStore 是以訂單為單位的暫存鍵值儲存
type EphemeralStore interface {
	Get(orderKey, key string, def any) any
	Set(orderKey, key string, value any)
	Remove(orderKey, key string)
}

// RemovalTracker 記錄顧客手動移除過的贈品規則
type RemovalTracker struct {
	store EphemeralStore
	locks [trackerStripes]sync.Mutex // 依訂單雜湊分段上鎖
}

func NewRemovalTracker(store EphemeralStore) *RemovalTracker {
	return &RemovalTracker{store: store}
}

func (t *RemovalTracker) orderLock(orderKey string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(orderKey))
	return &t.locks[h.Sum32()%trackerStripes]
}

// RecordRemoval 同一規則重複記錄不會累加
func (t *RemovalTracker) RecordRemoval(orderKey string, ruleID int64) {
	l := t.orderLock(orderKey)
	l.Lock()
	defer l.Unlock()

	removed := t.load(orderKey)
	for _, id := range removed {
		if id == ruleID {
			return
		}
	}
	removed = append(removed, ruleID)
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	t.store.Set(orderKey, removedGiftsKey, removed)
}

func (t *RemovalTracker) WasRemoved(orderKey string, ruleID int64) bool {
	l := t.orderLock(orderKey)
	l.Lock()
	defer l.Unlock()

	for _, id := range t.load(orderKey) {
		if id == ruleID {
			return true
		}
	}
	return false
}

// Clear 訂單完成後清除整筆紀錄
func (t *RemovalTracker) Clear(orderKey string) {
	l := t.orderLock(orderKey)
	l.Lock()
	defer l.Unlock()
	t.store.Remove(orderKey, removedGiftsKey)
}

// load 讀不到或格式不符時視為沒有紀錄
func (t *RemovalTracker) load(orderKey string) []int64 {
	ids, ok := t.store.Get(orderKey, removedGiftsKey, []int64(nil)).([]int64)
	if !ok {
		return nil
	}
	out := make([]int64, len(ids))
	copy(out, ids)
	return out
}
