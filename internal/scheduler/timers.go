package scheduler

import (
	"sync"
	"time"
)

// Timers 进程内一次性定时器集合。
// 按键管理：同键重复布防会先取消旧定时器；触发后自动清理。
// 定时器只存在于内存中，进程重启后由 Reconcile 对账恢复。
type Timers struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewTimers 创建定时器集合
func NewTimers() *Timers {
	return &Timers{
		timers: make(map[string]*time.Timer),
	}
}

// Key 构造 (服务器,用户,类型) 的定时器键
func Key(guildID, userID, kind string) string {
	return guildID + ":" + userID + ":" + kind
}

// After 布防一次性定时器。
// 回调方必须在触发时重新校验当前状态：过期的定时器触发必须是安全的空操作。
func (t *Timers) After(key string, d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if old, exists := t.timers[key]; exists {
		old.Stop()
	}

	t.timers[key] = time.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.timers, key)
		t.mu.Unlock()
		fn()
	})
}

// Cancel 取消定时器，不存在时为空操作
func (t *Timers) Cancel(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, exists := t.timers[key]; exists {
		timer.Stop()
		delete(t.timers, key)
	}
}

// Count 当前布防的定时器数量（用于监控）
func (t *Timers) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timers)
}

// StopAll 停止所有定时器（进程退出时调用）
func (t *Timers) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}
