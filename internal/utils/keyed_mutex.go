package utils

import (
	"sync"
)

// KeyedMutex 按键互斥锁。
// 对同一 (服务器,用户) 的读改写序列需要串行化，不同键之间互不影响；
// 引用计数保证空闲键不会残留在 map 中。
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLockEntry
}

type keyedLockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex 创建按键互斥锁
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*keyedLockEntry),
	}
}

// Lock 获取指定键的锁
func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()
	entry, exists := k.locks[key]
	if !exists {
		entry = &keyedLockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

// Unlock 释放指定键的锁
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	entry, exists := k.locks[key]
	if !exists {
		k.mu.Unlock()
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}

// Size 当前持有的键数量（用于监控）
func (k *KeyedMutex) Size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
