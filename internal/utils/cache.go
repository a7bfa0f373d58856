package utils

import (
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem 包装缓存数据和过期时间
type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// LocalCache 进程内本地缓存封装（榜单快照等短 TTL 数据用）
type LocalCache struct {
	lruCache *lru.Cache[string, CacheItem]
}

var (
	cacheInstance *LocalCache
	cacheOnce     sync.Once
)

// GetCache 获取单例缓存实例
func GetCache() *LocalCache {
	cacheOnce.Do(func() {
		// 容量 256 足够覆盖所有榜单快照 key
		l, err := lru.New[string, CacheItem](256)
		if err != nil {
			log.Fatalf("Failed to create LRU cache: %v", err)
		}
		cacheInstance = &LocalCache{lruCache: l}
	})
	return cacheInstance
}

// Set 设置缓存，TTL 为过期时间
func (c *LocalCache) Set(key string, data interface{}, ttl time.Duration) {
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	})
}

// Get 获取缓存，若不存在或已过期则返回 nil
func (c *LocalCache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}

	// 懒失效：读到过期条目时顺手删除
	if time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}

	return val.Data
}

// Delete 删除指定缓存
func (c *LocalCache) Delete(key string) {
	c.lruCache.Remove(key)
}
