package auth

import (
	"sync"
	"time"
)

// cacheEntry はキャッシュされたプロバイダートークンと破棄期限を保持する。
type cacheEntry struct {
	token     ProviderToken
	expiresAt time.Time
}

// TokenCache はユーザーIDをキーにプロバイダートークンを保持するインメモリキャッシュ。
// ログイン時に取得したGoogleのアクセストークンを保持し、再ログインで上書きされる。
// エントリはTTL経過後にバックグラウンドで破棄される。
type TokenCache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTokenCache はTokenCacheを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewTokenCache(ttl time.Duration) *TokenCache {
	c := &TokenCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		stopCh:  make(chan struct{}),
	}

	go c.cleanupLoop()

	return c
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (c *TokenCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
}

// Put はユーザーのトークンを保存する。既存エントリは上書きされる。
func (c *TokenCache) Put(userID string, token ProviderToken) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = cacheEntry{
		token:     token,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Get はユーザーのトークンを取得する。
// エントリが存在しない、またはTTL切れの場合はfalseを返す。
func (c *TokenCache) Get(userID string) (*ProviderToken, bool) {
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	token := entry.token
	return &token, true
}

// Delete はユーザーのトークンを破棄する。
func (c *TokenCache) Delete(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Len は現在のエントリ数を返す。テストおよびメトリクス用。
func (c *TokenCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cleanupLoop は期限切れエントリを定期的に破棄する。
func (c *TokenCache) cleanupLoop() {
	interval := c.ttl
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

func (c *TokenCache) cleanup() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for userID, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, userID)
		}
	}
}
