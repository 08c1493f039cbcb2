package usecase

import (
	"sync"
	"time"
)

const (
	tokenCacheTTL = 5 * time.Minute
)

type cachedIdentity struct {
	userID    string
	expiresAt time.Time
}

// tokenCache remembers verified tokens until the earlier of their expiry
// and tokenCacheTTL
type tokenCache struct {
	cache sync.Map
}

func newTokenCache() *tokenCache {
	return &tokenCache{}
}

func (c *tokenCache) get(token string) (string, bool) {
	val, ok := c.cache.Load(token)
	if !ok {
		return "", false
	}

	cached := val.(*cachedIdentity)
	if time.Now().After(cached.expiresAt) {
		c.cache.Delete(token)
		return "", false
	}

	return cached.userID, true
}

func (c *tokenCache) set(token, userID string, tokenExpiry time.Time) {
	expiresAt := time.Now().Add(tokenCacheTTL)
	if !tokenExpiry.IsZero() && tokenExpiry.Before(expiresAt) {
		expiresAt = tokenExpiry
	}

	c.cache.Store(token, &cachedIdentity{
		userID:    userID,
		expiresAt: expiresAt,
	})
}
