package tokenstore

import "sync"

// In-memory jti revocation store backing logout. A multi-instance
// deployment would move this to Redis next to the gateway fan-out.
var (
	mu            sync.RWMutex
	revokedTokens = map[string]struct{}{}
)

func RevokeToken(jti string) {
	if jti == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	revokedTokens[jti] = struct{}{}
}

func IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	mu.RLock()
	defer mu.RUnlock()
	_, ok := revokedTokens[jti]
	return ok
}
