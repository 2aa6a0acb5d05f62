// README: API-key auth middleware; resolves the caller from a hashed key.
package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"relay/internal/types"
)

const (
	apiKeyHeader = "X-API-Key"
	callerIDKey  = "callerID"
)

// KeyLookup resolves an API key hash to the owning user.
type KeyLookup interface {
	LookupAPIKey(ctx context.Context, keyHash string) (types.ID, error)
}

// Auth requires a valid API key on every request. Keys are stored
// hashed; only the SHA-256 of the presented key ever reaches the store.
func Auth(keys KeyLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(apiKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}
		sum := sha256.Sum256([]byte(key))
		id, err := keys.LookupAPIKey(c.Request.Context(), hex.EncodeToString(sum[:]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}
		c.Set(callerIDKey, id)
		c.Next()
	}
}

// CallerID returns the authenticated caller, or empty when auth did not run.
func CallerID(c *gin.Context) types.ID {
	if v, ok := c.Get(callerIDKey); ok {
		if id, ok := v.(types.ID); ok {
			return id
		}
	}
	return ""
}
