// README: Tests for API-key auth middleware.
package middleware_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"relay/internal/http/middleware"
	"relay/internal/types"
)

// stubKeys is a test double for middleware.KeyLookup.
type stubKeys struct {
	byHash map[string]types.ID
	err    error
}

func (s *stubKeys) LookupAPIKey(_ context.Context, keyHash string) (types.ID, error) {
	if s.err != nil {
		return "", s.err
	}
	id, ok := s.byHash[keyHash]
	if !ok {
		return "", errNoKey
	}
	return id, nil
}

var errNoKey = &notFoundErr{}

type notFoundErr struct{}

func (*notFoundErr) Error() string { return "key not found" }

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func newTestRouter(keys middleware.KeyLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Auth(keys))
	r.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"caller": middleware.CallerID(c)})
	})
	return r
}

func doRequest(r *gin.Engine, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_MissingKey(t *testing.T) {
	r := newTestRouter(&stubKeys{})
	if w := doRequest(r, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_UnknownKey(t *testing.T) {
	r := newTestRouter(&stubKeys{byHash: map[string]types.ID{}})
	if w := doRequest(r, "not-a-real-key"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuth_ValidKeyResolvesCaller(t *testing.T) {
	keys := &stubKeys{byHash: map[string]types.ID{hashKey("secret-key"): "vol1"}}
	r := newTestRouter(keys)

	w := doRequest(r, "secret-key")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := w.Body.String(); body != `{"caller":"vol1"}` {
		t.Errorf("unexpected body: %s", body)
	}
}
