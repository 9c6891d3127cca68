package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emma-hr/emma-api/internal/service"
)

type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type bufferingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bufferingWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	return w.ResponseWriter.Write(p)
}

// CacheResponse serves successful GET responses from the read cache,
// keyed on the full request URI. Non-GET requests and error responses
// pass through untouched.
func CacheResponse(cache *service.CacheService, prefix string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cache.Enabled() || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := prefix + ":" + c.Request.URL.RequestURI()

		var cached cachedResponse
		hit, err := cache.Get(c.Request.Context(), key, &cached)
		if err == nil && hit {
			c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
			c.Abort()
			return
		}

		writer := &bufferingWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		if writer.Status() == http.StatusOK {
			_ = cache.Set(c.Request.Context(), key, cachedResponse{
				Status: writer.Status(),
				Body:   writer.buf.Bytes(),
			}, ttl)
		}
	}
}
