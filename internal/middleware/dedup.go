package middleware

import (
	"bytes"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/parksanggeon/smart-recipe-generator/internal/logger"
	"github.com/parksanggeon/smart-recipe-generator/internal/types"
)

const defaultDedupWindow = time.Second

// Deduplicator rejects a POST or PUT whose user, path and body match one
// seen within the window
type Deduplicator struct {
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	requests map[string]time.Time
	swept    time.Time
}

func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = defaultDedupWindow
	}
	return &Deduplicator{
		window:   window,
		now:      time.Now,
		requests: make(map[string]time.Time),
	}
}

// Middleware returns the gin handler
func (d *Deduplicator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut {
			c.Next()
			return
		}

		fingerprint := c.Request.Method + ":" + c.Request.URL.Path + ":" + c.GetString(ContextUserID)
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				logger.Error("Failed to read request body", zap.Error(err))
				c.Next()
				return
			}
			sum := blake2b.Sum256(body)
			fingerprint += ":" + hex.EncodeToString(sum[:])
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		if d.seen(fingerprint) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Request too frequent",
				"code":  types.ErrCodeTooManyRequests,
			})
			return
		}

		c.Next()
	}
}

// seen records the fingerprint and reports whether it was already recorded
// within the window. Stale entries are swept at most once per ten windows.
func (d *Deduplicator) seen(fingerprint string) bool {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if now.Sub(d.swept) > 10*d.window {
		for k, t := range d.requests {
			if now.Sub(t) > d.window {
				delete(d.requests, k)
			}
		}
		d.swept = now
	}

	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now
	return false
}
