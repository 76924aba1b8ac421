package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// requestIDHeader carries the correlation ID back to the caller.
const requestIDHeader = "X-Request-ID"

// requestLog assigns each request a correlation ID and logs its outcome.
func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(requestIDHeader, reqID)

		start := time.Now()
		c.Next()

		s.log.Info("request",
			"request_id", reqID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String())
	}
}

// clientLimits holds a token bucket per client.
type clientLimits struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newClientLimits(r float64, burst int) *clientLimits {
	if burst <= 0 {
		burst = 1
	}
	return &clientLimits{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(r),
		burst:    burst,
	}
}

func (cl *clientLimits) get(client string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	l, ok := cl.limiters[client]
	if !ok {
		l = rate.NewLimiter(cl.rate, cl.burst)
		cl.limiters[client] = l
	}
	return l
}

// rateLimit enforces the per-client request rate. Clients are keyed by
// the X-User-ID header when present, falling back to the remote address.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.GetHeader("X-User-ID")
		if client == "" {
			client = c.ClientIP()
		}
		if !s.limits.get(client).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
