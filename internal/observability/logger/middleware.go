package logger

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MiddlewareConfig tunes the request logging middleware.
type MiddlewareConfig struct {
	// Node issues request ids when the caller did not send one. Left nil,
	// the middleware builds its own node.
	Node *snowflake.Node
	// SkipPaths lists routes that are served but not logged.
	SkipPaths []string
}

// GinMiddleware tags every request with an id, echoes it back in the
// X-Request-Id header, and logs the completed request through the
// trace-enriched context logger.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	node := cfg.Node
	if node == nil {
		// Node id 1 is within snowflake's range, so the error is unreachable.
		node, _ = snowflake.NewNode(1)
	}
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = node.Generate().String()
		}
		c.Writer.Header().Set("X-Request-Id", requestID)

		start := time.Now()
		c.Next()

		if _, ok := skip[c.Request.URL.Path]; ok {
			return
		}
		FromContext(c.Request.Context()).Info("http request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
