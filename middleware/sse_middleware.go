package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const ContextHeartbeatKey = "sseHeartbeat"

// SSEMiddleware prepares the response for an event stream. The handler owns
// the writer and sends heartbeats at the interval stored in the context, so
// keep-alive comments never interleave with events.
func SSEMiddleware(heartbeat time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		c.Set(ContextHeartbeatKey, heartbeat)
		c.Next()
	}
}

func HeartbeatInterval(c *gin.Context) time.Duration {
	if value, ok := c.Get(ContextHeartbeatKey); ok {
		if heartbeat, ok := value.(time.Duration); ok && heartbeat > 0 {
			return heartbeat
		}
	}
	return 15 * time.Second
}
