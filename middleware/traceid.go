package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceIDHeader carries the request trace id. Audit rows and log lines
// for one relationship mutation all share this id.
const TraceIDHeader = "X-Trace-ID"

const traceIDKey = "trace_id"

// TraceID tags every request with a trace id. An inbound header value is
// kept so a client can correlate its retries; an absent or oversized one
// is replaced with a fresh UUID.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(TraceIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(traceIDKey, id)
		c.Header(TraceIDHeader, id)
		c.Next()
	}
}

// GetTraceID returns the request's trace id, or "" outside TraceID.
func GetTraceID(c *gin.Context) string {
	return c.GetString(traceIDKey)
}
