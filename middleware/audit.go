package middleware

import (
	"time"

	"github.com/craftlink/server/audit"
	"github.com/gin-gonic/gin"
)

// Audit records every mutating API call. Reads are skipped to keep the
// log focused on state changes.
func Audit(svc *audit.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Request.Method == "GET" {
			return
		}

		var userID *int64
		if id := GetUserID(c); id != 0 {
			userID = &id
		}
		var errMsg string
		if len(c.Errors) > 0 {
			errMsg = c.Errors.String()
		}
		svc.Log(audit.Entry{
			TraceID: GetTraceID(c),
			UserID:  userID,
			Action:  c.Request.Method + " " + c.FullPath(),
			Response: map[string]int{
				"status": c.Writer.Status(),
			},
			Error:      errMsg,
			IP:         c.ClientIP(),
			DurationMs: int(time.Since(start).Milliseconds()),
		})
	}
}
