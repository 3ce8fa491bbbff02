package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger emits one structured line per request. When the auth middleware has
// resolved a client identity it is attached, so traffic can be broken down per
// API consumer.
func Logger(logger *logrus.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		fields := logrus.Fields{
			"status":     param.StatusCode,
			"method":     param.Method,
			"path":       param.Path,
			"latency_ms": float64(param.Latency.Microseconds()) / 1000,
			"client_ip":  param.ClientIP,
		}
		if clientID, ok := param.Keys["client_id"].(string); ok && clientID != "" {
			fields["client_id"] = clientID
		}
		if role, ok := param.Keys["role"].(string); ok && role != "" {
			fields["role"] = role
		}
		if param.ErrorMessage != "" {
			fields["error"] = param.ErrorMessage
		}

		entry := logger.WithFields(fields)
		if param.StatusCode >= http.StatusInternalServerError {
			entry.Error("Request failed")
		} else {
			entry.Info("Request served")
		}
		return ""
	})
}

// Recovery converts handler panics into the standard error envelope instead of
// dropping the connection.
func Recovery(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.WithFields(logrus.Fields{
			"panic":     recovered,
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"client_id": c.GetString("client_id"),
		}).Error("Recovered from panic in request handler")

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    "INTERNAL_SERVER_ERROR",
				"message": "Internal server error",
			},
		})
	})
}
