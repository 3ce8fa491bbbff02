package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("attaches client identity to the request line", func(t *testing.T) {
		logger, hook := logrustest.NewNullLogger()

		router := gin.New()
		router.Use(Logger(logger))
		router.GET("/ping", func(c *gin.Context) {
			c.Set("client_id", "client-42")
			c.Set("role", "service")
			c.String(http.StatusOK, "pong")
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)

		require.Len(t, hook.Entries, 1)
		entry := hook.LastEntry()
		assert.Equal(t, "Request served", entry.Message)
		assert.Equal(t, http.StatusOK, entry.Data["status"])
		assert.Equal(t, "/ping", entry.Data["path"])
		assert.Equal(t, "client-42", entry.Data["client_id"])
		assert.Equal(t, "service", entry.Data["role"])
	})

	t.Run("anonymous requests carry no identity fields", func(t *testing.T) {
		logger, hook := logrustest.NewNullLogger()

		router := gin.New()
		router.Use(Logger(logger))
		router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Len(t, hook.Entries, 1)
		entry := hook.LastEntry()
		assert.NotContains(t, entry.Data, "client_id")
		assert.NotContains(t, entry.Data, "role")
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	logger, hook := logrustest.NewNullLogger()

	router := gin.New()
	router.Use(Recovery(logger))
	router.GET("/boom", func(c *gin.Context) {
		panic("exploded")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")

	require.NotEmpty(t, hook.Entries)
	assert.Equal(t, "Recovered from panic in request handler", hook.LastEntry().Message)
}
