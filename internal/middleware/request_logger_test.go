package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/vidindex/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger.Configure(logger.Options{Level: "info", Output: &buf})
	t.Cleanup(func() { logger.Configure(logger.Options{}) })

	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/folders", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Empty(t, buf.String())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/folders?q=alien", nil))
	assert.Contains(t, buf.String(), "HTTP request")
	assert.Contains(t, buf.String(), "path=/api/folders")
	assert.Contains(t, buf.String(), "q=alien")
}

func TestErrorLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger.Configure(logger.Options{Level: "info", Output: &buf})
	t.Cleanup(func() { logger.Configure(logger.Options{}) })

	r := gin.New()
	r.Use(ErrorLogger())
	r.GET("/fail", func(c *gin.Context) {
		c.Error(assert.AnError)
		c.Status(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Contains(t, buf.String(), "Request error")
}
