package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMaxRequestSize(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(MaxRequestSize(1024)) // 1KB limit
	router.POST("/test", func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"size": len(body)})
	})

	// Small request - should pass
	w1 := httptest.NewRecorder()
	req1, _ := http.NewRequest("POST", "/test", bytes.NewBufferString(strings.Repeat("a", 500)))
	router.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.JSONEq(t, `{"size":500}`, w1.Body.String())

	// Large request - reading past the limit fails
	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("POST", "/test", bytes.NewBufferString(strings.Repeat("a", 2000)))
	router.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w2.Code)
	assert.Contains(t, w2.Body.String(), "request body too large")
}
