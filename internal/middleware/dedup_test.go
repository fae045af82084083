package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestDeduplicator(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDeduplicator(2 * time.Second)
	d.now = func() time.Time { return now }

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextUserID, c.GetHeader("X-User"))
		c.Next()
	})
	router.Use(d.Middleware())
	echo := func(c *gin.Context) {
		body := struct {
			Name string `json:"name"`
		}{}
		_ = c.ShouldBindJSON(&body)
		c.JSON(http.StatusOK, gin.H{"name": body.Name})
	}
	router.POST("/api/validate-ingredient", echo)
	router.GET("/api/get-recipes", echo)

	send := func(method, user, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, map[string]string{
			http.MethodPost: "/api/validate-ingredient",
			http.MethodGet:  "/api/get-recipes",
		}[method], strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User", user)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	first := send(http.MethodPost, "u1", `{"name":"salt"}`)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, `{"name":"salt"}`, first.Body.String())

	dup := send(http.MethodPost, "u1", `{"name":"salt"}`)
	assert.Equal(t, http.StatusTooManyRequests, dup.Code)
	assert.JSONEq(t, `{"error":"Request too frequent","code":"TOO_MANY_REQUESTS"}`, dup.Body.String())

	assert.Equal(t, http.StatusOK, send(http.MethodPost, "u2", `{"name":"salt"}`).Code)
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "u1", `{"name":"pepper"}`).Code)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "u1", "").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "u1", "").Code)

	now = now.Add(3 * time.Second)
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "u1", `{"name":"salt"}`).Code)
}
