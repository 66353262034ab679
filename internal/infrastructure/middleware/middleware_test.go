package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terrasapp_server/pkg/util/jwt"
)

func newAuthEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWTAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextUserIDKey))
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	jwt.Init("middleware-secret", 5)
	token, err := jwt.GenerateAccessToken("U42")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token " + token, status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc.def.ghi", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token, status: http.StatusOK, body: "U42"},
	}
	r := newAuthEngine()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}

func TestTlsHandlerRedirects(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TlsHandler("example.com", 8443))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodGet, "http://example.com/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "https://example.com:8443/ping", w.Header().Get("Location"))
}
