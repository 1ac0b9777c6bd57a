package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serveWith(mw gin.HandlerFunc, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	router := gin.New()
	router.Use(mw)
	router.GET("/api/v1/stock/balances", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORSWithConfig(t *testing.T) {
	frontend := "http://admin.shirin.tj"
	balances := "/api/v1/stock/balances"

	t.Run("listed origin is allowed", func(t *testing.T) {
		cfg := CORSConfig{
			AllowOrigins:     []string{frontend},
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Content-Type", "X-Branch-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}

		w := serveWith(CORSWithConfig(cfg), http.MethodGet, balances, map[string]string{"Origin": frontend})

		assert.Equal(t, frontend, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, X-Branch-ID", w.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "X-Request-ID", w.Header().Get("Access-Control-Expose-Headers"))
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("unlisted origin gets no headers", func(t *testing.T) {
		cfg := CORSConfig{AllowOrigins: []string{frontend}}

		w := serveWith(CORSWithConfig(cfg), http.MethodGet, balances, map[string]string{"Origin": "http://evil.example"})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("default config refuses every origin", func(t *testing.T) {
		w := serveWith(CORS(), http.MethodGet, balances, map[string]string{"Origin": frontend})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard never grants credentials", func(t *testing.T) {
		cfg := CORSConfig{
			AllowOrigins:     []string{"*"},
			AllowMethods:     []string{"GET"},
			AllowCredentials: true,
		}

		w := serveWith(CORSWithConfig(cfg), http.MethodGet, balances, map[string]string{"Origin": frontend})

		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight from listed origin", func(t *testing.T) {
		cfg := CORSConfig{
			AllowOrigins: []string{frontend},
			AllowMethods: []string{"GET", "POST", "PUT"},
			AllowHeaders: []string{"Content-Type", "Authorization"},
		}

		w := serveWith(CORSWithConfig(cfg), http.MethodOptions, balances, map[string]string{"Origin": frontend})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, frontend, w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, PUT", w.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("preflight from unlisted origin is 204 without headers", func(t *testing.T) {
		cfg := CORSConfig{AllowOrigins: []string{frontend}}

		w := serveWith(CORSWithConfig(cfg), http.MethodOptions, balances, map[string]string{"Origin": "http://evil.example"})

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequestID(t *testing.T) {
	t.Run("generates an ID", func(t *testing.T) {
		w := serveWith(RequestID(), http.MethodGet, "/api/v1/stock/balances", nil)

		id := w.Header().Get("X-Request-ID")
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		// Handlers see the same ID through the gin context
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps the caller's ID", func(t *testing.T) {
		w := serveWith(RequestID(), http.MethodGet, "/api/v1/stock/balances", map[string]string{"X-Request-ID": "retry-42"})

		assert.Equal(t, "retry-42", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "retry-42", w.Body.String())
	})
}

func TestSecure(t *testing.T) {
	t.Run("default hardening headers", func(t *testing.T) {
		w := serveWith(Secure(), http.MethodGet, "/api/v1/stock/balances", nil)

		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
		assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
		assert.Contains(t, w.Header().Get("Permissions-Policy"), "camera=()")
		// HSTS waits for the TLS-terminating proxy
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("HSTS value assembly", func(t *testing.T) {
		cfg := SecurityConfig{
			HSTSEnabled:           true,
			HSTSMaxAge:            63072000,
			HSTSIncludeSubdomains: true,
			HSTSPreload:           true,
		}

		w := serveWith(SecureWithConfig(cfg), http.MethodGet, "/api/v1/stock/balances", nil)

		assert.Equal(t, "max-age=63072000; includeSubDomains; preload", w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("optional headers can be disabled", func(t *testing.T) {
		w := serveWith(SecureWithConfig(SecurityConfig{}), http.MethodGet, "/api/v1/stock/balances", nil)

		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Empty(t, w.Header().Get("Content-Security-Policy"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
		assert.Empty(t, w.Header().Get("Permissions-Policy"))
	})
}
