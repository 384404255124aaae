package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fadetogo/config"
	"fadetogo/utils"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.1.1.1:80", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": " 10.0.0.3 "}, "1.1.1.1:80", "10.0.0.3"},
		{"empty forwarded", map[string]string{"X-Forwarded-For": " , 10.0.0.2"}, "1.1.1.1:80", "1.1.1.1"},
		{"remote", nil, "192.168.1.9:5555", "192.168.1.9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Request.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				c.Request.Header.Set(k, v)
			}
			if got := clientIP(c); got != tc.want {
				t.Fatalf("clientIP = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.1.1.1:1234"
		r.ServeHTTP(w, req)
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}
}

func TestJWTAuthMiddleware(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	token, err := utils.GenerateToken("p1", utils.RoleProvider, time.Hour)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	r := gin.New()
	r.Use(JWTAuthMiddleware(true))
	r.PUT("/providers/:id/pricing", RequireProviderOwner(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextSubject))
	})

	do := func(path, auth string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		r.ServeHTTP(w, req)
		return w
	}

	if w := do("/providers/p1/pricing", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got %d", w.Code)
	}
	if w := do("/providers/p1/pricing", "Bearer garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d", w.Code)
	}
	if w := do("/providers/p2/pricing", "Bearer "+token); w.Code != http.StatusForbidden {
		t.Fatalf("other provider: got %d", w.Code)
	}
	if w := do("/providers/p1/pricing", "Bearer "+token); w.Code != http.StatusOK || w.Body.String() != "p1" {
		t.Fatalf("owner: got %d %q", w.Code, w.Body.String())
	}
}

func TestJWTAuthDisabled(t *testing.T) {
	r := gin.New()
	r.Use(JWTAuthMiddleware(false))
	r.PUT("/providers/:id/pricing", RequireProviderOwner(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/providers/p1/pricing", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("auth disabled should pass through, got %d", w.Code)
	}
}
