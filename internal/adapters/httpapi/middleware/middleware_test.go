package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
)

type staticParser struct {
	token string
	id    uuid.UUID
}

func (p staticParser) ParseToken(token string) (uuid.UUID, error) {
	if token != p.token {
		return uuid.Nil, errors.New("bad token")
	}
	return p.id, nil
}

func newEngine(parser TokenParser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("http://app.local"))
	r.GET("/me", JWTAuthMiddleware(parser), func(c *gin.Context) {
		id, ok := PrincipalFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	return r
}

func TestJWTAuthMiddleware(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	r := newEngine(staticParser{token: "good", id: id})

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized},
		{"bad bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "good"}) }, http.StatusOK},
		{"stale cookie with valid bearer", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "expired"})
			r.Header.Set("Authorization", "Bearer good")
		}, http.StatusOK},
		{"stale cookie alone", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: "expired"}) }, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, id.String(), w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), "user not authenticated")
			}
		})
	}
}

func preflight(r *gin.Engine, origin, method, headers string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/me", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", method)
	if headers != "" {
		req.Header.Set("Access-Control-Request-Headers", headers)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSPreflight(t *testing.T) {
	r := newEngine(staticParser{})

	w := preflight(r, "http://app.local", http.MethodGet, "Authorization")
	assert.Less(t, w.Code, 300)
	assert.Equal(t, "http://app.local", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Authorization", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "300", w.Header().Get("Access-Control-Max-Age"))

	w = preflight(r, "http://evil.local", http.MethodGet, "")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight(r, "http://app.local", http.MethodPatch, "")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))

	w = preflight(r, "http://app.local", http.MethodGet, "X-Requested-With")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSActualRequest(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	r := newEngine(staticParser{token: "good", id: id})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Origin", "http://app.local")
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), w.Body.String())
	assert.Equal(t, "http://app.local", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Origin", "http://evil.local")
	req.Header.Set("Authorization", "Bearer good")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
