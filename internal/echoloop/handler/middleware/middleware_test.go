package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kiosk404/echoloop/internal/echoloop/options"
	"github.com/kiosk404/echoloop/internal/pkg/core"
	"github.com/kiosk404/echoloop/pkg/utils/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(cfg *options.AuthOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	g.Use(CORS(), BearerAuth(cfg))
	g.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	g.GET("/v1/toolsets", func(c *gin.Context) { c.String(http.StatusOK, "sets") })
	return g
}

func do(g *gin.Engine, method, path, remote, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remote
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestBearerAuth(t *testing.T) {
	g := newEngine(&options.AuthOptions{Enabled: true, Token: "s3cret"})
	remote := "192.0.2.10:4242"

	assert.Equal(t, http.StatusUnauthorized, do(g, http.MethodGet, "/v1/toolsets", remote, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(g, http.MethodGet, "/v1/toolsets", remote, "Token s3cret").Code)
	assert.Equal(t, http.StatusUnauthorized, do(g, http.MethodGet, "/v1/toolsets", remote, "Bearer nope").Code)
	assert.Equal(t, http.StatusOK, do(g, http.MethodGet, "/v1/toolsets", remote, "Bearer s3cret").Code)
	assert.Equal(t, http.StatusOK, do(g, http.MethodGet, "/healthz", remote, "").Code)
}

func TestBearerAuth_LocalAndEnv(t *testing.T) {
	t.Setenv(options.TokenEnv, "from-env")
	g := newEngine(&options.AuthOptions{Enabled: true, AllowLocal: true})

	assert.Equal(t, http.StatusOK, do(g, http.MethodGet, "/v1/toolsets", "127.0.0.1:5000", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(g, http.MethodGet, "/v1/toolsets", "192.0.2.10:4242", "").Code)
	assert.Equal(t, http.StatusOK, do(g, http.MethodGet, "/v1/toolsets", "192.0.2.10:4242", "Bearer from-env").Code)
}

func TestBearerAuth_Disabled(t *testing.T) {
	g := newEngine(&options.AuthOptions{Token: "s3cret"})
	assert.Equal(t, http.StatusOK, do(g, http.MethodGet, "/v1/toolsets", "192.0.2.10:4242", "").Code)
}

func TestCORS(t *testing.T) {
	g := newEngine(nil)
	w := do(g, http.MethodOptions, "/v1/toolsets", "192.0.2.10:4242", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBearerAuth_ErrorBody(t *testing.T) {
	g := newEngine(&options.AuthOptions{Enabled: true, Token: "s3cret"})

	w := do(g, http.MethodGet, "/v1/toolsets", "192.0.2.10:4242", "")
	var body core.ErrResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrMissingCredentials, body.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")

	w = do(g, http.MethodGet, "/v1/toolsets", "192.0.2.10:4242", "bearer nope")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrInvalidCredentials, body.Code)

	assert.Equal(t, http.StatusOK, do(g, http.MethodGet, "/v1/toolsets", "192.0.2.10:4242", "bearer s3cret").Code)
}
