package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kiosk404/echoloop/internal/echoloop/options"
	"github.com/kiosk404/echoloop/internal/pkg/core"
	"github.com/kiosk404/echoloop/pkg/errorx"
)

// Authentication error codes, in the common group of the API code space.
const (
	ErrMissingCredentials = 110110
	ErrInvalidCredentials = 110120
)

func init() {
	errorx.MustRegister(authCoder{ErrMissingCredentials, "Bearer token required"})
	errorx.MustRegister(authCoder{ErrInvalidCredentials, "Bearer token rejected"})
}

type authCoder struct {
	code int
	msg  string
}

func (a authCoder) Code() int         { return a.code }
func (a authCoder) HTTPStatus() int   { return http.StatusUnauthorized }
func (a authCoder) String() string    { return a.msg }
func (a authCoder) Reference() string { return "" }

// openPaths are served without a token so health checks keep working.
var openPaths = map[string]struct{}{
	"/healthz": {},
	"/version": {},
}

// BearerAuth checks "Authorization: Bearer <token>" against the configured
// token. It is a no-op while auth is disabled or no token resolves.
func BearerAuth(cfg *options.AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg == nil || !cfg.Enabled {
			c.Next()
			return
		}
		want := cfg.ResolveToken()
		if want == "" {
			c.Next()
			return
		}
		if _, ok := openPaths[c.Request.URL.Path]; ok {
			c.Next()
			return
		}
		if cfg.AllowLocal && fromLoopback(c.Request.RemoteAddr) {
			c.Next()
			return
		}

		got, err := bearerToken(c.GetHeader("Authorization"))
		if err == nil && subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			err = errorx.WithCode(ErrInvalidCredentials, "token does not match")
		}
		if err != nil {
			c.Header("WWW-Authenticate", `Bearer realm="echoloop"`)
			core.WriteResponse(c, err, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errorx.WithCode(ErrMissingCredentials, "missing Authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errorx.WithCode(ErrInvalidCredentials, "Authorization header must be 'Bearer <token>'")
	}
	return token, nil
}

func fromLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return false
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
