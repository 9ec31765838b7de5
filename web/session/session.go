// Package session implements the cookie-backed session of the portal. The
// whole session lives client-side inside a signed cookie; there is no
// server-side session table. Reads re-verify the signature every time, and a
// cookie that does not verify is treated as "no session" rather than as an
// error.
package session

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/maintainview/maintainview/util/random"
	"github.com/maintainview/maintainview/util/signer"

	"github.com/gin-gonic/gin"
)

// CookieName is the session cookie name.
const CookieName = "session"

// sessionSalt namespaces the session signing key; file tokens use a different
// salt so the two token families can never be exchanged.
const sessionSalt = "maintainview-session"

const (
	keyUserId    = "user_id"
	keyCsrfToken = "csrf_token"
)

// ctxKey caches the decoded session in the gin context so that several
// writes within one request compose instead of overwriting each other.
const ctxKey = "session_values"

var (
	codec *signer.Signer
	// cookiePaths always contains "/"; when the panel is served under a
	// reverse-proxy path prefix the prefix is set as well, so the cookie
	// reaches every route regardless of how the proxy rewrites paths.
	cookiePaths = []string{"/"}
)

// Init derives the session codec from the server secret and records the
// cookie paths. Called once at startup (and from test setup).
func Init(secret, basePath string) {
	codec = signer.New(secret, sessionSalt)
	cookiePaths = []string{"/"}
	if basePath != "" && basePath != "/" {
		if len(basePath) > 1 && basePath[len(basePath)-1] == '/' {
			basePath = basePath[:len(basePath)-1]
		}
		cookiePaths = append(cookiePaths, basePath)
	}
}

// Session is the decoded cookie payload.
type Session map[string]string

// Read extracts and verifies the session cookie. Missing, forged or
// corrupted cookies all yield an empty session.
func Read(c *gin.Context) Session {
	if cached, ok := c.Get(ctxKey); ok {
		return cached.(Session)
	}
	cookie, err := c.Cookie(CookieName)
	if err != nil {
		return Session{}
	}
	values := codec.DecodeMap(cookie)
	if values == nil {
		return Session{}
	}
	return Session(values)
}

// setCookie queues the session cookie on the response, dropping any session
// cookie queued earlier in the same request so the response never carries
// two conflicting values.
func setCookie(c *gin.Context, value string, maxAge int) {
	header := c.Writer.Header()
	queued := header.Values("Set-Cookie")
	header.Del("Set-Cookie")
	for _, raw := range queued {
		if !strings.HasPrefix(raw, CookieName+"=") {
			header.Add("Set-Cookie", raw)
		}
	}
	secure := c.Request.TLS != nil
	c.SetSameSite(http.SameSiteLaxMode)
	for _, path := range cookiePaths {
		c.SetCookie(CookieName, value, maxAge, path, "", secure, true)
	}
}

// Write signs the session and attaches it to the response. HttpOnly always;
// SameSite=Lax and Secure-when-HTTPS as a hardening default. No MaxAge is
// set: the cookie lives until the browser session ends or the secret rotates.
func Write(c *gin.Context, s Session) {
	c.Set(ctxKey, s)
	setCookie(c, codec.EncodeMap(map[string]string(s)), 0)
}

// Clear replaces the session with an empty one and expires the cookie.
func Clear(c *gin.Context) {
	c.Set(ctxKey, Session{})
	setCookie(c, "", -1)
}

// SetLoginUser binds the user id into the session, keeping the CSRF token.
func SetLoginUser(c *gin.Context, userId int) {
	s := Read(c)
	s[keyUserId] = strconv.Itoa(userId)
	Write(c, s)
}

// GetLoginUserId returns the authenticated user id, if any.
func GetLoginUserId(c *gin.Context) (int, bool) {
	s := Read(c)
	raw, ok := s[keyUserId]
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// EnsureCsrfToken returns the session's anti-forgery token, generating and
// persisting one on first access. Repeated calls within the same session
// return the identical token.
func EnsureCsrfToken(c *gin.Context) string {
	s := Read(c)
	if token, ok := s[keyCsrfToken]; ok && token != "" {
		return token
	}
	token := random.Hex(32)
	s[keyCsrfToken] = token
	Write(c, s)
	return token
}

// CsrfToken returns the session's anti-forgery token without issuing one.
func CsrfToken(c *gin.Context) string {
	return Read(c)[keyCsrfToken]
}
