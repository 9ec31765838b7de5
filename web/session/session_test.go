package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestContext(cookie string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != "" {
		c.Request.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
	}
	return c, w
}

// sessionCookie extracts the session cookie value written to the recorder.
func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	for _, raw := range w.Header().Values("Set-Cookie") {
		if strings.HasPrefix(raw, CookieName+"=") {
			value := strings.TrimPrefix(raw, CookieName+"=")
			if i := strings.Index(value, ";"); i >= 0 {
				value = value[:i]
			}
			return value
		}
	}
	t.Fatal("no session cookie written")
	return ""
}

func TestReadMissingCookie(t *testing.T) {
	Init("test secret", "/")
	c, _ := newTestContext("")
	if s := Read(c); len(s) != 0 {
		t.Errorf("expected empty session, got %v", s)
	}
}

func TestReadGarbageCookie(t *testing.T) {
	Init("test secret", "/")
	for _, cookie := range []string{"garbage", "a.b", "..", "payload-without-dot"} {
		c, _ := newTestContext(cookie)
		if s := Read(c); len(s) != 0 {
			t.Errorf("cookie %q decoded to %v, want empty session", cookie, s)
		}
	}
}

func TestWriteReadRoundtrip(t *testing.T) {
	Init("test secret", "/")

	c, w := newTestContext("")
	SetLoginUser(c, 42)

	c2, _ := newTestContext(sessionCookie(t, w))
	id, ok := GetLoginUserId(c2)
	if !ok || id != 42 {
		t.Errorf("GetLoginUserId = %d, %v; want 42, true", id, ok)
	}
}

func TestForgedCookieRejected(t *testing.T) {
	Init("test secret", "/")
	c, w := newTestContext("")
	SetLoginUser(c, 42)
	cookie := sessionCookie(t, w)

	// a cookie signed under a different secret must read as logged out
	Init("rotated secret", "/")
	c2, _ := newTestContext(cookie)
	if _, ok := GetLoginUserId(c2); ok {
		t.Error("cookie from old secret still authenticates")
	}
}

func TestEnsureCsrfTokenIdempotent(t *testing.T) {
	Init("test secret", "/")

	c, w := newTestContext("")
	first := EnsureCsrfToken(c)
	if first == "" {
		t.Fatal("no token issued")
	}
	if again := EnsureCsrfToken(c); again != first {
		t.Error("token changed within one request")
	}

	c2, _ := newTestContext(sessionCookie(t, w))
	if next := EnsureCsrfToken(c2); next != first {
		t.Error("token changed across requests in the same session")
	}
	if CsrfToken(c2) != first {
		t.Error("CsrfToken does not match issued token")
	}
}

func TestMultipleWritesCompose(t *testing.T) {
	Init("test secret", "/")

	c, w := newTestContext("")
	SetLoginUser(c, 7)
	token := EnsureCsrfToken(c)

	c2, _ := newTestContext(sessionCookie(t, w))
	if id, ok := GetLoginUserId(c2); !ok || id != 7 {
		t.Errorf("user id lost: got %d, %v", id, ok)
	}
	if CsrfToken(c2) != token {
		t.Error("csrf token lost after second write")
	}
}

func TestWriteReplacesQueuedCookie(t *testing.T) {
	Init("test secret", "/")

	c, w := newTestContext("")
	SetLoginUser(c, 7)
	EnsureCsrfToken(c)

	count := 0
	for _, raw := range w.Header().Values("Set-Cookie") {
		if strings.HasPrefix(raw, CookieName+"=") {
			count++
		}
	}
	if count != 1 {
		t.Errorf("response carries %d session cookies, want 1", count)
	}
}

func TestClear(t *testing.T) {
	Init("test secret", "/")
	c, w := newTestContext("")
	SetLoginUser(c, 9)
	Clear(c)

	if _, ok := GetLoginUserId(c); ok {
		t.Error("session still authenticated after Clear")
	}
	found := false
	for _, raw := range w.Header().Values("Set-Cookie") {
		if strings.HasPrefix(raw, CookieName+"=") && strings.Contains(raw, "Max-Age=0") {
			found = true
		}
	}
	if !found {
		t.Error("Clear did not expire the cookie")
	}
}
