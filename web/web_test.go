package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/maintainview/maintainview/database"
	"github.com/maintainview/maintainview/database/model"
	"github.com/maintainview/maintainview/logger"
	"github.com/maintainview/maintainview/web/entity"
	"github.com/maintainview/maintainview/web/locale"
	"github.com/maintainview/maintainview/web/service"

	"github.com/gin-gonic/gin"
	"github.com/op/go-logging"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin"
)

var csrfFieldRe = regexp.MustCompile(`name="csrf_token" value="([^"]*)"`)

func TestMain(m *testing.M) {
	logger.InitLogger(logging.ERROR)
	os.Exit(m.Run())
}

// newTestEngine boots a fresh portal on a temporary database and returns the
// router.
func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmp := t.TempDir()
	t.Setenv("MTV_DB_FOLDER", tmp)
	t.Setenv("MTV_UPLOAD_FOLDER", filepath.Join(tmp, "uploads"))

	if err := database.InitDB(filepath.Join(tmp, "maintainview.db")); err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() {
		database.SetReadOnly(false)
		_ = database.CloseDB()
	})

	if err := locale.InitLocalizer(i18nFS); err != nil {
		t.Fatalf("init localizer: %v", err)
	}

	server := NewServer()
	engine, err := server.initRouter()
	if err != nil {
		t.Fatalf("init router: %v", err)
	}
	return engine
}

func doGet(engine *gin.Engine, path string, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func doPost(engine *gin.Engine, path string, cookie string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// sessionCookie extracts the session cookie pair from a response, or returns
// the previous cookie when the response did not set one.
func sessionCookie(w *httptest.ResponseRecorder, previous string) string {
	for _, raw := range w.Header().Values("Set-Cookie") {
		if strings.HasPrefix(raw, "session=") {
			if i := strings.Index(raw, ";"); i >= 0 {
				return raw[:i]
			}
			return raw
		}
	}
	return previous
}

func decodeMsg(t *testing.T, w *httptest.ResponseRecorder) entity.Msg {
	t.Helper()
	var msg entity.Msg
	if err := json.Unmarshal(w.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return msg
}

// login walks the real login flow and returns the session cookie and the
// CSRF token bound to it.
func login(t *testing.T, engine *gin.Engine, email string, password string) (string, string) {
	t.Helper()

	page := doGet(engine, "/login", "")
	if page.Code != http.StatusOK {
		t.Fatalf("login page status = %d", page.Code)
	}
	match := csrfFieldRe.FindStringSubmatch(page.Body.String())
	if match == nil {
		t.Fatal("login page has no csrf token")
	}
	csrfToken := match[1]
	cookie := sessionCookie(page, "")

	resp := doPost(engine, "/login", cookie, url.Values{
		"email":      {email},
		"password":   {password},
		"csrf_token": {csrfToken},
	})
	msg := decodeMsg(t, resp)
	if !msg.Success {
		t.Fatalf("login as %s failed: %s", email, msg.Msg)
	}
	return sessionCookie(resp, cookie), csrfToken
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	engine := newTestEngine(t)

	page := doGet(engine, "/login", "")
	match := csrfFieldRe.FindStringSubmatch(page.Body.String())
	if match == nil {
		t.Fatal("login page has no csrf token")
	}
	resp := doPost(engine, "/login", sessionCookie(page, ""), url.Values{
		"email":      {adminEmail},
		"password":   {"wrong"},
		"csrf_token": {match[1]},
	})
	if msg := decodeMsg(t, resp); msg.Success {
		t.Error("wrong password accepted")
	}
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	engine := newTestEngine(t)

	for _, path := range []string{"/admin/clients", "/client/", "/files/sometoken"} {
		w := doGet(engine, path, "")
		if w.Code != http.StatusFound {
			t.Errorf("GET %s status = %d, want 302", path, w.Code)
			continue
		}
		if loc := w.Header().Get("Location"); !strings.HasSuffix(loc, "login") {
			t.Errorf("GET %s redirects to %q, want login", path, loc)
		}
	}
}

func TestClientRoleCannotEnterAdminPanel(t *testing.T) {
	engine := newTestEngine(t)

	clientService := service.ClientService{}
	userService := service.UserService{}
	client := &model.Client{Name: "tenant", IsActive: true}
	if err := clientService.CreateClient(client); err != nil {
		t.Fatal(err)
	}
	if _, err := userService.CreateClientUser(client.Id, "user@tenant.jp", "pw"); err != nil {
		t.Fatal(err)
	}

	cookie, _ := login(t, engine, "user@tenant.jp", "pw")
	w := doGet(engine, "/admin/clients", cookie)
	if w.Code != http.StatusFound {
		t.Errorf("client role got %d from admin panel, want 302", w.Code)
	}
}

func TestCsrfGuard(t *testing.T) {
	engine := newTestEngine(t)
	cookie, csrfToken := login(t, engine, adminEmail, adminPassword)

	clientService := service.ClientService{}

	// missing token: rejected, nothing stored
	resp := doPost(engine, "/admin/clients/add", cookie, url.Values{
		"name": {"Tenant A"},
	})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("missing csrf token: status = %d, want 403", resp.Code)
	}
	if clients, _ := clientService.SearchClients(""); len(clients) != 0 {
		t.Fatal("state changed despite csrf rejection")
	}

	// wrong token: same
	resp = doPost(engine, "/admin/clients/add", cookie, url.Values{
		"name":       {"Tenant A"},
		"csrf_token": {"forged"},
	})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("forged csrf token: status = %d, want 403", resp.Code)
	}

	// correct token: accepted
	resp = doPost(engine, "/admin/clients/add", cookie, url.Values{
		"name":       {"Tenant A"},
		"csrf_token": {csrfToken},
	})
	if msg := decodeMsg(t, resp); !msg.Success {
		t.Fatalf("valid mutation rejected: %s", msg.Msg)
	}
	if clients, _ := clientService.SearchClients(""); len(clients) != 1 {
		t.Fatal("client not stored")
	}
}

func TestReadOnlyModeBlocksValidMutations(t *testing.T) {
	engine := newTestEngine(t)
	cookie, csrfToken := login(t, engine, adminEmail, adminPassword)

	settingService := service.SettingService{}
	if err := settingService.SetReadOnlyMode(true); err != nil {
		t.Fatal(err)
	}

	resp := doPost(engine, "/admin/clients/add", cookie, url.Values{
		"name":       {"Tenant A"},
		"csrf_token": {csrfToken},
	})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("read-only mutation: status = %d, want 403", resp.Code)
	}

	clientService := service.ClientService{}
	if clients, _ := clientService.SearchClients(""); len(clients) != 0 {
		t.Fatal("state changed in read-only mode")
	}

	// the storage guard holds for non-HTTP writes too
	err := clientService.CreateClient(&model.Client{Name: "direct"})
	if err == nil {
		t.Fatal("direct storage write succeeded in read-only mode")
	}

	if err := settingService.SetReadOnlyMode(false); err != nil {
		t.Fatal(err)
	}
	if err := clientService.CreateClient(&model.Client{Name: "after"}); err != nil {
		t.Fatalf("write still blocked after disabling read-only mode: %v", err)
	}
}

// seedFile stores a shared file row with real bytes on disk and returns it.
func seedFile(t *testing.T, siteId int, clientVisible bool) *model.SharedFile {
	t.Helper()
	dir := filepath.Join(os.Getenv("MTV_UPLOAD_FOLDER"), "testdir")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "report.pdf"), []byte("pdf bytes"), 0o600); err != nil {
		t.Fatal(err)
	}
	f := &model.SharedFile{
		SiteId:           &siteId,
		UploadedById:     1,
		Title:            "report",
		OriginalFilename: "report.pdf",
		StoredPath:       filepath.Join("testdir", "report.pdf"),
		ClientVisible:    clientVisible,
	}
	if err := database.GetDB().Create(f).Error; err != nil {
		t.Fatal(err)
	}
	return f
}

func TestFileDownloadTokenSemantics(t *testing.T) {
	engine := newTestEngine(t)
	adminCookie, _ := login(t, engine, adminEmail, adminPassword)

	clientService := service.ClientService{}
	siteService := service.SiteService{}
	userService := service.UserService{}
	fileService := service.FileService{}

	tenantA := &model.Client{Name: "tenant-a", IsActive: true}
	tenantB := &model.Client{Name: "tenant-b", IsActive: true}
	if err := clientService.CreateClient(tenantA); err != nil {
		t.Fatal(err)
	}
	if err := clientService.CreateClient(tenantB); err != nil {
		t.Fatal(err)
	}
	site := &model.Site{ClientId: tenantA.Id, Name: "site-a", IsActive: true}
	if err := siteService.CreateSite(site); err != nil {
		t.Fatal(err)
	}
	if _, err := userService.CreateClientUser(tenantA.Id, "a@tenant.jp", "pw"); err != nil {
		t.Fatal(err)
	}
	if _, err := userService.CreateClientUser(tenantB.Id, "b@tenant.jp", "pw"); err != nil {
		t.Fatal(err)
	}

	visible := seedFile(t, site.Id, true)
	hidden := seedFile(t, site.Id, false)

	visibleToken := fileService.IssueToken(visible.Id)
	hiddenToken := fileService.IssueToken(hidden.Id)

	// a token that does not verify is a 404, indistinguishable from a
	// nonexistent page
	if w := doGet(engine, "/files/garbage", adminCookie); w.Code != http.StatusNotFound {
		t.Errorf("bad token: status = %d, want 404", w.Code)
	}

	// admin downloads anything that is not deleted
	if w := doGet(engine, "/files/"+visibleToken, adminCookie); w.Code != http.StatusOK {
		t.Errorf("admin download: status = %d, want 200", w.Code)
	}
	if w := doGet(engine, "/files/"+hiddenToken, adminCookie); w.Code != http.StatusOK {
		t.Errorf("admin hidden download: status = %d, want 200", w.Code)
	}

	// owning tenant sees visible files only; a valid token it may not use
	// is a 403, not a 404
	cookieA, _ := login(t, engine, "a@tenant.jp", "pw")
	if w := doGet(engine, "/files/"+visibleToken, cookieA); w.Code != http.StatusOK {
		t.Errorf("own tenant download: status = %d, want 200", w.Code)
	}
	if w := doGet(engine, "/files/"+hiddenToken, cookieA); w.Code != http.StatusForbidden {
		t.Errorf("hidden file for own tenant: status = %d, want 403", w.Code)
	}

	// foreign tenant is denied with the same 403
	cookieB, _ := login(t, engine, "b@tenant.jp", "pw")
	if w := doGet(engine, "/files/"+visibleToken, cookieB); w.Code != http.StatusForbidden {
		t.Errorf("foreign tenant download: status = %d, want 403", w.Code)
	}

	// soft deletion revokes outstanding tokens for everyone; a deleted file
	// reads as gone, not as forbidden
	if err := fileService.SetDeleted(visible.Id, true); err != nil {
		t.Fatal(err)
	}
	if w := doGet(engine, "/files/"+visibleToken, adminCookie); w.Code != http.StatusNotFound {
		t.Errorf("deleted file for admin: status = %d, want 404", w.Code)
	}
	if w := doGet(engine, "/files/"+visibleToken, cookieA); w.Code != http.StatusNotFound {
		t.Errorf("deleted file for tenant: status = %d, want 404", w.Code)
	}
}

func TestCrossTenantSiteIsolation(t *testing.T) {
	engine := newTestEngine(t)

	clientService := service.ClientService{}
	siteService := service.SiteService{}
	userService := service.UserService{}

	tenantA := &model.Client{Name: "tenant-a", IsActive: true}
	tenantB := &model.Client{Name: "tenant-b", IsActive: true}
	if err := clientService.CreateClient(tenantA); err != nil {
		t.Fatal(err)
	}
	if err := clientService.CreateClient(tenantB); err != nil {
		t.Fatal(err)
	}
	site := &model.Site{ClientId: tenantA.Id, Name: "site-a", IsActive: true}
	if err := siteService.CreateSite(site); err != nil {
		t.Fatal(err)
	}
	if _, err := userService.CreateClientUser(tenantB.Id, "b@tenant.jp", "pw"); err != nil {
		t.Fatal(err)
	}

	cookieB, _ := login(t, engine, "b@tenant.jp", "pw")
	w := doGet(engine, "/client/sites/"+itoa(site.Id), cookieB)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign site: status = %d, want 404", w.Code)
	}
}

func TestDeactivatedAccountIsLoggedOut(t *testing.T) {
	engine := newTestEngine(t)

	clientService := service.ClientService{}
	userService := service.UserService{}
	client := &model.Client{Name: "tenant", IsActive: true}
	if err := clientService.CreateClient(client); err != nil {
		t.Fatal(err)
	}
	user, err := userService.CreateClientUser(client.Id, "user@tenant.jp", "pw")
	if err != nil {
		t.Fatal(err)
	}

	cookie, _ := login(t, engine, "user@tenant.jp", "pw")
	if w := doGet(engine, "/client/", cookie); w.Code != http.StatusOK {
		t.Fatalf("active account: status = %d, want 200", w.Code)
	}

	if err := userService.SetActive(user.Id, false); err != nil {
		t.Fatal(err)
	}
	// the session cookie is still validly signed, but the account state is
	// re-read on every request
	if w := doGet(engine, "/client/", cookie); w.Code != http.StatusFound {
		t.Errorf("deactivated account: status = %d, want 302", w.Code)
	}
}

func TestReadOnlyModeBlocksLogin(t *testing.T) {
	engine := newTestEngine(t)

	page := doGet(engine, "/login", "")
	match := csrfFieldRe.FindStringSubmatch(page.Body.String())
	if match == nil {
		t.Fatal("login page has no csrf token")
	}
	cookie := sessionCookie(page, "")

	settingService := service.SettingService{}
	if err := settingService.SetReadOnlyMode(true); err != nil {
		t.Fatal(err)
	}

	resp := doPost(engine, "/login", cookie, url.Values{
		"email":      {adminEmail},
		"password":   {adminPassword},
		"csrf_token": {match[1]},
	})
	if resp.Code != http.StatusForbidden {
		t.Errorf("login in read-only mode: status = %d, want 403", resp.Code)
	}
}

// Rows created with their visibility flags off must store the flags off;
// hidden internal material must never surface as client-visible.
func TestHiddenFlagsPersistOnCreate(t *testing.T) {
	_ = newTestEngine(t)

	clientService := service.ClientService{}
	siteService := service.SiteService{}
	logService := service.MaintenanceLogService{}

	tenant := &model.Client{Name: "tenant", IsActive: true}
	if err := clientService.CreateClient(tenant); err != nil {
		t.Fatal(err)
	}
	site := &model.Site{ClientId: tenant.Id, Name: "site", IsActive: true}
	if err := siteService.CreateSite(site); err != nil {
		t.Fatal(err)
	}

	log := &model.MaintenanceLog{
		SiteId:            site.Id,
		PerformedAt:       time.Now(),
		Summary:           "internal only",
		IsVisibleToClient: false,
	}
	if err := logService.CreateLog(log); err != nil {
		t.Fatal(err)
	}
	stored, err := logService.GetLog(log.Id)
	if err != nil {
		t.Fatal(err)
	}
	if stored.IsVisibleToClient {
		t.Error("hidden log stored as client-visible")
	}

	hidden := seedFile(t, site.Id, false)
	var storedFile model.SharedFile
	if err := database.GetDB().First(&storedFile, hidden.Id).Error; err != nil {
		t.Fatal(err)
	}
	if storedFile.ClientVisible {
		t.Error("hidden file stored as client-visible")
	}
}

// The client request view must hand out download tokens for the thread's
// attachments and for the files attached when the request was opened.
func TestClientRequestThreadShowsAttachments(t *testing.T) {
	engine := newTestEngine(t)

	clientService := service.ClientService{}
	userService := service.UserService{}
	requestService := service.RequestService{}

	tenant := &model.Client{Name: "tenant", IsActive: true}
	if err := clientService.CreateClient(tenant); err != nil {
		t.Fatal(err)
	}
	user, err := userService.CreateClientUser(tenant.Id, "user@tenant.jp", "pw")
	if err != nil {
		t.Fatal(err)
	}

	req := &model.Request{
		ClientId:    tenant.Id,
		Subject:     "help",
		Priority:    model.RequestPriorityNormal,
		Status:      model.RequestStatusNew,
		CreatedById: user.Id,
	}
	if err := requestService.CreateRequest(req); err != nil {
		t.Fatal(err)
	}

	initial := &model.SharedFile{
		RequestId:        &req.Id,
		UploadedById:     user.Id,
		OriginalFilename: "spec.pdf",
		StoredPath:       "spec.pdf",
		ClientVisible:    true,
	}
	attachment := &model.SharedFile{
		RequestId:        &req.Id,
		UploadedById:     1,
		OriginalFilename: "answer.pdf",
		StoredPath:       "answer.pdf",
		ClientVisible:    true,
	}
	for _, f := range []*model.SharedFile{initial, attachment} {
		if err := database.GetDB().Create(f).Error; err != nil {
			t.Fatal(err)
		}
	}
	msg := &model.RequestMessage{
		RequestId:    req.Id,
		AuthorUserId: 1,
		AuthorRole:   model.RoleAdmin,
		Body:         "see attachment",
		SharedFileId: &attachment.Id,
	}
	if err := requestService.AddMessage(msg); err != nil {
		t.Fatal(err)
	}

	cookie, _ := login(t, engine, "user@tenant.jp", "pw")
	resp := doGet(engine, "/client/requests/"+itoa(req.Id), cookie)
	reply := decodeMsg(t, resp)
	if !reply.Success {
		t.Fatalf("request detail failed: %s", reply.Msg)
	}
	obj, ok := reply.Obj.(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload %T", reply.Obj)
	}
	tokens, ok := obj["messageFiles"].(map[string]any)
	if !ok || len(tokens) != 1 {
		t.Errorf("thread attachment tokens = %v, want one entry", obj["messageFiles"])
	}
	initialFiles, ok := obj["initialFiles"].([]any)
	if !ok || len(initialFiles) != 1 {
		t.Errorf("initial files = %v, want one entry", obj["initialFiles"])
	}
}

// The secret must be persisted before the stored kill switch engages, or a
// read-only portal would mint a fresh secret on every boot and invalidate
// every outstanding session and file token.
func TestSecretPersistsThroughReadOnlyBoot(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("MTV_DB_FOLDER", tmp)
	if err := database.InitDB(filepath.Join(tmp, "maintainview.db")); err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() {
		database.SetReadOnly(false)
		_ = database.CloseDB()
	})

	settingService := service.SettingService{}
	if err := settingService.SetReadOnlyMode(true); err != nil {
		t.Fatal(err)
	}
	// a restart resets the runtime flag; only the settings row survives
	database.SetReadOnly(false)

	server := NewServer()
	if err := server.initSettings(); err != nil {
		t.Fatal(err)
	}
	if !database.IsReadOnly() {
		t.Fatal("stored kill switch not engaged at boot")
	}

	var row model.Setting
	if err := database.GetDB().Where("key = ?", "secret").First(&row).Error; err != nil || row.Value == "" {
		t.Errorf("secret not persisted before the kill switch engaged: %v", err)
	}
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
