package handlers_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/1020robert/delph-merch/internal/config"
	"github.com/1020robert/delph-merch/internal/handlers"
	"github.com/1020robert/delph-merch/internal/middleware"
	"github.com/1020robert/delph-merch/internal/router"
	"github.com/1020robert/delph-merch/internal/services/auth"
	"github.com/1020robert/delph-merch/internal/services/catalog"
	"github.com/1020robert/delph-merch/internal/services/notify"
	"github.com/1020robert/delph-merch/internal/services/orders"
	"github.com/1020robert/delph-merch/internal/session"
	"github.com/1020robert/delph-merch/internal/storage"
)

const ownerEmail = "robert@delph.club"

// testServer wires the full application against a temp data directory.
type testServer struct {
	t      *testing.T
	cfg    *config.Config
	router http.Handler
	store  *storage.Store
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := &config.Config{
		Port:            "0",
		Environment:     "test",
		DataDir:         t.TempDir(),
		OwnerEmail:      ownerEmail,
		SecretKey:       "test-secret",
		SessionDuration: time.Hour,
		MaxUploadBytes:  5 << 20,
		AllowedOrigins:  []string{"http://localhost:3000"},
	}
	for _, fn := range mutate {
		fn(cfg)
	}

	log := zerolog.Nop()
	store, err := storage.New(cfg.DataDir, log)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	notifier := notify.New(nil, "", log)
	sessions := session.NewMemoryStore(cfg.SecretKey, cfg.SessionDuration)
	authService := auth.NewService(cfg, store.Users(), sessions, notifier, log)
	catalogService := catalog.NewService(cfg, store, log)
	orderService := orders.NewService(cfg, store.Items(), store.Orders(), notifier, log)
	h := handlers.New(cfg, authService, catalogService, orderService, log)
	r := router.Setup(cfg, h, middleware.NewAuth(authService), store.UploadsDir(), log)

	return &testServer{t: t, cfg: cfg, router: r, store: store}
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			ts.t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return m
}

// register signs up a member and returns their session token and user payload.
func (ts *testServer) register(email, first, last, initials string) (string, map[string]any) {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":     email,
		"firstName": first,
		"lastName":  last,
		"initials":  initials,
	})
	if w.Code != http.StatusCreated {
		ts.t.Fatalf("register %s: status %d, body %s", email, w.Code, w.Body.String())
	}
	resp := decode(ts.t, w)
	token, _ := resp["token"].(string)
	if token == "" {
		ts.t.Fatalf("register %s: no token in response %v", email, resp)
	}
	user, _ := resp["user"].(map[string]any)
	return token, user
}

func (ts *testServer) registerOwner() string {
	token, _ := ts.register(ownerEmail, "Robert", "Delph", "RD")
	return token
}

// createItem posts a multipart listing as the given user.
func (ts *testServer) createItem(token, name, price string, includeSizes, allowInitials bool) map[string]any {
	ts.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", name)
	_ = mw.WriteField("price", price)
	if includeSizes {
		_ = mw.WriteField("includeSizes", "true")
	}
	if allowInitials {
		_ = mw.WriteField("allowInitials", "on")
	}
	part, err := mw.CreateFormFile("image", "item.png")
	if err != nil {
		ts.t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(pngBytes(ts.t)); err != nil {
		ts.t.Fatalf("write image part: %v", err)
	}
	if err := mw.Close(); err != nil {
		ts.t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/merch", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		ts.t.Fatalf("create item %s: status %d, body %s", name, w.Code, w.Body.String())
	}
	return decode(ts.t, w)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if resp := decode(t, w); resp["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", resp["status"])
	}
}

func TestRegisterAndMe(t *testing.T) {
	ts := newTestServer(t)

	token, user := ts.register("casey@delph.club", "Casey", "Dunn", "cd")
	if user["email"] != "casey@delph.club" {
		t.Errorf("Expected normalized email, got %v", user["email"])
	}
	if user["initials"] != "CD" {
		t.Errorf("Expected initials CD, got %v", user["initials"])
	}

	w := ts.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d, body %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	if resp["owner"] != false {
		t.Errorf("Expected owner false for member, got %v", resp["owner"])
	}
	if resp["approved"] != true {
		t.Errorf("Expected approved true with approval off, got %v", resp["approved"])
	}
	if resp["passwordRequired"] != false {
		t.Errorf("Expected passwordRequired false with no gate, got %v", resp["passwordRequired"])
	}

	ownerToken := ts.registerOwner()
	w = ts.do(http.MethodGet, "/api/v1/auth/me", ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("owner me: expected 200, got %d", w.Code)
	}
	if resp := decode(t, w); resp["owner"] != true {
		t.Errorf("Expected owner true for %s, got %v", ownerEmail, resp["owner"])
	}
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":     "not-an-email",
		"firstName": "Casey",
		"lastName":  "Dunn",
		"initials":  "CD",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if resp := decode(t, w); resp["error"] != "validation_error" {
		t.Errorf("Expected validation_error, got %v", resp["error"])
	}
}

func TestLoginAndLogout(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register("casey@delph.club", "Casey", "Dunn", "CD")

	w := ts.do(http.MethodPost, "/api/v1/auth/logout", token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", w.Code)
	}
	if w := ts.do(http.MethodGet, "/api/v1/auth/me", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 after logout, got %d", w.Code)
	}

	w = ts.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "Casey@Delph.club"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d, body %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	fresh, _ := resp["token"].(string)
	if fresh == "" {
		t.Fatal("login returned no token")
	}
	if w := ts.do(http.MethodGet, "/api/v1/auth/me", fresh, nil); w.Code != http.StatusOK {
		t.Errorf("Expected 200 with fresh token, got %d", w.Code)
	}

	// Unknown address cannot sign in.
	w = ts.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "ghost@delph.club"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown email, got %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/api/v1/merch", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 without token, got %d", w.Code)
	}
	if resp := decode(t, w); resp["error"] != "unauthorized" {
		t.Errorf("Expected unauthorized envelope, got %v", resp["error"])
	}

	if w := ts.do(http.MethodGet, "/api/v1/merch", "garbage.token.here", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with garbage token, got %d", w.Code)
	}
}

func TestCookieSession(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":     "casey@delph.club",
		"firstName": "Casey",
		"lastName":  "Dunn",
		"initials":  "CD",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status %d", w.Code)
	}

	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("register did not set a session cookie")
	}
	if !sessionCookie.HttpOnly {
		t.Error("Expected HttpOnly session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(sessionCookie)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("me via cookie: expected 200, got %d", rec.Code)
	}
}

func TestStorefrontFlow(t *testing.T) {
	ts := newTestServer(t)
	ownerToken := ts.registerOwner()
	memberToken, _ := ts.register("casey@delph.club", "Casey", "Dunn", "CD")

	hat := ts.createItem(ownerToken, "Club Hat", "25", true, true)
	if hat["price"] != "25" {
		t.Errorf("Expected price 25, got %v", hat["price"])
	}
	sizes, _ := hat["sizes"].([]any)
	if len(sizes) != 5 {
		t.Errorf("Expected standard size run, got %v", hat["sizes"])
	}
	ts.createItem(ownerToken, "Sticker Pack", "5", false, false)

	// Members see both published items.
	w := ts.do(http.MethodGet, "/api/v1/merch", memberToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list merch: expected 200, got %d", w.Code)
	}
	items, _ := decode(t, w)["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	// Member orders a hat.
	w = ts.do(http.MethodPost, "/api/v1/orders", memberToken, map[string]any{
		"itemId":          hat["id"],
		"quantity":        3,
		"venmoAgreed":     true,
		"selectedSize":    "M",
		"includeInitials": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("place order: expected 201, got %d, body %s", w.Code, w.Body.String())
	}
	placed := decode(t, w)
	if placed["notification"] != string(notify.StatusDisabled) {
		t.Errorf("Expected notification %q, got %v", notify.StatusDisabled, placed["notification"])
	}
	order, _ := placed["order"].(map[string]any)
	if order["totalPrice"] != "75" {
		t.Errorf("Expected totalPrice 75, got %v", order["totalPrice"])
	}
	if order["userInitials"] != "CD" {
		t.Errorf("Expected initials CD on receipt, got %v", order["userInitials"])
	}
	orderID, _ := order["id"].(string)

	// The member sees it under their own history.
	w = ts.do(http.MethodGet, "/api/v1/orders/mine", memberToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("my orders: expected 200, got %d", w.Code)
	}
	if mine, _ := decode(t, w)["orders"].([]any); len(mine) != 1 {
		t.Errorf("Expected 1 order in history, got %d", len(mine))
	}

	// The owner sees it in the open partition.
	w = ts.do(http.MethodGet, "/api/v1/admin/orders", ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin orders: expected 200, got %d", w.Code)
	}
	book := decode(t, w)
	if open, _ := book["open"].([]any); len(open) != 1 {
		t.Fatalf("Expected 1 open order, got %v", book["open"])
	}

	// Summary counts the open order.
	w = ts.do(http.MethodGet, "/api/v1/admin/orders/summary", ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d", w.Code)
	}
	summary := decode(t, w)
	if summary["openOrders"] != float64(1) {
		t.Errorf("Expected 1 open order in summary, got %v", summary["openOrders"])
	}
	if summary["openRevenue"] != "75" {
		t.Errorf("Expected openRevenue 75, got %v", summary["openRevenue"])
	}

	// Fulfill moves it to the fulfilled partition. A second call is a no-op.
	w = ts.do(http.MethodPost, "/api/v1/admin/orders/"+orderID+"/fulfill", ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("fulfill: expected 200, got %d, body %s", w.Code, w.Body.String())
	}
	fulfilled := decode(t, w)
	if fulfilled["fulfilled"] != true {
		t.Errorf("Expected fulfilled true, got %v", fulfilled["fulfilled"])
	}
	firstStamp := fulfilled["fulfilledAt"]
	w = ts.do(http.MethodPost, "/api/v1/admin/orders/"+orderID+"/fulfill", ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("refulfill: expected 200, got %d", w.Code)
	}
	if again := decode(t, w); again["fulfilledAt"] != firstStamp {
		t.Errorf("Expected fulfillment stamp %v to survive, got %v", firstStamp, again["fulfilledAt"])
	}

	w = ts.do(http.MethodGet, "/api/v1/admin/orders", ownerToken, nil)
	book = decode(t, w)
	if open, _ := book["open"].([]any); len(open) != 0 {
		t.Errorf("Expected empty open partition, got %v", book["open"])
	}
	if done, _ := book["fulfilled"].([]any); len(done) != 1 {
		t.Errorf("Expected 1 fulfilled order, got %v", book["fulfilled"])
	}
}

func TestPauseHidesItem(t *testing.T) {
	ts := newTestServer(t)
	ownerToken := ts.registerOwner()
	memberToken, _ := ts.register("casey@delph.club", "Casey", "Dunn", "CD")
	item := ts.createItem(ownerToken, "Club Hat", "25", true, false)
	id, _ := item["id"].(string)

	w := ts.do(http.MethodPatch, "/api/v1/admin/merch/"+id, ownerToken, map[string]any{"paused": true})
	if w.Code != http.StatusOK {
		t.Fatalf("pause: expected 200, got %d, body %s", w.Code, w.Body.String())
	}

	w = ts.do(http.MethodGet, "/api/v1/merch", memberToken, nil)
	if items, _ := decode(t, w)["items"].([]any); len(items) != 0 {
		t.Errorf("Expected paused item hidden from members, got %v", items)
	}

	w = ts.do(http.MethodGet, "/api/v1/admin/merch", ownerToken, nil)
	if items, _ := decode(t, w)["items"].([]any); len(items) != 1 {
		t.Errorf("Expected paused item in admin list, got %v", items)
	}

	// Ordering a paused item is rejected.
	w = ts.do(http.MethodPost, "/api/v1/orders", memberToken, map[string]any{
		"itemId":       id,
		"quantity":     1,
		"venmoAgreed":  true,
		"selectedSize": "M",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for paused item, got %d", w.Code)
	}
}

func TestTwoXLPricePatch(t *testing.T) {
	ts := newTestServer(t)
	ownerToken := ts.registerOwner()
	item := ts.createItem(ownerToken, "Club Hoodie", "40", true, false)
	id, _ := item["id"].(string)

	w := ts.do(http.MethodPatch, "/api/v1/admin/merch/"+id, ownerToken, map[string]any{"twoXlPrice": "43.50"})
	if w.Code != http.StatusOK {
		t.Fatalf("set override: expected 200, got %d, body %s", w.Code, w.Body.String())
	}
	if resp := decode(t, w); resp["twoXlPrice"] != "43.5" {
		t.Errorf("Expected override 43.5, got %v", resp["twoXlPrice"])
	}

	// Explicit null clears the override without touching the size run.
	w = ts.do(http.MethodPatch, "/api/v1/admin/merch/"+id, ownerToken, map[string]any{"twoXlPrice": nil})
	if w.Code != http.StatusOK {
		t.Fatalf("clear override: expected 200, got %d", w.Code)
	}
	resp := decode(t, w)
	if resp["twoXlPrice"] != nil {
		t.Errorf("Expected override cleared, got %v", resp["twoXlPrice"])
	}
	if sizes, _ := resp["sizes"].([]any); len(sizes) != 5 {
		t.Errorf("Expected size run untouched, got %v", resp["sizes"])
	}
}

func TestDeleteItemRemovesImage(t *testing.T) {
	ts := newTestServer(t)
	ownerToken := ts.registerOwner()
	item := ts.createItem(ownerToken, "Club Hat", "25", true, false)
	id, _ := item["id"].(string)
	imagePath, _ := item["image"].(string)

	if w := ts.do(http.MethodGet, imagePath, "", nil); w.Code != http.StatusOK {
		t.Fatalf("Expected image served at %s, got %d", imagePath, w.Code)
	}

	w := ts.do(http.MethodDelete, "/api/v1/admin/merch/"+id, ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	if resp := decode(t, w); resp["id"] != id {
		t.Errorf("Expected removed item in response, got %v", resp)
	}

	if w := ts.do(http.MethodGet, imagePath, "", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected image gone after delete, got %d", w.Code)
	}
	if w := ts.do(http.MethodDelete, "/api/v1/admin/merch/"+id, ownerToken, nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", w.Code)
	}
}

func TestAdminForbiddenForMembers(t *testing.T) {
	ts := newTestServer(t)
	memberToken, _ := ts.register("casey@delph.club", "Casey", "Dunn", "CD")

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/admin/merch"},
		{http.MethodGet, "/api/v1/admin/orders"},
		{http.MethodGet, "/api/v1/admin/orders/summary"},
		{http.MethodGet, "/api/v1/admin/users"},
	}
	for _, p := range paths {
		w := ts.do(p.method, p.path, memberToken, nil)
		if w.Code != http.StatusForbidden {
			t.Errorf("%s %s: expected 403 for member, got %d", p.method, p.path, w.Code)
			continue
		}
		if resp := decode(t, w); resp["error"] != "forbidden" {
			t.Errorf("%s %s: expected forbidden envelope, got %v", p.method, p.path, resp["error"])
		}
	}
}

func TestPasswordGateFlow(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.GatePassword = "crew"
	})
	token, _ := ts.register("casey@delph.club", "Casey", "Dunn", "CD")

	// Gated until the shared password is verified.
	w := ts.do(http.MethodGet, "/api/v1/merch", token, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 before verification, got %d", w.Code)
	}
	if resp := decode(t, w); resp["message"] != "password verification required" {
		t.Errorf("Expected verification message, got %v", resp["message"])
	}

	w = ts.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	resp := decode(t, w)
	if resp["passwordRequired"] != true || resp["passwordVerified"] != false {
		t.Errorf("Expected gate pending in me, got %v", resp)
	}

	if w := ts.do(http.MethodPost, "/api/v1/auth/verify-password", token, map[string]any{"password": "wrong"}); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for wrong password, got %d", w.Code)
	}

	w = ts.do(http.MethodPost, "/api/v1/auth/verify-password", token, map[string]any{"password": "crew"})
	if w.Code != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d, body %s", w.Code, w.Body.String())
	}

	if w := ts.do(http.MethodGet, "/api/v1/merch", token, nil); w.Code != http.StatusOK {
		t.Errorf("Expected 200 after verification, got %d", w.Code)
	}
	w = ts.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	if resp := decode(t, w); resp["passwordVerified"] != true {
		t.Errorf("Expected passwordVerified true, got %v", resp["passwordVerified"])
	}
}

func TestApprovalFlow(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.RequireApproval = true
	})
	ownerToken := ts.registerOwner()
	memberToken, member := ts.register("casey@delph.club", "Casey", "Dunn", "CD")
	memberID, _ := member["id"].(string)

	// Pending members are blocked; the owner never is.
	w := ts.do(http.MethodGet, "/api/v1/merch", memberToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 while pending, got %d", w.Code)
	}
	if resp := decode(t, w); resp["message"] != "account pending approval" {
		t.Errorf("Expected pending message, got %v", resp["message"])
	}
	if w := ts.do(http.MethodGet, "/api/v1/admin/merch", ownerToken, nil); w.Code != http.StatusOK {
		t.Errorf("Expected owner unaffected by approval gate, got %d", w.Code)
	}

	w = ts.do(http.MethodGet, "/api/v1/admin/users", ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list users: expected 200, got %d", w.Code)
	}
	if users, _ := decode(t, w)["users"].([]any); len(users) != 2 {
		t.Errorf("Expected 2 registered users, got %d", len(users))
	}

	w = ts.do(http.MethodPost, "/api/v1/admin/users/"+memberID+"/approve", ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d, body %s", w.Code, w.Body.String())
	}
	approved := decode(t, w)
	if approved["approved"] != true {
		t.Errorf("Expected approved=true, got %v", approved["approved"])
	}

	if w := ts.do(http.MethodGet, "/api/v1/merch", memberToken, nil); w.Code != http.StatusOK {
		t.Errorf("Expected access after approval, got %d", w.Code)
	}

	// Members cannot approve anyone.
	if w := ts.do(http.MethodPost, "/api/v1/admin/users/"+memberID+"/approve", memberToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for member approving, got %d", w.Code)
	}
}

func TestMalformedJSONBody(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register("casey@delph.club", "Casey", "Dunn", "CD")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	if resp := decode(t, w); resp["error"] != "validation_error" {
		t.Errorf("Expected validation_error, got %v", resp["error"])
	}
}

func TestPlaceOrderUnknownItem(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.register("casey@delph.club", "Casey", "Dunn", "CD")

	w := ts.do(http.MethodPost, "/api/v1/orders", token, map[string]any{
		"itemId":      "no-such-item",
		"quantity":    1,
		"venmoAgreed": true,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
	if resp := decode(t, w); resp["error"] != "not_found" {
		t.Errorf("Expected not_found envelope, got %v", resp["error"])
	}
}

func TestCreateMerchRejectsBadUpload(t *testing.T) {
	ts := newTestServer(t)
	ownerToken := ts.registerOwner()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Club Hat")
	_ = mw.WriteField("price", "25")
	part, err := mw.CreateFormFile("image", "notes.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte("not an image"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/merch", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ownerToken)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for non-image upload, got %d", w.Code)
	}

	// A bad price string fails the same way.
	buf.Reset()
	mw = multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Club Hat")
	_ = mw.WriteField("price", "twenty")
	part, _ = mw.CreateFormFile("image", "item.png")
	_, _ = part.Write(pngBytes(t))
	_ = mw.Close()

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/merch", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ownerToken)
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for bad price, got %d", w.Code)
	}
	if resp := decode(t, w); resp["message"] != "price must be a number" {
		t.Errorf("Expected price message, got %v", resp["message"])
	}
}

// A restart keeps the catalog and member roster but signs everyone out.
func TestRestartKeepsDataDropsSessions(t *testing.T) {
	dir := t.TempDir()
	ts1 := newTestServer(t, func(c *config.Config) { c.DataDir = dir })
	ownerToken := ts1.registerOwner()
	ts1.createItem(ownerToken, "Club Hat", "25", true, false)
	memberToken, _ := ts1.register("casey@delph.club", "Casey", "Dunn", "CD")

	ts2 := newTestServer(t, func(c *config.Config) { c.DataDir = dir })

	// Old tokens are dead on the new process.
	if w := ts2.do(http.MethodGet, "/api/v1/auth/me", memberToken, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for pre-restart token, got %d", w.Code)
	}

	// Logging back in works and the catalog survived.
	w := ts2.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "casey@delph.club"})
	if w.Code != http.StatusOK {
		t.Fatalf("login after restart: expected 200, got %d", w.Code)
	}
	fresh, _ := decode(t, w)["token"].(string)

	w = ts2.do(http.MethodGet, "/api/v1/merch", fresh, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list after restart: expected 200, got %d", w.Code)
	}
	if items, _ := decode(t, w)["items"].([]any); len(items) != 1 {
		t.Errorf("Expected catalog to survive restart, got %v", items)
	}
}
