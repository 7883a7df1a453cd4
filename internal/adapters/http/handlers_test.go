package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ansari/parlor/internal/app"
	"github.com/ansari/parlor/internal/config"
	"github.com/ansari/parlor/internal/core"
	"github.com/ansari/parlor/internal/domain"
	"github.com/ansari/parlor/internal/mail"
	"github.com/ansari/parlor/internal/store"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	r, _ := setupTestEnv(t)
	return r
}

func setupTestEnv(t *testing.T) (*gin.Engine, *app.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpDir, err := os.MkdirTemp("", "parlor-http-test-*")
	require.NoError(t, err)
	st, err := store.Open(filepath.Join(tmpDir, "logs.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		st.Close()
		os.RemoveAll(tmpDir)
	})

	cfg := &config.Config{
		Mode:           "test",
		Secret:         "test-secret",
		RoomCodeLength: 4,
		ChatIDLength:   5,
	}
	engine := &app.Engine{
		Rooms:     core.NewRegistry(0, 0),
		Logs:      st,
		ChatIDLen: cfg.ChatIDLength,
	}
	return SetupRouter(context.Background(), cfg, engine, st, mail.Disabled{}), engine
}

// doJSON performs one request, carrying over cookies from earlier responses.
func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, cookies []*http.Cookie) (*httptest.ResponseRecorder, []*http.Cookie) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Later responses override older cookies of the same name, like a browser jar.
	byName := make(map[string]*http.Cookie)
	var order []string
	for _, ck := range append(append([]*http.Cookie{}, cookies...), w.Result().Cookies()...) {
		if _, seen := byName[ck.Name]; !seen {
			order = append(order, ck.Name)
		}
		byName[ck.Name] = ck
	}
	merged := make([]*http.Cookie, 0, len(order))
	for _, name := range order {
		merged = append(merged, byName[name])
	}
	return w, merged
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestEnterValidationErrors(t *testing.T) {
	r := setupTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/enter", gin.H{"code": "WXYZ", "intent": "join"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please enter a name", decodeBody(t, w)["error"])

	w, _ = doJSON(t, r, http.MethodPost, "/api/enter", gin.H{"name": "Bob", "intent": "join"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please enter a room code", decodeBody(t, w)["error"])

	w, _ = doJSON(t, r, http.MethodPost, "/api/enter", gin.H{"name": "Bob", "code": "WXYZ", "intent": "join"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Room does not exist", decodeBody(t, w)["error"])
}

func TestEnterCreateBindsSession(t *testing.T) {
	r := setupTestRouter(t)

	w, cookies := doJSON(t, r, http.MethodPost, "/api/enter", gin.H{"name": "Ann", "intent": "create"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	code, _ := decodeBody(t, w)["code"].(string)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z]{4}$`), code)

	w, _ = doJSON(t, r, http.MethodGet, "/api/room", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, code, body["code"])
	assert.Equal(t, "Ann", body["name"])
}

func TestEnterCreateConflict(t *testing.T) {
	r := setupTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/enter", gin.H{"name": "Ann", "code": "WXYZ", "intent": "create"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/enter", gin.H{"name": "Eve", "code": "WXYZ", "intent": "create"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSessionClearsBinding(t *testing.T) {
	r := setupTestRouter(t)

	_, cookies := doJSON(t, r, http.MethodPost, "/api/enter", gin.H{"name": "Ann", "intent": "create"}, nil)

	w, cookies := doJSON(t, r, http.MethodGet, "/api/session", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/api/room", nil, cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRoomStateRequiresBinding(t *testing.T) {
	r := setupTestRouter(t)

	w, _ := doJSON(t, r, http.MethodGet, "/api/room", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	r := setupTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/register", gin.H{"username": "bob", "password": "pw"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Missing username and/or password", decodeBody(t, w)["error"])

	w, _ = doJSON(t, r, http.MethodPost, "/api/register", gin.H{"username": "bob", "password": "pw", "confirmation": "other"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Passwords do not match", decodeBody(t, w)["error"])
}

func TestRegisterLoginFlow(t *testing.T) {
	r := setupTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/register", gin.H{"username": "bob", "password": "hunter2", "confirmation": "hunter2"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/register", gin.H{"username": "bob", "password": "x", "confirmation": "x"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Username already in use", decodeBody(t, w)["error"])

	w, _ = doJSON(t, r, http.MethodPost, "/api/login", gin.H{"username": "bob", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Incorrect username and/or password", decodeBody(t, w)["error"])

	w, cookies := doJSON(t, r, http.MethodPost, "/api/login", gin.H{"username": "bob", "password": "hunter2"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, cookies = doJSON(t, r, http.MethodGet, "/api/session", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob", decodeBody(t, w)["username"])

	w, cookies = doJSON(t, r, http.MethodPost, "/api/logout", nil, cookies)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/api/logs", nil, cookies)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogEndpointsRequireLogin(t *testing.T) {
	r := setupTestRouter(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/logs"},
		{http.MethodGet, "/api/logs/AAAAA"},
		{http.MethodDelete, "/api/logs/AAAAA"},
	} {
		w, _ := doJSON(t, r, tc.method, tc.path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestViewLogRequiresGrant(t *testing.T) {
	r := setupTestRouter(t)

	_, cookies := doJSON(t, r, http.MethodPost, "/api/register", gin.H{"username": "bob", "password": "pw1", "confirmation": "pw1"}, nil)

	w, _ := doJSON(t, r, http.MethodGet, "/api/logs/AAAAA", nil, cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// Two tabs of one browser share every cookie, yet each websocket connection
// must count as its own member: closing one tab may not tear the room down
// under the other.
func TestTwoTabsAreDistinctMembers(t *testing.T) {
	r, engine := setupTestEnv(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	w, cookies := doJSON(t, r, http.MethodPost, "/api/enter", gin.H{"name": "Ann", "intent": "create"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	code, _ := decodeBody(t, w)["code"].(string)

	var pairs []string
	for _, ck := range cookies {
		pairs = append(pairs, ck.Name+"="+ck.Value)
	}
	hdr := http.Header{}
	hdr.Set("Cookie", strings.Join(pairs, "; "))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/chat"
	first, _, err := websocket.DefaultDialer.Dial(wsURL, hdr)
	require.NoError(t, err)
	defer first.Close()
	second, _, err := websocket.DefaultDialer.Dial(wsURL, hdr)
	require.NoError(t, err)
	defer second.Close()

	room, ok := engine.Rooms.Get(domain.RoomCode(code))
	require.True(t, ok)
	require.Eventually(t, func() bool { return room.MemberCount() == 2 },
		2*time.Second, 10*time.Millisecond, "each tab must hold its own membership slot")

	require.NoError(t, first.Close())
	require.Eventually(t, func() bool { return room.MemberCount() == 1 },
		2*time.Second, 10*time.Millisecond)
	assert.True(t, engine.Rooms.Exists(domain.RoomCode(code)), "room must survive while the second tab is connected")
}

func TestFeedbackAccepted(t *testing.T) {
	r := setupTestRouter(t)

	w, _ := doJSON(t, r, http.MethodPost, "/api/feedback", gin.H{"name": "Ann", "email": "a@example.com", "message": "nice rooms"}, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/feedback", gin.H{"name": "Ann", "email": "a@example.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
