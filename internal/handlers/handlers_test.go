package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zorochan404/inf-chat/internal/config"
	"github.com/Zorochan404/inf-chat/internal/realtime"
	"github.com/Zorochan404/inf-chat/internal/repository/memdb"
	"github.com/Zorochan404/inf-chat/internal/security"
	"github.com/Zorochan404/inf-chat/internal/service"
	"github.com/Zorochan404/inf-chat/internal/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.InstallGin()
}

type fakeObjects struct {
	keys []string
}

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.keys = append(f.keys, key)
	return int64(len(data)), nil
}

func (f *fakeObjects) PublicURL(key string) string {
	return "https://files.test/" + key
}

type testServer struct {
	router  *gin.Engine
	hub     *realtime.Hub
	objects *fakeObjects
}

func newTestServer(t *testing.T, checks ...HealthCheck) *testServer {
	t.Helper()
	cfg := &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTSecret:         "handler-secret",
			JWTTTL:            time.Hour,
			PasswordCost:      4,
			MinPasswordLength: 6,
		},
		Realtime: config.RealtimeConfig{RoomPrefix: "user_", SendBuffer: 16},
		Storage:  config.StorageConfig{MaxAttachmentBytes: 1 << 12},
	}
	log := zerolog.New(io.Discard)

	db := memdb.Open()
	users := memdb.NewUserRepository(db)
	chats := memdb.NewChatRepository(db)
	groups := memdb.NewGroupRepository(db)

	tokens := security.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.JWTTTL)
	hub := realtime.NewHub(log)
	objects := &fakeObjects{}

	set := NewHandlerSet(log, cfg, Dependencies{
		Tokens:      tokens,
		Auth:        service.NewAuthService(users, security.NewPasswordHasher(cfg.Security.PasswordCost), tokens, cfg, log),
		Chat:        service.NewChatService(users, chats, hub, cfg, log),
		Groups:      service.NewGroupService(groups, log),
		Profiles:    service.NewProfileService(users, log),
		Attachments: service.NewAttachmentService(objects, cfg, log),
		Gateway:     realtime.NewGateway(hub, nil, users, cfg.Realtime, log),
		Checks:      checks,
	})

	router := gin.New()
	set.Register(&router.RouterGroup)
	return &testServer{router: router, hub: hub, objects: objects}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

type registered struct {
	ID    string
	Token string
}

func (s *testServer) register(t *testing.T, role, email, name string) registered {
	t.Helper()
	status, resp := s.do(t, http.MethodPost, "/api/v1/auth/register"+role, "", map[string]any{
		"email":    email,
		"password": "secret1",
		"name":     name,
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)

	var data struct {
		User  map[string]any `json:"user"`
		Token string         `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return registered{ID: data.User["_id"].(string), Token: data.Token}
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, http.MethodPost, "/api/v1/auth/registerstudent", "", map[string]any{
		"email": "Ana@Campus.edu", "password": "secret1", "name": "Ana", "semester": "3",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, resp.Success)
	assert.NotContains(t, string(resp.Data), "password")
	assert.Contains(t, string(resp.Data), `"email":"ana@campus.edu"`)

	status, resp = s.do(t, http.MethodPost, "/api/v1/auth/registerstudent", "", map[string]any{
		"email": "ana@campus.edu", "password": "secret1", "name": "Ana",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.False(t, resp.Success)

	status, resp = s.do(t, http.MethodPost, "/api/v1/auth/loginstudent", "", map[string]any{
		"email": "ana@campus.edu", "password": "secret1",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Login successful", resp.Message)

	_, wrongPassword := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "ana@campus.edu", "password": "nope-nope",
	})
	status, unknownEmail := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "who@campus.edu", "password": "secret1",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, wrongPassword.Message, unknownEmail.Message)

	status, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "ana@campus.edu", "password": "secret1", "role": "janitor",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, http.MethodPost, "/api/v1/auth/registerteacher", "", map[string]any{
		"email": "t@campus.edu", "password": "123", "name": "T",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, resp.Success)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, http.MethodGet, "/api/v1/chat/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Access token required", resp.Message)

	status, resp = s.do(t, http.MethodGet, "/api/v1/users/myprofile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid token", resp.Message)

	status, _ = s.do(t, http.MethodGet, "/api/v1/users/getteachers", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestChatFlow(t *testing.T) {
	s := newTestServer(t)
	teacher := s.register(t, "teacher", "prof@campus.edu", "Prof")
	student := s.register(t, "student", "stu@campus.edu", "Stu")

	inbox := realtime.NewClient(teacher.ID, nil, 8)
	s.hub.Register(inbox)
	s.hub.Join(inbox, realtime.UserRoom("user_", teacher.ID))

	for _, text := range []string{"one", "two", "three"} {
		status, resp := s.do(t, http.MethodPost, "/api/v1/chat/send", student.Token, map[string]any{
			"receiverId": teacher.ID, "content": text,
		})
		require.Equal(t, http.StatusCreated, status, resp.Message)
	}
	assert.Len(t, inbox.Outbound(), 3)

	var history service.HistoryResult
	status, resp := s.do(t, http.MethodGet, "/api/v1/chat/history/"+student.ID+"?limit=2", teacher.Token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(resp.Data, &history))
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "two", history.Messages[0].Content)
	assert.Equal(t, "three", history.Messages[1].Content)
	assert.True(t, history.Pagination.HasMore)
	assert.Equal(t, 3, history.Pagination.TotalMessages)

	status, resp = s.do(t, http.MethodGet,
		"/api/v1/chat/older/"+student.ID+"?beforeMessageId="+*history.Pagination.OldestMessageID, teacher.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var older service.OlderResult
	require.NoError(t, json.Unmarshal(resp.Data, &older))
	require.Len(t, older.Messages, 1)
	assert.Equal(t, "one", older.Messages[0].Content)
	assert.False(t, older.Pagination.HasMoreOlder)

	status, _ = s.do(t, http.MethodGet, "/api/v1/chat/history/"+student.ID+"?page=abc", teacher.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = s.do(t, http.MethodPut, "/api/v1/chat/read/"+student.ID, teacher.Token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"updated":3`)
}

func TestChatHistoryMissingSession(t *testing.T) {
	s := newTestServer(t)
	teacher := s.register(t, "teacher", "prof@campus.edu", "Prof")
	student := s.register(t, "student", "stu@campus.edu", "Stu")

	status, resp := s.do(t, http.MethodGet, "/api/v1/chat/history/"+teacher.ID, student.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, resp.Success)
}

func TestSameRoleMessagingForbidden(t *testing.T) {
	s := newTestServer(t)
	a := s.register(t, "student", "a@campus.edu", "A")
	b := s.register(t, "student", "b@campus.edu", "B")

	status, _ := s.do(t, http.MethodPost, "/api/v1/chat/send", a.Token, map[string]any{
		"receiverId": b.ID, "content": "hey",
	})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestStudyGroupRoutes(t *testing.T) {
	s := newTestServer(t)
	teacher := s.register(t, "teacher", "prof@campus.edu", "Prof")
	student := s.register(t, "student", "stu@campus.edu", "Stu")

	group := map[string]any{
		"name": "Compilers", "description": "Weekly", "subject": "CS", "max_Members": 3,
	}
	status, _ := s.do(t, http.MethodPost, "/api/v1/study-group/addgroup", student.Token, group)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp := s.do(t, http.MethodPost, "/api/v1/study-group/addgroup", teacher.Token, group)
	require.Equal(t, http.StatusCreated, status, resp.Message)
	var created service.GroupView
	require.NoError(t, json.Unmarshal(resp.Data, &created))

	status, _ = s.do(t, http.MethodPost, "/api/v1/study-group/addgroup", teacher.Token, group)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/study-group/join?id="+created.ID, student.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodPost, "/api/v1/study-group/join?id="+created.ID, student.Token, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, resp = s.do(t, http.MethodPut, "/api/v1/study-group/updatedgroup?groupId="+created.ID, teacher.Token, map[string]any{
		"description": "Twice a week",
	})
	require.Equal(t, http.StatusOK, status, resp.Message)
	assert.Contains(t, string(resp.Data), "Twice a week")

	status, _ = s.do(t, http.MethodGet, "/api/v1/study-group/getgroup?id="+created.ID, student.Token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodDelete, "/api/v1/study-group/deletegroup?id="+created.ID, teacher.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodGet, "/api/v1/study-group/getgroup?id="+created.ID, teacher.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUserDirectoryIsStaffOnly(t *testing.T) {
	s := newTestServer(t)
	teacher := s.register(t, "teacher", "prof@campus.edu", "Prof")
	student := s.register(t, "student", "stu@campus.edu", "Stu")

	status, _ := s.do(t, http.MethodGet, "/api/v1/users/getallusers", student.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp := s.do(t, http.MethodGet, "/api/v1/users/getallusers", teacher.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var dir directoryResponse
	require.NoError(t, json.Unmarshal(resp.Data, &dir))
	assert.Len(t, dir.Teacher, 1)
	assert.Len(t, dir.Students, 1)
	assert.Empty(t, dir.Admin)

	status, _ = s.do(t, http.MethodGet, "/api/v1/users/getprofile?id=bad", teacher.Token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, resp = s.do(t, http.MethodPut, "/api/v1/users/editprofile", student.Token, map[string]any{
		"semester": "4", "email": "ignored@campus.edu",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"semester":"4"`)
	assert.Contains(t, string(resp.Data), `"email":"stu@campus.edu"`)

	status, _ = s.do(t, http.MethodDelete, "/api/v1/users/deleteprofile", student.Token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = s.do(t, http.MethodGet, "/api/v1/users/myprofile", student.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUploadAttachment(t *testing.T) {
	s := newTestServer(t)
	student := s.register(t, "student", "stu@campus.edu", "Stu")

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "notes.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.7\n1 0 obj\n"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/attachments", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+student.Token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"messageType":"file"`)
	require.Len(t, s.objects.keys, 1)
}

func TestHealthReportsChecks(t *testing.T) {
	s := newTestServer(t,
		HealthCheck{Name: "postgres", Ping: func(context.Context) error { return nil }},
		HealthCheck{Name: "redis", Ping: func(context.Context) error { return errors.New("down") }},
	)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "ok", resp.Checks["postgres"])
	assert.Equal(t, "error", resp.Checks["redis"])
}

func TestRealtimeRejectsMissingToken(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, http.MethodGet, "/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Access token required", resp.Message)
}
