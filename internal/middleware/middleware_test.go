package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zorochan404/inf-chat/internal/models"
	"github.com/Zorochan404/inf-chat/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(tokens TokenParser, roles ...models.UserRole) *gin.Engine {
	r := gin.New()
	chain := []gin.HandlerFunc{Auth(tokens)}
	if len(roles) > 0 {
		chain = append(chain, RequireRoles(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		identity, _ := CurrentIdentity(c)
		c.JSON(http.StatusOK, gin.H{"userId": identity.UserID, "role": identity.Role})
	})
	r.GET("/me", chain...)
	return r
}

func doGet(r http.Handler, header string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestAuthGuardStatuses(t *testing.T) {
	issuer := security.NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue(security.Identity{UserID: "u1", Email: "a@b.c", Role: models.RoleStudent})
	require.NoError(t, err)

	expired := security.NewTokenIssuer("secret", -time.Minute)
	stale, err := expired.Issue(security.Identity{UserID: "u1", Role: models.RoleStudent})
	require.NoError(t, err)

	other, err := security.NewTokenIssuer("other", time.Hour).Issue(security.Identity{UserID: "u1"})
	require.NoError(t, err)

	cases := []struct {
		name    string
		tokens  TokenParser
		header  string
		status  int
		message string
	}{
		{"missing header", issuer, "", http.StatusUnauthorized, "Access token required"},
		{"not bearer", issuer, "Basic abc", http.StatusUnauthorized, "Access token required"},
		{"expired", issuer, "Bearer " + stale, http.StatusUnauthorized, "Token expired"},
		{"wrong secret", issuer, "Bearer " + other, http.StatusUnauthorized, "Invalid token"},
		{"garbage", issuer, "Bearer not.a.jwt", http.StatusUnauthorized, "Invalid token"},
		{"no signing key", security.NewTokenIssuer("", time.Hour), "Bearer " + token, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := doGet(protectedRouter(tc.tokens), tc.header)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.message, body["message"])
		})
	}

	rec, body := doGet(protectedRouter(issuer), "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", body["userId"])
}

func TestRequireRoles(t *testing.T) {
	issuer := security.NewTokenIssuer("secret", time.Hour)
	student, err := issuer.Issue(security.Identity{UserID: "s1", Role: models.RoleStudent})
	require.NoError(t, err)
	teacher, err := issuer.Issue(security.Identity{UserID: "t1", Role: models.RoleTeacher})
	require.NoError(t, err)

	router := protectedRouter(issuer, models.RoleTeacher, models.RoleAdmin)

	rec, body := doGet(router, "Bearer "+student)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden", body["message"])

	rec, _ = doGet(router, "Bearer "+teacher)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDAndRecovery(t *testing.T) {
	var logs bytes.Buffer
	r := gin.New()
	r.Use(RequestID(), Logger(zerolog.New(&logs)), Recovery(zerolog.New(&logs)))
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(requestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get(requestIDHeader))
	assert.Contains(t, logs.String(), "panic recovered")
	assert.Contains(t, logs.String(), `"status":500`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Len(t, rec.Header().Get(requestIDHeader), 36)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://campus.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://campus.example")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://campus.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
