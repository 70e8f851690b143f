package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ericoliveiras/shopeasy/internal/config"
	"github.com/ericoliveiras/shopeasy/internal/logging"
	"github.com/ericoliveiras/shopeasy/internal/model"
	"github.com/ericoliveiras/shopeasy/internal/testutil"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	cfg    config.Config
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	cfg := config.Config{
		JWTSecret:          "segredo-de-teste",
		SessionSecret:      "sessao-de-teste",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    time.Hour,
		UploadDir:          t.TempDir(),
		CORSOrigins:        []string{"*"},
		RateLimitPerMinute: 5,
	}
	router := NewRouter(Deps{Config: cfg, DB: db, Log: logging.Discard()})
	return testServer{router: router, db: db, cfg: cfg}
}

// do executa a requisição com corpo JSON opcional e Bearer token opcional.
func (s testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s testServer) login(t *testing.T, user model.User) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/token", gin.H{"username": user.Username, "password": testutil.TestPassword}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Access string `json:"access"`
	}
	decode(t, rec, &resp)
	require.NotEmpty(t, resp.Access)
	return resp.Access
}

func (s testServer) customer(t *testing.T) (model.User, string) {
	t.Helper()
	user := testutil.CreateUser(t, s.db, model.RoleCustomer)
	return user, s.login(t, user)
}

func (s testServer) admin(t *testing.T) (model.User, string) {
	t.Helper()
	user := testutil.CreateUser(t, s.db, model.RoleAdmin)
	return user, s.login(t, user)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error
}
