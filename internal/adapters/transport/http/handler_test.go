package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pgrepo "github.com/misgastos/expenses-api/internal/adapters/db/postgres"
	transport "github.com/misgastos/expenses-api/internal/adapters/transport/http"
	apphash "github.com/misgastos/expenses-api/internal/app/auth/hash"
	appsvc "github.com/misgastos/expenses-api/internal/app/auth/service"
	apptoken "github.com/misgastos/expenses-api/internal/app/auth/token"
	"github.com/misgastos/expenses-api/internal/domain/auth/model"
	"github.com/misgastos/expenses-api/internal/infra/config"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}))

	cfg := &config.Config{
		JWTSecret:       "test-secret",
		JWTAlgorithm:    "HS256",
		JWTIssuer:       "test",
		JWTAudience:     "test",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}
	codec, err := apptoken.NewHMACCodec(cfg)
	require.NoError(t, err)

	svc := appsvc.New(
		pgrepo.NewPostgresUserRepo(db),
		apphash.NewArgon2Hasher("pepper"),
		codec,
		validator.New(),
	)

	return transport.NewRouter(transport.NewHandler(svc, zap.NewNop()), cfg, zap.NewNop())
}

func doJSON(r *gin.Engine, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerBody(email string) map[string]string {
	return map[string]string{"email": email, "name": "A", "password": "Secret123"}
}

func TestRegisterEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, "POST", "/auth/register", registerBody("a@x.com"), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "a@x.com", resp["email"])
	require.Equal(t, "A", resp["name"])
	require.Contains(t, resp, "id")
	require.Contains(t, resp, "created_at")
	require.NotContains(t, resp, "password")
	require.NotContains(t, resp, "password_hash")
	require.NotContains(t, resp, "verification_code")
}

func TestRegisterDuplicateEndpoint(t *testing.T) {
	r := newTestRouter(t)

	require.Equal(t, http.StatusCreated, doJSON(r, "POST", "/auth/register", registerBody("d@x.com"), nil).Code)
	require.Equal(t, http.StatusBadRequest, doJSON(r, "POST", "/auth/register", registerBody("d@x.com"), nil).Code)
}

func TestRegisterMalformedBody(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest("POST", "/auth/register", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	r := newTestRouter(t)
	doJSON(r, "POST", "/auth/register", registerBody("l@x.com"), nil)

	w := doJSON(r, "POST", "/auth/login", map[string]string{"email": "l@x.com", "password": "Secret123"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])
	require.NotEqual(t, resp["access_token"], resp["refresh_token"])
	require.Equal(t, "bearer", resp["token_type"])
}

func TestLoginFailures(t *testing.T) {
	r := newTestRouter(t)
	doJSON(r, "POST", "/auth/register", registerBody("f@x.com"), nil)

	wUnknown := doJSON(r, "POST", "/auth/login", map[string]string{"email": "ghost@x.com", "password": "Secret123"}, nil)
	wWrong := doJSON(r, "POST", "/auth/login", map[string]string{"email": "f@x.com", "password": "WrongPwd1"}, nil)

	require.Equal(t, http.StatusUnauthorized, wUnknown.Code)
	require.Equal(t, http.StatusUnauthorized, wWrong.Code)
	// the body must not reveal whether the email exists
	require.Equal(t, wUnknown.Body.String(), wWrong.Body.String())
}

func loginPair(t *testing.T, r *gin.Engine, email string) (access, refresh string) {
	t.Helper()
	w := doJSON(r, "POST", "/auth/login", map[string]string{"email": email, "password": "Secret123"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["access_token"], resp["refresh_token"]
}

func TestMeEndpoint(t *testing.T) {
	r := newTestRouter(t)
	doJSON(r, "POST", "/auth/register", registerBody("me@x.com"), nil)
	access, _ := loginPair(t, r, "me@x.com")

	w := doJSON(r, "GET", "/auth/me", nil, map[string]string{"Authorization": "Bearer " + access})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "me@x.com", resp["email"])
	require.NotContains(t, resp, "password_hash")
}

func TestMeMissingHeader(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, "GET", "/auth/me", nil, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestMeGarbageToken(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, "GET", "/auth/me", nil, map[string]string{"Authorization": "Bearer garbage"})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, "GET", "/auth/me", nil, map[string]string{"Authorization": "Basic abc"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeRejectsRefreshToken(t *testing.T) {
	r := newTestRouter(t)
	doJSON(r, "POST", "/auth/register", registerBody("iso@x.com"), nil)
	_, refresh := loginPair(t, r, "iso@x.com")

	w := doJSON(r, "GET", "/auth/me", nil, map[string]string{"Authorization": "Bearer " + refresh})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	r := newTestRouter(t)
	doJSON(r, "POST", "/auth/register", registerBody("rf@x.com"), nil)
	access, refresh := loginPair(t, r, "rf@x.com")

	w := doJSON(r, "POST", "/auth/refresh", map[string]string{"refresh_token": refresh}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])

	// a rotated access token still authenticates
	w = doJSON(r, "GET", "/auth/me", nil, map[string]string{"Authorization": "Bearer " + resp["access_token"]})
	require.Equal(t, http.StatusOK, w.Code)

	// an access token is not accepted where a refresh token is required
	w = doJSON(r, "POST", "/auth/refresh", map[string]string{"refresh_token": access}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(r, "GET", "/health", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
}
