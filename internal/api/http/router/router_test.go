package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	httpctx "github.com/dtroode/userhub/internal/api/http/context"
	"github.com/dtroode/userhub/internal/config"
	"github.com/dtroode/userhub/internal/mocks"
	"github.com/dtroode/userhub/internal/model"
	"github.com/dtroode/userhub/internal/testutil"
)

type tokenMocks struct {
	*mocks.TokenService
	*mocks.Authenticator
}

type fixture struct {
	auth          *mocks.AuthService
	authenticator *mocks.Authenticator
	profile       *mocks.ProfileService
	picture       *mocks.PictureService
	health        *mocks.HealthChecker
	router        *Router
}

func newFixture(t *testing.T, cfg *config.Config) fixture {
	f := fixture{
		auth:          mocks.NewAuthService(t),
		authenticator: mocks.NewAuthenticator(t),
		profile:       mocks.NewProfileService(t),
		picture:       mocks.NewPictureService(t),
		health:        mocks.NewHealthChecker(t),
	}
	services := Services{
		Auth:    f.auth,
		Tokens:  tokenMocks{TokenService: mocks.NewTokenService(t), Authenticator: f.authenticator},
		Profile: f.profile,
		Picture: f.picture,
		Health:  f.health,
	}
	f.router = New(services, httpctx.NewManager(), cfg, "test", testutil.MakeNoopLogger())
	return f
}

func testConfig() *config.Config {
	return &config.Config{
		HTTP:   config.HTTP{CORSOrigins: []string{"*"}},
		Upload: config.Upload{MaxSize: 1 << 20},
		Auth:   config.Auth{LoginRatePerMinute: 2, ResendInterval: time.Minute},
	}
}

func do(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "192.0.2.10:4000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicRoutes(t *testing.T) {
	f := newFixture(t, testConfig())
	engine := f.router.Register()

	w := do(engine, http.MethodGet, "/livez", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(engine, http.MethodGet, "/swagger/doc.json", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/users/{user_id}/profile-picture")

	w = do(engine, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	f := newFixture(t, testConfig())
	engine := f.router.Register()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/users"},
		{http.MethodGet, "/users/" + uuid.NewString()},
		{http.MethodPut, "/users/" + uuid.NewString()},
		{http.MethodPost, "/users/" + uuid.NewString() + "/profile-picture"},
		{http.MethodGet, "/users/" + uuid.NewString() + "/profile-picture/history"},
		{http.MethodPost, "/resend-verification"},
	} {
		w := do(engine, tc.method, tc.path, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouter_RoleGuards(t *testing.T) {
	f := newFixture(t, testConfig())
	engine := f.router.Register()

	anonymous := model.Principal{UserID: uuid.New(), Role: model.RoleAnonymous}
	member := model.Principal{UserID: uuid.New(), Role: model.RoleAuthenticated}
	f.authenticator.On("Authenticate", mock.Anything, "anon").Return(anonymous, nil)
	f.authenticator.On("Authenticate", mock.Anything, "member").Return(member, nil)

	w := do(engine, http.MethodPost, "/users/"+anonymous.UserID.String()+"/profile-picture", "anon")
	assert.Equal(t, http.StatusForbidden, w.Code, "anonymous users cannot upload")

	w = do(engine, http.MethodGet, "/users", "member")
	assert.Equal(t, http.StatusForbidden, w.Code, "only staff list users")

	f.picture.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	f.profile.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_LoginRateLimit(t *testing.T) {
	f := newFixture(t, testConfig())
	engine := f.router.Register()

	// Empty bodies fail binding, so the limiter is the only thing being exercised.
	assert.Equal(t, http.StatusBadRequest, do(engine, http.MethodPost, "/login", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(engine, http.MethodPost, "/login", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(engine, http.MethodPost, "/login", "").Code)
}

func TestRouter_Pprof(t *testing.T) {
	off := newFixture(t, testConfig()).router.Register()
	assert.Equal(t, http.StatusNotFound, do(off, http.MethodGet, "/debug/pprof/", "").Code)

	cfg := testConfig()
	cfg.HTTP.EnablePprof = true
	on := newFixture(t, cfg).router.Register()
	assert.Equal(t, http.StatusOK, do(on, http.MethodGet, "/debug/pprof/", "").Code)
}

func TestRouter_CORS(t *testing.T) {
	cfg := testConfig()
	cfg.HTTP.CORSOrigins = []string{"https://app.example.com"}
	engine := newFixture(t, cfg).router.Register()

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
