package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cinema-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "middleware-secret"

func protectedRouter(roles ...string) http.Handler {
	log := zap.NewNop()
	r := chi.NewRouter()
	r.Use(JWTAuth(secret, log))
	r.Use(RequireRole(log, roles...))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		id, _ := utils.GetUserIDFromContext(r.Context())
		utils.ResponseSuccess(w, "ok", id.String())
	})
	return r
}

func bearer(t *testing.T, role string, ttl time.Duration) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	tok, err := utils.NewAccessToken(secret, id, role, ttl, time.Now())
	require.NoError(t, err)
	return id, "Bearer " + tok.Token
}

func TestJWTAuthAndRequireRole(t *testing.T) {
	_, cashier := bearer(t, "cashier", time.Hour)
	_, admin := bearer(t, "admin", time.Hour)
	_, expired := bearer(t, "admin", -time.Minute)
	_, wrongKey := func() (uuid.UUID, string) {
		tok, err := utils.NewAccessToken("other-secret", uuid.New(), "admin", time.Hour, time.Now())
		require.NoError(t, err)
		return uuid.Nil, "Bearer " + tok.Token
	}()

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"expired token", expired, http.StatusUnauthorized},
		{"foreign signature", wrongKey, http.StatusUnauthorized},
		{"role not allowed", cashier, http.StatusForbidden},
		{"admin allowed", admin, http.StatusOK},
	}

	h := protectedRouter("admin")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestJWTAuth_PutsOperatorInContext(t *testing.T) {
	id, header := bearer(t, "cashier", time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", header)
	rec := httptest.NewRecorder()
	protectedRouter("admin", "cashier").ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id.String())
}

func TestRecover(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":false`)
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/reservations", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, called)
}
