package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/edtech-platform/internal/model"
)

func echoIdentity(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(id.UserID + "/" + id.Role))
	})
}

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.Generate("u1", model.RoleUser)
	require.NoError(t, err)
	cookieToken, err := ts.Generate("u2", model.RoleUser)
	require.NoError(t, err)

	h := RequireAuth(ts)(echoIdentity(t))

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		wantCode int
		wantBody string
	}{
		{"no credentials", func(r *http.Request) {}, http.StatusUnauthorized, ""},
		{"bearer header", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
		}, http.StatusOK, "u1/user"},
		{"lower-case scheme", func(r *http.Request) {
			r.Header.Set("Authorization", "bearer "+token)
		}, http.StatusOK, "u1/user"},
		{"cookie fallback", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: TokenCookie, Value: cookieToken})
		}, http.StatusOK, "u2/user"},
		{"header wins over cookie", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token)
			r.AddCookie(&http.Cookie{Name: TokenCookie, Value: cookieToken})
		}, http.StatusOK, "u1/user"},
		{"bad token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer nope")
		}, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error":"unauthorized"`)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	ts := newTestTokenService(t)
	h := RequireAuth(ts)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	for role, want := range map[string]int{
		model.RoleUser:  http.StatusForbidden,
		model.RoleAdmin: http.StatusNoContent,
	} {
		token, err := ts.Generate("someone", role)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "role %s", role)
	}
}

func TestOptionalAuth(t *testing.T) {
	ts := newTestTokenService(t)
	var gotUser string
	h := OptionalAuth(ts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, gotUser)

	token, _ := ts.Generate("u9", model.RoleUser)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "u9", gotUser)
}
