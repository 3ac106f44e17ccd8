package account

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/gateway"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newFixture(t)
	h := NewHandler(f.svc)

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/user", gateway.BearerAuth(f.issuer, nil), h.Me)
	return r, f
}

func doJSON(r http.Handler, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func TestHandler_RegisterLoginProfileFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	creds := CredentialsRequest{Identifier: "a@x.com", Secret: "pw123"}

	w := doJSON(r, http.MethodPost, "/register", creds, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	reg := decode[RegisterResponse](t, w)
	require.NotEmpty(t, reg.UserID)

	w = doJSON(r, http.MethodPost, "/login", creds, nil)
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[LoginResponse](t, w)
	require.NotEmpty(t, login.Token)

	w = doJSON(r, http.MethodGet, "/user", nil, http.Header{"Authorization": {"Bearer " + login.Token}})
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[map[string]any](t, w)
	assert.Equal(t, reg.UserID, profile["id"])
	assert.Equal(t, "a@x.com", profile["identifier"])
	assert.NotContains(t, w.Body.String(), "pw123")
	assert.NotContains(t, w.Body.String(), "$2a$")

	w = doJSON(r, http.MethodGet, "/user", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthenticated", decode[map[string]string](t, w)["error"])
}

func TestHandler_Register_Errors(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/register", CredentialsRequest{Identifier: "a@x.com", Secret: "pw"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantErr  string
	}{
		{"duplicate", CredentialsRequest{Identifier: "a@x.com", Secret: "pw"}, http.StatusConflict, "DuplicateIdentifier"},
		{"missing identifier", CredentialsRequest{Secret: "pw"}, http.StatusBadRequest, "InvalidInput"},
		{"missing secret", CredentialsRequest{Identifier: "b@x.com"}, http.StatusBadRequest, "InvalidInput"},
		{"malformed json", `{"identifier":`, http.StatusBadRequest, "InvalidInput"},
		{"empty body", nil, http.StatusBadRequest, "InvalidInput"},
		{"wrong types", `{"identifier": 5, "secret": true}`, http.StatusBadRequest, "InvalidInput"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/register", tt.body, nil)
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantErr, decode[map[string]string](t, w)["error"])
		})
	}
}

func TestHandler_Login_FailuresLookAlike(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/register", CredentialsRequest{Identifier: "a@x.com", Secret: "pw123"}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	wrong := doJSON(r, http.MethodPost, "/login", CredentialsRequest{Identifier: "a@x.com", Secret: "bad"}, nil)
	unknown := doJSON(r, http.MethodPost, "/login", CredentialsRequest{Identifier: "ghost@x.com", Secret: "pw123"}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, "InvalidCredentials", decode[map[string]string](t, wrong)["error"])
}

func TestHandler_Me_UnknownUser(t *testing.T) {
	r, f := newTestRouter(t)

	tok, err := f.issuer.Issue("no-such-user", time.Hour)
	require.NoError(t, err)

	w := doJSON(r, http.MethodGet, "/user", nil, http.Header{"Authorization": {"Bearer " + tok.Value}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Me_WithoutMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := newFixture(t)
	r := gin.New()
	r.GET("/user", NewHandler(f.svc).Me)

	w := doJSON(r, http.MethodGet, "/user", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_Register_NULIdentifier(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/register", `{"identifier":"a\u0000@x.com","secret":"pw"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "InvalidInput", decode[map[string]string](t, w)["error"])
}
