package user

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opuscm/users/internal/claims"
	"github.com/opuscm/users/internal/identity"
	"github.com/opuscm/users/internal/identity/identitytest"
	"github.com/opuscm/users/internal/middleware"
	"go.uber.org/zap"
)

func newTestHandler(provider identity.Provider) Handler {
	logger := zap.NewNop()
	cm := claims.NewManager(provider, logger)
	service := NewService(provider, cm, NewFactory(cm, logger), &capturingPublisher{}, logger)
	return NewHandler(service, middleware.NewAuth(provider, logger), logger)
}

func doJSON(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type userEnvelope struct {
	Data  User `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeUser(t *testing.T, rec *httptest.ResponseRecorder) userEnvelope {
	t.Helper()
	var env userEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return env
}

func TestRegisterEndpoint(t *testing.T) {
	provider := identitytest.NewFakeProvider()
	h := newTestHandler(provider).Routes()

	rec := doJSON(t, h, http.MethodPost, "/register", `{"email":"a@b.com","password":"secretsecret"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	env := decodeUser(t, rec)
	if env.Data.Email != "a@b.com" {
		t.Errorf("email = %q", env.Data.Email)
	}
	if env.Data.Role != claims.RoleProjectUser {
		t.Errorf("role = %q, want %q", env.Data.Role, claims.RoleProjectUser)
	}
}

func TestRegisterEndpointDuplicateEmail(t *testing.T) {
	provider := identitytest.NewFakeProvider()
	provider.Seed("ident-1", "a@b.com")
	h := newTestHandler(provider).Routes()

	rec := doJSON(t, h, http.MethodPost, "/register", `{"email":"a@b.com","password":"secretsecret"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	env := decodeUser(t, rec)
	if env.Error == nil || env.Error.Message != "A user with that email already exists." {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestRegisterEndpointRejectsBadBody(t *testing.T) {
	provider := identitytest.NewFakeProvider()
	h := newTestHandler(provider).Routes()

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"email":`, http.StatusBadRequest},
		{"unknown field", `{"email":"a@b.com","password":"secretsecret","admin":true}`, http.StatusBadRequest},
		{"invalid email", `{"email":"nope","password":"secretsecret"}`, http.StatusUnprocessableEntity},
		{"short password", `{"email":"a@b.com","password":"short"}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/register", tc.body, "")
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestMeEndpoint(t *testing.T) {
	provider := identitytest.NewFakeProvider()
	provider.Seed("ident-1", "a@b.com")
	h := newTestHandler(provider).Routes()

	rec := doJSON(t, h, http.MethodGet, "/me", "", "ident-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	env := decodeUser(t, rec)
	if env.Data.ID != "ident-1" || env.Data.Email != "a@b.com" {
		t.Errorf("user = %+v", env.Data)
	}
}

func TestMeEndpointRequiresAuth(t *testing.T) {
	provider := identitytest.NewFakeProvider()
	h := newTestHandler(provider).Routes()

	rec := doJSON(t, h, http.MethodGet, "/me", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAssignRoleEndpointRequiresAdmin(t *testing.T) {
	provider := identitytest.NewFakeProvider()
	provider.Seed("member", "member@b.com")
	provider.Seed("target", "target@b.com")
	h := newTestHandler(provider).Routes()

	rec := doJSON(t, h, http.MethodPut, "/target/role", `{"role":"PROJECT_ADMIN"}`, "member")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAssignRoleEndpoint(t *testing.T) {
	provider := identitytest.NewFakeProvider()
	provider.Seed("admin", "admin@b.com")
	provider.Claims["admin"] = map[string]any{"role": string(claims.RoleProjectAdmin)}
	provider.Seed("target", "target@b.com")
	h := newTestHandler(provider).Routes()

	rec := doJSON(t, h, http.MethodPut, "/target/role", `{"role":"PROJECT_ADMIN"}`, "admin")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var env struct {
		Data struct {
			Assigned bool `json:"assigned"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Data.Assigned {
		t.Error("assigned = false")
	}
	if provider.Claims["target"]["role"] != string(claims.RoleProjectAdmin) {
		t.Errorf("stored role = %v", provider.Claims["target"]["role"])
	}
}

func TestAssignRoleEndpointRejectsUnknownRole(t *testing.T) {
	provider := identitytest.NewFakeProvider()
	provider.Seed("admin", "admin@b.com")
	provider.Claims["admin"] = map[string]any{"role": string(claims.RoleProjectAdmin)}
	h := newTestHandler(provider).Routes()

	rec := doJSON(t, h, http.MethodPut, "/target/role", `{"role":"SUPERUSER"}`, "admin")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}
