package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"stickygoals/internal/identity"
	"stickygoals/internal/models"
)

type tokenVerifier map[string]*identity.Identity

func (v tokenVerifier) Verify(_ context.Context, tok string) (*identity.Identity, error) {
	if id, ok := v[tok]; ok {
		return id, nil
	}
	return nil, identity.ErrInvalidToken
}

type countingProvisioner struct {
	users []string
	err   error
}

func (p *countingProvisioner) ProvisionUser(_ context.Context, u *models.User) error {
	p.users = append(p.users, u.ID)
	return p.err
}

func newAuth(p Provisioner) *AuthMiddleware {
	v := tokenVerifier{"good": {UserID: "u1", Email: "a@example.com"}}
	return NewAuthMiddleware(v, p, zap.NewNop())
}

func TestRequireAuthRejects(t *testing.T) {
	p := &countingProvisioner{}
	called := false
	h := newAuth(p).RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	for _, authz := range []string{"", "Token good", "Bearer bad"} {
		req := httptest.NewRequest(http.MethodGet, "/get-goals", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%q: status = %d", authz, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"error"`) {
			t.Fatalf("%q: body = %s", authz, rec.Body.String())
		}
	}
	if called || len(p.users) != 0 {
		t.Fatal("rejected request reached the handler or the store")
	}
}

func TestRequireAuthProvisionsOnce(t *testing.T) {
	p := &countingProvisioner{}
	var got string
	h := newAuth(p).RequireAuth(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, _ = UserIDFromContext(r.Context())
	}))
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	if got != "u1" {
		t.Fatalf("user id in context = %q", got)
	}
	if len(p.users) != 1 {
		t.Fatalf("provisioned %d times", len(p.users))
	}
}

func TestRequireAuthProvisionFailure(t *testing.T) {
	p := &countingProvisioner{err: errors.New("db down")}
	h := newAuth(p).RequireAuth(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler ran after provisioning failed")
	}))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}
