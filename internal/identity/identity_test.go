package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func TestJWTIssueVerify(t *testing.T) {
	j := NewJWTIssuer([]byte("secret"))
	tok, err := j.Issue(Identity{UserID: "u1", Email: "a@example.com", DisplayName: "Ann"})
	if err != nil {
		t.Fatal(err)
	}
	id, err := j.Verify(context.Background(), tok)
	if err != nil {
		t.Fatal(err)
	}
	if id.UserID != "u1" || id.Email != "a@example.com" || id.DisplayName != "Ann" {
		t.Fatalf("identity = %+v", id)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	tok, _ := NewJWTIssuer([]byte("one")).Issue(Identity{UserID: "u1"})
	if _, err := NewJWTIssuer([]byte("two")).Verify(context.Background(), tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTRejectsExpired(t *testing.T) {
	j := NewJWTIssuer([]byte("secret"))
	j.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	tok, _ := j.Issue(Identity{UserID: "u1"})
	if _, err := NewJWTIssuer([]byte("secret")).Verify(context.Background(), tok); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestJWTRejectsOtherAlgorithms(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewJWTIssuer([]byte("secret")).Verify(context.Background(), tok); err == nil {
		t.Fatal("unsigned token accepted")
	}
}

type stubVerifier struct {
	id  *Identity
	err error
}

func (s stubVerifier) Verify(context.Context, string) (*Identity, error) { return s.id, s.err }

func TestChain(t *testing.T) {
	c := Chain{stubVerifier{err: ErrInvalidToken}, stubVerifier{id: &Identity{UserID: "fb"}}}
	id, err := c.Verify(context.Background(), "tok")
	if err != nil || id.UserID != "fb" {
		t.Fatalf("chain = %+v, %v", id, err)
	}
	if _, err := c.Verify(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatal("empty token accepted")
	}
	if _, err := (Chain{}).Verify(context.Background(), "tok"); !errors.Is(err, ErrInvalidToken) {
		t.Fatal("empty chain accepted token")
	}
}
