package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/weinianhe/SaveGramps/assets"
	"github.com/weinianhe/SaveGramps/internal/db"
)

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		pw      string
		wantErr bool
	}{
		{"ok", "gramps_1", "longenough", false},
		{"short user", "ab", "longenough", true},
		{"bad char", "gr@mps", "longenough", true},
		{"short password", "gramps", "short", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSignup(tt.user, tt.pw)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSignup(%q, %q) err = %v, wantErr %v", tt.user, tt.pw, err, tt.wantErr)
			}
		})
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	h, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(h, "correct horse") {
		t.Fatal("expected password to verify")
	}
	if CheckPassword(h, "wrong horse") {
		t.Fatal("expected wrong password to fail")
	}
}

func TestSignerSignParse(t *testing.T) {
	s := Signer{Secret: []byte("test-secret"), TTL: time.Hour}
	tok, exp, err := s.Sign("id-1", "gramps")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %v", exp)
	}
	c, err := s.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.ID != "id-1" || c.Username != "gramps" {
		t.Fatalf("unexpected claims %+v", c)
	}

	other := Signer{Secret: []byte("other"), TTL: time.Hour}
	if _, err := other.Parse(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	expired := Signer{Secret: []byte("test-secret"), TTL: -time.Hour}
	old, _, _ := expired.Sign("id-1", "gramps")
	if _, err := s.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestCookiesToken(t *testing.T) {
	c := Cookies{Name: "gramps_token"}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer abc")
	if got := c.Token(r); got != "abc" {
		t.Fatalf("expected bearer token, got %q", got)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "gramps_token", Value: "xyz"})
	if got := c.Token(r); got != "xyz" {
		t.Fatalf("expected cookie token, got %q", got)
	}

	w := httptest.NewRecorder()
	c.Set(w, "tok", time.Now().Add(time.Hour))
	if h := w.Header().Get("Set-Cookie"); h == "" {
		t.Fatal("expected Set-Cookie header")
	}
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	conn, err := db.Open(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	if err := db.Migrate(conn, assets.Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	users := NewUsers(conn)

	u, err := users.Create(ctx, " gramps ", "password123")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Username != "gramps" || len(u.ID) != 22 {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := users.Create(ctx, "GRAMPS", "password123"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	got, err := users.ByUsername(ctx, "Gramps")
	if err != nil || got.ID != u.ID {
		t.Fatalf("by username: %+v %v", got, err)
	}
	if !CheckPassword(got.PasswordHash, "password123") {
		t.Fatal("stored hash does not verify")
	}

	for _, won := range []bool{true, true, false, true} {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := BumpStats(ctx, tx, u.ID, won); err != nil {
			t.Fatalf("bump: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}
	got, err = users.ByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if got.RoundsPlayed != 4 || got.Wins != 3 || got.Streak != 1 {
		t.Fatalf("unexpected stats %+v", got)
	}
}
