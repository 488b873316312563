package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/caretrack/caretrack/internal/platform/form"
)

func newTestAuth() *Service {
	return NewService(JWTConfig{SigningKey: testSigningKey}, NewUserMemoryRepo(), zerolog.Nop())
}

func TestService_SignupRoles(t *testing.T) {
	svc := newTestAuth()
	ctx := context.Background()

	first, err := svc.Signup(ctx, form.Values{"name": "Ada Admin", "email": "Ada@Clinic.test", "password": "correct horse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.User.Email != "ada@clinic.test" || first.User.Roles[0] != RoleAdmin {
		t.Errorf("expected the first account to be an admin, got %+v", first.User)
	}
	second, err := svc.Signup(ctx, form.Values{"name": "Rita", "email": "rita@clinic.test", "password": "longenough"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.User.Roles[0] != RoleRegistrar {
		t.Errorf("expected a registrar, got %v", second.User.Roles)
	}
}

func TestService_SignupValidation(t *testing.T) {
	svc := newTestAuth()
	ctx := context.Background()
	if _, err := svc.Signup(ctx, form.Values{"name": "A", "email": "a@clinic.test", "password": "password1"}); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		values form.Values
		field  string
		msg    string
	}{
		{"missing name", form.Values{"email": "b@clinic.test", "password": "password1"}, "name", "Name is required"},
		{"bad email", form.Values{"name": "B", "email": "nope", "password": "password1"}, "email", "Please enter a valid email address"},
		{"short password", form.Values{"name": "B", "email": "b@clinic.test", "password": "short"}, "password", "Password must be at least 8 characters"},
		{"duplicate", form.Values{"name": "B", "email": "A@CLINIC.TEST", "password": "password1"}, "email", "An account with this email already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.values)
			var fe form.Errors
			if !errors.As(err, &fe) || fe[tt.field] != tt.msg {
				t.Errorf("expected %q on %s, got %v", tt.msg, tt.field, err)
			}
		})
	}
}

func TestService_Login(t *testing.T) {
	svc := newTestAuth()
	ctx := context.Background()
	created, err := svc.Signup(ctx, form.Values{"name": "Ada", "email": "ada@clinic.test", "password": "correct horse"})
	if err != nil {
		t.Fatal(err)
	}

	sess, err := svc.Login(ctx, " ADA@clinic.test ", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.User.ID != created.User.ID {
		t.Errorf("expected %s, got %s", created.User.ID, sess.User.ID)
	}
	claims, err := svc.Verifier().Parse(sess.Token)
	if err != nil || claims.Issuer != "caretrack" || claims.Roles[0] != RoleAdmin {
		t.Errorf("unexpected session claims %+v (%v)", claims, err)
	}

	for _, c := range []struct{ email, password string }{
		{"ada@clinic.test", "wrong"},
		{"nobody@clinic.test", "correct horse"},
	} {
		if _, err := svc.Login(ctx, c.email, c.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("%s: expected ErrInvalidCredentials, got %v", c.email, err)
		}
	}
}

func TestService_NoSigningKey(t *testing.T) {
	svc := NewService(JWTConfig{}, NewUserMemoryRepo(), zerolog.Nop())
	_, err := svc.Signup(context.Background(), form.Values{"name": "A", "email": "a@clinic.test", "password": "password1"})
	if !errors.Is(err, ErrNoSigningKey) {
		t.Errorf("expected ErrNoSigningKey, got %v", err)
	}
}

func TestService_LogoutHooks(t *testing.T) {
	svc := newTestAuth()
	var cleared []string
	svc.OnLogout(func(s string) { cleared = append(cleared, s) })
	svc.Logout("")
	svc.Logout("u1")
	if len(cleared) != 1 || cleared[0] != "u1" {
		t.Errorf("expected one logout for u1, got %v", cleared)
	}
}

func TestService_Me(t *testing.T) {
	svc := newTestAuth()
	sess, err := svc.Signup(context.Background(), form.Values{"name": "Ada", "email": "ada@clinic.test", "password": "password1"})
	if err != nil {
		t.Fatal(err)
	}
	u, err := svc.Me(context.Background(), sess.User.ID)
	if err != nil || u.Name != "Ada" || u.PasswordHash == "" {
		t.Errorf("unexpected account %+v (%v)", u, err)
	}
	if _, err := svc.Me(context.Background(), "dev-user"); err == nil {
		t.Error("expected an error for a non-account session")
	}
}
