package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenService("secret", time.Minute)

	raw, err := tokens.GenerateToken("trigger-service", "service")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := tokens.ValidateToken(raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "trigger-service" || claims.Role != "service" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateTokenRejectsOtherSecret(t *testing.T) {
	raw, err := NewTokenService("one", time.Minute).GenerateToken("svc", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenService("two", time.Minute).ValidateToken(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	tokens := NewTokenService("secret", time.Minute)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return base }

	raw, err := tokens.GenerateToken("svc", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	tokens.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := tokens.ValidateToken(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestGenerateTokenRequiresSubject(t *testing.T) {
	if _, err := NewTokenService("secret", 0).GenerateToken(" ", ""); err == nil {
		t.Fatal("expected error for empty subject")
	}
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokenService("secret", time.Minute)
	raw, err := tokens.GenerateToken("viewer", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var seen string
	handler := Middleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatal("claims missing from context")
		}
		seen = claims.Subject
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "malformed", header: "Token " + raw, status: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "header", header: BearerHeader(raw), status: http.StatusNoContent},
		{name: "query", query: "?access_token=" + raw, status: http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/units"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
		})
	}

	if seen != "viewer" {
		t.Fatalf("expected subject viewer, got %q", seen)
	}
}
