package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignAndVerify(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)
	token, err := signer.Sign("user-1", time.Now())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", claims.UserID)
	}
}

func TestVerify_Rejects(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)

	expired, err := NewSigner("test-secret", time.Minute).Sign("user-1", time.Now().Add(-2*time.Minute))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	otherKey, err := NewSigner("other-secret", time.Hour).Sign("user-1", time.Now())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong secret": otherKey,
		"garbage":      "not.a.token",
		"empty":        "",
	} {
		if _, err := signer.Verify(token); err == nil {
			t.Errorf("%s: Verify accepted an invalid token", name)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2!")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword(hash, "hunter2!") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "hunter3!") {
		t.Error("wrong password accepted")
	}
}

func TestRequireBearer(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)
	var gotUserID string
	handler := RequireBearer(signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserID(r.Context())
	}))

	token, err := signer.Sign("user-7", time.Now())
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotUserID != "user-7" {
		t.Errorf("UserID = %q, want user-7", gotUserID)
	}

	for name, header := range map[string]string{
		"missing": "",
		"basic":   "Basic abc",
		"invalid": "Bearer nope",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}
