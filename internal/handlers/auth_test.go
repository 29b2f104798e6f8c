package handlers_test

import (
	"net/http"
	"testing"

	"github.com/bugbridge-dev/bugbridge/internal/types"
)

func TestRegisterLoginMe(t *testing.T) {
	setupTestDB(t)
	r := newTestRouter()

	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Uma",
		"email":    "Uma@Example.com",
		"password": "password123",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d, body %s", w.Code, w.Body.String())
	}

	var registered struct {
		Token string             `json:"token"`
		User  types.UserResponse `json:"user"`
	}
	decodeJSON(t, w, &registered)

	if registered.Token == "" {
		t.Fatal("register returned no token")
	}

	// Emails are normalized on the way in.
	if registered.User.Email != "uma@example.com" {
		t.Fatalf("email = %q, want lowercased", registered.User.Email)
	}

	// Duplicate signup is rejected.
	w = doRequest(t, r, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Uma Again",
		"email":    "uma@example.com",
		"password": "password123",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register = %d, want 400", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "uma@example.com",
		"password": "password123",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("login = %d, body %s", w.Code, w.Body.String())
	}

	var logged struct {
		Token string `json:"token"`
	}
	decodeJSON(t, w, &logged)

	w = doRequest(t, r, http.MethodGet, "/api/auth/me", logged.Token, nil)

	if w.Code != http.StatusOK {
		t.Fatalf("me = %d, body %s", w.Code, w.Body.String())
	}

	w = doRequest(t, r, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "uma@example.com",
		"password": "wrongpassword",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad password login = %d, want 400", w.Code)
	}

	if w := doRequest(t, r, http.MethodGet, "/api/auth/me", "not-a-token", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token = %d, want 401", w.Code)
	}
}
