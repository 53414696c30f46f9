package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vetlinkhq/vetsched/libs/auth"
)

func TestRequireRole(t *testing.T) {
	h := requireRole(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "practitioner", "admin")

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("X-User-Role", "client")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rw.Code)
	}

	reqOK := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqOK.Header.Set("X-User-Role", "practitioner")
	rwOK := httptest.NewRecorder()
	h.ServeHTTP(rwOK, reqOK)
	if rwOK.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rwOK.Code)
	}
}

func TestStaffRouteRejectsClientToken(t *testing.T) {
	secret := "test-secret"
	h := requireAuth(requireRole(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "practitioner", "admin"), secret, nil)

	sign := func(role string) string {
		token, err := auth.SignHS256(auth.Claims{
			Sub:      "user-1",
			ClinicID: "clinic-1",
			Role:     role,
			Iat:      time.Now().Unix(),
			Exp:      time.Now().Add(time.Hour).Unix(),
		}, secret)
		if err != nil {
			t.Fatalf("SignHS256 failed: %v", err)
		}
		return token
	}

	req := httptest.NewRequest(http.MethodPost, "http://example.com/api/v1/appointments/schedule", nil)
	req.Header.Set("Authorization", "Bearer "+sign("client"))
	// A spoofed role header must not survive token verification.
	req.Header.Set("X-User-Role", "admin")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a client token, got %d", rw.Code)
	}

	reqOK := httptest.NewRequest(http.MethodPost, "http://example.com/api/v1/appointments/schedule", nil)
	reqOK.Header.Set("Authorization", "Bearer "+sign("practitioner"))
	rwOK := httptest.NewRecorder()
	h.ServeHTTP(rwOK, reqOK)
	if rwOK.Code != http.StatusOK {
		t.Fatalf("expected 200 for a practitioner token, got %d", rwOK.Code)
	}
}

func TestRequireAuthHS256(t *testing.T) {
	secret := "test-secret"
	claims := auth.Claims{
		Sub:      "user-1",
		ClinicID: "clinic-1",
		Role:     "practitioner",
		Iat:      time.Now().Unix(),
		Exp:      time.Now().Add(1 * time.Hour).Unix(),
	}
	token, err := auth.SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}

	h := requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-User-Id") != claims.Sub {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("X-Clinic-Id") != claims.ClinicID {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.Header.Get("X-User-Role") != claims.Role {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), secret, nil)

	req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}

	reqBad := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqBad.Header.Set("Authorization", "Bearer badtoken")
	rwBad := httptest.NewRecorder()
	h.ServeHTTP(rwBad, reqBad)
	if rwBad.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rwBad.Code)
	}

	// Forged identity headers are stripped and replaced with verified claims.
	reqSpoof := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
	reqSpoof.Header.Set("Authorization", "Bearer "+token)
	reqSpoof.Header.Set("X-User-Id", "someone-else")
	reqSpoof.Header.Set("X-User-Role", "admin")
	rwSpoof := httptest.NewRecorder()
	h.ServeHTTP(rwSpoof, reqSpoof)
	if rwSpoof.Code != http.StatusOK {
		t.Fatalf("expected 200 with spoofed headers replaced, got %d", rwSpoof.Code)
	}
}
