package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/AaronLay10/BrewSim/internal/config"
)

func resetAuth() {
	auth = nil
}

func enabledAuth() *authConfig {
	return &authConfig{
		admin:   config.Credentials{User: "admin", Pass: "secret"},
		player:  config.Credentials{User: "barista", Pass: "crema"},
		enabled: true,
	}
}

func clearAuthEnv(t *testing.T) {
	for _, k := range []string{
		"BREWSIM_ADMIN_USER", "BREWSIM_ADMIN_PASS", "BREWSIM_ADMIN_PASS_FILE",
		"BREWSIM_PLAYER_USER", "BREWSIM_PLAYER_PASS", "BREWSIM_PLAYER_PASS_FILE",
	} {
		t.Setenv(k, "")
	}
}

func TestAuthDisabledWhenNoEnvVars(t *testing.T) {
	resetAuth()
	clearAuthEnv(t)

	if err := InitAuth(); err != nil {
		t.Fatalf("InitAuth: %v", err)
	}
	if IsAuthEnabled() {
		t.Error("auth should be disabled when no env vars are set")
	}

	called := false
	handler := Require(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	if !called {
		t.Error("handler should be called when auth is disabled")
	}
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestInitAuthFromEnv(t *testing.T) {
	resetAuth()
	clearAuthEnv(t)
	dir := t.TempDir()
	passFile := filepath.Join(dir, "player_pass")
	if err := os.WriteFile(passFile, []byte("crema\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BREWSIM_ADMIN_USER", "admin")
	t.Setenv("BREWSIM_ADMIN_PASS", "secret")
	t.Setenv("BREWSIM_PLAYER_USER", "barista")
	t.Setenv("BREWSIM_PLAYER_PASS_FILE", passFile)

	if err := InitAuth(); err != nil {
		t.Fatalf("InitAuth: %v", err)
	}
	defer resetAuth()

	if !IsAuthEnabled() {
		t.Fatal("auth should be enabled")
	}
	req := httptest.NewRequest("GET", "/test", nil)
	req.SetBasicAuth("barista", "crema")
	if role := authenticate(req); role != RolePlayer {
		t.Errorf("expected player role from file secret, got %q", role)
	}
}

func TestInitAuthMissingSecretFile(t *testing.T) {
	resetAuth()
	clearAuthEnv(t)
	t.Setenv("BREWSIM_ADMIN_USER", "admin")
	t.Setenv("BREWSIM_ADMIN_PASS_FILE", filepath.Join(t.TempDir(), "missing"))

	if err := InitAuth(); err == nil {
		t.Error("expected error for unreadable password file")
	}
}

func TestRoleAccess(t *testing.T) {
	tests := []struct {
		name       string
		user, pass string
		noAuth     bool
		adminOnly  bool
		wantStatus int
	}{
		{name: "no credentials", noAuth: true, wantStatus: http.StatusUnauthorized},
		{name: "admin any role", user: "admin", pass: "secret", wantStatus: http.StatusOK},
		{name: "player any role", user: "barista", pass: "crema", wantStatus: http.StatusOK},
		{name: "admin admin only", user: "admin", pass: "secret", adminOnly: true, wantStatus: http.StatusOK},
		{name: "player admin only", user: "barista", pass: "crema", adminOnly: true, wantStatus: http.StatusForbidden},
		{name: "wrong password", user: "admin", pass: "wrong", wantStatus: http.StatusUnauthorized},
		{name: "unknown user", user: "nobody", pass: "secret", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth = enabledAuth()
			defer resetAuth()

			called := false
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})
			handler := Require(RoleAdmin, RolePlayer)(inner)
			if tt.adminOnly {
				handler = Require(RoleAdmin)(inner)
			}

			req := httptest.NewRequest("GET", "/test", nil)
			if !tt.noAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handler called=%v for status %d", called, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized && w.Header().Get("WWW-Authenticate") == "" {
				t.Error("expected WWW-Authenticate header")
			}
		})
	}
}

func TestPlayerWithoutCredentialsConfigured(t *testing.T) {
	auth = &authConfig{
		admin:   config.Credentials{User: "admin", Pass: "secret"},
		enabled: true,
	}
	defer resetAuth()

	req := httptest.NewRequest("GET", "/test", nil)
	req.SetBasicAuth("", "")
	if role := authenticate(req); role != "" {
		t.Errorf("empty credentials must not match an unset player, got %q", role)
	}
}

func TestPlayerCannotDeleteSession(t *testing.T) {
	srv, _ := newTestAPI(t)
	v := createSession(t, srv.URL, "espresso")
	auth = enabledAuth()
	defer resetAuth()

	req, _ := http.NewRequest("DELETE", srv.URL+"/api/v1/sessions/"+v.ID, nil)
	req.SetBasicAuth("barista", "crema")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", resp.StatusCode)
	}

	req, _ = http.NewRequest("POST", srv.URL+"/api/v1/sessions/"+v.ID+"/advance", nil)
	req.SetBasicAuth("barista", "crema")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST advance: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected player to advance, got %d", resp.StatusCode)
	}
}
