package api

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/AaronLay10/BrewSim/internal/config"
)

// Role represents an authorization role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RolePlayer Role = "player"
)

// authConfig holds credentials loaded from environment variables.
type authConfig struct {
	admin   config.Credentials
	player  config.Credentials
	enabled bool
}

var auth *authConfig

// InitAuth loads credentials from BREWSIM_ADMIN_USER/PASS and
// BREWSIM_PLAYER_USER/PASS (or their *_FILE variants).
// If admin credentials are not set, authentication is disabled.
func InitAuth() error {
	admin, err := config.ResolveCredentials("BREWSIM_ADMIN")
	if err != nil {
		return fmt.Errorf("failed to resolve admin credentials: %w", err)
	}
	player, err := config.ResolveCredentials("BREWSIM_PLAYER")
	if err != nil {
		return fmt.Errorf("failed to resolve player credentials: %w", err)
	}

	auth = &authConfig{
		admin:   admin,
		player:  player,
		enabled: admin.Set(),
	}
	return nil
}

// IsAuthEnabled returns true if authentication is configured.
func IsAuthEnabled() bool {
	return auth != nil && auth.enabled
}

// authenticate checks basic auth credentials and returns the role if valid.
// Returns empty string if credentials are invalid.
func authenticate(r *http.Request) Role {
	if auth == nil || !auth.enabled {
		return RoleAdmin // No auth configured = full access
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return ""
	}

	if matches(auth.admin, user, pass) {
		return RoleAdmin
	}
	if matches(auth.player, user, pass) {
		return RolePlayer
	}
	return ""
}

func matches(c config.Credentials, user, pass string) bool {
	return c.Set() && secureCompare(user, c.User) && secureCompare(pass, c.Pass)
}

// secureCompare performs constant-time string comparison to prevent timing attacks.
func secureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Require is middleware admitting requests whose credentials carry one of
// roles. Missing or wrong credentials get 401, a known user without the
// role gets 403.
func Require(roles ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := authenticate(r)
			if role == "" {
				w.Header().Set("WWW-Authenticate", `Basic realm="BrewSim"`)
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "forbidden")
		})
	}
}
