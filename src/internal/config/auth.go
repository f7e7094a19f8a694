// FILE: trafficview/src/internal/config/auth.go
package config

import "fmt"

type AuthConfig struct {
	// Authentication type: "none", "basic", "bearer"
	Type string `toml:"type" json:"type"`

	// Basic auth
	BasicAuth *BasicAuthConfig `toml:"basic_auth" json:"basic_auth"`

	// Bearer token auth
	BearerAuth *BearerAuthConfig `toml:"bearer_auth" json:"bearer_auth"`

	// Paths served without authentication
	PublicPaths []string `toml:"public_paths" json:"public_paths"`
}

type BasicAuthConfig struct {
	// Static users (for simple deployments)
	Users []BasicAuthUser `toml:"users" json:"users"`

	// External auth file, "username:hash" per line
	UsersFile string `toml:"users_file" json:"users_file"`

	// Realm for WWW-Authenticate header
	Realm string `toml:"realm" json:"realm"`
}

type BasicAuthUser struct {
	Username string `toml:"username" json:"username"`
	// Password hash (argon2id PHC or bcrypt)
	PasswordHash string `toml:"password_hash" json:"password_hash"`
}

type BearerAuthConfig struct {
	// Static tokens
	Tokens []string `toml:"tokens" json:"tokens"`

	// JWT validation
	JWT *JWTConfig `toml:"jwt" json:"jwt"`
}

type JWTConfig struct {
	// Static HMAC signing key
	SigningKey string `toml:"signing_key" json:"signing_key"`

	// Expected issuer
	Issuer string `toml:"issuer" json:"issuer"`

	// Expected audience
	Audience string `toml:"audience" json:"audience"`
}

func validateAuth(auth *AuthConfig) error {
	if auth == nil {
		return nil
	}

	validTypes := map[string]bool{"": true, "none": true, "basic": true, "bearer": true}
	if !validTypes[auth.Type] {
		return fmt.Errorf("server.auth: invalid auth type: %s", auth.Type)
	}

	if auth.Type == "basic" {
		if auth.BasicAuth == nil {
			return fmt.Errorf("server.auth: basic auth type specified but config missing")
		}
		if len(auth.BasicAuth.Users) == 0 && auth.BasicAuth.UsersFile == "" {
			return fmt.Errorf("server.auth: basic auth requires users or users_file")
		}
		for i, user := range auth.BasicAuth.Users {
			if user.Username == "" || user.PasswordHash == "" {
				return fmt.Errorf("server.auth: basic auth user[%d] missing username or password_hash", i)
			}
		}
	}

	if auth.Type == "bearer" {
		if auth.BearerAuth == nil {
			return fmt.Errorf("server.auth: bearer auth type specified but config missing")
		}
		if len(auth.BearerAuth.Tokens) == 0 && auth.BearerAuth.JWT == nil {
			return fmt.Errorf("server.auth: bearer auth requires tokens or jwt")
		}
		if auth.BearerAuth.JWT != nil && auth.BearerAuth.JWT.SigningKey == "" {
			return fmt.Errorf("server.auth: jwt requires signing_key")
		}
	}

	return nil
}
