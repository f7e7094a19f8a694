// FILE: trafficview/src/internal/auth/authenticator_test.go
package auth

import (
	"bytes"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trafficview/src/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func newTestAuthenticator(t *testing.T, cfg *config.AuthConfig) *Authenticator {
	t.Helper()
	a, err := New(cfg, newTestLogger())
	require.NoError(t, err)
	require.NotNil(t, a)
	a.failureDelay = 0
	a.blockedDelay = 0
	t.Cleanup(a.Stop)
	return a
}

func basicHeader(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$"))

	assert.NoError(t, VerifyPassword(hash, "s3cret"))
	assert.Error(t, VerifyPassword(hash, "wrong"))

	bc, err := bcrypt.GenerateFromPassword([]byte("legacy"), bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, VerifyPassword(string(bc), "legacy"))
	assert.Error(t, VerifyPassword(string(bc), "nope"))

	assert.Error(t, VerifyPassword("plaintext", "plaintext"))
	assert.Error(t, VerifyPassword("$argon2id$v=19$broken", "x"))
}

func TestNew_None(t *testing.T) {
	for _, cfg := range []*config.AuthConfig{nil, {Type: ""}, {Type: "none"}} {
		a, err := New(cfg, newTestLogger())
		require.NoError(t, err)
		assert.Nil(t, a)

		// A nil authenticator lets everything through
		id, err := a.AuthenticateHTTP("", "10.0.0.1:1234")
		require.NoError(t, err)
		assert.Equal(t, "none", id.Method)
		assert.True(t, a.IsPublic("/data"))
	}
}

func TestAuthenticator_Basic(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)

	a := newTestAuthenticator(t, &config.AuthConfig{
		Type:        "basic",
		BasicAuth:   &config.BasicAuthConfig{Users: []config.BasicAuthUser{{Username: "admin", PasswordHash: hash}}, Realm: "logs"},
		PublicPaths: []string{"/status"},
	})

	testCases := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{"Valid", basicHeader("admin", "pw"), false},
		{"WrongPassword", basicHeader("admin", "nope"), true},
		{"UnknownUser", basicHeader("ghost", "pw"), true},
		{"NoColon", "Basic " + base64.StdEncoding.EncodeToString([]byte("admin")), true},
		{"BadBase64", "Basic !!!", true},
		{"WrongScheme", "Bearer abc", true},
	}

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Distinct addresses keep the brute-force limiter out of the way
			addr := "10.0.0." + string(rune('1'+i)) + ":5000"
			id, err := a.AuthenticateHTTP(tc.header, addr)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "admin", id.Username)
			assert.Equal(t, "basic", id.Method)
		})
	}

	assert.Equal(t, `Basic realm="logs"`, a.Challenge())
	assert.True(t, a.IsPublic("/status"))
	assert.False(t, a.IsPublic("/data"))
}

func TestAuthenticator_UsersFile(t *testing.T) {
	hash, err := HashPassword("filepw")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "users")
	content := "# comment\n\nmalformed-line\nops:" + hash + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	a := newTestAuthenticator(t, &config.AuthConfig{
		Type:      "basic",
		BasicAuth: &config.BasicAuthConfig{UsersFile: path},
	})

	id, err := a.AuthenticateHTTP(basicHeader("ops", "filepw"), "10.1.0.1:1")
	require.NoError(t, err)
	assert.Equal(t, "ops", id.Username)

	_, err = New(&config.AuthConfig{Type: "basic", BasicAuth: &config.BasicAuthConfig{UsersFile: "/does/not/exist"}}, newTestLogger())
	assert.Error(t, err)
}

func TestAuthenticator_Bearer(t *testing.T) {
	key := "jwt-signing-key"
	a := newTestAuthenticator(t, &config.AuthConfig{
		Type: "bearer",
		BearerAuth: &config.BearerAuthConfig{
			Tokens: []string{"static-token"},
			JWT:    &config.JWTConfig{SigningKey: key, Issuer: "trafficview", Audience: "api"},
		},
	})

	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
		require.NoError(t, err)
		return s
	}
	exp := time.Now().Add(time.Hour).Unix()

	testCases := []struct {
		name       string
		header     string
		wantMethod string
	}{
		{"Static", "Bearer static-token", "bearer"},
		{"JWT", "Bearer " + sign(jwt.MapClaims{"sub": "svc", "iss": "trafficview", "aud": "api", "exp": exp}), "jwt"},
		{"Expired", "Bearer " + sign(jwt.MapClaims{"iss": "trafficview", "aud": "api", "exp": time.Now().Add(-time.Hour).Unix()}), ""},
		{"NoExpiry", "Bearer " + sign(jwt.MapClaims{"iss": "trafficview", "aud": "api"}), ""},
		{"WrongIssuer", "Bearer " + sign(jwt.MapClaims{"iss": "other", "aud": "api", "exp": exp}), ""},
		{"WrongAudience", "Bearer " + sign(jwt.MapClaims{"iss": "trafficview", "aud": "web", "exp": exp}), ""},
		{"Garbage", "Bearer not-a-token", ""},
		{"Missing", "", ""},
	}

	for i, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr := "10.2.0." + string(rune('1'+i)) + ":5000"
			id, err := a.AuthenticateHTTP(tc.header, addr)
			if tc.wantMethod == "" {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantMethod, id.Method)
		})
	}

	assert.Equal(t, "Bearer", a.Challenge())
}

func TestAuthenticator_BruteForceBlocking(t *testing.T) {
	a := newTestAuthenticator(t, &config.AuthConfig{
		Type:       "bearer",
		BearerAuth: &config.BearerAuthConfig{Tokens: []string{"good"}},
	})

	addr := "192.0.2.7:4000"
	// Burst of 3 is spent on failures
	for i := 0; i < 3; i++ {
		_, err := a.AuthenticateHTTP("Bearer bad", addr)
		require.Error(t, err)
	}

	_, err := a.AuthenticateHTTP("Bearer good", addr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit exceeded")

	// Now blocked, even with valid credentials
	_, err = a.AuthenticateHTTP("Bearer good", addr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "temporarily blocked")

	// Other clients are unaffected
	_, err = a.AuthenticateHTTP("Bearer good", "192.0.2.8:4000")
	assert.NoError(t, err)

	stats := a.GetStats()
	assert.Equal(t, uint64(1), stats["successes"])
	assert.Equal(t, uint64(3), stats["failures"])
}

func TestGeneratorCommand(t *testing.T) {
	t.Run("Token", func(t *testing.T) {
		var out, errOut bytes.Buffer
		g := &GeneratorCommand{output: &out, errOut: &errOut}
		require.NoError(t, g.Execute([]string{"-t", "-l", "24"}))
		assert.Contains(t, out.String(), "tokens = [")
		assert.Contains(t, out.String(), "Hex:")
	})

	t.Run("TokenTooLong", func(t *testing.T) {
		var out, errOut bytes.Buffer
		g := &GeneratorCommand{output: &out, errOut: &errOut}
		assert.Error(t, g.Execute([]string{"-t", "-l", "1024"}))
	})

	t.Run("HashFromPrompt", func(t *testing.T) {
		var out, errOut bytes.Buffer
		g := &GeneratorCommand{output: &out, errOut: &errOut}
		g.readPassword = func(string) (string, error) { return "prompted", nil }

		require.NoError(t, g.Execute([]string{"-u", "admin"}))
		assert.Contains(t, out.String(), "[[server.auth.basic_auth.users]]")

		var line string
		for _, l := range strings.Split(out.String(), "\n") {
			if strings.HasPrefix(l, "admin:") {
				line = l
			}
		}
		require.NotEmpty(t, line)
		assert.NoError(t, VerifyPassword(strings.TrimPrefix(line, "admin:"), "prompted"))
	})

	t.Run("Mismatch", func(t *testing.T) {
		var out, errOut bytes.Buffer
		answers := []string{"one", "two"}
		g := &GeneratorCommand{output: &out, errOut: &errOut}
		g.readPassword = func(string) (string, error) {
			a := answers[0]
			answers = answers[1:]
			return a, nil
		}
		assert.Error(t, g.Execute([]string{"-u", "admin"}))
	})

	t.Run("MissingUser", func(t *testing.T) {
		var out, errOut bytes.Buffer
		g := &GeneratorCommand{output: &out, errOut: &errOut}
		assert.Error(t, g.Execute(nil))
	})
}
