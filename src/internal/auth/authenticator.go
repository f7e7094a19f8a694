// FILE: trafficview/src/internal/auth/authenticator.go
package auth

import (
	"bufio"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"trafficview/src/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lixenwraith/log"
	"golang.org/x/time/rate"
)

// Prevent unbounded map growth
const maxAuthTrackedIPs = 10000

// Compared against when the user is unknown so timing does not leak names
var dummyHash = sync.OnceValue(func() string {
	h, _ := HashPassword("trafficview-dummy-password")
	return h
})

// Authenticator validates API credentials
type Authenticator struct {
	config       *config.AuthConfig
	logger       *log.Logger
	basicUsers   map[string]string // username -> password hash
	bearerTokens []string
	jwtParser    *jwt.Parser
	jwtKeyFunc   jwt.Keyfunc
	publicPaths  map[string]bool
	mu           sync.RWMutex

	// Brute-force protection
	ipAuthAttempts map[string]*ipAuthState
	authMu         sync.Mutex
	failureDelay   time.Duration
	blockedDelay   time.Duration

	successes atomic.Uint64
	failures  atomic.Uint64

	done chan struct{}
	once sync.Once
}

// Per-IP auth attempt tracking
type ipAuthState struct {
	limiter      *rate.Limiter
	failCount    int
	lastAttempt  time.Time
	blockedUntil time.Time
}

// Identity is the caller an authenticated request belongs to
type Identity struct {
	Username   string
	Method     string // none, basic, bearer, jwt
	RemoteAddr string
	Metadata   map[string]any
}

// New creates an authenticator from config. It returns nil for type "none".
func New(cfg *config.AuthConfig, logger *log.Logger) (*Authenticator, error) {
	if cfg == nil || cfg.Type == "" || cfg.Type == "none" {
		return nil, nil
	}

	a := &Authenticator{
		config:         cfg,
		logger:         logger,
		basicUsers:     make(map[string]string),
		publicPaths:    make(map[string]bool),
		ipAuthAttempts: make(map[string]*ipAuthState),
		failureDelay:   500 * time.Millisecond,
		blockedDelay:   2 * time.Second,
		done:           make(chan struct{}),
	}

	for _, p := range cfg.PublicPaths {
		a.publicPaths[p] = true
	}

	// Initialize Basic Auth users
	if cfg.Type == "basic" && cfg.BasicAuth != nil {
		for _, user := range cfg.BasicAuth.Users {
			a.basicUsers[user.Username] = user.PasswordHash
		}

		// Load users from file if specified
		if cfg.BasicAuth.UsersFile != "" {
			if err := a.loadUsersFile(cfg.BasicAuth.UsersFile); err != nil {
				return nil, fmt.Errorf("failed to load users file: %w", err)
			}
		}
	}

	// Initialize Bearer tokens
	if cfg.Type == "bearer" && cfg.BearerAuth != nil {
		a.bearerTokens = append(a.bearerTokens, cfg.BearerAuth.Tokens...)

		if cfg.BearerAuth.JWT != nil && cfg.BearerAuth.JWT.SigningKey != "" {
			opts := []jwt.ParserOption{
				jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
				jwt.WithLeeway(5 * time.Second),
				jwt.WithExpirationRequired(),
			}
			if cfg.BearerAuth.JWT.Issuer != "" {
				opts = append(opts, jwt.WithIssuer(cfg.BearerAuth.JWT.Issuer))
			}
			if cfg.BearerAuth.JWT.Audience != "" {
				opts = append(opts, jwt.WithAudience(cfg.BearerAuth.JWT.Audience))
			}
			a.jwtParser = jwt.NewParser(opts...)

			key := []byte(cfg.BearerAuth.JWT.SigningKey)
			a.jwtKeyFunc = func(token *jwt.Token) (any, error) {
				return key, nil
			}
		}
	}

	// Start auth attempt cleanup
	go a.authAttemptCleanup()

	logger.Info("msg", "Authenticator initialized",
		"component", "auth",
		"type", cfg.Type,
		"public_paths", len(a.publicPaths))

	return a, nil
}

// Stop ends background cleanup.
func (a *Authenticator) Stop() {
	if a == nil {
		return
	}
	a.once.Do(func() { close(a.done) })
}

// IsPublic reports whether path is served without credentials.
func (a *Authenticator) IsPublic(path string) bool {
	if a == nil {
		return true
	}
	return a.publicPaths[path]
}

// Challenge returns the WWW-Authenticate header value for failed requests.
func (a *Authenticator) Challenge() string {
	if a.config.Type == "basic" {
		realm := "trafficview"
		if a.config.BasicAuth != nil && a.config.BasicAuth.Realm != "" {
			realm = a.config.BasicAuth.Realm
		}
		return fmt.Sprintf("Basic realm=%q", realm)
	}
	return "Bearer"
}

// Check and enforce rate limits
func (a *Authenticator) checkRateLimit(remoteAddr string) error {
	ip := hostOf(remoteAddr)

	a.authMu.Lock()

	state, exists := a.ipAuthAttempts[ip]
	now := time.Now()

	if !exists {
		if len(a.ipAuthAttempts) >= maxAuthTrackedIPs {
			a.evictOldestLocked(now)
		}

		// 5 attempts per minute, burst of 3
		state = &ipAuthState{
			limiter:     rate.NewLimiter(rate.Every(12*time.Second), 3),
			lastAttempt: now,
		}
		a.ipAuthAttempts[ip] = state
	}

	// Check if IP is temporarily blocked
	if now.Before(state.blockedUntil) {
		remaining := state.blockedUntil.Sub(now)
		a.authMu.Unlock()

		a.logger.Warn("msg", "IP temporarily blocked",
			"component", "auth",
			"ip", ip,
			"remaining", remaining)
		// Slow down even blocked attempts
		time.Sleep(a.blockedDelay)
		return fmt.Errorf("temporarily blocked, try again in %v", remaining.Round(time.Second))
	}

	if !state.limiter.Allow() {
		state.failCount++

		// Only set new blockedUntil if not already blocked
		if state.blockedUntil.IsZero() || now.After(state.blockedUntil) {
			// Progressive blocking: 2^failCount minutes, capped at 64
			blockMinutes := 1 << min(state.failCount, 6)
			state.blockedUntil = now.Add(time.Duration(blockMinutes) * time.Minute)

			a.logger.Warn("msg", "Rate limit exceeded, blocking IP",
				"component", "auth",
				"ip", ip,
				"fail_count", state.failCount,
				"block_duration", time.Duration(blockMinutes)*time.Minute)
		}
		a.authMu.Unlock()
		return fmt.Errorf("rate limit exceeded")
	}

	state.lastAttempt = now
	a.authMu.Unlock()
	return nil
}

// evictOldestLocked samples tracked IPs and drops the least recently seen.
func (a *Authenticator) evictOldestLocked(now time.Time) {
	const sampleSize = 20
	var oldestIP string
	oldestTime := now

	sampled := 0
	for sampledIP, sampledState := range a.ipAuthAttempts {
		if sampledState.lastAttempt.Before(oldestTime) {
			oldestIP = sampledIP
			oldestTime = sampledState.lastAttempt
		}
		sampled++
		if sampled >= sampleSize {
			break
		}
	}

	if oldestIP != "" {
		delete(a.ipAuthAttempts, oldestIP)
		a.logger.Debug("msg", "Evicted old auth attempt state",
			"component", "auth",
			"evicted_ip", oldestIP,
			"last_seen", oldestTime)
	}
}

func (a *Authenticator) recordFailure(remoteAddr string) {
	a.failures.Add(1)
	ip := hostOf(remoteAddr)

	a.authMu.Lock()
	defer a.authMu.Unlock()

	if state, exists := a.ipAuthAttempts[ip]; exists {
		state.failCount++
		state.lastAttempt = time.Now()
	}
}

// Reset failure count on success
func (a *Authenticator) recordSuccess(remoteAddr string) {
	a.successes.Add(1)
	ip := hostOf(remoteAddr)

	a.authMu.Lock()
	defer a.authMu.Unlock()

	if state, exists := a.ipAuthAttempts[ip]; exists {
		state.failCount = 0
		state.blockedUntil = time.Time{}
	}
}

// AuthenticateHTTP validates an Authorization header value.
func (a *Authenticator) AuthenticateHTTP(authHeader, remoteAddr string) (*Identity, error) {
	if a == nil {
		return &Identity{Method: "none", RemoteAddr: remoteAddr}, nil
	}

	if err := a.checkRateLimit(remoteAddr); err != nil {
		return nil, err
	}

	var id *Identity
	var err error

	switch a.config.Type {
	case "basic":
		id, err = a.authenticateBasic(authHeader, remoteAddr)
	case "bearer":
		id, err = a.authenticateBearer(authHeader, remoteAddr)
	default:
		err = fmt.Errorf("unsupported auth type: %s", a.config.Type)
	}

	if err != nil {
		a.recordFailure(remoteAddr)
		time.Sleep(a.failureDelay)
		return nil, err
	}

	a.recordSuccess(remoteAddr)
	return id, nil
}

func (a *Authenticator) authenticateBasic(authHeader, remoteAddr string) (*Identity, error) {
	if !strings.HasPrefix(authHeader, "Basic ") {
		return nil, fmt.Errorf("invalid basic auth header")
	}

	payload, err := base64.StdEncoding.DecodeString(authHeader[6:])
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding")
	}

	username, password, ok := strings.Cut(string(payload), ":")
	if !ok {
		return nil, fmt.Errorf("invalid credentials format")
	}

	a.mu.RLock()
	expectedHash, exists := a.basicUsers[username]
	a.mu.RUnlock()

	if !exists {
		// Hash anyway to prevent timing attacks
		VerifyPassword(dummyHash(), password)
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := VerifyPassword(expectedHash, password); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	return &Identity{Username: username, Method: "basic", RemoteAddr: remoteAddr}, nil
}

func (a *Authenticator) authenticateBearer(authHeader, remoteAddr string) (*Identity, error) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, fmt.Errorf("invalid bearer auth header")
	}
	token := strings.TrimSpace(authHeader[7:])

	// Static tokens first
	for _, t := range a.bearerTokens {
		if subtle.ConstantTimeCompare([]byte(t), []byte(token)) == 1 {
			return &Identity{
				Method:     "bearer",
				RemoteAddr: remoteAddr,
				Metadata:   map[string]any{"token_type": "static"},
			}, nil
		}
	}

	if a.jwtParser == nil {
		return nil, fmt.Errorf("invalid token")
	}

	claims := jwt.MapClaims{}
	parsed, err := a.jwtParser.ParseWithClaims(token, claims, a.jwtKeyFunc)
	if err != nil {
		return nil, fmt.Errorf("JWT validation failed: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid JWT token")
	}

	username, _ := claims.GetSubject()
	return &Identity{
		Username:   username,
		Method:     "jwt",
		RemoteAddr: remoteAddr,
		Metadata:   map[string]any{"claims": claims},
	}, nil
}

// Cleanup old auth attempts
func (a *Authenticator) authAttemptCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-a.done:
			return
		case <-ticker.C:
		}

		a.authMu.Lock()
		now := time.Now()
		for ip, state := range a.ipAuthAttempts {
			// Remove entries with no activity for an hour
			if now.Sub(state.lastAttempt) > time.Hour && now.After(state.blockedUntil) {
				delete(a.ipAuthAttempts, ip)
			}
		}
		a.authMu.Unlock()
	}
}

func (a *Authenticator) loadUsersFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open users file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		username, hash, ok := strings.Cut(line, ":")
		if !ok {
			a.logger.Warn("msg", "Skipping malformed line in users file",
				"component", "auth",
				"path", path,
				"line_number", lineNumber)
			continue
		}
		username, hash = strings.TrimSpace(username), strings.TrimSpace(hash)
		if username != "" && hash != "" {
			// File-based users overwrite inline users on conflict
			a.basicUsers[username] = hash
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading users file: %w", err)
	}

	a.logger.Info("msg", "Loaded users from file",
		"component", "auth",
		"path", path,
		"user_count", len(a.basicUsers))

	return nil
}

// GetStats returns authentication statistics
func (a *Authenticator) GetStats() map[string]any {
	if a == nil {
		return map[string]any{"enabled": false}
	}

	a.authMu.Lock()
	tracked := len(a.ipAuthAttempts)
	a.authMu.Unlock()

	return map[string]any{
		"enabled":       true,
		"type":          a.config.Type,
		"basic_users":   len(a.basicUsers),
		"static_tokens": len(a.bearerTokens),
		"jwt":           a.jwtParser != nil,
		"tracked_ips":   tracked,
		"successes":     a.successes.Load(),
		"failures":      a.failures.Load(),
	}
}

// GenerateToken returns n random bytes, URL-safe base64 encoded.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hostOf(remoteAddr string) string {
	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return ip
}
