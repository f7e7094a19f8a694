// FILE: trafficview/src/internal/config/server.go
package config

type ServerConfig struct {
	Enabled bool   `toml:"enabled" json:"enabled"`
	Host    string `toml:"host" json:"host"`
	Port    int64  `toml:"port" json:"port"`

	ReadTimeoutMS      int64 `toml:"read_timeout_ms" json:"read_timeout_ms"`
	WriteTimeoutMS     int64 `toml:"write_timeout_ms" json:"write_timeout_ms"`
	MaxRequestBodySize int64 `toml:"max_request_body_size" json:"max_request_body_size"`

	// Cached rendered exports (entries)
	ExportCacheSize int64 `toml:"export_cache_size" json:"export_cache_size"`

	TLS       TLSConfig        `toml:"tls" json:"tls"`
	Auth      *AuthConfig      `toml:"auth" json:"auth"`
	RateLimit *RateLimitConfig `toml:"rate_limit" json:"rate_limit"`
}

type TLSConfig struct {
	Enabled  bool   `toml:"enabled" json:"enabled"`
	CertFile string `toml:"cert_file" json:"cert_file"`
	KeyFile  string `toml:"key_file" json:"key_file"`

	// "TLS1.2" (default) or "TLS1.3"
	MinVersion string `toml:"min_version" json:"min_version"`
}

type RateLimitConfig struct {
	// Enable rate limiting
	Enabled bool `toml:"enabled" json:"enabled"`

	// Requests per second per client IP
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`

	// Burst size (token bucket)
	BurstSize int64 `toml:"burst_size" json:"burst_size"`

	// Bound on per-IP state
	MaxTrackedIPs int64 `toml:"max_tracked_ips" json:"max_tracked_ips"`

	// Response when rate limited
	ResponseCode    int64  `toml:"response_code" json:"response_code"`       // Default: 429
	ResponseMessage string `toml:"response_message" json:"response_message"` // Default: "Rate limit exceeded"
}
