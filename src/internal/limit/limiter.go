// FILE: trafficview/src/internal/limit/limiter.go
package limit

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"trafficview/src/internal/config"

	"github.com/lixenwraith/log"
	"golang.org/x/time/rate"
)

const (
	defaultMaxTrackedIPs = 10000
	staleTimeout         = 5 * time.Minute
)

// Limiter applies a per-client-IP request rate to the API
type Limiter struct {
	config config.RateLimitConfig
	logger *log.Logger

	ipLimiters map[string]*ipLimiter
	ipMu       sync.Mutex
	maxIPs     int

	// Statistics
	totalRequests   atomic.Uint64
	blockedRequests atomic.Uint64
	evicted         atomic.Uint64

	// Lifecycle management
	ctx         context.Context
	cancel      context.CancelFunc
	cleanupDone chan struct{}
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter, or nil when rate limiting is disabled.
func New(cfg *config.RateLimitConfig, logger *log.Logger) *Limiter {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	maxIPs := int(cfg.MaxTrackedIPs)
	if maxIPs <= 0 {
		maxIPs = defaultMaxTrackedIPs
	}

	l := &Limiter{
		config:      *cfg,
		logger:      logger,
		ipLimiters:  make(map[string]*ipLimiter),
		maxIPs:      maxIPs,
		ctx:         ctx,
		cancel:      cancel,
		cleanupDone: make(chan struct{}),
	}

	go l.cleanupLoop()

	l.logger.Info("msg", "Rate limiter initialized",
		"component", "limit",
		"requests_per_second", cfg.RequestsPerSecond,
		"burst_size", cfg.BurstSize,
		"max_tracked_ips", maxIPs)

	return l
}

func (l *Limiter) Shutdown() {
	if l == nil {
		return
	}

	l.cancel()

	select {
	case <-l.cleanupDone:
	case <-time.After(2 * time.Second):
		l.logger.Warn("msg", "Cleanup goroutine shutdown timeout", "component", "limit")
	}
}

// CheckHTTP reports whether a request from remoteAddr may proceed, and the
// response to send when it may not.
func (l *Limiter) CheckHTTP(remoteAddr string) (allowed bool, statusCode int, message string) {
	if l == nil {
		return true, 0, ""
	}

	l.totalRequests.Add(1)

	ip, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		ip = remoteAddr
	}

	if l.limiterFor(ip).Allow() {
		return true, 0, ""
	}

	l.blockedRequests.Add(1)
	statusCode = int(l.config.ResponseCode)
	if statusCode == 0 {
		statusCode = 429
	}
	message = l.config.ResponseMessage
	if message == "" {
		message = "Rate limit exceeded"
	}
	l.logger.Debug("msg", "Request rate limited",
		"component", "limit",
		"ip", ip)

	return false, statusCode, message
}

func (l *Limiter) limiterFor(ip string) *rate.Limiter {
	now := time.Now()

	l.ipMu.Lock()
	defer l.ipMu.Unlock()

	if lim, ok := l.ipLimiters[ip]; ok {
		lim.lastSeen = now
		return lim.limiter
	}

	if len(l.ipLimiters) >= l.maxIPs {
		l.evictOldestLocked()
	}

	burst := int(l.config.BurstSize)
	if burst < 1 {
		burst = 1
	}
	lim := &ipLimiter{
		limiter:  rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), burst),
		lastSeen: now,
	}
	l.ipLimiters[ip] = lim
	return lim.limiter
}

// evictOldestLocked drops the least recently seen IP.
func (l *Limiter) evictOldestLocked() {
	var oldestIP string
	var oldest time.Time
	for ip, lim := range l.ipLimiters {
		if oldestIP == "" || lim.lastSeen.Before(oldest) {
			oldestIP, oldest = ip, lim.lastSeen
		}
	}
	if oldestIP != "" {
		delete(l.ipLimiters, oldestIP)
		l.evicted.Add(1)
	}
}

// Returns rate limiter statistics
func (l *Limiter) GetStats() map[string]any {
	if l == nil {
		return map[string]any{
			"enabled": false,
		}
	}

	l.ipMu.Lock()
	activeIPs := len(l.ipLimiters)
	l.ipMu.Unlock()

	return map[string]any{
		"enabled":          true,
		"total_requests":   l.totalRequests.Load(),
		"blocked_requests": l.blockedRequests.Load(),
		"active_ips":       activeIPs,
		"evicted_ips":      l.evicted.Load(),
		"config": map[string]any{
			"requests_per_second": l.config.RequestsPerSecond,
			"burst_size":          l.config.BurstSize,
		},
	}
}

// Removes stale IP limiters
func (l *Limiter) cleanup() {
	now := time.Now()

	l.ipMu.Lock()
	defer l.ipMu.Unlock()

	cleaned := 0
	for ip, lim := range l.ipLimiters {
		if now.Sub(lim.lastSeen) > staleTimeout {
			delete(l.ipLimiters, ip)
			cleaned++
		}
	}

	if cleaned > 0 {
		l.logger.Debug("msg", "Cleaned up stale IP limiters",
			"component", "limit",
			"cleaned", cleaned,
			"remaining", len(l.ipLimiters))
	}
}

func (l *Limiter) cleanupLoop() {
	defer close(l.cleanupDone)

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}
