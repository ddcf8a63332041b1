package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // API全般のレート（req/sec）。120/60 = 2 req/sec
	GeneralBurst    int           // API全般のバーストサイズ
	ContactRate     rate.Limit    // 問い合わせ送信のレート（req/sec）。5/60
	ContactBurst    int           // 問い合わせ送信のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min/user、問い合わせ送信 5 req/min/IP
func DefaultRateLimiterConfig() RateLimiterConfig {
	return PerMinuteRateLimiterConfig(120, 5)
}

// PerMinuteRateLimiterConfig は1分あたりのリクエスト数からレート制限設定を生成する。
// バーストサイズは1分あたりの上限と同じ値にする。
func PerMinuteRateLimiterConfig(generalPerMin, contactPerMin int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(generalPerMin) / 60.0),
		GeneralBurst:    generalPerMin,
		ContactRate:     rate.Limit(float64(contactPerMin) / 60.0),
		ContactBurst:    contactPerMin,
		CleanupInterval: 5 * time.Minute,
	}
}

// keyedLimiter はキーごとのレートリミッターとアクセス時刻を保持する。
type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterPool はキー（ユーザーIDまたはクライアントIP）ごとのリミッター集合。
type limiterPool struct {
	mu       sync.RWMutex
	limiters map[string]*keyedLimiter
	rate     rate.Limit
	burst    int
}

func newLimiterPool(r rate.Limit, burst int) *limiterPool {
	return &limiterPool{
		limiters: make(map[string]*keyedLimiter),
		rate:     r,
		burst:    burst,
	}
}

// get はキーのリミッターを取得または作成する。
func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.RLock()
	kl, exists := p.limiters[key]
	p.mu.RUnlock()

	if exists {
		p.mu.Lock()
		kl.lastAccess = time.Now()
		p.mu.Unlock()
		return kl.limiter
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// ダブルチェック
	if kl, exists := p.limiters[key]; exists {
		kl.lastAccess = time.Now()
		return kl.limiter
	}

	limiter := rate.NewLimiter(p.rate, p.burst)
	p.limiters[key] = &keyedLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}
	return limiter
}

func (p *limiterPool) count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.limiters)
}

// evict は最終アクセスがttlより古いエントリを削除する。
func (p *limiterPool) evict(now time.Time, ttl time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, kl := range p.limiters {
		if now.Sub(kl.lastAccess) > ttl {
			delete(p.limiters, key)
		}
	}
}

// RateLimiter はレート制限を管理する。
// 認証済みAPI全般のユーザー単位の制限と、問い合わせ送信のIP単位の制限の2種類を提供する。
type RateLimiter struct {
	config  RateLimiterConfig
	general *limiterPool
	contact *limiterPool
	stopCh  chan struct{}
	once    sync.Once
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		general: newLimiterPool(config.GeneralRate, config.GeneralBurst),
		contact: newLimiterPool(config.ContactRate, config.ContactBurst),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。複数回呼んでもよい。
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// GeneralMiddleware は認証済みAPI全般のレート制限ミドルウェアを返す。
// リクエストコンテキストにユーザーIDが含まれている必要がある（認証ミドルウェアの後に配置）。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				writeUnauthorized(w, "Authentication required")
				return
			}

			if !rl.general.get(userID).Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ContactMiddleware は問い合わせ送信のIP単位のレート制限ミドルウェアを返す。
// 認証不要のエンドポイントに配置する。
func (rl *RateLimiter) ContactMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			if !rl.contact.get(ip).Allow() {
				writeRateLimitResponse(w, rl.config.ContactRate)
				slog.Warn("rate limit exceeded",
					slog.String("client_ip", ip),
					slog.String("limit_type", "contact"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GeneralLimiterCount は現在管理されているAPI全般リミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) GeneralLimiterCount() int {
	return rl.general.count()
}

// ContactLimiterCount は現在管理されている問い合わせリミッターのエントリ数を返す。
func (rl *RateLimiter) ContactLimiterCount() int {
	return rl.contact.count()
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2
	now := time.Now()
	rl.general.evict(now, ttl)
	rl.contact.evict(now, ttl)
}

// clientIP はRemoteAddrからホスト部分を取り出す。
// プロキシ配下ではchiのRealIPミドルウェアでRemoteAddrを書き換えておく。
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := 1
	if r > 0 {
		retryAfterSec = int(math.Ceil(1.0 / float64(r)))
	}
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}
	writeRateLimited(w, strconv.Itoa(retryAfterSec))
}
