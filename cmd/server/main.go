package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"poster-gateway/gallery"
	"poster-gateway/kv"
	"poster-gateway/middleware/admission"
	"poster-gateway/middleware/admission/application"
	"poster-gateway/middleware/admission/domain"
	"poster-gateway/middleware/admission/infra"
	"poster-gateway/pipeline"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var store kv.Store
	if cfg.redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.redisAddr,
			Password: cfg.redisPassword,
			DB:       cfg.redisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			log.Fatalf("redis ping error: %v", err)
		}
		store = kv.NewRedis(rdb, kv.WithPrefix(cfg.kvPrefix))

		if cfg.statsEnabled {
			cfg.stats = infra.NewRedisStatsStore(rdb)
		}
	} else {
		// Sem Redis o estado de admissão vive só neste processo.
		// Serve para desenvolvimento, nunca para produção.
		log.Printf("WARNING: REDIS_ADDR empty, using in-memory kv store")
		store = kv.NewMemory()
	}

	verifier := infra.NewHTTPLicenseVerifier(cfg.licenseVerifyURL, cfg.licenseAPIKey)
	captcha := infra.NewHTTPCaptchaVerifier(cfg.turnstileVerifyURL, cfg.turnstileSecret)
	sessions := infra.NewSessionStore(store, verifier, cfg.hashSalt)

	var limiter domain.Strategy
	switch cfg.rateStrategy {
	case "bucket":
		limiter = infra.NewTokenBucket(store, cfg.bucketCapacity, cfg.bucketRefillPerSec)
	default:
		limiter = infra.NewFixedWindow(store, cfg.rateLimit, cfg.rateWindow)
	}

	gate := application.Service{
		Sessions:   sessions,
		Captcha:    captcha,
		Limiter:    limiter,
		Quota:      infra.NewDailyQuota(store),
		Salt:       cfg.hashSalt,
		RetryAfter: cfg.retryAfter,
	}

	srvHandlers := &server{
		gate:          gate,
		sessions:      sessions,
		verifier:      verifier,
		pipe: &pipeline.Pipeline{
			Steps: pipeline.NewHTTPStepSource(cfg.stepSourceURL, cfg.stepSourceAPIKey),
			Blobs: pipeline.NewHTTPBlobStore(cfg.blobBaseURL, cfg.blobToken),
			KV:    store,
		},
		gal:           &gallery.Service{KV: store},
		trustXFF:      cfg.trustXFF,
		secureCookies: !cfg.devMode,
	}

	local := infra.NewLocalStore(cfg.localRPS, cfg.localBurst)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	local.StartJanitor(ctx)

	h := srvHandlers.routes(admission.ConcurrencyOptions{
		Max:            cfg.composeMax,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.composeAcquireTimeout,
	})
	h = admission.Middleware(admission.Options{
		Local:               local,
		Stats:               cfg.stats,
		TrustXForwardedFor:  cfg.trustXFF,
		RejectStatus:        http.StatusTooManyRequests,
		RetryAfter:          cfg.retryAfter,
		AddRateLimitHeaders: cfg.addHeaders,
	})(h)

	srv := &http.Server{
		Addr:              cfg.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute, // geração de pôster é lenta
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("poster gateway listening on %s", cfg.listenAddr)
	log.Printf("rate: strategy=%s limit=%d window=%s bucket=%.1f/%.3f", cfg.rateStrategy, cfg.rateLimit, cfg.rateWindow, cfg.bucketCapacity, cfg.bucketRefillPerSec)
	log.Printf("local prefilter: rps=%.3f burst=%d", cfg.localRPS, cfg.localBurst)
	log.Printf("compose: max=%d acquireTimeout=%s", cfg.composeMax, cfg.composeAcquireTimeout)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

type config struct {
	listenAddr string
	devMode    bool

	hashSalt string

	redisAddr     string
	redisPassword string
	redisDB       int
	kvPrefix      string

	rateStrategy       string
	rateLimit          int
	rateWindow         time.Duration
	bucketCapacity     float64
	bucketRefillPerSec float64
	retryAfter         time.Duration

	localRPS   float64
	localBurst int
	trustXFF   bool
	addHeaders bool

	composeMax            int
	composeAcquireTimeout time.Duration

	licenseVerifyURL   string
	licenseAPIKey      string
	turnstileVerifyURL string
	turnstileSecret    string
	stepSourceURL      string
	stepSourceAPIKey   string
	blobBaseURL        string
	blobToken          string

	statsEnabled bool
	stats        domain.StatsStore
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.listenAddr = getenvDefault("LISTEN_ADDR", ":8080")
	cfg.devMode = getenvBoolDefault("DEV_MODE", false)

	// IMPORTANTE: o salt alimenta o HMAC das chaves de identidade.
	// Curto demais = chave previsível; rejeitamos na carga, nunca
	// em tempo de request.
	cfg.hashSalt = os.Getenv("HASH_SALT")
	if len(cfg.hashSalt) < 16 {
		return config{}, errors.New("HASH_SALT is required and must be at least 16 bytes")
	}

	cfg.redisAddr = getenvDefault("REDIS_ADDR", "")
	cfg.redisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.redisDB = getenvIntDefault("REDIS_DB", 0)
	cfg.kvPrefix = getenvDefault("KV_PREFIX", "postergw")

	cfg.rateStrategy = strings.ToLower(getenvDefault("RATE_STRATEGY", "window"))
	if cfg.rateStrategy != "window" && cfg.rateStrategy != "bucket" {
		return config{}, errors.New(`RATE_STRATEGY must be "window" or "bucket"`)
	}
	cfg.rateLimit = getenvIntDefault("RATE_LIMIT", 5)
	cfg.rateWindow = getenvDurationDefault("RATE_WINDOW", time.Minute)
	cfg.bucketCapacity = getenvFloatDefault("BUCKET_CAPACITY", 5)
	cfg.bucketRefillPerSec = getenvFloatDefault("BUCKET_REFILL_PER_SEC", 0.1)
	cfg.retryAfter = getenvDurationDefault("RETRY_AFTER", 1*time.Second)

	cfg.localRPS = getenvFloatDefault("LOCAL_RPS", 20)
	cfg.localBurst = getenvIntDefault("LOCAL_BURST", 40)
	cfg.trustXFF = getenvBoolDefault("TRUST_XFF", false)
	cfg.addHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", false)

	cfg.composeMax = getenvIntDefault("COMPOSE_MAX", 4)
	cfg.composeAcquireTimeout = getenvDurationDefault("COMPOSE_ACQUIRE_TIMEOUT", 10*time.Second)

	cfg.licenseVerifyURL = os.Getenv("LICENSE_VERIFY_URL")
	cfg.licenseAPIKey = os.Getenv("LICENSE_API_KEY")
	cfg.turnstileVerifyURL = getenvDefault("TURNSTILE_VERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify")
	cfg.turnstileSecret = os.Getenv("TURNSTILE_SECRET_KEY")
	cfg.stepSourceURL = os.Getenv("STEP_SOURCE_URL")
	cfg.stepSourceAPIKey = os.Getenv("STEP_SOURCE_API_KEY")
	cfg.blobBaseURL = os.Getenv("BLOB_BASE_URL")
	cfg.blobToken = os.Getenv("BLOB_TOKEN")

	cfg.statsEnabled = getenvBoolDefault("STATS_ENABLED", false)
	if cfg.statsEnabled && cfg.redisAddr == "" {
		return config{}, errors.New("STATS_ENABLED=true requires REDIS_ADDR")
	}

	for _, required := range []struct{ name, value string }{
		{"LICENSE_VERIFY_URL", cfg.licenseVerifyURL},
		{"LICENSE_API_KEY", cfg.licenseAPIKey},
		{"TURNSTILE_SECRET_KEY", cfg.turnstileSecret},
		{"STEP_SOURCE_URL", cfg.stepSourceURL},
		{"BLOB_BASE_URL", cfg.blobBaseURL},
		{"BLOB_TOKEN", cfg.blobToken},
	} {
		if strings.TrimSpace(required.value) == "" {
			return config{}, errors.New(required.name + " is required")
		}
	}

	if cfg.rateLimit <= 0 {
		return config{}, errors.New("RATE_LIMIT must be > 0")
	}
	if cfg.rateWindow <= 0 {
		return config{}, errors.New("RATE_WINDOW must be > 0")
	}
	if cfg.bucketCapacity <= 0 {
		return config{}, errors.New("BUCKET_CAPACITY must be > 0")
	}
	if cfg.bucketRefillPerSec < 0 {
		return config{}, errors.New("BUCKET_REFILL_PER_SEC must be >= 0")
	}
	if cfg.composeMax < 0 {
		return config{}, errors.New("COMPOSE_MAX must be >= 0")
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
