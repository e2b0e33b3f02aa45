package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	ratelimit "github.com/toggio/SimpleRateLimiter"
)

// Demo server capping concurrent /work requests across every replica that
// shares the Redis bucket. Run two copies against one Redis to see the
// shared limit in action.
func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	redisAddr := envOr("REDIS_ADDR", "127.0.0.1:6379")
	listenAddr := envOr("LISTEN_ADDR", ":8080")
	instance := uuid.NewString()

	store, err := ratelimit.NewRadixStore("tcp", redisAddr, 4)
	if err != nil {
		logger.Fatal("redis connect", zap.String("addr", redisAddr), zap.Error(err))
	}
	defer store.Close()

	cfg := ratelimit.DefaultConfig()
	cfg.MaxTokens = 5
	cfg.MinDelay = 50 * time.Millisecond
	cfg.MaxDelay = 300 * time.Millisecond

	key := ratelimit.DeriveKey("demo", "work")
	bucket, err := ratelimit.New(store, key, cfg)
	if err != nil {
		logger.Fatal("limiter init", zap.String("key", key), zap.Error(err))
	}
	limiter := ratelimit.NewTrackedLimiter(bucket, nil)

	logger.Info("demo server up",
		zap.String("instance", instance),
		zap.String("addr", listenAddr),
		zap.String("bucket", key),
		zap.Int64("max_tokens", cfg.MaxTokens))

	http.HandleFunc("/work", func(w http.ResponseWriter, r *http.Request) {
		ok, err := limiter.Acquire()
		if err != nil {
			logger.Error("acquire", zap.Error(err))
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		if !ok {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "over capacity", http.StatusTooManyRequests)
			return
		}
		defer func() {
			if err := limiter.Release(); err != nil {
				logger.Error("release", zap.Error(err))
			}
		}()

		time.Sleep(200 * time.Millisecond) // simulated work
		fmt.Fprintf(w, "done by %s\n", instance)
	})

	http.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		free, err := bucket.FreeTokens()
		if err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		counts := limiter.Snapshot()
		fmt.Fprintf(w, "free=%d granted=%d denied=%d acquire_errors=%d releases=%d\n",
			free, counts.Granted, counts.Denied, counts.AcquireErrors, counts.Releases)
	})

	if err := http.ListenAndServe(listenAddr, nil); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
