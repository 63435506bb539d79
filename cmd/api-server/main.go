// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"rankwise/internal/apiserver/server"
	"rankwise/internal/apiserver/user"
	"rankwise/internal/config"
	"rankwise/internal/shared/cache"
	redisCache "rankwise/internal/shared/cache/redis"
	"rankwise/internal/shared/mail"
	"rankwise/internal/shared/objstore"
	"rankwise/internal/shared/payment"
	"rankwise/internal/shared/storage/mongostore"
)

func main() {
	// 加载配置（自动加载 .env 与 configs/<env>.yaml）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 初始化 MongoDB（用户持久化）
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()
	log.Println("Connected to MongoDB")

	// 初始化分析历史缓存：有 Redis 用 Redis，否则内存回退
	var historyCache cache.Cache
	if cfg.RedisURL != "" {
		redisStore, err := redisCache.NewStoreFromURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		historyCache = redisStore
		log.Println("Connected to Redis")
	} else {
		historyCache = cache.NewMemoryCache()
		log.Println("REDIS_URL not set, using in-memory analysis history")
	}
	defer historyCache.Close()

	// 初始化 MinIO 头像存储（可选）
	var avatars user.AvatarStore
	if cfg.MinIO.Configured() {
		objClient, err := objstore.NewClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("Failed to create MinIO client: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := objClient.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to ensure MinIO bucket: %v", err)
		}
		cancel()
		avatars = objClient
		log.Println("Connected to MinIO")
	} else {
		log.Println("MinIO not configured, avatar upload disabled")
	}

	// 邮件与支付客户端（未配置时优雅降级）
	mailer := mail.NewClient(cfg.Mailgun)
	stripe := payment.NewClient(cfg.Stripe)

	metrics := server.NewMetrics("rankwise", prometheus.DefaultRegisterer)
	h := server.NewHandler(cfg, store, historyCache, avatars, mailer, stripe, metrics)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
