package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wayfare/config"
	"wayfare/internal/cache"
	"wayfare/internal/database"
	"wayfare/internal/geocode"
	"wayfare/internal/middleware"
	"wayfare/internal/router"
	"wayfare/internal/service"
	"wayfare/pkg/cloudinary"

	"gopkg.in/natefinch/lumberjack.v2"
)

func setupLogging(cfg *config.LoggingConfig) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if cfg.File == "" {
		return
	}
	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}))
}

func main() {
	cfg := config.Load()
	setupLogging(&cfg.Logging)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := database.SeedAdmin(db, &cfg.Database); err != nil {
		log.Printf("[SEED] admin: %v", err)
	}
	if err := database.SeedTags(db); err != nil {
		log.Printf("[SEED] tags: %v", err)
	}

	var c cache.Cache = cache.NewMemory(cfg.Cache.MemoryEntries)
	var redisCache *cache.RedisCache
	if cfg.Cache.Enabled {
		rc, err := cache.NewRedis(context.Background(), cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.KeyPrefix)
		if err != nil {
			log.Printf("[CACHE] redis unavailable, using in-process cache: %v", err)
		} else {
			redisCache = rc
			c = rc
			log.Printf("[CACHE] redis at %s", cfg.Cache.Addr)
		}
	}

	var geocoder service.Geocoder
	if cfg.Geocoder.Enabled {
		geocoder = geocode.New(cfg.Geocoder.Server, c, cfg.Geocoder.MinInterval, cfg.Geocoder.NegativeTTL)
	} else {
		log.Printf("[GEOCODE] disabled: places without coordinates stay unresolved")
	}

	var cloud cloudinary.Client
	if cfg.Cloudinary.CloudName != "" {
		cloud, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
	} else {
		log.Printf("[PHOTOS] disabled: set CLOUDINARY_CLOUD_NAME to enable uploads")
	}

	limiter := middleware.NewInMemoryRateLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow)
	defer limiter.Stop()

	engine := router.Setup(cfg, router.Deps{
		DB:       db,
		Cache:    c,
		Geocoder: geocoder,
		Cloud:    cloud,
		Limiter:  limiter,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	if redisCache != nil {
		_ = redisCache.Close()
	}
	fmt.Println("server stopped")
}
