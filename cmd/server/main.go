package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/domain-manager/internal/api"
	"github.com/ignite/domain-manager/internal/config"
	"github.com/ignite/domain-manager/internal/dnsprobe"
	"github.com/ignite/domain-manager/internal/pkg/distlock"
	"github.com/ignite/domain-manager/internal/registrar"
	"github.com/ignite/domain-manager/internal/registry"
	"github.com/ignite/domain-manager/internal/verify"
	"github.com/ignite/domain-manager/internal/warmup"
	"github.com/ignite/domain-manager/internal/zone"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("Ignite Domain Manager starting")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("DATABASE_URL") != "" {
		log.Println("[config] DATABASE_URL env override active")
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	// Database
	if cfg.Database.URL == "" {
		log.Fatal("database url is required (set DATABASE_URL or database.url)")
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := registry.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations applied")

	// Redis (optional, used for distributed locks)
	var redisClient *redis.Client
	if cfg.Redis.Enabled && cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis unavailable, falling back to Postgres advisory locks: %v", err)
			redisClient = nil
		} else {
			log.Printf("Redis connected at %s", cfg.Redis.Addr)
		}
	}
	locks := distlock.NewFactory(redisClient, db, 2*time.Minute)

	// Core services
	store := registry.NewStore(db, cfg.DNS.DefaultSelector)
	prober := dnsprobe.New(cfg.DNS.Resolver, cfg.DNS.ProbeTimeout())
	engine := verify.New(store, prober, locks, cfg.Verification.MaxAttempts)

	// Warmup scheduler
	loc, err := time.LoadLocation(cfg.Warmup.Timezone)
	if err != nil {
		log.Printf("Warning: invalid timezone %q, using UTC: %v", cfg.Warmup.Timezone, err)
		loc = time.UTC
	}
	scheduler := warmup.NewScheduler(store, locks, warmup.Options{
		Interval:       cfg.Warmup.SweepInterval(),
		MaxDay:         cfg.Warmup.MaxDay,
		Location:       loc,
		PauseThreshold: cfg.Warmup.BouncePauseThreshold,
	})
	scheduler.Start(ctx)
	log.Printf("Warmup scheduler started (interval: %s, max day: %d, tz: %s)",
		cfg.Warmup.SweepInterval(), cfg.Warmup.MaxDay, loc)

	// Registrar gateway (optional)
	var reg api.Registrar
	if cfg.Registrar.Enabled && cfg.Registrar.BaseURL != "" {
		reg = registrar.NewClient(registrar.Config{
			Provider: cfg.Registrar.Provider,
			BaseURL:  cfg.Registrar.BaseURL,
			APIKey:   cfg.Registrar.APIKey,
			Timeout:  cfg.Registrar.Timeout(),
		})
		log.Printf("Registrar gateway enabled (provider: %s)", cfg.Registrar.Provider)
	} else {
		log.Println("Registrar gateway not configured (search/purchase disabled)")
	}

	// External zone manager (optional)
	var zones zone.Manager = zone.Noop{}
	if cfg.Route53.Enabled {
		r53, err := zone.NewRoute53(ctx, cfg.Route53)
		if err != nil {
			log.Printf("Warning: Route 53 init failed, zone management disabled: %v", err)
		} else {
			zones = r53
			log.Printf("Route 53 zone manager enabled (region: %s)", cfg.Route53.Region)
		}
	}

	server := api.NewServer(store, engine, reg, zones)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		log.Printf("Starting server on %s", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	cancel()
	scheduler.Stop()
	if redisClient != nil {
		redisClient.Close()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
