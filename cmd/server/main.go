package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/sudo-init-do/localmart/internal/cache"
	"github.com/sudo-init-do/localmart/internal/httpapi"
	"github.com/sudo-init-do/localmart/internal/listing"
	"github.com/sudo-init-do/localmart/internal/order"
	"github.com/sudo-init-do/localmart/internal/store/postgres"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()

	st, err := postgres.Connect(ctx, postgres.DSNFromEnv())
	if err != nil {
		log.Fatalf("unable to connect to database: %v", err)
	}
	log.Println("connected to postgres")

	var listingCache *cache.Listings
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("redis unreachable, running without listing cache: %v", err)
		} else {
			listingCache = cache.NewListings(rdb)
			log.Println("listing cache enabled")
		}
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	engine := order.NewEngine(st)
	e := httpapi.New(httpapi.Config{
		JWTSecret: []byte(secret),
		Listings:  listing.NewService(st),
		Orders:    engine,
		Admin:     order.NewAdminService(engine),
		Cache:     listingCache,
		Store:     st,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	go func() {
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Drain in-flight requests, then the pool, on shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	st.Close()
	log.Println("shutdown complete")
}
