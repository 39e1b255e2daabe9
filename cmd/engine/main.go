package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/skylens/auction-intel/internal/api"
	"github.com/skylens/auction-intel/internal/db"
	"github.com/skylens/auction-intel/internal/ingest"
	"github.com/skylens/auction-intel/internal/recommend"
	"github.com/skylens/auction-intel/internal/upstream"
)

const shutdownTimeout = 20 * time.Second

func main() {
	log.Println("Starting SkyLens Auction Intelligence Engine...")

	// ─── Required Environment Variables ─────────────────────────────────
	// All credentials MUST come from environment variables. No fallback
	// defaults for security-sensitive values. Use a .env file for local
	// development: cp .env.example .env && edit .env
	// ────────────────────────────────────────────────────────────────────

	dbUrl := requireEnv("DATABASE_URL")

	dbConn, err := db.Connect(dbUrl)
	if err != nil {
		log.Fatalf("FATAL: Failed to connect to PostgreSQL: %v", err)
	}
	defer dbConn.Close()
	if err := dbConn.InitSchema(); err != nil {
		log.Fatalf("FATAL: DB schema init failed: %v", err)
	}

	// The client appends /auctions itself; UPSTREAM_URL is the API base.
	feedURL := getEnvOrDefault("UPSTREAM_URL", "https://api.hypixel.net/v2/skyblock")
	feedKey := os.Getenv("UPSTREAM_API_KEY")
	feed := upstream.NewClient(feedURL, feedKey)

	// Setup WebSocket Hub
	wsHub := api.NewHub()
	go wsHub.Run()

	ingestCfg := ingest.Config{
		Interval:    durationEnvMs("INGEST_INTERVAL_MS", 120_000),
		MaxPages:    intEnv("MAX_PAGES", 200),
		UnseenGrace: durationEnvMs("UNSEEN_GRACE_MS", 60_000),
	}
	loop := ingest.NewLoop(feed, dbConn, wsHub, ingestCfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One-shot mode runs a single ingest cycle and exits; useful for cron
	// driven deployments and smoke tests.
	if os.Getenv("INGEST_ONESHOT") == "1" {
		loop.RunOnce(ctx)
		log.Println("One-shot ingest cycle complete, exiting")
		return
	}

	loopDone := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(loopDone)
	}()

	aliveWindow := durationEnvMs("ALIVE_WINDOW_MS", 480_000)
	rec := recommend.New(dbConn, aliveWindow)

	r := api.SetupRouter(dbConn, rec, wsHub)

	port := getEnvOrDefault("PORT", "5339")
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		log.Printf("Engine running on :%s\n", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutdown signal received, draining...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: HTTP shutdown incomplete: %v", err)
	}

	// Let an in-flight ingest cycle finish, bounded by the same drain cap.
	select {
	case <-loopDone:
	case <-shutdownCtx.Done():
		log.Println("Warning: ingest cycle still running at drain deadline, abandoning")
	}
	log.Println("Engine stopped")
}

// requireEnv reads a required environment variable and exits if it is not set.
// This prevents the binary from starting with missing critical configuration.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set. "+
			"Copy .env.example to .env and fill in your values: cp .env.example .env", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// intEnv parses an integer setting, falling back on absence or garbage.
func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: %s=%q is not a number, using %d", key, raw, fallback)
		return fallback
	}
	return n
}

// durationEnvMs parses a millisecond setting into a duration.
func durationEnvMs(key string, fallbackMs int) time.Duration {
	return time.Duration(intEnv(key, fallbackMs)) * time.Millisecond
}
