package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/tabsplit/tabsplit/internal/auth"
	"github.com/tabsplit/tabsplit/internal/engine"
	"github.com/tabsplit/tabsplit/internal/middleware"
	"github.com/tabsplit/tabsplit/internal/service"
	"github.com/tabsplit/tabsplit/internal/storage/sqlite"
	"github.com/tabsplit/tabsplit/pkg/logging"
)

const defaultPort = "8080"

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/orders.db")
	port := getEnv("PORT", defaultPort)
	sessionSecret := getEnv("SESSION_SECRET", "")
	staffPINHash := getEnv("STAFF_PIN_HASH", "")

	if sessionSecret == "" || staffPINHash == "" {
		slog.Error("SESSION_SECRET and STAFF_PIN_HASH must be set")
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", dbPath)

	eng, err := engine.New(context.Background(), store)
	if err != nil {
		slog.Error("failed to restore engine", "error", err)
		os.Exit(1)
	}

	sessions := auth.NewSessionManager(sessionSecret, 12*time.Hour)
	pins := auth.NewPINVerifier(staffPINHash)

	mux := http.NewServeMux()
	service.NewOrderService(eng, sessions, pins).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.Logging(middleware.Metrics(corsMiddleware(mux)))

	// h2c serves HTTP/2 without TLS for clients behind the LAN proxy.
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	addr := fmt.Sprintf(":%s", port)
	slog.Info("server starting", "address", addr)
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// corsMiddleware adds CORS headers for browser access from the table
// tablets.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
