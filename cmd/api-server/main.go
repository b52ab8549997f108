package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"libraryhub/internal/activity"
	"libraryhub/internal/books"
	"libraryhub/internal/borrowers"
	"libraryhub/internal/feed"
	"libraryhub/internal/storage"
	"libraryhub/internal/storage/memstore"
	"libraryhub/internal/storage/sqlitestore"
	"libraryhub/internal/suggest"
	"libraryhub/internal/telemetry"
	"libraryhub/pkg/database"
	"libraryhub/pkg/utils"
)

func main() {
	cfg := utils.LoadServerConfig()

	var (
		db      *sql.DB
		store   storage.Store
		sink    telemetry.Store
		dbLabel string
	)
	if cfg.InMemory {
		store = memstore.New()
		sink = telemetry.NewMemSink()
		dbLabel = "memory"
		log.Println("running against the in-memory store; data is not persisted")
	} else {
		dbCfg := database.DefaultConfig()
		db = database.MustOpen(dbCfg)
		if err := database.Migrate(db); err != nil {
			log.Fatalf("db migrate failed: %v", err)
		}
		store = sqlitestore.New(db)
		sink = telemetry.NewRepo(db)
		dbLabel = dbCfg.Path
	}
	defer store.Close()

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	router.Use(corsMiddleware())

	hub := feed.NewHub()
	router.GET("/ws/activity", feed.WSHandler(hub))
	tcpSrv := feed.NewServer(cfg.FeedAddr, hub)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbLabel})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := db.PingContext(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":      "not_ready",
					"db_error":    err.Error(),
					"tcp_clients": stats.TCPClients,
					"ws_clients":  stats.WSClients,
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	api := router.Group("/api")

	svc := books.NewService(store, hub)
	books.NewHandler(svc).RegisterRoutes(api)
	activity.NewHandler(store).RegisterRoutes(api)
	borrowers.NewHandler(store).RegisterRoutes(api)
	suggest.NewHandler(store).RegisterRoutes(api)
	telemetry.NewHandler(sink).RegisterRoutes(api)

	httpSrv := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", cfg.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("feed shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}

// corsMiddleware keeps the React dev server (different origin) working.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
