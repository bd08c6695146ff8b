package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sebasongjog/config"
	"sebasongjog/database"
	"sebasongjog/handlers"
	"sebasongjog/routes"
	"sebasongjog/websocket"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		publicKey, privateKey, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			log.Printf("generate VAPID keys: %v (push notifications disabled)", err)
		} else {
			cfg.VAPIDPublicKey = publicKey
			cfg.VAPIDPrivateKey = privateKey
			log.Println("generated ephemeral VAPID keys; set VAPID_PUBLIC_KEY/VAPID_PRIVATE_KEY to persist them")
		}
	}

	// Acquire the database handle before accepting any traffic; a dead
	// database is fatal to startup.
	log.Println("connecting to MongoDB...")
	var db *database.DB
	var dbErr error
	for i := 1; i <= 3; i++ {
		db, dbErr = database.Connect(context.Background(), cfg.MongoURI, cfg.DBName)
		if dbErr == nil {
			break
		}
		log.Printf("MongoDB connection attempt %d failed: %v", i, dbErr)
		time.Sleep(2 * time.Second)
	}
	if dbErr != nil {
		log.Fatal("failed to connect to MongoDB: ", dbErr)
	}
	log.Println("connected to MongoDB")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.EnsureIndexes(ctx); err != nil {
		cancel()
		log.Fatal("failed to create indexes: ", err)
	}
	cancel()

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	hub := websocket.NewHub()
	go hub.Run()

	h := handlers.New(db, hub, cfg)
	router := routes.Setup(h, hub, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("forced shutdown: ", err)
	}
	if err := db.Disconnect(shutdownCtx); err != nil {
		log.Println("mongo disconnect: ", err)
	}

	log.Println("server stopped")
}
