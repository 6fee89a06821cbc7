package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chorock-rock/proto-bizblah/board"
	"github.com/chorock-rock/proto-bizblah/brand"
	"github.com/chorock-rock/proto-bizblah/community"
	"github.com/chorock-rock/proto-bizblah/config"
	"github.com/chorock-rock/proto-bizblah/counter"
	"github.com/chorock-rock/proto-bizblah/database"
	"github.com/chorock-rock/proto-bizblah/handlers"
	"github.com/chorock-rock/proto-bizblah/identity"
	"github.com/chorock-rock/proto-bizblah/realtime"
	"github.com/chorock-rock/proto-bizblah/routes"
	"github.com/chorock-rock/proto-bizblah/store/mongostore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	var connErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if connErr = database.Connect(cfg.MongoURI); connErr == nil {
			break
		}
		log.Printf("MongoDB connection attempt %d failed: %v", attempt, connErr)
		time.Sleep(time.Duration(attempt) * 2 * time.Second)
	}
	if connErr != nil {
		log.Fatalf("Could not connect to MongoDB: %v", connErr)
	}
	defer database.Disconnect()

	db := database.Client.Database(cfg.MongoDB)

	idxCtx, idxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(idxCtx, db); err != nil {
		log.Printf("Index creation failed, filtered queries may degrade: %v", err)
	}
	idxCancel()

	st := mongostore.New(db)

	handlers.Setup(handlers.Deps{
		Store:             st,
		Board:             board.NewService(st),
		Community:         community.NewService(st),
		Brands:            brand.NewResolver(st),
		Guard:             identity.NewGuard(st),
		Counters:          counter.New(st),
		JWTSecret:         cfg.JWTSecret,
		AdminPasswordHash: cfg.AdminPasswordHash,
	})

	hub := realtime.NewHub(st)
	go hub.Start()

	r := routes.SetupRouter(cfg, hub)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
