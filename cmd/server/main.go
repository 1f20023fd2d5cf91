package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"amenity-booking-service/internal/booking"
	"amenity-booking-service/internal/calendar"
	"amenity-booking-service/internal/config"
	"amenity-booking-service/internal/server"
	"amenity-booking-service/internal/storage/postgres"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer pool.Close()

	store := postgres.New(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema bootstrap: %v", err)
	}
	if err := store.ValidateCompatibility(ctx); err != nil {
		log.Fatalf("database check: %v", err)
	}

	engine := booking.NewEngine(store)
	admin := booking.NewAdmin(store)
	cal := calendar.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	if cal == nil {
		log.Println("Google Calendar integration disabled (credentials not configured)")
	}

	handler := server.NewHandler(engine, admin, cal, store, cfg)
	router := server.NewRouter(cfg, handler)

	log.Printf("%s listening on %s", "amenity-booking-api", cfg.AppAddr)
	server.Run(router, cfg.AppAddr)
}
