package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/savoria/api/internal/config"
	"github.com/savoria/api/internal/database"
	"github.com/savoria/api/internal/router"
	"github.com/savoria/api/internal/storage"
	"github.com/savoria/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	queries := database.New(pool)

	images, err := storage.NewImageStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Unable to init image store: %v", err)
	}

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(cfg, queries, pool, hub, images)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
