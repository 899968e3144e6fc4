package main

import (
	"context"
	"log"
	"os"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/app/bootstrap"
)

func main() {
	ctx := context.Background()
	path := os.Getenv("LEASE_CONFIG")
	if path == "" {
		path = "configs/default.yaml"
	}
	runtime, err := bootstrap.NewRuntime(ctx, path)
	if err != nil {
		log.Fatalf("bootstrap worker runtime: %v", err)
	}
	if err := runtime.RunWorker(ctx); err != nil {
		log.Fatalf("run worker: %v", err)
	}
}
