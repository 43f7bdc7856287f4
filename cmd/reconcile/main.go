// Command main repairs user and thought references left inconsistent by
// partially failed writes and by user deletes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"thoughtwave/internal/bootstrap"
	"thoughtwave/internal/config"
	"thoughtwave/internal/service"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Report what would change without writing")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	// Repairs must go through the cache decorators; the server reads users from Redis.
	store, rdb, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = store.Close(ctx) }()
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	report, err := service.NewReconciler(store.Users, store.Thoughts).Run(ctx, *dryRun)
	if err != nil {
		log.Fatalf("Reconciliation failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}
