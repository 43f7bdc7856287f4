// Command main populates the configured store with demo data.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"thoughtwave/internal/bootstrap"
	"thoughtwave/internal/config"
	"thoughtwave/internal/seed"
	"thoughtwave/internal/service"
)

func main() {
	defaults := seed.DefaultOptions()
	fixturePath := flag.String("fixture", "", "YAML fixture to load instead of generated data (\"demo\" for the built-in set)")
	numUsers := flag.Int("users", defaults.Users, "Number of users to generate")
	thoughtsPerUser := flag.Int("thoughts", defaults.ThoughtsPerUser, "Thoughts per generated user")
	friendsPerUser := flag.Int("friends", defaults.FriendsPerUser, "Friend links attempted per generated user")
	reactionsPerThought := flag.Int("reactions", defaults.ReactionsPerThought, "Reactions per generated thought")
	randSeed := flag.Int64("seed", 0, "Random seed for generated content (0 for random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	store, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{DisableCache: true})
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer func() { _ = store.Close(ctx) }()

	seeder := seed.NewSeeder(
		service.NewUserService(store.Users, store.Thoughts, nil),
		service.NewThoughtService(store.Thoughts, store.Users, nil),
	)

	var summary *seed.Summary
	switch *fixturePath {
	case "":
		summary, err = seeder.Generate(ctx, seed.Options{
			Users:               *numUsers,
			ThoughtsPerUser:     *thoughtsPerUser,
			FriendsPerUser:      *friendsPerUser,
			ReactionsPerThought: *reactionsPerThought,
			Seed:                *randSeed,
		})
	default:
		var fx *seed.Fixture
		if *fixturePath == "demo" {
			fx, err = seed.DemoFixture()
		} else {
			fx, err = seed.LoadFixture(*fixturePath)
		}
		if err != nil {
			log.Fatalf("Failed to load fixture: %v", err)
		}
		summary, err = seeder.ApplyFixture(ctx, fx)
	}
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(summary)
}
