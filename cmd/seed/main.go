// Command main runs the database seeder for Wanderlust.
package main

import (
	"flag"
	"log"

	"wanderlust/internal/config"
	"wanderlust/internal/database"
	"wanderlust/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of users to create (including the demo account)")
	numListings := flag.Int("listings", 30, "Number of listings to create")
	reviews := flag.Int("reviews", 3, "Reviews per listing")
	maxDays := flag.Int("days", 90, "Spread creation dates over this many past days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Skip bcrypt for seeded passwords (local use only)")
	dryRun := flag.Bool("dry-run", false, "Build records without writing them")
	randomSeed := flag.Int64("seed", 0, "Random seed for repeatable data (0 picks one)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d listings, %d reviews each, clean=%v\n",
		*numUsers, *numListings, *reviews, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	res, err := seed.Seed(db, seed.Options{
		NumUsers:          *numUsers,
		NumListings:       *numListings,
		ReviewsPerListing: *reviews,
		MaxDays:           *maxDays,
		ShouldClean:       *shouldClean,
		SkipBcrypt:        *fast,
		DryRun:            *dryRun,
		RandomSeed:        *randomSeed,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d listings, %d reviews.", len(res.Users), len(res.Listings), res.Reviews)
	log.Printf("📧 Demo login: %s / %s", seed.DemoEmail, seed.DefaultPassword)
}
