// Package seed populates the database with demo data for development and testing.
package seed

import (
	"fmt"
	"log"

	"wanderlust/internal/models"

	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers          int
	NumListings       int
	ReviewsPerListing int
	MaxDays           int
	ShouldClean       bool
	SkipBcrypt        bool
	DryRun            bool
	RandomSeed        int64
}

// DemoEmail is the fixed account created by every run so the API can be tried
// without signing up.
const DemoEmail = "demo@wanderlust.dev"

// Result summarizes what a run created.
type Result struct {
	Users    []*models.User
	Listings []*models.Listing
	Reviews  int
}

// Seed populates db according to opts.
func Seed(db *gorm.DB, opts Options) (*Result, error) {
	if opts.NumUsers < 1 {
		opts.NumUsers = 1
	}
	log.Printf("🌱 Seeding %d users and %d listings...", opts.NumUsers, opts.NumListings)

	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(db); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f := NewFactory(db, opts)
	res := &Result{}

	demo, err := f.demoUser()
	if err != nil {
		return nil, fmt.Errorf("failed to create demo user: %w", err)
	}
	res.Users = append(res.Users, demo)
	for len(res.Users) < opts.NumUsers {
		u, err := f.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("failed to create users: %w", err)
		}
		res.Users = append(res.Users, u)
	}
	log.Printf("✓ %d users available", len(res.Users))

	listings := make([]*models.Listing, 0, opts.NumListings)
	for i := 0; i < opts.NumListings; i++ {
		owner := res.Users[i%len(res.Users)]
		listings = append(listings, f.BuildListing(owner))
	}
	if err := f.CreateListingsBatch(listings); err != nil {
		return nil, fmt.Errorf("failed to create listings: %w", err)
	}
	res.Listings = listings
	log.Printf("✓ %d listings created", len(listings))

	for i, l := range listings {
		for j := 0; j < opts.ReviewsPerListing; j++ {
			author := res.Users[(i+j+1)%len(res.Users)]
			if _, err := f.CreateReview(l, author); err != nil {
				return nil, fmt.Errorf("failed to create reviews: %w", err)
			}
			res.Reviews++
		}
	}
	log.Printf("✓ %d reviews created", res.Reviews)

	log.Println("🎉 Database seeding completed successfully!")
	return res, nil
}

// demoUser returns the demo account, creating it on first run.
func (f *Factory) demoUser() (*models.User, error) {
	if !f.opts.DryRun {
		var existing models.User
		err := f.db.Where("email = ?", DemoEmail).Limit(1).Find(&existing).Error
		if err != nil {
			return nil, err
		}
		if existing.ID != 0 {
			return &existing, nil
		}
	}
	return f.CreateUser(func(u *models.User) {
		u.Name = "Demo Traveler"
		u.Email = DemoEmail
		u.IsValidatedEmail = true
	})
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	return db.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			"DELETE FROM user_bookmarks",
			"DELETE FROM reviews",
			"DELETE FROM listings",
			"DELETE FROM users",
		} {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
