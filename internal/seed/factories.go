package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"wanderlust/internal/auth"
	"wanderlust/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password of every seeded account.
const DefaultPassword = "password123"

var tagPool = []string{
	"beach", "mountains", "city", "countryside", "cabin", "castle",
	"pool", "camping", "arctic", "farm", "lakefront", "trending",
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rnd  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory bound to db. db may be nil when opts.DryRun is set.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &Factory{
		db:   db,
		opts: opts,
		//nolint:gosec // seeding does not need crypto randomness
		rnd:    rand.New(rand.NewSource(seed)),
		nextID: 1000,
	}
}

// CreateUser persists a generated user. Overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Name:         gofakeit.Name(),
		Email:        fmt.Sprintf("%s.%d@example.com", gofakeit.Username(), gofakeit.Number(100, 999)),
		ProfilePhoto: fmt.Sprintf("https://i.pravatar.cc/300?u=%s", gofakeit.UUID()),
		Role:         models.RoleUser,
	}

	if f.opts.SkipBcrypt {
		user.Password = DefaultPassword
	} else {
		hash, err := auth.HashPassword(DefaultPassword)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Email)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildListing returns an unsaved listing owned by owner.
func (f *Factory) BuildListing(owner *models.User, overrides ...func(*models.Listing)) *models.Listing {
	city := gofakeit.City()
	listing := &models.Listing{
		Title:       fmt.Sprintf("%s %s in %s", gofakeit.AdjectiveDescriptive(), gofakeit.RandomString([]string{"Cottage", "Loft", "Villa", "Cabin", "Apartment", "Treehouse"}), city),
		Description: gofakeit.Paragraph(1, 3, 12, " "),
		Image: models.ListingImage{
			URL:      fmt.Sprintf("https://picsum.photos/seed/%s/800/500", gofakeit.UUID()),
			Filename: models.DefaultListingImageFilename,
		},
		Price:    int64(gofakeit.Number(40, 900)),
		Location: city,
		Country:  gofakeit.Country(),
		Tags:     f.pickTags(),
		OwnerID:  owner.ID,
	}

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	listing.CreatedAt = time.Now().Add(-time.Duration(f.rnd.Intn(maxDays*24)) * time.Hour)
	listing.UpdatedAt = listing.CreatedAt

	for _, override := range overrides {
		override(listing)
	}
	return listing
}

// CreateListingsBatch persists listings in a single statement.
func (f *Factory) CreateListingsBatch(listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, l := range listings {
			f.nextID++
			l.ID = f.nextID
		}
		log.Printf("[dry-run] CreateListingsBatch: %d listings (no DB write)", len(listings))
		return nil
	}
	return f.db.Omit("Owner", "Reviews").Create(&listings).Error
}

// CreateReview persists a generated review by author on listing.
func (f *Factory) CreateReview(listing *models.Listing, author *models.User) (*models.Review, error) {
	review := &models.Review{
		Rating:    f.rnd.Intn(models.MaxRating-models.MinRating+1) + models.MinRating,
		Content:   gofakeit.Sentence(gofakeit.Number(6, 18)),
		ListingID: listing.ID,
		OwnerID:   author.ID,
	}
	if f.opts.DryRun {
		f.nextID++
		review.ID = f.nextID
		return review, nil
	}
	if err := f.db.Omit("Owner").Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (f *Factory) pickTags() []string {
	n := f.rnd.Intn(3) + 1
	perm := f.rnd.Perm(len(tagPool))
	tags := make([]string, 0, n)
	for _, i := range perm[:n] {
		tags = append(tags, tagPool[i])
	}
	return tags
}
