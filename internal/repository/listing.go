package repository

import (
	"context"
	"strings"

	"wanderlust/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListingRepository defines persistence operations for listings.
type ListingRepository interface {
	List(ctx context.Context) ([]models.Listing, error)
	Search(ctx context.Context, query string) ([]models.Listing, error)
	GetByID(ctx context.Context, id uint) (*models.Listing, error)
	GetDetailed(ctx context.Context, id uint) (*models.Listing, error)
	GetOwnerID(ctx context.Context, id uint) (uint, error)
	Create(ctx context.Context, listing *models.Listing) error
	Update(ctx context.Context, listing *models.Listing) error
	Delete(ctx context.Context, id uint) error
	ReassignOwner(ctx context.Context, fromUserID, toUserID uint) (int64, error)
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository returns a new ListingRepository implementation.
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) List(ctx context.Context) ([]models.Listing, error) {
	listings := []models.Listing{}
	err := r.db.WithContext(ctx).
		Preload("Owner", ownerColumns).
		Order("id ASC").
		Find(&listings).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

var searchColumns = []string{"title", "description", "location", "country"}

// tagMatch is a condition true when any element of the JSON tags array
// contains the bound pattern. The array text itself is never matched.
func (r *listingRepository) tagMatch() string {
	if r.db.Dialector.Name() == "postgres" {
		return `EXISTS (SELECT 1 FROM jsonb_array_elements_text(COALESCE(NULLIF(listings.tags, ''), '[]')::jsonb) AS tag(value) WHERE LOWER(tag.value) LIKE ? ESCAPE '\')`
	}
	return `EXISTS (SELECT 1 FROM json_each(listings.tags) WHERE LOWER(json_each.value) LIKE ? ESCAPE '\')`
}

// Search matches query case-insensitively as a substring of any searchable
// column or of any single tag. A blank query is the full collection.
func (r *listingRepository) Search(ctx context.Context, query string) ([]models.Listing, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.List(ctx)
	}

	pattern := containsPattern(query)
	conds := make([]string, 0, len(searchColumns)+1)
	args := make([]interface{}, 0, len(searchColumns)+1)
	for _, col := range searchColumns {
		conds = append(conds, "LOWER(listings."+col+`) LIKE ? ESCAPE '\'`)
		args = append(args, pattern)
	}
	conds = append(conds, r.tagMatch())
	args = append(args, pattern)

	listings := []models.Listing{}
	err := r.db.WithContext(ctx).
		Where(strings.Join(conds, " OR "), args...).
		Preload("Owner", ownerColumns).
		Order("id ASC").
		Find(&listings).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

func (r *listingRepository) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Preload("Owner", ownerColumns).
		First(&listing, id).Error
	if err != nil {
		return nil, lookupError(err, "Listing")
	}
	return &listing, nil
}

// GetDetailed loads the listing with its owner and every review's owner.
func (r *listingRepository) GetDetailed(ctx context.Context, id uint) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Preload("Owner", ownerColumns).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Reviews.Owner", ownerColumns).
		First(&listing, id).Error
	if err != nil {
		return nil, lookupError(err, "Listing")
	}
	return &listing, nil
}

func (r *listingRepository) GetOwnerID(ctx context.Context, id uint) (uint, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Select("id", "owner_id").First(&listing, id).Error; err != nil {
		return 0, lookupError(err, "Listing")
	}
	return listing.OwnerID, nil
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(listing).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Update writes every column of listing. Last write wins.
func (r *listingRepository) Update(ctx context.Context, listing *models.Listing) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(listing).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the listing together with its reviews and bookmarks.
func (r *listingRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Exec("DELETE FROM user_bookmarks WHERE listing_id = ?", id).Error; err != nil {
			return models.NewInternalError(err)
		}
		res := tx.Delete(&models.Listing{}, id)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Listing")
		}
		return nil
	})
}

// ReassignOwner moves every listing owned by fromUserID to toUserID.
func (r *listingRepository) ReassignOwner(ctx context.Context, fromUserID, toUserID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("owner_id = ?", fromUserID).
		Update("owner_id", toUserID)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
