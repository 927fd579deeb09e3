package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a rated comment on exactly one listing.
type Review struct {
	ID        uint      `gorm:"primaryKey" json:"_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ListingID uint      `gorm:"not null;index" json:"listing"`
	OwnerID   uint      `gorm:"not null;index" json:"-"`
	Owner     *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy reports whether userID owns the review.
func (r *Review) OwnedBy(userID uint) bool {
	return r != nil && r.OwnerID == userID
}
