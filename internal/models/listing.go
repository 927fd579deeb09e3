package models

import "time"

// ListingImage references an image stored with the image host.
type ListingImage struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// DefaultListingImageFilename is used when a listing is created from a bare URL.
const DefaultListingImageFilename = "listingimage"

// Listing is a property or travel offer posted by its owner.
// Price is held in whole units of the single canonical currency.
type Listing struct {
	ID          uint         `gorm:"primaryKey" json:"_id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Image       ListingImage `gorm:"embedded;embeddedPrefix:image_" json:"image"`
	Price       int64        `gorm:"not null" json:"price"`
	Location    string       `gorm:"not null" json:"location"`
	Country     string       `gorm:"not null" json:"country"`
	Tags        []string     `gorm:"type:text;serializer:json" json:"tags"`
	OwnerID     uint         `gorm:"not null;index" json:"-"`
	Owner       *User        `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Reviews     []Review     `gorm:"foreignKey:ListingID" json:"reviews"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// OwnedBy reports whether userID owns the listing.
func (l *Listing) OwnedBy(userID uint) bool {
	return l != nil && l.OwnerID == userID
}
