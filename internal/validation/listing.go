package validation

import (
	"fmt"
	"sort"
	"strings"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 5000
	maxReviewLen      = 2000
	maxTags           = 20
)

// FieldErrors collects per-field validation messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fe[k])
	}
	return strings.Join(msgs, "; ")
}

func (fe FieldErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// ListingFields is the subset of listing input that carries constraints.
// Nil pointers mean the field was not supplied.
type ListingFields struct {
	Title       *string
	Description *string
	Price       *int64
	Location    *string
	Country     *string
	Tags        []string
}

// ValidateNewListing requires every mandatory field to be present.
func ValidateNewListing(f ListingFields) error {
	fe := FieldErrors{}
	requireText(fe, "title", f.Title)
	requireText(fe, "description", f.Description)
	requireText(fe, "location", f.Location)
	requireText(fe, "country", f.Country)
	if f.Price == nil {
		fe["price"] = "price is required"
	}
	checkListingBounds(fe, f)
	return fe.err()
}

// ValidateListingUpdate checks only the fields that were supplied.
func ValidateListingUpdate(f ListingFields) error {
	fe := FieldErrors{}
	for name, v := range map[string]*string{
		"title":       f.Title,
		"description": f.Description,
		"location":    f.Location,
		"country":     f.Country,
	} {
		if v != nil {
			requireText(fe, name, v)
		}
	}
	checkListingBounds(fe, f)
	return fe.err()
}

func requireText(fe FieldErrors, name string, v *string) {
	if v == nil || strings.TrimSpace(*v) == "" {
		fe[name] = name + " is required"
	}
}

func checkListingBounds(fe FieldErrors, f ListingFields) {
	if f.Title != nil && len(*f.Title) > maxTitleLen {
		fe["title"] = fmt.Sprintf("title must not exceed %d characters", maxTitleLen)
	}
	if f.Description != nil && len(*f.Description) > maxDescriptionLen {
		fe["description"] = fmt.Sprintf("description must not exceed %d characters", maxDescriptionLen)
	}
	if f.Price != nil && *f.Price < 0 {
		fe["price"] = "price must not be negative"
	}
	if len(f.Tags) > maxTags {
		fe["tags"] = fmt.Sprintf("a listing can have at most %d tags", maxTags)
	}
}

// NormalizeTags trims tags and drops empty and duplicate entries, keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ValidateReview checks review content and a 1..5 rating.
func ValidateReview(rating int, content string) error {
	fe := FieldErrors{}
	content = strings.TrimSpace(content)
	if content == "" {
		fe["content"] = "Review content is required"
	} else if len(content) > maxReviewLen {
		fe["content"] = fmt.Sprintf("Review content must not exceed %d characters", maxReviewLen)
	}
	if rating < 1 || rating > 5 {
		fe["rating"] = "Rating must be between 1 and 5"
	}
	return fe.err()
}
