package domain

import "time"

// Campaign is a seasonal storefront theme. At most one campaign is active
// at a time; activation deactivates all others in the same transaction.
type Campaign struct {
	ID                int64     `json:"id"`
	Slug              string    `json:"slug"`
	Badge             string    `json:"badge"`
	Title             string    `json:"title"`
	Subtitle          string    `json:"subtitle"`
	Description       string    `json:"description"`
	HeroImage         string    `json:"hero_image"`
	HeroHeadline      string    `json:"hero_headline"`
	HeroSubheadline   string    `json:"hero_subheadline"`
	Accent            string    `json:"accent"`
	AccentLight       string    `json:"accent_light"`
	AccentDark        string    `json:"accent_dark"`
	CtaPrimaryLabel   string    `json:"cta_primary_label"`
	CtaPrimaryHref    string    `json:"cta_primary_href"`
	CtaSecondaryLabel string    `json:"cta_secondary_label"`
	CtaSecondaryHref  string    `json:"cta_secondary_href"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
