package campaign

import (
	"context"
	"database/sql"

	"github.com/roseline-shop/storefront/internal/domain"
)

const campaignColumns = `id, slug, badge, title, subtitle, description, hero_image, hero_headline, hero_subheadline,
	accent, accent_light, accent_dark, cta_primary_label, cta_primary_href, cta_secondary_label, cta_secondary_href,
	is_active, created_at, updated_at`

type CampaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func scanCampaign(row interface{ Scan(...any) error }, c *domain.Campaign) error {
	return row.Scan(&c.ID, &c.Slug, &c.Badge, &c.Title, &c.Subtitle, &c.Description, &c.HeroImage,
		&c.HeroHeadline, &c.HeroSubheadline, &c.Accent, &c.AccentLight, &c.AccentDark,
		&c.CtaPrimaryLabel, &c.CtaPrimaryHref, &c.CtaSecondaryLabel, &c.CtaSecondaryHref,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
}

// GetActive returns the active campaign, or nil when the storefront runs
// on its default theme.
func (r *CampaignRepository) GetActive(ctx context.Context) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	err := scanCampaign(r.db.QueryRowContext(ctx, `
		SELECT `+campaignColumns+`
		FROM seasonal_campaigns
		WHERE is_active
		ORDER BY updated_at DESC
		LIMIT 1
	`), c)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) List(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+campaignColumns+`
		FROM seasonal_campaigns
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var campaigns []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		if err := scanCampaign(rows, &c); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return campaigns, nil
}

// Create inserts the campaign. When it is created active, every other
// active campaign is deactivated in the same transaction so the
// single-active invariant never breaks, even under concurrent admin edits.
func (r *CampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if c.IsActive {
		if err := deactivateAll(ctx, tx); err != nil {
			return err
		}
	}

	err = scanCampaign(tx.QueryRowContext(ctx, `
		INSERT INTO seasonal_campaigns (slug, badge, title, subtitle, description, hero_image, hero_headline,
			hero_subheadline, accent, accent_light, accent_dark, cta_primary_label, cta_primary_href,
			cta_secondary_label, cta_secondary_href, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING `+campaignColumns+`
	`, c.Slug, c.Badge, c.Title, c.Subtitle, c.Description, c.HeroImage, c.HeroHeadline, c.HeroSubheadline,
		c.Accent, c.AccentLight, c.AccentDark, c.CtaPrimaryLabel, c.CtaPrimaryHref,
		c.CtaSecondaryLabel, c.CtaSecondaryHref, c.IsActive), c)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Update overwrites the campaign, applying the same deactivate-all swap
// when it becomes active. Returns nil, nil when the id does not exist.
func (r *CampaignRepository) Update(ctx context.Context, c *domain.Campaign) (*domain.Campaign, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if c.IsActive {
		if err := deactivateAll(ctx, tx); err != nil {
			return nil, err
		}
	}

	updated := &domain.Campaign{}
	err = scanCampaign(tx.QueryRowContext(ctx, `
		UPDATE seasonal_campaigns
		SET slug = $2, badge = $3, title = $4, subtitle = $5, description = $6, hero_image = $7,
			hero_headline = $8, hero_subheadline = $9, accent = $10, accent_light = $11, accent_dark = $12,
			cta_primary_label = $13, cta_primary_href = $14, cta_secondary_label = $15, cta_secondary_href = $16,
			is_active = $17, updated_at = NOW()
		WHERE id = $1
		RETURNING `+campaignColumns+`
	`, c.ID, c.Slug, c.Badge, c.Title, c.Subtitle, c.Description, c.HeroImage, c.HeroHeadline,
		c.HeroSubheadline, c.Accent, c.AccentLight, c.AccentDark, c.CtaPrimaryLabel, c.CtaPrimaryHref,
		c.CtaSecondaryLabel, c.CtaSecondaryHref, c.IsActive), updated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return updated, nil
}

// SetActive toggles one campaign, swapping out any other active campaign
// first when activating. Returns nil, nil when the id does not exist.
func (r *CampaignRepository) SetActive(ctx context.Context, id int64, active bool) (*domain.Campaign, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if active {
		if err := deactivateAll(ctx, tx); err != nil {
			return nil, err
		}
	}

	updated := &domain.Campaign{}
	err = scanCampaign(tx.QueryRowContext(ctx, `
		UPDATE seasonal_campaigns
		SET is_active = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+campaignColumns+`
	`, id, active), updated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *CampaignRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM seasonal_campaigns WHERE id = $1
	`, id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func deactivateAll(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE seasonal_campaigns SET is_active = FALSE, updated_at = NOW() WHERE is_active
	`)
	return err
}
