package campaign

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/roseline-shop/storefront/internal/domain"
)

type Handler struct {
	repo   *CampaignRepository
	logger *slog.Logger
}

func NewHandler(repo *CampaignRepository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// HandleGetActive serves the storefront's current theme. No active
// campaign is not an error; the frontend falls back to its default theme.
func (h *Handler) HandleGetActive(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.repo.GetActive(r.Context())
	if err != nil {
		h.logger.Error("failed to get active campaign", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"campaign": campaign})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list campaigns", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if campaigns == nil {
		campaigns = []domain.Campaign{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"campaigns": campaigns})
}

type campaignRequest struct {
	Slug              string `json:"slug"`
	Badge             string `json:"badge"`
	Title             string `json:"title"`
	Subtitle          string `json:"subtitle"`
	Description       string `json:"description"`
	HeroImage         string `json:"hero_image"`
	HeroHeadline      string `json:"hero_headline"`
	HeroSubheadline   string `json:"hero_subheadline"`
	Accent            string `json:"accent"`
	AccentLight       string `json:"accent_light"`
	AccentDark        string `json:"accent_dark"`
	CtaPrimaryLabel   string `json:"cta_primary_label"`
	CtaPrimaryHref    string `json:"cta_primary_href"`
	CtaSecondaryLabel string `json:"cta_secondary_label"`
	CtaSecondaryHref  string `json:"cta_secondary_href"`
	IsActive          bool   `json:"is_active"`
}

func (req *campaignRequest) toDomain() *domain.Campaign {
	return &domain.Campaign{
		Slug:              strings.ToLower(strings.TrimSpace(req.Slug)),
		Badge:             req.Badge,
		Title:             req.Title,
		Subtitle:          req.Subtitle,
		Description:       req.Description,
		HeroImage:         req.HeroImage,
		HeroHeadline:      req.HeroHeadline,
		HeroSubheadline:   req.HeroSubheadline,
		Accent:            req.Accent,
		AccentLight:       req.AccentLight,
		AccentDark:        req.AccentDark,
		CtaPrimaryLabel:   req.CtaPrimaryLabel,
		CtaPrimaryHref:    req.CtaPrimaryHref,
		CtaSecondaryLabel: req.CtaSecondaryLabel,
		CtaSecondaryHref:  req.CtaSecondaryHref,
		IsActive:          req.IsActive,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Slug == "" || req.Badge == "" || req.Title == "" {
		h.writeError(w, http.StatusBadRequest, "slug, badge, and title are required")
		return
	}

	campaign := req.toDomain()
	if err := h.repo.Create(r.Context(), campaign); err != nil {
		h.logger.Error("failed to create campaign", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("campaign created", "campaign_id", campaign.ID, "slug", campaign.Slug, "active", campaign.IsActive)
	h.writeJSON(w, http.StatusCreated, map[string]any{"campaign": campaign})
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid campaign ID")
		return
	}

	var req campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Slug == "" || req.Badge == "" || req.Title == "" {
		h.writeError(w, http.StatusBadRequest, "slug, badge, and title are required")
		return
	}

	campaign := req.toDomain()
	campaign.ID = id

	updated, err := h.repo.Update(r.Context(), campaign)
	if err != nil {
		h.logger.Error("failed to update campaign", "error", err, "campaign_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if updated == nil {
		h.writeError(w, http.StatusNotFound, "campaign not found")
		return
	}

	h.logger.Info("campaign updated", "campaign_id", id, "active", updated.IsActive)
	h.writeJSON(w, http.StatusOK, map[string]any{"campaign": updated})
}

type activateRequest struct {
	IsActive bool `json:"is_active"`
}

func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid campaign ID")
		return
	}

	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.repo.SetActive(r.Context(), id, req.IsActive)
	if err != nil {
		h.logger.Error("failed to toggle campaign", "error", err, "campaign_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if updated == nil {
		h.writeError(w, http.StatusNotFound, "campaign not found")
		return
	}

	h.logger.Info("campaign toggled", "campaign_id", id, "active", updated.IsActive)
	h.writeJSON(w, http.StatusOK, map[string]any{"campaign": updated})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid campaign ID")
		return
	}

	deleted, err := h.repo.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to delete campaign", "error", err, "campaign_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !deleted {
		h.writeError(w, http.StatusNotFound, "campaign not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
