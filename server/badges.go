package server

import (
	"errors"
	"net/http"

	"ecosmart/badge"
	"ecosmart/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// BadgeInfoResponse is the per-user badge progression payload.
type BadgeInfoResponse struct {
	UserID        string             `json:"user_id"`
	TotalReports  int                `json:"total_reports"`
	EcoScore      int                `json:"eco_score"`
	CurrentBadge  models.BadgeLevel  `json:"current_badge_level,omitempty"`
	NextBadge     models.BadgeLevel  `json:"next_badge,omitempty"`
	ReportsNeeded int                `json:"reports_needed"`
	Badges        []models.UserBadge `json:"badges"`
}

type AddBadgeArgs struct {
	UserID     string            `json:"user_id" binding:"required"`
	BadgeLevel models.BadgeLevel `json:"badge_level" binding:"required"`
}

type ClaimBadgeArgs struct {
	UserBadgeID string `json:"user_badge_id" binding:"required"`
}

func (h *Handlers) GetUserBadges(c *gin.Context) {
	userID := c.Param("user_id")
	ctx := c.Request.Context()

	stats, err := h.badges.Stats(ctx, userID)
	if err != nil {
		log.Errorf("Failed to read badge stats: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	badges, err := h.badges.UserBadges(ctx, userID)
	if err != nil {
		log.Errorf("Failed to read user badges: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	next, needed := badge.NextTier(stats.TotalReports)
	c.IndentedJSON(http.StatusOK, BadgeInfoResponse{
		UserID:        userID,
		TotalReports:  stats.TotalReports,
		EcoScore:      badge.EcoScore(stats.TotalReports),
		CurrentBadge:  badge.CurrentTier(stats.TotalReports),
		NextBadge:     next,
		ReportsNeeded: needed,
		Badges:        badges,
	})
}

func (h *Handlers) GetBadgeInfo(c *gin.Context) {
	catalog, err := h.badges.Catalog(c.Request.Context())
	if err != nil {
		log.Errorf("Failed to read badge catalog: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"badge_levels": catalog})
}

func (h *Handlers) AddBadge(c *gin.Context) {
	var args AddBadgeArgs
	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in %q call: %v", EndPointAddBadge, err)
		c.String(http.StatusBadRequest, "Could not read JSON input.")
		return
	}

	ub, err := h.badges.AssignBadge(c.Request.Context(), args.UserID, args.BadgeLevel)
	if errors.Is(err, badge.ErrUnknownLevel) {
		c.String(http.StatusBadRequest, "Unknown badge level.")
		return
	}
	if err != nil {
		log.Errorf("Failed to assign badge: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"message":     "Badge " + string(args.BadgeLevel) + " added to user " + args.UserID,
		"user_id":     args.UserID,
		"badge_level": ub.BadgeLevel,
		"badge_id":    ub.BadgeID,
	})
}

func (h *Handlers) ClaimBadge(c *gin.Context) {
	var args ClaimBadgeArgs
	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in %q call: %v", EndPointClaimBadge, err)
		c.String(http.StatusBadRequest, "Could not read JSON input.")
		return
	}

	err := h.badges.ClaimBadge(c.Request.Context(), args.UserBadgeID)
	if errors.Is(err, badge.ErrBadgeNotFound) {
		c.String(http.StatusNotFound, "Badge not found.")
		return
	}
	if err != nil {
		log.Errorf("Failed to claim badge: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"message": "Badge claimed", "user_badge_id": args.UserBadgeID})
}
