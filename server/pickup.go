package server

import (
	"errors"
	"net/http"
	"time"

	"ecosmart/models"
	"ecosmart/pickup"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

type SchedulePickupArgs struct {
	UserID      string    `json:"user_id" binding:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location" binding:"required"`
	PickupDate  time.Time `json:"pickup_date" binding:"required"`
}

func (h *Handlers) SchedulePickup(c *gin.Context) {
	var args SchedulePickupArgs
	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in %q call: %v", EndPointSchedulePickup, err)
		c.String(http.StatusBadRequest, "Could not read JSON input.")
		return
	}

	p, err := h.pickups.Schedule(c.Request.Context(), &models.PickupRequest{
		UserID:      args.UserID,
		Description: args.Description,
		Location:    args.Location,
		PickupDate:  args.PickupDate,
	})
	if err != nil {
		log.Errorf("Failed to schedule pickup for %s: %v", args.UserID, err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.IndentedJSON(http.StatusOK, p)
}

func (h *Handlers) GetPickups(c *gin.Context) {
	pickups, err := h.pickups.All(c.Request.Context())
	if err != nil {
		log.Errorf("Failed to list pickups: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.IndentedJSON(http.StatusOK, pickups)
}

func (h *Handlers) GetUserPickups(c *gin.Context) {
	pickups, err := h.pickups.ForUser(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		log.Errorf("Failed to list pickups: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.IndentedJSON(http.StatusOK, pickups)
}

func (h *Handlers) GetPickup(c *gin.Context) {
	p, err := h.pickups.Get(c.Request.Context(), c.Param("pickup_id"))
	if errors.Is(err, pickup.ErrPickupNotFound) {
		c.String(http.StatusNotFound, "Pickup request not found.")
		return
	}
	if err != nil {
		log.Errorf("Failed to read pickup: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.IndentedJSON(http.StatusOK, p)
}

func (h *Handlers) UpdatePickupStatus(c *gin.Context) {
	pickupID := c.Param("pickup_id")
	p, err := h.pickups.UpdateStatus(c.Request.Context(), pickupID, c.Param("status"))
	switch {
	case errors.Is(err, pickup.ErrInvalidStatus):
		c.String(http.StatusBadRequest, "Invalid status. Must be one of: pending, confirmed, completed, cancelled.")
		return
	case errors.Is(err, pickup.ErrPickupNotFound):
		c.String(http.StatusNotFound, "Pickup request not found.")
		return
	case err != nil:
		log.Errorf("Failed to update pickup %s: %v", pickupID, err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.IndentedJSON(http.StatusOK, p)
}
