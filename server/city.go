package server

import (
	"errors"
	"net/http"

	"ecosmart/city"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

type UpdateUserCityArgs struct {
	City    string `json:"city" binding:"required"`
	State   string `json:"state"`
	Country string `json:"country"`
}

func (h *Handlers) GetLeaderboard(c *gin.Context) {
	ranked, err := h.cities.Leaderboard(c.Request.Context())
	if err != nil {
		log.Errorf("Failed to read leaderboard: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{
		"leaderboard": ranked,
		"scoring": gin.H{
			"authority_score": "responsiveness (60%) + resolution rate (40%)",
			"citizen_score":   "engagement, penalized for pending report ratio",
			"total_score":     "authority activity (50%) + citizen responsibility (50%)",
		},
	})
}

func (h *Handlers) GetCityStats(c *gin.Context) {
	stats, err := h.cities.Stats(c.Request.Context(), c.Param("city_name"))
	if errors.Is(err, city.ErrCityNotFound) {
		c.String(http.StatusNotFound, "City not found.")
		return
	}
	if err != nil {
		log.Errorf("Failed to read city stats: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.IndentedJSON(http.StatusOK, stats)
}

func (h *Handlers) UpdateUserCity(c *gin.Context) {
	var args UpdateUserCityArgs
	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in %q call: %v", EndPointUpdateUserCity, err)
		c.String(http.StatusBadRequest, "Could not read JSON input.")
		return
	}

	userID := c.Param("user_id")
	if err := h.cities.SetUserCity(c.Request.Context(), userID, args.City, args.State, args.Country); err != nil {
		log.Errorf("Failed to update city for %s: %v", userID, err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{
		"message": "City updated to " + args.City,
		"user_id": userID,
		"city":    args.City,
		"state":   args.State,
		"country": args.Country,
	})
}
