package server

import (
	"errors"
	"net/http"

	"ecosmart/classifier"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

type AnalyzeWasteArgs struct {
	Image string `json:"image" binding:"required"`
}

// AnalyzeWaste categorizes a waste image by material and recyclability
// without storing anything or touching rewards.
func (h *Handlers) AnalyzeWaste(c *gin.Context) {
	var args AnalyzeWasteArgs
	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in %q call: %v", EndPointAnalyzeWaste, err)
		c.String(http.StatusBadRequest, "Could not read JSON input.")
		return
	}

	result, err := h.categorizer.Categorize(c.Request.Context(), args.Image)
	if errors.Is(err, classifier.ErrUnavailable) {
		c.String(http.StatusBadGateway, "Waste analysis is temporarily unavailable, please retry.")
		return
	}
	if err != nil {
		log.Errorf("Failed to analyze waste image: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.IndentedJSON(http.StatusOK, result)
}
