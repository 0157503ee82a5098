package server

import (
	"errors"
	"net/http"
	"time"

	"ecosmart/classifier"
	"ecosmart/reward"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// SubmitReportArgs is the JSON submission body. The image is base64; a
// data-URL prefix is tolerated. ReportID is optional and lets clients
// retry a submission without earning rewards twice.
type SubmitReportArgs struct {
	ReportID    string    `json:"report_id"`
	UserID      string    `json:"user_id" binding:"required"`
	Image       string    `json:"image" binding:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location" binding:"required"`
	City        string    `json:"city"`
	Timestamp   time.Time `json:"timestamp"`
}

func (h *Handlers) SubmitReport(c *gin.Context) {
	var args SubmitReportArgs
	if err := c.BindJSON(&args); err != nil {
		log.Errorf("Failed to get the argument in %q call: %v", EndPointReport, err)
		c.String(http.StatusBadRequest, "Could not read JSON input.")
		return
	}
	if args.Timestamp.IsZero() {
		args.Timestamp = time.Now().UTC()
	}

	result, err := h.orchestrator.Process(c.Request.Context(), reward.Submission{
		ReportID:    args.ReportID,
		UserID:      args.UserID,
		ImageBase64: args.Image,
		Description: args.Description,
		Location:    args.Location,
		City:        args.City,
		Timestamp:   args.Timestamp,
	})
	if errors.Is(err, classifier.ErrUnavailable) {
		c.String(http.StatusBadGateway, "Image validation is temporarily unavailable, please retry.")
		return
	}
	if err != nil {
		log.Errorf("Failed to process report from %s: %v", args.UserID, err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.IndentedJSON(http.StatusOK, result)
}

func (h *Handlers) GetReports(c *gin.Context) {
	reports, err := h.orchestrator.ListReports(c.Request.Context(),
		c.Query("severity"), c.Query("status"), 0)
	if err != nil {
		log.Errorf("Failed to list reports: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"count": len(reports), "results": reports})
}

func (h *Handlers) GetReport(c *gin.Context) {
	report, err := h.orchestrator.GetReport(c.Request.Context(), c.Param("report_id"))
	if errors.Is(err, reward.ErrReportNotFound) {
		c.String(http.StatusNotFound, "Report not found.")
		return
	}
	if err != nil {
		log.Errorf("Failed to read report: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.IndentedJSON(http.StatusOK, report)
}
