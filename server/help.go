package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) Help(c *gin.Context) {
	c.String(http.StatusOK, `
	EcoSmart API:
	Civic waste reporting and incentive server.
	`)
}
