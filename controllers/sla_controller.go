package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eco-alert/api-go/sla"
)

type SLAController struct {
	Aggregator *sla.Aggregator
}

func NewSLAController(aggregator *sla.Aggregator) *SLAController {
	return &SLAController{Aggregator: aggregator}
}

// Dashboard serves the SLA buckets and the trailing-30-day compliance rate.
func (sc *SLAController) Dashboard(c *gin.Context) {
	snapshot, err := sc.Aggregator.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute SLA statistics"})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: snapshot})
}
