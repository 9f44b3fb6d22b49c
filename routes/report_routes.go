package routes

import (
	"github.com/eco-alert/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupReportRoutes(rg *gin.RouterGroup, rc *controllers.ReportController) {
	reports := rg.Group("/reports")
	{
		reports.POST("", rc.CreateReport)
		reports.GET("", rc.ListReports)
		reports.GET("/:id", rc.GetReport)
		reports.PATCH("/:id/status", rc.UpdateStatus)
		reports.PATCH("/:id/priority", rc.SetPriority)
		reports.POST("/bulk-status", rc.BulkUpdateStatus)
	}
}
