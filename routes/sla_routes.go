package routes

import (
	"github.com/eco-alert/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupSLARoutes(rg *gin.RouterGroup, sc *controllers.SLAController) {
	slaGroup := rg.Group("/sla")
	{
		slaGroup.GET("/dashboard", sc.Dashboard)
	}
}
