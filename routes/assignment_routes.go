package routes

import (
	"github.com/eco-alert/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupAssignmentRoutes(rg *gin.RouterGroup, ac *controllers.AssignmentController) {
	assignments := rg.Group("/assignments")
	{
		assignments.POST("", ac.CreateAssignment)
		assignments.GET("", ac.ListAssignments)
		assignments.PATCH("/:id/status", ac.UpdateStatus)
	}
}
