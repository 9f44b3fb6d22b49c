package routes

import (
	"github.com/eco-alert/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupUploadRoutes(rg *gin.RouterGroup, uc *controllers.UploadController) {
	uploads := rg.Group("/uploads")
	{
		uploads.POST("/presigned-url", uc.GetPresignedURL)
		uploads.POST("/presigned-urls", uc.GetMultiplePresignedURLs)
		uploads.DELETE("/:key", uc.DeleteFile)
	}
}
