package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eco-alert/api-go/controllers"
	"github.com/eco-alert/api-go/lifecycle"
	"github.com/eco-alert/api-go/middleware"
	"github.com/eco-alert/api-go/notify"
	"github.com/eco-alert/api-go/sla"
	"github.com/sirupsen/logrus"
)

func SetupRoutes(r *gin.Engine, db *gorm.DB) {
	store := lifecycle.NewGormStore(db)
	engine := lifecycle.NewEngine(store, notify.NewLogNotifier(logrus.StandardLogger()))
	aggregator := sla.NewAggregator(store)

	// Initialize controllers
	reportController := controllers.NewReportController(db, engine)
	assignmentController := controllers.NewAssignmentController(db, engine)
	slaController := controllers.NewSLAController(aggregator)
	uploadController := controllers.NewUploadController(db)

	// Public routes
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware())
	{
		SetupReportRoutes(protected, reportController)
		SetupAssignmentRoutes(protected, assignmentController)
		SetupSLARoutes(protected, slaController)
		SetupUploadRoutes(protected, uploadController)
	}
}
