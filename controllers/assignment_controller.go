package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eco-alert/api-go/lifecycle"
	"github.com/eco-alert/api-go/models"
	"github.com/eco-alert/api-go/utils"
)

type AssignmentController struct {
	DB     *gorm.DB
	Engine *lifecycle.Engine
}

func NewAssignmentController(db *gorm.DB, engine *lifecycle.Engine) *AssignmentController {
	return &AssignmentController{DB: db, Engine: engine}
}

type CreateAssignmentRequest struct {
	ReportID       uint       `json:"report_id" binding:"required"`
	AssignedTo     uint       `json:"assigned_to" binding:"required"`
	OrganizationID *uint      `json:"organization_id"`
	DueDate        *time.Time `json:"due_date"`
}

type UpdateAssignmentRequest struct {
	Status models.AssignmentStatus `json:"status" binding:"required,oneof=accepted declined completed"`
}

func (ac *AssignmentController) CreateAssignment(c *gin.Context) {
	user := utils.GetUser(c)
	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignment, err := ac.Engine.CreateAssignment(c.Request.Context(), user, lifecycle.AssignmentPayload{
		ReportID:       req.ReportID,
		AssignedTo:     req.AssignedTo,
		OrganizationID: req.OrganizationID,
		DueDate:        req.DueDate,
	})
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    assignment,
		Message: "Assignment created",
	})
}

func (ac *AssignmentController) ListAssignments(c *gin.Context) {
	query := ac.DB.Model(&models.Assignment{})
	if reportID := c.Query("report_id"); reportID != "" {
		query = query.Where("report_id = ?", reportID)
	}
	if assignedTo := c.Query("assigned_to"); assignedTo != "" {
		query = query.Where("assigned_to = ?", assignedTo)
	}

	var assignments []models.Assignment
	if err := query.Order("created_at ASC").Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list assignments"})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: assignments})
}

// UpdateStatus applies accept/decline/complete. Completing the last open
// assignment of a report resolves the report as a side effect.
func (ac *AssignmentController) UpdateStatus(c *gin.Context) {
	user := utils.GetUser(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var req UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignment, err := ac.Engine.UpdateAssignmentStatus(c.Request.Context(), user, uint(id), req.Status)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    assignment,
		Message: "Assignment status updated",
	})
}
