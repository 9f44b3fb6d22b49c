package controllers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/eco-alert/api-go/lifecycle"
	"github.com/eco-alert/api-go/models"
	"github.com/eco-alert/api-go/utils"
)

type ReportController struct {
	DB     *gorm.DB
	Engine *lifecycle.Engine
}

func NewReportController(db *gorm.DB, engine *lifecycle.Engine) *ReportController {
	return &ReportController{DB: db, Engine: engine}
}

type CreateReportRequest struct {
	Category    string           `json:"category" binding:"required"`
	Description string           `json:"description"`
	Latitude    float64          `json:"latitude" binding:"gte=-90,lte=90"`
	Longitude   float64          `json:"longitude" binding:"gte=-180,lte=180"`
	CityID      *uint            `json:"city_id"`
	Photos      []string         `json:"photos"`
	Priority    *models.Priority `json:"priority" binding:"omitempty,oneof=critical high medium low"`
}

type UpdateStatusRequest struct {
	Status   models.ReportStatus `json:"status" binding:"required"`
	Priority *models.Priority    `json:"priority" binding:"omitempty,oneof=critical high medium low"`
	DueDate  *time.Time          `json:"due_date"`
}

type BulkStatusRequest struct {
	ReportIDs []uint              `json:"report_ids" binding:"required,min=1"`
	Status    models.ReportStatus `json:"status" binding:"required"`
}

type SetPriorityRequest struct {
	Priority models.Priority `json:"priority" binding:"required,oneof=critical high medium low"`
	DueDate  *time.Time      `json:"due_date"`
}

// CreateReport godoc
// @Summary Submit an incident report
// @Description Creates a report in state pending; replays with the same Idempotency-Key return the original report
// @Tags reports
// @Accept json
// @Produce json
// @Param report body CreateReportRequest true "Report payload"
// @Success 201 {object} models.Report
// @Router /reports [post]
func (rc *ReportController) CreateReport(c *gin.Context) {
	user := utils.GetUser(c)
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	idempotencyKey := c.GetHeader("Idempotency-Key")

	report, created, err := rc.Engine.CreateReport(c.Request.Context(), user, lifecycle.CreatePayload{
		Category:    req.Category,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		CityID:      req.CityID,
		Photos:      req.Photos,
		Priority:    req.Priority,
	}, idempotencyKey)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	status := http.StatusCreated
	message := "Report created successfully"
	if !created {
		// Idempotent replay of an already delivered submission
		status = http.StatusOK
		message = "Report already exists"
	}
	c.JSON(status, StandardResponse{
		Success: true,
		Data:    report,
		Message: message,
	})
}

func (rc *ReportController) GetReport(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	var report models.Report
	if err := rc.DB.Preload("Assignments").First(&report, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: report})
}

func (rc *ReportController) ListReports(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := rc.DB.Model(&models.Report{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if cityID := c.Query("city_id"); cityID != "" {
		query = query.Where("city_id = ?", cityID)
	}

	var total int64
	query.Count(&total)

	var reports []models.Report
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&reports).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reports"})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    reports,
		Pagination: &PaginationMeta{
			CurrentPage: page,
			PageSize:    pageSize,
			TotalItems:  total,
			TotalPages:  int(math.Ceil(float64(total) / float64(pageSize))),
		},
	})
}

// UpdateStatus godoc
// @Summary Transition a report
// @Description Applies one status transition; illegal edges return the allowed transitions
// @Tags reports
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param transition body UpdateStatusRequest true "Target status"
// @Success 200 {object} models.Report
// @Router /reports/{id}/status [patch]
func (rc *ReportController) UpdateStatus(c *gin.Context) {
	user := utils.GetUser(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := rc.Engine.UpdateStatus(c.Request.Context(), user, uint(id), req.Status, lifecycle.UpdateOpts{
		Priority: req.Priority,
		DueDate:  req.DueDate,
	})
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    report,
		Message: "Report status updated",
	})
}

func (rc *ReportController) BulkUpdateStatus(c *gin.Context) {
	user := utils.GetUser(c)
	var req BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	succeeded, results := rc.Engine.BulkUpdateStatus(c.Request.Context(), user, req.ReportIDs, req.Status, lifecycle.UpdateOpts{})

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    results,
		Meta:    gin.H{"succeeded": succeeded, "total": len(req.ReportIDs)},
	})
}

func (rc *ReportController) SetPriority(c *gin.Context) {
	user := utils.GetUser(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
		return
	}

	var req SetPriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := rc.Engine.SetPriority(c.Request.Context(), user, uint(id), req.Priority, req.DueDate)
	if err != nil {
		respondLifecycleError(c, err)
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    report,
		Message: "Report priority updated",
	})
}

// respondLifecycleError maps engine errors onto the HTTP surface. Invalid
// transitions carry the allowed edge set for client feedback.
func respondLifecycleError(c *gin.Context, err error) {
	var invalid *lifecycle.InvalidTransitionError
	if errors.As(err, &invalid) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":               "Invalid status transition",
			"current_status":      invalid.From,
			"allowed_transitions": invalid.Allowed,
		})
		return
	}
	var invalidAssignment *lifecycle.InvalidAssignmentTransitionError
	if errors.As(err, &invalidAssignment) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":               "Invalid assignment transition",
			"current_status":      invalidAssignment.From,
			"allowed_transitions": invalidAssignment.Allowed,
		})
		return
	}
	var permission *lifecycle.PermissionError
	if errors.As(err, &permission) {
		c.JSON(http.StatusForbidden, gin.H{"error": permission.Reason})
		return
	}
	if errors.Is(err, lifecycle.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	if errors.Is(err, lifecycle.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "Status changed concurrently, reload and retry"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Operation failed"})
}
