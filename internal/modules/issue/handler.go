package issue

import (
	"net/http"
	"strconv"

	"fixhub/internal/domain"
	"fixhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/issues", h.Create)
	rg.GET("/issues", h.List)
	rg.GET("/issues/:id", h.Get)
	rg.POST("/issues/:id/cancel", h.Cancel)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "title is required")
		return
	}

	i, err := h.service.Create(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err, "Failed to create issue")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"issue": i})
}

func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	role := domain.UserRole(c.GetString("role"))

	var (
		issues []domain.Issue
		err    error
	)
	if status := c.Query("status"); status != "" && role != domain.RoleTenant {
		issues, err = h.service.ListByStatus(c.Request.Context(), role, status, limit, offset)
	} else {
		issues, err = h.service.ListMine(c.Request.Context(), c.GetInt64("user_id"), limit, offset)
	}
	if err != nil {
		h.writeError(c, err, "Failed to list issues")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"issues": issues})
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid id")
		return
	}

	detail, err := h.service.Get(c.Request.Context(), c.GetInt64("user_id"), domain.UserRole(c.GetString("role")), id)
	if err != nil {
		h.writeError(c, err, "Failed to load issue")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"issue": detail})
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid id")
		return
	}

	var req CancelIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "reason is required")
		return
	}

	i, err := h.service.Cancel(c.Request.Context(), c.GetInt64("user_id"), domain.UserRole(c.GetString("role")), id, req.Reason)
	if err != nil {
		h.writeError(c, err, "Failed to cancel issue")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"issue": i})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input")
	case ErrNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Issue not found")
	case ErrForbidden:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case ErrNotOpen:
		response.Error(c, http.StatusConflict, "NOT_OPEN", "Issue is already closed")
	case ErrHasActiveWork:
		response.Error(c, http.StatusConflict, "ACTIVE_WORK", "Cancel the active bookings first")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}
