package assignment

import (
	"net/http"
	"strconv"
	"time"

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
	rg.POST("/assignments", h.Assign)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.GET("/bookings", h.ListMyBookings)

	rg.POST("/bookings/:id/start", h.Start)
	rg.POST("/bookings/:id/hold", h.Hold)
	rg.POST("/bookings/:id/resume", h.Resume)
	rg.POST("/bookings/:id/finish", h.Finish)
	rg.POST("/bookings/:id/approve", h.Approve)
	rg.POST("/bookings/:id/cancel", h.Cancel)

	rg.POST("/bookings/:id/extensions", h.RequestExtension)
	rg.GET("/bookings/:id/extensions", h.ListExtensions)
	rg.GET("/extensions/pending", h.ListPendingExtensions)
	rg.POST("/extensions/:id/approve", h.ApproveExtension)
	rg.POST("/extensions/:id/reject", h.RejectExtension)

	rg.GET("/issues/:id/timeline", h.IssueTimeline)
}

func actorFrom(c *gin.Context) Actor {
	return Actor{
		ID:   c.GetInt64("user_id"),
		Role: domain.UserRole(c.GetString("role")),
	}
}

func (h *Handler) Assign(c *gin.Context) {
	var body assignRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	req := body.AssignRequest
	if body.StartDateStr != "" {
		d, err := time.Parse("2006-01-02", body.StartDateStr)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid start_date")
			return
		}
		req.StartDate = d
	}
	if body.DateStr != "" {
		d, err := time.Parse("2006-01-02", body.DateStr)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date")
			return
		}
		req.Date = d
	}

	result, err := h.service.AssignBooking(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		h.writeError(c, err, "Failed to assign")
		return
	}

	views := make([]BookingView, 0, len(result.Bookings))
	for _, b := range result.Bookings {
		views = append(views, bookingView(b))
	}

	payload := gin.H{"bookings": views}
	if result.Allocation != nil {
		payload["fulfilled_minutes"] = result.Allocation.FulfilledMinutes
		payload["shortfall_minutes"] = result.Allocation.ShortfallMinutes
	}
	response.Success(c, http.StatusCreated, payload)
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "Failed to load booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": bookingView(*b)})
}

func (h *Handler) ListMyBookings(c *gin.Context) {
	actor := actorFrom(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	bookings, err := h.service.ListProviderBookings(c.Request.Context(), actor.ID, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list bookings")
		return
	}

	views := make([]BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, bookingView(b))
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": views})
}

func (h *Handler) Start(c *gin.Context) {
	h.runTransition(c, func(actor Actor, id int64) (*domain.Booking, error) {
		return h.service.StartWork(c.Request.Context(), actor, id)
	})
}

func (h *Handler) Hold(c *gin.Context) {
	var req HoldRequest
	_ = c.ShouldBindJSON(&req)
	h.runTransition(c, func(actor Actor, id int64) (*domain.Booking, error) {
		return h.service.HoldWork(c.Request.Context(), actor, id, req.Reason)
	})
}

func (h *Handler) Resume(c *gin.Context) {
	h.runTransition(c, func(actor Actor, id int64) (*domain.Booking, error) {
		return h.service.ResumeWork(c.Request.Context(), actor, id)
	})
}

func (h *Handler) Finish(c *gin.Context) {
	var req FinishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	h.runTransition(c, func(actor Actor, id int64) (*domain.Booking, error) {
		return h.service.FinishWork(c.Request.Context(), actor, id, req)
	})
}

func (h *Handler) Approve(c *gin.Context) {
	h.runTransition(c, func(actor Actor, id int64) (*domain.Booking, error) {
		return h.service.ApproveWork(c.Request.Context(), actor, id)
	})
}

func (h *Handler) Cancel(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "reason is required")
		return
	}
	h.runTransition(c, func(actor Actor, id int64) (*domain.Booking, error) {
		return h.service.CancelWork(c.Request.Context(), actor, id, req.Reason)
	})
}

func (h *Handler) runTransition(c *gin.Context, fn func(actor Actor, id int64) (*domain.Booking, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	b, err := fn(actorFrom(c), id)
	if err != nil {
		h.writeError(c, err, "Transition failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": bookingView(*b)})
}

func (h *Handler) RequestExtension(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req ExtensionCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "requested_minutes must be positive")
		return
	}

	ext, err := h.service.RequestExtension(c.Request.Context(), actorFrom(c), id, req.RequestedMinutes, req.Reason)
	if err != nil {
		h.writeError(c, err, "Failed to request extension")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"extension": ext})
}

func (h *Handler) ListExtensions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	exts, err := h.service.ListBookingExtensions(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list extensions")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"extensions": exts})
}

func (h *Handler) ListPendingExtensions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	exts, err := h.service.ListPendingExtensions(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list extensions")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"extensions": exts})
}

func (h *Handler) ApproveExtension(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req ExtensionResolveRequest
	_ = c.ShouldBindJSON(&req)

	ext, err := h.service.ApproveExtension(c.Request.Context(), actorFrom(c), id, req.AdminNotes)
	if err != nil {
		h.writeError(c, err, "Failed to approve extension")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"extension": ext})
}

func (h *Handler) RejectExtension(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req ExtensionResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "admin_notes is required")
		return
	}

	ext, err := h.service.RejectExtension(c.Request.Context(), actorFrom(c), id, req.AdminNotes)
	if err != nil {
		h.writeError(c, err, "Failed to reject extension")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"extension": ext})
}

func (h *Handler) IssueTimeline(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	entries, err := h.service.IssueTimeline(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load timeline")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"timeline": entries})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input")
	case ErrNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case ErrForbidden:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case ErrInvalidTransition:
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", "Operation not allowed in the current status")
	case ErrProofRequired:
		response.Error(c, http.StatusUnprocessableEntity, "PROOF_REQUIRED", "At least one proof is required to finish this booking")
	case ErrCapacityConflict:
		response.Error(c, http.StatusConflict, "CAPACITY_CONFLICT", "The requested time conflicts with an existing booking")
	case ErrExtensionResolved:
		response.Error(c, http.StatusConflict, "ALREADY_RESOLVED", "Extension request is already resolved")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid id")
		return 0, false
	}
	return id, true
}
