package schedule

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
	rg.POST("/slots", h.CreateSlot)
	rg.GET("/providers/:id/slots", h.ListProviderSlots)
	rg.PATCH("/slots/:id", h.UpdateSlot)
	rg.DELETE("/slots/:id", h.DeactivateSlot)

	rg.GET("/slots/:id/capacity", h.SlotCapacity)
	rg.GET("/slots/:id/next-fit", h.NextFit)
	rg.POST("/allocations/preview", h.AllocatePreview)
}

func slotView(s domain.WeeklySlot) SlotResponse {
	return SlotResponse{
		ID:         s.ID,
		ProviderID: s.ProviderID,
		DayOfWeek:  s.DayOfWeek,
		StartTime:  FormatClock(s.StartMin),
		EndTime:    FormatClock(s.EndMin),
		IsActive:   s.IsActive,
	}
}

func (h *Handler) CreateSlot(c *gin.Context) {
	var req CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	// Providers may only manage their own template; staff pass provider_id.
	if c.GetString("role") == string(domain.RoleProvider) {
		req.ProviderID = c.GetInt64("user_id")
	}
	if req.ProviderID == 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "provider_id is required")
		return
	}

	slot, err := h.service.CreateSlot(c.Request.Context(), req)
	if err != nil {
		switch err {
		case ErrValidation:
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid slot window")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create slot")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"slot": slotView(*slot)})
}

func (h *Handler) ListProviderSlots(c *gin.Context) {
	providerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid provider id")
		return
	}

	slots, err := h.service.ListProviderSlots(c.Request.Context(), providerID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list slots")
		return
	}

	views := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		views = append(views, slotView(s))
	}
	response.Success(c, http.StatusOK, gin.H{"slots": views})
}

func (h *Handler) UpdateSlot(c *gin.Context) {
	slotID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid slot id")
		return
	}

	var req UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	slot, err := h.service.UpdateSlot(c.Request.Context(), slotID, h.ownerScope(c), req)
	if err != nil {
		h.writeSlotError(c, err, "Failed to update slot")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"slot": slotView(*slot)})
}

func (h *Handler) DeactivateSlot(c *gin.Context) {
	slotID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid slot id")
		return
	}

	if err := h.service.DeactivateSlot(c.Request.Context(), slotID, h.ownerScope(c)); err != nil {
		h.writeSlotError(c, err, "Failed to deactivate slot")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deactivated": true})
}

func (h *Handler) SlotCapacity(c *gin.Context) {
	slotID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid slot id")
		return
	}
	date, ok := parseDateQuery(c)
	if !ok {
		return
	}

	capacity, err := h.service.GetSlotCapacityByID(c.Request.Context(), slotID, date, excludeQuery(c))
	if err != nil {
		h.writeSlotError(c, err, "Failed to compute capacity")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"capacity": CapacityResponse{
		SlotID:           slotID,
		Date:             date.Format("2006-01-02"),
		TotalMinutes:     capacity.TotalMinutes,
		BookedMinutes:    capacity.BookedMinutes,
		AvailableMinutes: capacity.AvailableMinutes,
	}})
}

func (h *Handler) NextFit(c *gin.Context) {
	slotID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid slot id")
		return
	}
	date, ok := parseDateQuery(c)
	if !ok {
		return
	}
	needed, err := strconv.Atoi(c.Query("minutes"))
	if err != nil || needed <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "minutes must be a positive integer")
		return
	}

	slot, err := h.service.loadSlot(c.Request.Context(), slotID)
	if err != nil {
		h.writeSlotError(c, err, "Failed to find slot")
		return
	}

	gap, err := h.service.CalculateNextAvailableTime(c.Request.Context(), *slot, date, needed, excludeQuery(c))
	if err != nil {
		h.writeSlotError(c, err, "Failed to search gaps")
		return
	}

	if gap == nil {
		response.Success(c, http.StatusOK, gin.H{"next_fit": NextFitResponse{Found: false}})
		return
	}
	response.Success(c, http.StatusOK, gin.H{"next_fit": NextFitResponse{
		Found:     true,
		StartTime: FormatClock(gap.Start),
		EndTime:   FormatClock(gap.End),
	}})
}

func (h *Handler) AllocatePreview(c *gin.Context) {
	var req AllocatePreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid start_date")
		return
	}

	result, err := h.service.Allocate(c.Request.Context(), req.ProviderID, startDate, req.NeededMinutes, AllocateOptions{MaxDays: req.MaxDays})
	if err != nil {
		h.writeSlotError(c, err, "Allocation failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"allocation": allocationView(result)})
}

func allocationView(result *AllocationResult) AllocatePreviewResponse {
	claims := make([]ClaimResponse, 0, len(result.Claims))
	for _, cl := range result.Claims {
		claims = append(claims, ClaimResponse{
			SlotID:    cl.SlotID,
			Date:      cl.Date.Format("2006-01-02"),
			StartTime: FormatClock(cl.StartMin),
			EndTime:   FormatClock(cl.EndMin),
			Minutes:   cl.Minutes,
		})
	}

	resp := AllocatePreviewResponse{
		Claims:           claims,
		FulfilledMinutes: result.FulfilledMinutes,
		ShortfallMinutes: result.ShortfallMinutes,
	}
	if result.Envelope != nil {
		resp.Envelope = &EnvelopeView{
			StartDate: result.Envelope.StartDate.Format("2006-01-02"),
			StartTime: FormatClock(result.Envelope.StartMin),
			EndDate:   result.Envelope.EndDate.Format("2006-01-02"),
			EndTime:   FormatClock(result.Envelope.EndMin),
		}
	}
	return resp
}

func (h *Handler) ownerScope(c *gin.Context) int64 {
	if c.GetString("role") == string(domain.RoleProvider) {
		return c.GetInt64("user_id")
	}
	return 0
}

func (h *Handler) writeSlotError(c *gin.Context, err error, fallback string) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input")
	case ErrNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Slot not found")
	case ErrForbidden:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

func parseDateQuery(c *gin.Context) (time.Time, bool) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid or missing date")
		return time.Time{}, false
	}
	return date, true
}

func excludeQuery(c *gin.Context) int64 {
	id, _ := strconv.ParseInt(c.Query("exclude_booking_id"), 10, 64)
	return id
}
