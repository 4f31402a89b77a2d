package booking

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shipslot/internal/domain"
	"shipslot/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the booking endpoints. The group is expected to be
// behind the auth middleware; role checks happen per handler because the
// cancel endpoint is shared between roles.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.Create)
	rg.POST("/bookings/quote", h.Quote)
	rg.GET("/bookings/:id", h.Get)
	rg.GET("/bookings", h.ListMine)
	rg.GET("/companies/:id/bookings", h.ListForCompany)

	rg.POST("/bookings/:id/accept", h.Accept)
	rg.POST("/bookings/:id/reject", h.Reject)
	rg.POST("/bookings/:id/cancel", h.Cancel)
	rg.POST("/bookings/:id/transit", h.MarkInTransit)
	rg.POST("/bookings/:id/delivered", h.MarkDelivered)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err, "Failed to create booking")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	breakdown, err := h.service.PreviewQuote(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, "Failed to compute quote")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quote": breakdown})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "Failed to load booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ListMine(c *gin.Context) {
	limit, offset := pagination(c)
	bookings, err := h.service.ListByCustomer(c.Request.Context(), c.GetInt64("user_id"), limit, offset)
	if err != nil {
		h.writeError(c, err, "Failed to list bookings")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) ListForCompany(c *gin.Context) {
	companyID, ok := pathID(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)
	bookings, err := h.service.ListByCompany(c.Request.Context(), companyID, limit, offset)
	if err != nil {
		h.writeError(c, err, "Failed to list bookings")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) Accept(c *gin.Context) {
	h.transition(c, h.service.Accept)
}

func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

func (h *Handler) MarkInTransit(c *gin.Context) {
	h.transition(c, h.service.MarkInTransit)
}

func (h *Handler) MarkDelivered(c *gin.Context) {
	h.transition(c, h.service.MarkDelivered)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req CancelRequest
	_ = c.ShouldBindJSON(&req) // body is optional

	role := domain.Role(c.GetString("role"))
	b, err := h.service.Cancel(c.Request.Context(), id, c.GetInt64("user_id"), role, req.Reason)
	if err != nil {
		h.writeError(c, err, "Failed to cancel booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, bookingID, actorUserID int64) (*domain.Booking, error)) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	b, err := fn(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err, "Failed to update booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request")
	case ErrNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking or slot not found")
	case ErrForbidden:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case ErrSlotNotPublished:
		response.Error(c, http.StatusConflict, "SLOT_NOT_PUBLISHED", "Slot is not open for booking")
	case ErrInsufficientCapacity:
		response.Error(c, http.StatusConflict, "INSUFFICIENT_CAPACITY", "Slot does not have enough remaining capacity")
	case ErrInvalidStatusTransition:
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", "Booking status does not allow this operation")
	case ErrPaymentRequired:
		response.Error(c, http.StatusConflict, "PAYMENT_REQUIRED", "Booking must be paid before acceptance")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", fallback)
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid ID")
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
