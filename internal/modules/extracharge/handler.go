package extracharge

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"shipslot/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/extra-charges", h.Create)
	rg.GET("/bookings/:id/extra-charges", h.ListByBooking)
	rg.POST("/extra-charges/:id/pay", h.Pay)
	rg.POST("/extra-charges/:id/decline", h.Decline)
	rg.POST("/extra-charges/:id/cancel", h.Cancel)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateExtraChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	e, err := h.service.Create(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err, "Failed to create extra charge")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"extra_charge": e})
}

func (h *Handler) Pay(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req PayExtraChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.Pay(c.Request.Context(), id, c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err, "Failed to start payment")
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"charge_id":     res.ChargeID,
		"authorize_uri": res.AuthorizeURI,
		"paid":          res.Paid,
	})
}

func (h *Handler) Decline(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	e, err := h.service.Decline(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err, "Failed to decline extra charge")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"extra_charge": e})
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	e, err := h.service.CancelByCompany(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err, "Failed to cancel extra charge")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"extra_charge": e})
}

func (h *Handler) ListByBooking(c *gin.Context) {
	bookingID, ok := pathID(c)
	if !ok {
		return
	}
	charges, err := h.service.ListByBooking(c.Request.Context(), bookingID, c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err, "Failed to list extra charges")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"extra_charges": charges})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid extra charge request")
	case ErrNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Extra charge or booking not found")
	case ErrForbidden:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case ErrNotPending:
		response.Error(c, http.StatusConflict, "NOT_PENDING", "Extra charge is no longer pending")
	case ErrExpired:
		response.Error(c, http.StatusConflict, "EXPIRED", "Extra charge offer has expired")
	case ErrBookingInactive:
		response.Error(c, http.StatusConflict, "BOOKING_INACTIVE", "Booking does not allow extra charges")
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
