package payment

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shipslot/internal/pkg/response"
)

// ExtraChargeSink receives paid-charge events that do not belong to a booking
// payment. It must tolerate charge ids it has never seen.
type ExtraChargeSink interface {
	HandleChargePaid(ctx context.Context, chargeID string) error
}

type Handler struct {
	service  *Service
	verifier EventVerifier
	extras   ExtraChargeSink
	loggerf  func(format string, args ...interface{})
}

func NewHandler(service *Service, verifier EventVerifier, extras ExtraChargeSink, loggerf func(format string, args ...interface{})) *Handler {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Handler{service: service, verifier: verifier, extras: extras, loggerf: loggerf}
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/checkout", h.CreateCheckout)
	rg.GET("/bookings/:id/payment", h.GetForBooking)
}

func (h *Handler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/omise/webhook", h.Webhook)
}

func (h *Handler) CreateCheckout(c *gin.Context) {
	var req CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	p, err := h.service.CreateCheckout(c.Request.Context(), req.BookingID, c.GetInt64("user_id"), req.SourceID, req.ReturnURI)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case errors.Is(err, ErrNotPayable):
			response.Error(c, http.StatusConflict, "NOT_PAYABLE", "Booking is not awaiting payment")
		case errors.Is(err, ErrProcessor):
			response.Error(c, http.StatusBadGateway, "PROCESSOR_ERROR", "Payment processor rejected the request")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create checkout")
		}
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"payment": p})
}

func (h *Handler) GetForBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}
	p, err := h.service.GetByBookingID(c.Request.Context(), bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "No payment for booking")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load payment")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

// Webhook handles processor callbacks. The body is untrusted: only the event
// id is taken from it, and the event is re-read at the processor before any
// state changes. The endpoint always answers 200 for verified events so the
// processor does not retry permanent failures forever.
func (h *Handler) Webhook(c *gin.Context) {
	var inc webhookEvent
	if err := c.ShouldBindJSON(&inc); err != nil || inc.ID == "" {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid webhook body")
		return
	}

	ev, err := h.verifier.VerifyEvent(c.Request.Context(), inc.ID)
	if err != nil {
		h.loggerf("level=error msg=webhook event verification failed event_id=%s err=%v", inc.ID, err)
		response.Error(c, http.StatusUnauthorized, "UNVERIFIED_EVENT", "Event could not be verified")
		return
	}

	switch ev.Key {
	case "charge.complete":
		h.dispatchCharge(c.Request.Context(), ev)
	default:
		h.loggerf("level=info msg=webhook event ignored event_id=%s key=%s", inc.ID, ev.Key)
	}
	c.Status(http.StatusOK)
}

func (h *Handler) dispatchCharge(ctx context.Context, ev *EventInfo) {
	if ev.ChargeID == "" {
		h.loggerf("level=error msg=charge event without charge id key=%s", ev.Key)
		return
	}

	if ev.ChargePaid || ev.ChargeStatus == "successful" {
		err := h.service.HandleChargePaid(ctx, ev.ChargeID, string(ev.RawData))
		if err == nil {
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.loggerf("level=error msg=paid callback failed charge_id=%s err=%v", ev.ChargeID, err)
			return
		}
		// not a booking payment, maybe an extra charge
		if h.extras != nil {
			if err := h.extras.HandleChargePaid(ctx, ev.ChargeID); err != nil {
				h.loggerf("level=error msg=extra charge callback failed charge_id=%s err=%v", ev.ChargeID, err)
			}
		}
		return
	}

	err := h.service.HandleChargeFailed(ctx, ev.ChargeID, string(ev.RawData), ev.FailureReason)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.loggerf("level=error msg=failed callback failed charge_id=%s err=%v", ev.ChargeID, err)
	}
}
