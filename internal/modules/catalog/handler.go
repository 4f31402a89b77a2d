package catalog

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

// RegisterPublicRoutes mounts the unauthenticated browse endpoints.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/slots", h.SearchSlots)
	rg.GET("/slots/:id", h.GetSlot)
	rg.GET("/companies/:id", h.GetCompany)
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/companies", h.CreateCompany)
	rg.GET("/companies/me", h.GetOwnCompany)
	rg.PATCH("/companies/:id", h.UpdateCompany)

	rg.POST("/slots", h.CreateSlot)
	rg.GET("/companies/me/slots", h.ListCompanySlots)
	rg.POST("/slots/:id/publish", h.PublishSlot)
	rg.POST("/slots/:id/unpublish", h.UnpublishSlot)
}

func (h *Handler) CreateCompany(c *gin.Context) {
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	company, err := h.service.CreateCompany(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err, "Failed to create company")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"company": company})
}

func (h *Handler) GetCompany(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	company, err := h.service.GetCompany(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "Failed to load company")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"company": company})
}

func (h *Handler) GetOwnCompany(c *gin.Context) {
	company, err := h.service.GetOwnCompany(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err, "Failed to load company")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"company": company})
}

func (h *Handler) UpdateCompany(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	company, err := h.service.UpdateCompany(c.Request.Context(), id, c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err, "Failed to update company")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"company": company})
}

func (h *Handler) CreateSlot(c *gin.Context) {
	var req CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	slot, err := h.service.CreateSlot(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err, "Failed to create slot")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"slot": slot})
}

func (h *Handler) GetSlot(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	slot, err := h.service.GetSlot(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "Failed to load slot")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"slot": slot})
}

func (h *Handler) SearchSlots(c *gin.Context) {
	var req SearchSlotsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid search parameters")
		return
	}
	slots, err := h.service.SearchSlots(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, "Failed to search slots")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"slots": slots})
}

func (h *Handler) ListCompanySlots(c *gin.Context) {
	slots, err := h.service.ListCompanySlots(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		h.writeError(c, err, "Failed to list slots")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"slots": slots})
}

func (h *Handler) PublishSlot(c *gin.Context) {
	h.setPublished(c, true)
}

func (h *Handler) UnpublishSlot(c *gin.Context) {
	h.setPublished(c, false)
}

func (h *Handler) setPublished(c *gin.Context, published bool) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	slot, err := h.service.SetSlotPublished(c.Request.Context(), id, c.GetInt64("user_id"), published)
	if err != nil {
		h.writeError(c, err, "Failed to update slot")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"slot": slot})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch err {
	case ErrValidation:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request")
	case ErrNotFound:
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case ErrForbidden:
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
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
