package handlers

import (
	"errors"
	"net/http"
	"time"

	availabilityRepo "innkeeper/database/repository/availability"
	catalogRepo "innkeeper/database/repository/catalog"
	"innkeeper/models"
	"innkeeper/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityHandler exposes slot listing and manager slot publishing.
type AvailabilityHandler struct {
	Slots   availabilityRepo.SlotRepository
	Catalog catalogRepo.CatalogRepository
	Logger  *zap.Logger
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(slots availabilityRepo.SlotRepository, catalog catalogRepo.CatalogRepository, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{Slots: slots, Catalog: catalog, Logger: logger}
}

// ListOpenSlotsHandler returns the open slots of a resource, earliest
// first. Past slots are excluded.
func (h *AvailabilityHandler) ListOpenSlotsHandler(c *gin.Context) {
	resourceID := c.Param("resourceID")
	if _, err := h.Catalog.GetResourceByID(c.Request.Context(), resourceID); err != nil {
		if errors.Is(err, catalogRepo.ErrResourceNotFound) {
			utils.JSONError(c, http.StatusNotFound, "resource not found", "")
			return
		}
		h.Logger.Error("resource lookup failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "resource lookup failed", "")
		return
	}

	slots, err := h.Slots.ListOpen(c.Request.Context(), resourceID, time.Now().UTC())
	if err != nil {
		h.Logger.Error("slot listing failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "slot listing failed", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

// SlotInput is one slot range to publish.
type SlotInput struct {
	StartTS time.Time `json:"start_ts" binding:"required"`
	EndTS   time.Time `json:"end_ts" binding:"required"`
}

// CreateSlotsRequest publishes new open slots on a resource.
type CreateSlotsRequest struct {
	Slots []SlotInput `json:"slots" binding:"required"`
}

// CreateSlotsHandler lets a property manager publish availability on one
// of their resources.
func (h *AvailabilityHandler) CreateSlotsHandler(c *gin.Context) {
	var req CreateSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if len(req.Slots) == 0 {
		utils.JSONError(c, http.StatusBadRequest, "no slots supplied", "")
		return
	}

	resourceID := c.Param("resourceID")
	resource, err := h.Catalog.GetResourceByID(c.Request.Context(), resourceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrResourceNotFound) {
			utils.JSONError(c, http.StatusNotFound, "resource not found", "")
			return
		}
		h.Logger.Error("resource lookup failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "resource lookup failed", "")
		return
	}

	managerID := c.GetString("userID")
	property, err := h.Catalog.GetPropertyByID(c.Request.Context(), resource.PropertyID)
	if err != nil || property.ManagerID != managerID {
		utils.JSONError(c, http.StatusForbidden, "resource not managed by caller", "")
		return
	}

	slots := make([]models.AvailabilitySlot, 0, len(req.Slots))
	for _, in := range req.Slots {
		if !in.EndTS.After(in.StartTS) {
			utils.JSONError(c, http.StatusBadRequest, "slot end must be after start", "")
			return
		}
		slots = append(slots, models.AvailabilitySlot{
			ID:         uuid.New().String(),
			ResourceID: resourceID,
			StartTS:    in.StartTS.UTC(),
			EndTS:      in.EndTS.UTC(),
			Status:     models.SlotStatusOpen,
		})
	}

	if err := h.Slots.CreateSlots(c.Request.Context(), slots); err != nil {
		if errors.Is(err, availabilityRepo.ErrSlotConflict) {
			utils.JSONError(c, http.StatusConflict, "slot overlaps existing availability", "")
			return
		}
		h.Logger.Error("slot creation failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "slot creation failed", "")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": len(slots)})
}
