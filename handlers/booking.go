package handlers

import (
	"errors"
	"net/http"
	"time"

	"innkeeper/services/booking"
	"innkeeper/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the reservation endpoint.
type BookingHandler struct {
	Allocator booking.AllocatorService
	Logger    *zap.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(allocator booking.AllocatorService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Allocator: allocator, Logger: logger}
}

// CreateBookingRequest is the reservation payload. Omitting the range
// reserves the earliest open slot on the resource.
type CreateBookingRequest struct {
	ResourceID string     `json:"resource_id" binding:"required"`
	StartTS    *time.Time `json:"start_ts"`
	EndTS      *time.Time `json:"end_ts"`
}

// CreateBookingHandler atomically reserves a slot and creates the order
// paying for it, returning the new order id.
func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	guestID := c.GetString("userID")
	orderID, err := h.Allocator.Reserve(c.Request.Context(), guestID, booking.ReserveRequest{
		ResourceID: req.ResourceID,
		StartTS:    req.StartTS,
		EndTS:      req.EndTS,
	})
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrResourceNotFound):
			utils.JSONError(c, http.StatusNotFound, "resource not found", "")
		case errors.Is(err, booking.ErrNoAvailability):
			utils.JSONError(c, http.StatusConflict, "no availability", "the requested slot is not open")
		case errors.Is(err, booking.ErrInvalidRange):
			utils.JSONError(c, http.StatusBadRequest, "invalid time range", "")
		default:
			h.Logger.Error("reservation failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "reservation failed", "")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order_id": orderID})
}
