package handlers

import (
	"errors"
	"net/http"

	catalogRepo "innkeeper/database/repository/catalog"
	"innkeeper/services/order"
	"innkeeper/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrderHandler exposes the order ledger endpoints.
type OrderHandler struct {
	Ledger  order.LedgerService
	Catalog catalogRepo.CatalogRepository
	Logger  *zap.Logger
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(ledger order.LedgerService, catalog catalogRepo.CatalogRepository, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{Ledger: ledger, Catalog: catalog, Logger: logger}
}

// CreateOrderRequest is the cart-order payload (dining flow). Lines carry
// client-selected items priced at order time.
type CreateOrderRequest struct {
	PropertyID string            `json:"property_id" binding:"required"`
	Lines      []order.LineInput `json:"lines" binding:"required"`
}

// CreateOrderHandler places a cart order for the authenticated guest.
func (h *OrderHandler) CreateOrderHandler(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	guestID := c.GetString("userID")
	orderID, err := h.Ledger.CreateCartOrder(c.Request.Context(), guestID, req.PropertyID, req.Lines)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyOrder), errors.Is(err, order.ErrInvalidLine):
			utils.JSONError(c, http.StatusBadRequest, "invalid order", err.Error())
		default:
			h.Logger.Error("order creation failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "order creation failed", "")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order_id": orderID})
}

// GetOrderHandler returns a single order with its lines; owner only.
func (h *OrderHandler) GetOrderHandler(c *gin.Context) {
	guestID := c.GetString("userID")
	ord, lines, err := h.Ledger.GetOrder(c.Request.Context(), guestID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			utils.JSONError(c, http.StatusNotFound, "order not found", "")
		case errors.Is(err, order.ErrNotOwner):
			utils.JSONError(c, http.StatusForbidden, "not your order", "")
		default:
			h.Logger.Error("order fetch failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "order fetch failed", "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": ord, "lines": lines})
}

// ListMyOrdersHandler returns the caller's orders, newest first.
func (h *OrderHandler) ListMyOrdersHandler(c *gin.Context) {
	guestID := c.GetString("userID")
	orders, err := h.Ledger.ListGuestOrders(c.Request.Context(), guestID)
	if err != nil {
		h.Logger.Error("order listing failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "order listing failed", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// CancelOrderHandler cancels an initiated or pending order. A cancel that
// lost the race against settlement is rejected with 409.
func (h *OrderHandler) CancelOrderHandler(c *gin.Context) {
	guestID := c.GetString("userID")
	if err := h.Ledger.Cancel(c.Request.Context(), guestID, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			utils.JSONError(c, http.StatusNotFound, "order not found", "")
		case errors.Is(err, order.ErrNotOwner):
			utils.JSONError(c, http.StatusForbidden, "not your order", "")
		case errors.Is(err, order.ErrCancelConflict):
			utils.JSONError(c, http.StatusConflict, "order can no longer be cancelled", "")
		default:
			h.Logger.Error("order cancel failed", zap.Error(err))
			utils.JSONError(c, http.StatusInternalServerError, "order cancel failed", "")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// ListPropertyOrdersHandler returns the orders of the property managed by
// the authenticated manager.
func (h *OrderHandler) ListPropertyOrdersHandler(c *gin.Context) {
	managerID := c.GetString("userID")
	property, err := h.Catalog.GetPropertyByManager(c.Request.Context(), managerID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrPropertyNotFound) {
			utils.JSONError(c, http.StatusNotFound, "no property for manager", "")
			return
		}
		h.Logger.Error("property lookup failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "property lookup failed", "")
		return
	}

	orders, err := h.Ledger.ListPropertyOrders(c.Request.Context(), property.ID)
	if err != nil {
		h.Logger.Error("order listing failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "order listing failed", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
