package payment

import (
	"errors"
	"io"
	"net/http"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/api"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/auth"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateOrder godoc
// @Summary      Create a wallet top-up order
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  CreateOrderRequest  true  "Top-up amount"
// @Success      201  {object}  Order
// @Failure      400  {object}  api.ErrorResponse
// @Router       /payments/orders [post]
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), userID, req.AmountCents)
	if err != nil {
		logger.Error("Failed to create payment order", "user_id", userID, "error", err)
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "Payment gateway unavailable", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusCreated, order)
}

// Verify godoc
// @Summary      Verify a checkout callback and credit the wallet
// @Description  Validates the gateway signature; the credit lands at most
// @Description  once per order no matter how often this is called.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  VerifyRequest  true  "Gateway callback fields"
// @Success      200  {object}  Order
// @Failure      400  {object}  api.ErrorResponse
// @Failure      409  {object}  api.ErrorResponse
// @Router       /payments/verify [post]
func (h *Handler) Verify(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	order, err := h.service.VerifyAndCredit(c.Request.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSignatureMismatch):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid payment signature", Code: api.CodeInvalidInput})
		case errors.Is(err, ErrOrderNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Order not found", Code: api.CodeNotFound})
		case errors.Is(err, ErrOrderOwnership):
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Order belongs to another account", Code: api.CodeForbidden})
		case errors.Is(err, ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Payment already processed", Code: api.CodeAlreadyProcessed})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to verify payment", Code: api.CodeInternal})
		}
		return
	}

	c.JSON(http.StatusOK, order)
}

// Webhook godoc
// @Summary      Payment gateway webhook
// @Description  Signature is computed over the raw request body.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Success      200  {object}  api.MessageResponse
// @Failure      400  {object}  api.ErrorResponse
// @Router       /payments/webhook [post]
func (h *Handler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Unreadable body", Code: api.CodeInvalidInput})
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if err := h.service.HandleWebhook(c.Request.Context(), body, signature); err != nil {
		if errors.Is(err, ErrSignatureMismatch) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid webhook signature", Code: api.CodeInvalidInput})
			return
		}
		logger.Error("Webhook processing failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Webhook processing failed", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "ok"})
}
