package coupon

import (
	"errors"
	"net/http"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/api"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/audit"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/auth"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

type Handler struct {
	repo    Repository
	auditor audit.Recorder
}

func NewHandler(repo Repository, auditor audit.Recorder) *Handler {
	return &Handler{repo: repo, auditor: auditor}
}

func couponStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidCoupon):
		return http.StatusNotFound, api.CodeNotFound
	case errors.Is(err, ErrCouponExpired),
		errors.Is(err, ErrCouponNotApplicable),
		errors.Is(err, ErrCouponMinEntryNotMet):
		return http.StatusBadRequest, api.CodeInvalidInput
	case errors.Is(err, ErrCouponLimitReached),
		errors.Is(err, ErrCouponUserLimitReached):
		return http.StatusConflict, api.CodeConflict
	case errors.Is(err, ErrCouponFraudBlocked):
		return http.StatusForbidden, api.CodeForbidden
	default:
		return http.StatusInternalServerError, api.CodeInternal
	}
}

// Redeem godoc
// @Summary      Redeem a bonus-credit coupon
// @Description  Credits the bonus balance for wallet-context coupons.
// @Tags         coupons
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  RedeemRequest  true  "Coupon code"
// @Success      200  {object}  Resolution
// @Failure      400  {object}  api.ErrorResponse
// @Failure      404  {object}  api.ErrorResponse
// @Failure      409  {object}  api.ErrorResponse
// @Router       /coupons/redeem [post]
func (h *Handler) Redeem(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	res, err := h.repo.RedeemForWallet(c.Request.Context(), userID, req.Code)
	if err != nil {
		metrics.CouponRedemptionsTotal.WithLabelValues(ContextWallet, "error").Inc()
		status, code := couponStatus(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			msg = "Failed to redeem coupon"
		}
		c.JSON(status, api.ErrorResponse{Error: msg, Code: code})
		return
	}

	metrics.CouponRedemptionsTotal.WithLabelValues(ContextWallet, "ok").Inc()
	c.JSON(http.StatusOK, res)
}

// Create godoc
// @Summary      Create a coupon (staff)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  CreateRequest  true  "Coupon definition"
// @Success      201  {object}  Coupon
// @Failure      409  {object}  api.ErrorResponse
// @Router       /admin/coupons [post]
func (h *Handler) Create(c *gin.Context) {
	adminID, _ := auth.GetUserID(c)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	cp, err := h.repo.Create(c.Request.Context(), req)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Coupon code already exists", Code: api.CodeConflict})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create coupon", Code: api.CodeInternal})
		return
	}

	h.auditor.Record(c.Request.Context(), adminID, "coupon", "create", cp.Code)

	c.JSON(http.StatusCreated, cp)
}

// List godoc
// @Summary      List coupons (staff)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Coupon
// @Router       /admin/coupons [get]
func (h *Handler) List(c *gin.Context) {
	coupons, err := h.repo.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusOK, coupons)
}

// SetEnabled godoc
// @Summary      Enable or disable a coupon (staff)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        code  path  string  true  "Coupon code"
// @Success      200  {object}  api.MessageResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /admin/coupons/{code} [patch]
func (h *Handler) SetEnabled(c *gin.Context) {
	adminID, _ := auth.GetUserID(c)

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	code := c.Param("code")
	if err := h.repo.SetEnabled(c.Request.Context(), code, req.Enabled); err != nil {
		if errors.Is(err, ErrInvalidCoupon) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Coupon not found", Code: api.CodeNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
		return
	}

	action := "disable"
	if req.Enabled {
		action = "enable"
	}
	h.auditor.Record(c.Request.Context(), adminID, "coupon", action, Normalize(code))

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Coupon updated"})
}
