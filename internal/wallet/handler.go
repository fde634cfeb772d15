package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/api"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/audit"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/auth"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo    Repository
	auditor audit.Recorder
}

func NewHandler(repo Repository, auditor audit.Recorder) *Handler {
	return &Handler{repo: repo, auditor: auditor}
}

// GetWallet godoc
// @Summary      Wallet balances
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  Balances
// @Failure      404  {object}  api.ErrorResponse
// @Router       /wallet [get]
func (h *Handler) GetWallet(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	balances, err := h.repo.GetBalances(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Account not found", Code: api.CodeNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusOK, balances)
}

// GetTransactions godoc
// @Summary      Wallet ledger history
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query  int  false  "Page size"
// @Param        offset  query  int  false  "Page offset"
// @Success      200  {array}  Entry
// @Router       /wallet/transactions [get]
func (h *Handler) GetTransactions(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.repo.GetEntries(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusOK, entries)
}

// RequestWithdrawal godoc
// @Summary      Request a withdrawal
// @Description  Debits the main balance immediately; the payout is reviewed by staff.
// @Tags         wallet
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string           true  "Client idempotency token"
// @Param        request          body    WithdrawRequest  true  "Withdrawal amount"
// @Success      201  {object}  Withdrawal
// @Failure      400  {object}  api.ErrorResponse
// @Failure      402  {object}  api.ErrorResponse
// @Failure      403  {object}  api.ErrorResponse
// @Router       /wallet/withdrawals [post]
func (h *Handler) RequestWithdrawal(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	w, err := h.repo.RequestWithdrawal(c.Request.Context(), userID, req.AmountCents)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientBalance):
			metrics.WalletAdjustmentsTotal.WithLabelValues(EntryWithdrawal, "insufficient").Inc()
			c.JSON(http.StatusPaymentRequired, api.ErrorResponse{Error: "Insufficient withdrawable balance", Code: api.CodeInsufficientFunds})
		case errors.Is(err, ErrAccountBanned), errors.Is(err, ErrWithdrawalNotAllowed), errors.Is(err, ErrWithdrawalLocked):
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error(), Code: api.CodeForbidden})
		case errors.Is(err, ErrAccountNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Account not found", Code: api.CodeNotFound})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create withdrawal", Code: api.CodeInternal})
		}
		return
	}

	metrics.WalletAdjustmentsTotal.WithLabelValues(EntryWithdrawal, "ok").Inc()
	c.JSON(http.StatusCreated, w)
}

// MyWithdrawals godoc
// @Summary      List own withdrawals
// @Tags         wallet
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Withdrawal
// @Router       /wallet/withdrawals [get]
func (h *Handler) MyWithdrawals(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	ws, err := h.repo.GetUserWithdrawals(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusOK, ws)
}

// ListWithdrawals godoc
// @Summary      List withdrawals (staff)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {array}  Withdrawal
// @Router       /admin/withdrawals [get]
func (h *Handler) ListWithdrawals(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	ws, err := h.repo.ListWithdrawals(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusOK, ws)
}

// ReviewWithdrawal godoc
// @Summary      Approve, reject or mark a withdrawal paid (staff)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        withdrawalID  path  int  true  "Withdrawal ID"
// @Success      200  {object}  Withdrawal
// @Failure      404  {object}  api.ErrorResponse
// @Failure      409  {object}  api.ErrorResponse
// @Router       /admin/withdrawals/{withdrawalID} [post]
func (h *Handler) ReviewWithdrawal(c *gin.Context) {
	adminID, _ := auth.GetUserID(c)

	id, err := strconv.ParseInt(c.Param("withdrawalID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid withdrawal ID", Code: api.CodeInvalidInput})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=approved rejected paid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	w, err := h.repo.ReviewWithdrawal(c.Request.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrWithdrawalNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Withdrawal not found", Code: api.CodeNotFound})
		case errors.Is(err, ErrWithdrawalNotPending), errors.Is(err, ErrWithdrawalNotApproved):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error(), Code: api.CodeAlreadyProcessed})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to review withdrawal", Code: api.CodeInternal})
		}
		return
	}

	h.auditor.Record(c.Request.Context(), adminID, "withdrawal", req.Status, strconv.FormatInt(id, 10))

	c.JSON(http.StatusOK, w)
}

// AdminAdjust godoc
// @Summary      Credit or debit a user's wallet (staff)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        direction  path  string              true  "credit or debit"
// @Param        request    body  AdminAdjustRequest  true  "Adjustment"
// @Success      200  {object}  Entry
// @Failure      402  {object}  api.ErrorResponse
// @Router       /admin/wallet/{direction} [post]
func (h *Handler) AdminAdjust(c *gin.Context) {
	adminID, _ := auth.GetUserID(c)

	direction := c.Param("direction")
	if direction != "credit" && direction != "debit" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "direction must be credit or debit", Code: api.CodeInvalidInput})
		return
	}

	var req AdminAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	amount := req.AmountCents
	entryType := EntryAdminCredit
	if direction == "debit" {
		amount = -amount
		entryType = EntryAdminDebit
	}

	entry, err := h.repo.Adjust(c.Request.Context(), AdjustParams{
		UserID:      req.UserID,
		AmountCents: amount,
		Kind:        BalanceKind(req.Kind),
		Type:        entryType,
		Source:      SourceAdminPanel,
		Reference:   req.Reason,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientBalance):
			metrics.WalletAdjustmentsTotal.WithLabelValues(entryType, "insufficient").Inc()
			c.JSON(http.StatusPaymentRequired, api.ErrorResponse{Error: "Insufficient balance", Code: api.CodeInsufficientFunds})
		case errors.Is(err, ErrAccountNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Account not found", Code: api.CodeNotFound})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Adjustment failed", Code: api.CodeInternal})
		}
		return
	}

	metrics.WalletAdjustmentsTotal.WithLabelValues(entryType, "ok").Inc()
	h.auditor.Record(c.Request.Context(), adminID, "wallet", "adjust_"+direction, strconv.Itoa(req.UserID))

	c.JSON(http.StatusOK, entry)
}
