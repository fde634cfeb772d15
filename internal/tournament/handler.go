package tournament

import (
	"errors"
	"io"
	"net/http"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/api"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/audit"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/auth"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/coupon"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/wallet"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	bus     *Bus
	auditor audit.Recorder
}

func NewHandler(service Service, bus *Bus, auditor audit.Recorder) *Handler {
	return &Handler{service: service, bus: bus, auditor: auditor}
}

func joinStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, ErrTournamentNotFound):
		return http.StatusNotFound, api.CodeNotFound, "Tournament not found"
	case errors.Is(err, ErrTournamentClosed):
		return http.StatusConflict, api.CodeConflict, "Tournament is not open for registration"
	case errors.Is(err, ErrTournamentFull):
		return http.StatusConflict, api.CodeConflict, "Tournament is full"
	case errors.Is(err, ErrAlreadyRegistered):
		return http.StatusConflict, api.CodeConflict, "Already registered for this tournament"
	case errors.Is(err, ErrUserBanned):
		return http.StatusForbidden, api.CodeForbidden, "Account is banned"
	case errors.Is(err, wallet.ErrInsufficientBalance):
		return http.StatusPaymentRequired, api.CodeInsufficientFunds, "Insufficient wallet balance"
	case errors.Is(err, coupon.ErrInvalidCoupon):
		return http.StatusBadRequest, api.CodeInvalidInput, "Invalid coupon code"
	case errors.Is(err, coupon.ErrCouponExpired),
		errors.Is(err, coupon.ErrCouponNotApplicable),
		errors.Is(err, coupon.ErrCouponMinEntryNotMet):
		return http.StatusBadRequest, api.CodeInvalidInput, err.Error()
	case errors.Is(err, coupon.ErrCouponLimitReached),
		errors.Is(err, coupon.ErrCouponUserLimitReached):
		return http.StatusConflict, api.CodeConflict, err.Error()
	case errors.Is(err, coupon.ErrCouponFraudBlocked):
		return http.StatusForbidden, api.CodeForbidden, "Coupon blocked for this account"
	default:
		return http.StatusInternalServerError, api.CodeInternal, "Failed to join tournament"
	}
}

// Create godoc
// @Summary      Create a tournament (host)
// @Tags         tournaments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  CreateRequest  true  "Tournament definition"
// @Success      201  {object}  Tournament
// @Failure      400  {object}  api.ErrorResponse
// @Router       /tournaments [post]
func (h *Handler) Create(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	t, err := h.service.Create(c.Request.Context(), req, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create tournament", Code: api.CodeInternal})
		return
	}

	h.auditor.Record(c.Request.Context(), userID, "tournament", "create", t.ID)

	c.JSON(http.StatusCreated, t)
}

// List godoc
// @Summary      List tournaments
// @Tags         tournaments
// @Produce      json
// @Param        status  query  string  false  "Filter by status"
// @Success      200  {array}  Tournament
// @Router       /tournaments [get]
func (h *Handler) List(c *gin.Context) {
	status := Status(c.Query("status"))
	if status != "" && !status.Valid() {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Unknown status filter", Code: api.CodeInvalidInput})
		return
	}

	tournaments, err := h.service.List(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusOK, tournaments)
}

// Get godoc
// @Summary      Get one tournament
// @Description  Room credentials are visible only to staff and to registered
// @Description  participants once the tournament is live.
// @Tags         tournaments
// @Produce      json
// @Param        id  path  string  true  "Tournament ID"
// @Success      200  {object}  Tournament
// @Failure      404  {object}  api.ErrorResponse
// @Router       /tournaments/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	viewerID, _ := auth.GetUserID(c)
	role, _ := auth.GetUserRole(c)
	staff := role == auth.RoleAdmin || role == auth.RoleHost

	t, err := h.service.Get(c.Request.Context(), c.Param("id"), viewerID, staff)
	if err != nil {
		if errors.Is(err, ErrTournamentNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Tournament not found", Code: api.CodeNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusOK, t)
}

// GetPrizes godoc
// @Summary      Get the configured prize distribution
// @Tags         tournaments
// @Produce      json
// @Param        id  path  string  true  "Tournament ID"
// @Success      200  {array}  PrizeRow
// @Router       /tournaments/{id}/prizes [get]
func (h *Handler) GetPrizes(c *gin.Context) {
	prizes, err := h.service.GetPrizes(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusOK, prizes)
}

// GetResults godoc
// @Summary      Get declared results
// @Tags         tournaments
// @Produce      json
// @Param        id  path  string  true  "Tournament ID"
// @Success      200  {array}  Result
// @Router       /tournaments/{id}/results [get]
func (h *Handler) GetResults(c *gin.Context) {
	results, err := h.service.GetResults(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetRegistrations godoc
// @Summary      List registrations (staff)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Tournament ID"
// @Success      200  {array}  Registration
// @Router       /admin/tournaments/{id}/registrations [get]
func (h *Handler) GetRegistrations(c *gin.Context) {
	regs, err := h.service.GetRegistrations(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusOK, regs)
}

// Join godoc
// @Summary      Join a tournament
// @Description  Debits the entry fee (bonus balance first), registers the
// @Description  caller and takes one slot. Filling the last slot moves the
// @Description  tournament live.
// @Tags         tournaments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string       true  "Tournament ID"
// @Param        request  body  JoinRequest  true  "Registration details"
// @Success      200  {object}  Tournament
// @Failure      402  {object}  api.ErrorResponse
// @Failure      409  {object}  api.ErrorResponse
// @Router       /tournaments/{id}/join [post]
func (h *Handler) Join(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	outcome, err := h.service.Join(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		status, code, msg := joinStatus(err)
		c.JSON(status, api.ErrorResponse{Error: msg, Code: code})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tournament":     outcome.Tournament,
		"registration":   outcome.Registration,
		"fee_paid_cents": outcome.FeePaidCents,
		"discount_cents": outcome.DiscountCents,
	})
}

// DeclareResults godoc
// @Summary      Declare results and pay prizes (staff)
// @Description  Prizes are scaled to the fill ratio and consumed in position
// @Description  order until the effective pool runs out.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string          true  "Tournament ID"
// @Param        request  body  DeclareRequest  true  "Placements"
// @Success      200  {object}  Tournament
// @Failure      409  {object}  api.ErrorResponse
// @Router       /admin/tournaments/{id}/results [post]
func (h *Handler) DeclareResults(c *gin.Context) {
	adminID, _ := auth.GetUserID(c)

	var req DeclareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	outcome, err := h.service.DeclareResults(c.Request.Context(), c.Param("id"), req.Results)
	if err != nil {
		switch {
		case errors.Is(err, ErrTournamentNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Tournament not found", Code: api.CodeNotFound})
		case errors.Is(err, ErrResultsAlreadyDeclared):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Results already declared", Code: api.CodeAlreadyProcessed})
		case errors.Is(err, ErrInvalidTransition):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Tournament is not live", Code: api.CodeConflict})
		case errors.Is(err, ErrDuplicateResultPosition):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Duplicate position or user in results", Code: api.CodeInvalidInput})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to declare results", Code: api.CodeInternal})
		}
		return
	}

	h.auditor.Record(c.Request.Context(), adminID, "tournament", "declare_results", outcome.Tournament.ID)

	c.JSON(http.StatusOK, gin.H{
		"tournament":           outcome.Tournament,
		"effective_pool_cents": outcome.EffectivePoolCents,
		"paid_out_cents":       outcome.PaidOutCents,
		"results":              outcome.Results,
	})
}

// Cancel godoc
// @Summary      Cancel a tournament and refund entry fees (staff)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Tournament ID"
// @Success      200  {object}  Tournament
// @Failure      409  {object}  api.ErrorResponse
// @Router       /admin/tournaments/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	adminID, _ := auth.GetUserID(c)

	outcome, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrTournamentNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Tournament not found", Code: api.CodeNotFound})
		case errors.Is(err, ErrInvalidTransition):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Tournament cannot be cancelled", Code: api.CodeConflict})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to cancel tournament", Code: api.CodeInternal})
		}
		return
	}

	h.auditor.Record(c.Request.Context(), adminID, "tournament", "cancel", outcome.Tournament.ID)

	c.JSON(http.StatusOK, gin.H{
		"tournament":     outcome.Tournament,
		"refunded_users": outcome.RefundedCount,
		"refund_cents":   outcome.RefundCents,
	})
}

// GoLive godoc
// @Summary      Manually start a tournament (staff)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Tournament ID"
// @Success      200  {object}  Tournament
// @Failure      409  {object}  api.ErrorResponse
// @Router       /admin/tournaments/{id}/live [post]
func (h *Handler) GoLive(c *gin.Context) {
	adminID, _ := auth.GetUserID(c)

	outcome, err := h.service.GoLive(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrTournamentNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Tournament not found", Code: api.CodeNotFound})
		case errors.Is(err, ErrInvalidTransition):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Tournament cannot go live from its current status", Code: api.CodeConflict})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to start tournament", Code: api.CodeInternal})
		}
		return
	}

	h.auditor.Record(c.Request.Context(), adminID, "tournament", "go_live", outcome.Tournament.ID)

	c.JSON(http.StatusOK, outcome.Tournament)
}

// PublishRoom godoc
// @Summary      Publish room credentials (staff)
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string       true  "Tournament ID"
// @Param        request  body  RoomRequest  true  "Room credentials"
// @Success      200  {object}  Tournament
// @Router       /admin/tournaments/{id}/room [post]
func (h *Handler) PublishRoom(c *gin.Context) {
	adminID, _ := auth.GetUserID(c)

	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	t, err := h.service.PublishRoom(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, ErrTournamentNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Tournament not found", Code: api.CodeNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to publish room details", Code: api.CodeInternal})
		return
	}

	h.auditor.Record(c.Request.Context(), adminID, "tournament", "publish_room", t.ID)

	c.JSON(http.StatusOK, t)
}

// Events godoc
// @Summary      Tournament lifecycle event stream
// @Description  Server-sent events; one JSON event per lifecycle change.
// @Tags         tournaments
// @Produce      text/event-stream
// @Router       /tournaments/events [get]
func (h *Handler) Events(c *gin.Context) {
	ch, cancel := h.bus.Subscribe()
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("tournament", ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
