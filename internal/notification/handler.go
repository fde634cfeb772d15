package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/api"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// List godoc
// @Summary      List my notifications
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        limit  query  int  false  "Max rows (default 50)"
// @Success      200  {array}  Notification
// @Router       /notifications [get]
func (h *Handler) List(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := h.repo.ListForUser(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkRead godoc
// @Summary      Mark a notification read
// @Tags         notifications
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Notification ID"
// @Success      200  {object}  api.MessageResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /notifications/{id}/read [post]
func (h *Handler) MarkRead(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	if err := h.repo.MarkRead(c.Request.Context(), c.Param("id"), userID); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Notification not found", Code: api.CodeNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Notification marked read"})
}
