package audit

import (
	"net/http"
	"strconv"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// List godoc
// @Summary      List admin audit events (admin)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        limit   query  int  false  "Max rows (default 50)"
// @Param        offset  query  int  false  "Rows to skip"
// @Success      200  {array}  Event
// @Router       /admin/audit [get]
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	events, err := h.store.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusOK, events)
}
