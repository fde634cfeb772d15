package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/api"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/audit"
	"github.com/BattleNestOfficial/tournament-web-app-sub000/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	auditor audit.Recorder
}

func NewHandler(service Service, auditor audit.Recorder) *Handler {
	return &Handler{service: service, auditor: auditor}
}

// Register godoc
// @Summary      Register new user
// @Description  Creates a new player account and returns access & refresh tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RegisterRequest  true  "User registration data"
// @Success      201      {object}  LoginResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      409      {object}  api.ErrorResponse
// @Failure      500      {object}  api.ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	u, accessToken, refreshToken, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Email already registered", Code: api.CodeConflict})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to register user", Code: api.CodeInternal})
		return
	}

	c.JSON(http.StatusCreated, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *u,
	})
}

// Login godoc
// @Summary      Login user
// @Description  Authenticates user by email and password.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      LoginRequest  true  "User credentials"
// @Success      200      {object}  LoginResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	u, accessToken, refreshToken, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid email or password", Code: api.CodeForbidden})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *u,
	})
}

// Refresh godoc
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      RefreshRequest  true  "Refresh token"
// @Success      200      {object}  gin.H
// @Failure      401      {object}  api.ErrorResponse
// @Router       /auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
		return
	}

	accessToken, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid refresh token", Code: api.CodeForbidden})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": accessToken})
}

// GetMe godoc
// @Summary      Current user profile
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  User
// @Failure      404  {object}  api.ErrorResponse
// @Router       /me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID, exists := auth.GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	u, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "User not found", Code: api.CodeNotFound})
		return
	}

	c.JSON(http.StatusOK, u)
}

// SetBanned godoc
// @Summary      Ban or unban a user
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        userID  path  int  true  "User ID"
// @Success      200  {object}  api.MessageResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /admin/users/{userID}/ban [post]
func (h *Handler) SetBanned(repo Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, _ := auth.GetUserID(c)

		targetID, err := strconv.Atoi(c.Param("userID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid user ID", Code: api.CodeInvalidInput})
			return
		}

		var req struct {
			Banned bool `json:"banned"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error(), Code: api.CodeInvalidInput})
			return
		}

		if err := repo.SetBanned(c.Request.Context(), targetID, req.Banned); err != nil {
			if errors.Is(err, ErrUserNotFound) {
				c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "User not found", Code: api.CodeNotFound})
				return
			}
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Database error", Code: api.CodeInternal})
			return
		}

		action := "ban"
		if !req.Banned {
			action = "unban"
		}
		h.auditor.Record(c.Request.Context(), adminID, "user", action, strconv.Itoa(targetID))

		c.JSON(http.StatusOK, api.MessageResponse{Message: "User updated"})
	}
}
