package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/dto"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/services"
)

// UserHandler serves account, profile and notification endpoints.
type UserHandler struct {
	users         *services.UserService
	notifications *services.NotificationService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *services.UserService, notifications *services.NotificationService) *UserHandler {
	return &UserHandler{
		users:         users,
		notifications: notifications,
	}
}

// Register creates a new account.
func (h *UserHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Title    string `json:"title"`
		Role     string `json:"role"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var role models.UserRole
	if req.Role != "" {
		parsed, err := models.ParseUserRole(req.Role)
		if err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}
		role = parsed
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Title:    req.Title,
		Role:     role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login authenticates a user and initializes the session.
func (h *UserHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Email and password are required")
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// Logout removes the session and expires the cookie.
func (h *UserHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logout successful",
	})
}

// GetTeamList returns every user.
func (h *UserHandler) GetTeamList(c *gin.Context) {
	users, err := h.users.GetTeamList(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTOs(users))
}

// GetNotificationsList returns the caller's unread notices.
func (h *UserHandler) GetNotificationsList(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	notices, err := h.notifications.GetNotificationList(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToNoticeDTOs(notices))
}

// UpdateUserProfile changes name and title. Admins may pass another user's
// id and a role.
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	type UpdateProfileRequest struct {
		ID    uint64  `json:"id"`
		Name  *string `json:"name"`
		Title *string `json:"title"`
		Role  *string `json:"role"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateProfileInput{
		ID:    req.ID,
		Name:  req.Name,
		Title: req.Title,
	}
	if req.Role != nil {
		role, err := models.ParseUserRole(*req.Role)
		if err != nil {
			apierrors.BadRequest(c, err.Error())
			return
		}
		input.Role = &role
	}

	actor, _ := middleware.CurrentUser(c)
	user, err := h.users.UpdateUserProfile(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    dto.ToUserDTO(*user),
	})
}

// MarkNotificationRead marks one notice (?id=) or all of them
// (?isReadType=all) as read.
func (h *UserHandler) MarkNotificationRead(c *gin.Context) {
	target := c.Query("id")
	if strings.EqualFold(c.Query("isReadType"), constants.ReadAllNotices) {
		target = constants.ReadAllNotices
	}

	userID, _ := middleware.GetUserID(c)
	if err := h.notifications.MarkNotificationRead(c.Request.Context(), userID, target); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Done",
	})
}

// ChangeUserPassword replaces the caller's password.
func (h *UserHandler) ChangeUserPassword(c *gin.Context) {
	type ChangePasswordRequest struct {
		OldPassword string `json:"oldPassword" binding:"required"`
		Password    string `json:"password" binding:"required"`
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Current and new password are required")
		return
	}

	userID, _ := middleware.GetUserID(c)
	if err := h.users.ChangeUserPassword(c.Request.Context(), userID, req.OldPassword, req.Password); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed successfully",
	})
}

// ActivateUserProfile sets or toggles a user's active flag.
func (h *UserHandler) ActivateUserProfile(c *gin.Context) {
	type ActivateRequest struct {
		IsActive *bool `json:"isActive"`
	}

	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	id, _ := middleware.GetIDParam(c)
	user, err := h.users.ActivateUserProfile(c.Request.Context(), id, req.IsActive)
	if err != nil {
		respondError(c, err)
		return
	}

	status := "deactivated"
	if user.IsActive {
		status = "activated"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User account has been " + status,
		"user":    dto.ToUserDTO(*user),
	})
}

// DeleteUserProfile removes a user.
func (h *UserHandler) DeleteUserProfile(c *gin.Context) {
	id, _ := middleware.GetIDParam(c)
	if err := h.users.DeleteUserProfile(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}
