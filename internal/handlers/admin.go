package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hexaosint/api/internal/repository"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	users, err := h.auth.ListUsers(c.Request.Context())
	if err != nil {
		h.internalError(c, err, "admin list users failed")
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, toUserResponse(user))
	}

	c.JSON(http.StatusOK, gin.H{"users": resp, "total": len(resp)})
}

type setUserStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// AdminSetUserStatus enables or disables an account. Disabling revokes all
// of the account's refresh tokens.
func (h HandlerSet) AdminSetUserStatus(c *gin.Context) {
	userID := c.Param("id")

	var req setUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "detail": err.Error()})
		return
	}

	if err := h.auth.SetUserActive(c.Request.Context(), userID, *req.IsActive); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
			return
		}
		h.internalError(c, err, "admin set user status failed")
		return
	}

	c.Status(http.StatusNoContent)
}
