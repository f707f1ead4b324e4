// admin.go - Admin-only user management

package handlers

import (
	"errors"
	"net/http"

	"envsense-backend/store"

	"github.com/gin-gonic/gin"
)

// MakeAdmin promotes the user named by :id to the admin role.
func (h *Handler) MakeAdmin(c *gin.Context) {
	user, err := h.Users.PromoteToAdmin(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		h.serverError(c, "message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User promoted to admin", "user": user})
}
