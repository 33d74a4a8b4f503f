package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// setUserActive toggles an account's active flag. Deactivation revokes the
// account's live session, so its token stops working immediately.
func (s *Server) setUserActive(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortWith(c, http.StatusBadRequest, "validation_error", "Invalid user id")
		return
	}

	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c)
		return
	}

	if err := s.auth.SetAccountActive(c.Request.Context(), userID, *req.Active); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated", "active": *req.Active})
}
