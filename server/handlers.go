package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/digigoat/digigoat-server/auth"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type emailRequest struct {
	Email string `json:"email"`
}

func (s *Server) sendOTP(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c)
		return
	}

	retryAfter, err := s.auth.RequestOTP(c.Request.Context(), req.Email)
	if errors.Is(err, auth.ThrottledErr) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"code":     "throttled",
			"message":  "Too many OTP requests. Please try again later.",
			"waitTime": retryAfter,
		})
		return
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to email"})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (s *Server) verifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c)
		return
	}

	if err := s.auth.VerifyOTP(req.Email, req.OTP); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP verified"})
}

type registerRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	PhoneNumber     string `json:"phone_number"`
	GroupID         int    `json:"group_id"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c)
		return
	}

	id, err := s.auth.Register(c.Request.Context(), auth.RegisterRequest{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		PhoneNumber:     req.PhoneNumber,
		GroupID:         req.GroupID,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful", "id": id})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c)
		return
	}

	result, err := s.auth.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   result.Token,
		"user": gin.H{
			"id":       result.UserID,
			"username": result.Username,
			"group_id": result.GroupID,
			"verified": result.Verified,
			"active":   result.Active,
		},
	})
}

func (s *Server) logout(c *gin.Context) {
	if err := s.auth.Logout(bearerToken(c)); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (s *Server) forgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c)
		return
	}

	if err := s.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		s.writeError(c, err)
		return
	}
	// identical reply whether or not the address holds an account
	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a reset link has been sent"})
}

// verifyResetToken is a GET so the reset page can check the link it was
// opened with before asking for a new password.
func (s *Server) verifyResetToken(c *gin.Context) {
	if err := s.auth.VerifyResetToken(c.Query("email"), c.Query("token")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Token is valid"})
}

type resetPasswordRequest struct {
	Email           string `json:"email"`
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c)
		return
	}

	err := s.auth.ResetPassword(c.Request.Context(), req.Email, req.Token, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

func (s *Server) me(c *gin.Context) {
	p := currentPrincipal(c)
	c.JSON(http.StatusOK, gin.H{
		"id":       p.UserID,
		"username": p.Username,
		"email":    p.Email,
		"group_id": p.GroupID,
	})
}
