package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/digigoat/digigoat-server/auth"
)

// writeError maps workflow errors onto HTTP replies. Internal detail never
// reaches the client; unknown errors are logged and come back generic.
func (s *Server) writeError(c *gin.Context, err error) {
	var ve *auth.ValidationError
	if errors.As(err, &ve) {
		abortWith(c, http.StatusBadRequest, "validation_error", ve.Msg)
		return
	}

	switch {
	case errors.Is(err, auth.AlreadyRegisteredErr):
		abortWith(c, http.StatusBadRequest, "already_registered", "Email is already registered")
	case errors.Is(err, auth.CodeInvalidErr):
		abortWith(c, http.StatusBadRequest, "invalid_otp", "Invalid or expired OTP")
	case errors.Is(err, auth.OTPNotVerifiedErr):
		abortWith(c, http.StatusForbidden, "otp_not_verified", "Please verify your email first")
	case errors.Is(err, auth.UserExistsErr):
		abortWith(c, http.StatusBadRequest, "user_exists", "User already exists")
	case errors.Is(err, auth.UserNotFoundErr):
		abortWith(c, http.StatusNotFound, "user_not_found", "User not found")
	case errors.Is(err, auth.InvalidCredentialsErr):
		abortWith(c, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
	case errors.Is(err, auth.EmailNotVerifiedErr):
		abortWith(c, http.StatusForbidden, "email_not_verified", "Email is not verified")
	case errors.Is(err, auth.AccountInactiveErr):
		abortWith(c, http.StatusForbidden, "account_inactive", "Account is inactive")
	case errors.Is(err, auth.NoTokenErr):
		abortWith(c, http.StatusUnauthorized, "no_token", "No token provided")
	case errors.Is(err, auth.TokenInvalidErr):
		abortWith(c, http.StatusUnauthorized, "invalid_token", "Invalid token")
	case errors.Is(err, auth.SessionInvalidErr):
		abortWith(c, http.StatusUnauthorized, "invalid_session", "Invalid or expired session")
	case errors.Is(err, auth.ResetTokenInvalidErr):
		abortWith(c, http.StatusBadRequest, "invalid_reset_token", "Invalid or expired reset token")
	case errors.Is(err, auth.ForbiddenErr):
		abortWith(c, http.StatusForbidden, "forbidden", "Access denied")
	case errors.Is(err, auth.DeliveryFailedErr):
		abortWith(c, http.StatusInternalServerError, "delivery_failed", "Failed to send email")
	default:
		s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		abortWith(c, http.StatusInternalServerError, "internal_error", "Something went wrong")
	}
}

func abortWith(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": message})
}

func badRequestBody(c *gin.Context) {
	abortWith(c, http.StatusBadRequest, "validation_error", "Invalid request body")
}
