// Package auth implements the account workflows: OTP-gated registration,
// login with single-session enforcement, logout, and password reset.
package auth

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/digigoat/digigoat-server/credentials"
	"github.com/digigoat/digigoat-server/ratelimit"
	"github.com/digigoat/digigoat-server/token"
	"github.com/digigoat/digigoat-server/users"
)

const (
	otpSubject   = "Digi Goat registration code"
	resetSubject = "Digi Goat password reset"

	minPasswordLen = 6
)

// Notifier sends a plain-text email to an account holder.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Stores groups the dependencies of the service.
type Stores struct {
	Credentials *credentials.Store
	Limiter     *ratelimit.Limiter
	Users       users.Store
	Notifier    Notifier
	Tokens      *token.Codec
}

type Service struct {
	stores      Stores
	log         zerolog.Logger
	frontendURL string
	bcryptCost  int
}

type Option func(*Service)

// WithFrontendURL sets the base URL embedded in password-reset links.
func WithFrontendURL(u string) Option {
	return func(s *Service) {
		s.frontendURL = u
	}
}

// WithBcryptCost overrides the hashing cost. Tests lower it.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func NewService(stores Stores, logger zerolog.Logger, options ...Option) (*Service, error) {
	if stores.Credentials == nil {
		return nil, errors.New("[NewService] nil credentials store")
	}
	if stores.Limiter == nil {
		return nil, errors.New("[NewService] nil rate limiter")
	}
	if stores.Users == nil {
		return nil, errors.New("[NewService] nil user store")
	}
	if stores.Notifier == nil {
		return nil, errors.New("[NewService] nil notifier")
	}
	if stores.Tokens == nil {
		return nil, errors.New("[NewService] nil token codec")
	}

	s := &Service{
		stores:      stores,
		log:         logger,
		frontendURL: "http://localhost:3001",
		bcryptCost:  10,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// RequestOTP issues a registration code and emails it. When the caller is
// throttled the returned int is the number of seconds until the window
// resets.
func (s *Service) RequestOTP(ctx context.Context, email string) (int, error) {
	if email == "" {
		return 0, validationErr("Email is required")
	}

	_, err := s.stores.Users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return 0, AlreadyRegisteredErr
	case errors.Is(err, users.NotFoundErr):
		// fresh email, continue
	default:
		s.log.Error().Err(err).Msg("RequestOTP: user lookup failed")
		return 0, StoreUnavailableErr
	}

	if res := s.stores.Limiter.Allow(email); !res.Allowed {
		return res.RetryAfter, ThrottledErr
	}

	code, err := s.stores.Credentials.IssueOTP(email)
	if err != nil {
		return 0, errors.Wrap(err, "[RequestOTP] IssueOTP")
	}

	body := fmt.Sprintf("Your Digi Goat verification code is %s.\n\nThe code is valid for 2 minutes.", code)
	if err := s.stores.Notifier.Send(ctx, email, otpSubject, body); err != nil {
		// The code stays issued; the client may retry the send.
		s.log.Error().Err(err).Str("email", email).Msg("RequestOTP: delivery failed")
		return 0, DeliveryFailedErr
	}
	return 0, nil
}

// VerifyOTP checks a submitted code and marks the email verified for
// registration.
func (s *Service) VerifyOTP(email, code string) error {
	if email == "" || code == "" {
		return validationErr("Email and OTP are required")
	}
	if err := s.stores.Credentials.VerifyOTP(email, code); err != nil {
		return CodeInvalidErr
	}
	return nil
}

type RegisterRequest struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
	PhoneNumber     string
	GroupID         int
}

// Register creates an account. The email must hold a verified, unexpired
// code; registration consumes it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (int64, error) {
	if req.Username == "" || req.Email == "" || req.Password == "" || req.ConfirmPassword == "" || req.PhoneNumber == "" {
		return 0, validationErr("All fields are required")
	}
	if req.Password != req.ConfirmPassword {
		return 0, validationErr("Passwords do not match")
	}
	if !users.ValidGroup(req.GroupID) {
		return 0, validationErr("Invalid group")
	}

	if !s.stores.Credentials.OTPVerified(req.Email) {
		return 0, OTPNotVerifiedErr
	}

	_, err := s.stores.Users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return 0, UserExistsErr
	case errors.Is(err, users.NotFoundErr):
	default:
		s.log.Error().Err(err).Msg("Register: user lookup failed")
		return 0, StoreUnavailableErr
	}

	hash, err := users.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return 0, errors.Wrap(err, "[Register] HashPassword")
	}

	id, err := s.stores.Users.Insert(ctx, users.NewUser{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		PhoneNumber:  req.PhoneNumber,
		GroupID:      req.GroupID,
	})
	if errors.Is(err, users.DuplicateEmailErr) {
		// lost an insert race with a concurrent registration
		return 0, UserExistsErr
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Register: insert failed")
		return 0, StoreUnavailableErr
	}

	s.stores.Credentials.DeleteOTP(req.Email)
	s.log.Info().Int64("user_id", id).Msg("account registered")
	return id, nil
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token    string
	UserID   int64
	Username string
	GroupID  int
	Verified bool
	Active   bool
}

// Login checks credentials, then verified, then active, and on success
// replaces any previous session for the user.
func (s *Service) Login(ctx context.Context, email, password, clientIP string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, validationErr("Email and password are required")
	}

	user, err := s.stores.Users.FindByEmail(ctx, email)
	if errors.Is(err, users.NotFoundErr) {
		return nil, InvalidCredentialsErr
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Login: user lookup failed")
		return nil, StoreUnavailableErr
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, InvalidCredentialsErr
	}
	if !user.Verified {
		return nil, EmailNotVerifiedErr
	}
	if !user.Active {
		return nil, AccountInactiveErr
	}

	sessionID := s.stores.Credentials.IssueSession(user.ID, clientIP)
	signed, err := s.stores.Tokens.Encode(user.ID, sessionID, clientIP, user.GroupID)
	if err != nil {
		return nil, errors.Wrap(err, "[Login] Encode")
	}

	s.log.Info().Int64("user_id", user.ID).Msg("login")
	return &LoginResult{
		Token:    signed,
		UserID:   user.ID,
		Username: user.Username,
		GroupID:  user.GroupID,
		Verified: user.Verified,
		Active:   user.Active,
	}, nil
}

// Logout ends the session embedded in the token. A token whose session is no
// longer the live one cannot log anyone out.
func (s *Service) Logout(tokenString string) error {
	if tokenString == "" {
		return NoTokenErr
	}
	claims, err := s.stores.Tokens.Decode(tokenString)
	if err != nil {
		return TokenInvalidErr
	}
	if err := s.stores.Credentials.RevokeSessionMatching(claims.UserID, claims.SessionID); err != nil {
		return SessionInvalidErr
	}
	s.log.Info().Int64("user_id", claims.UserID).Msg("logout")
	return nil
}

// ForgotPassword issues a reset token and emails a reset link. It reports
// success for unknown emails and on delivery failure alike, so responses
// cannot be used to probe which addresses hold accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return validationErr("Email is required")
	}

	user, err := s.stores.Users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, users.NotFoundErr) {
			s.log.Error().Err(err).Msg("ForgotPassword: user lookup failed")
		}
		return nil
	}
	if !user.Verified {
		// only verified accounts get a token, but the reply stays generic
		return nil
	}

	resetToken, err := s.stores.Credentials.IssueResetToken(email, user.ID)
	if err != nil {
		s.log.Error().Err(err).Msg("ForgotPassword: token issue failed")
		return nil
	}

	link := fmt.Sprintf("%s/reset-password?email=%s&token=%s",
		s.frontendURL, url.QueryEscape(email), resetToken)
	body := fmt.Sprintf("A password reset was requested for your Digi Goat account.\n\n"+
		"Open the link below to choose a new password. The link is valid for 15 minutes.\n\n%s\n\n"+
		"If you did not request this, you can ignore this email.", link)
	if err := s.stores.Notifier.Send(ctx, email, resetSubject, body); err != nil {
		s.log.Error().Err(err).Str("email", email).Msg("ForgotPassword: delivery failed")
	}
	return nil
}

// VerifyResetToken checks a reset token without consuming it, so the reset
// form can reject a dead link before asking for a new password.
func (s *Service) VerifyResetToken(email, resetToken string) error {
	if email == "" || resetToken == "" {
		return validationErr("Email and token are required")
	}
	if err := s.stores.Credentials.VerifyResetToken(email, resetToken); err != nil {
		return ResetTokenInvalidErr
	}
	return nil
}

// ResetPassword consumes the reset token, replaces the password hash and
// revokes the user's live session.
func (s *Service) ResetPassword(ctx context.Context, email, resetToken, newPassword, confirmPassword string) error {
	if email == "" || resetToken == "" || newPassword == "" || confirmPassword == "" {
		return validationErr("All fields are required")
	}
	if newPassword != confirmPassword {
		return validationErr("Passwords do not match")
	}
	if len(newPassword) < minPasswordLen {
		return validationErr("Password must be at least 6 characters")
	}

	userID, err := s.stores.Credentials.ConsumeResetToken(email, resetToken)
	if err != nil {
		return ResetTokenInvalidErr
	}

	hash, err := users.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return errors.Wrap(err, "[ResetPassword] HashPassword")
	}
	if err := s.stores.Users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, users.NotFoundErr) {
			return ResetTokenInvalidErr
		}
		s.log.Error().Err(err).Msg("ResetPassword: update failed")
		return StoreUnavailableErr
	}

	s.stores.Credentials.RevokeSession(userID)
	s.log.Info().Int64("user_id", userID).Msg("password reset")
	return nil
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID   int64
	Username string
	Email    string
	GroupID  int
}

func (p *Principal) IsAdmin() bool    { return p.GroupID == users.GroupAdmin }
func (p *Principal) IsCustomer() bool { return p.GroupID == users.GroupCustomer }

// Authenticate validates a bearer token against the live session and the
// account's current state. An inactive or deleted account also loses its
// session here.
func (s *Service) Authenticate(ctx context.Context, tokenString, clientIP string) (*Principal, error) {
	if tokenString == "" {
		return nil, NoTokenErr
	}
	claims, err := s.stores.Tokens.Decode(tokenString)
	if err != nil {
		return nil, TokenInvalidErr
	}
	if err := s.stores.Credentials.ValidateSession(claims.UserID, claims.SessionID, clientIP); err != nil {
		return nil, SessionInvalidErr
	}

	user, err := s.stores.Users.FindByID(ctx, claims.UserID)
	if errors.Is(err, users.NotFoundErr) {
		s.stores.Credentials.RevokeSession(claims.UserID)
		return nil, AccountInactiveErr
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Authenticate: user lookup failed")
		return nil, StoreUnavailableErr
	}
	if !user.Active {
		s.stores.Credentials.RevokeSession(user.ID)
		return nil, AccountInactiveErr
	}

	return &Principal{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		GroupID:  user.GroupID,
	}, nil
}

// SetAccountActive toggles the active flag. Deactivation also revokes any
// live session so the account drops off immediately rather than at its next
// middleware check.
func (s *Service) SetAccountActive(ctx context.Context, userID int64, active bool) error {
	if err := s.stores.Users.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, users.NotFoundErr) {
			return UserNotFoundErr
		}
		s.log.Error().Err(err).Msg("SetAccountActive: update failed")
		return StoreUnavailableErr
	}
	if !active {
		s.stores.Credentials.RevokeSession(userID)
	}
	s.log.Info().Int64("user_id", userID).Bool("active", active).Msg("account active flag changed")
	return nil
}
