package auth

import "errors"

var (
	AlreadyRegisteredErr  = errors.New("email already registered")
	ThrottledErr          = errors.New("too many code requests")
	CodeInvalidErr        = errors.New("invalid or expired code")
	OTPNotVerifiedErr     = errors.New("email not verified with a code")
	UserExistsErr         = errors.New("user already exists")
	UserNotFoundErr       = errors.New("user not found")
	InvalidCredentialsErr = errors.New("invalid email or password")
	EmailNotVerifiedErr   = errors.New("email not verified")
	AccountInactiveErr    = errors.New("account is inactive")
	NoTokenErr            = errors.New("no token provided")
	TokenInvalidErr       = errors.New("invalid token")
	SessionInvalidErr     = errors.New("invalid or expired session")
	ResetTokenInvalidErr  = errors.New("invalid or expired reset token")
	ForbiddenErr          = errors.New("insufficient privileges")
	StoreUnavailableErr   = errors.New("account store unavailable")
	DeliveryFailedErr     = errors.New("could not send email")
)

// ValidationError carries the message shown to the client when a request
// fails input validation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationErr(msg string) error {
	return &ValidationError{Msg: msg}
}
