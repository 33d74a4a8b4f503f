// Package credentials holds the in-memory credential state of the service:
// one-time registration codes, live login sessions and password-reset tokens.
// Everything lives for minutes at most and is lost on restart.
package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	CodeInvalidErr       = errors.New("invalid or expired code")
	SessionInvalidErr    = errors.New("invalid or expired session")
	ResetTokenInvalidErr = errors.New("invalid or expired reset token")
)

const (
	otpTTL         = 2 * time.Minute
	otpRetention   = 5 * time.Minute
	sessionTTL     = time.Hour
	resetTTL       = 15 * time.Minute
	resetRetention = 20 * time.Minute
)

type codeState uint8

const (
	codeIssued codeState = iota
	codeVerified
)

type oneTimeCode struct {
	code      string
	state     codeState
	expiresAt time.Time // code stops verifying here
	sweepAt   time.Time // entry is evicted here
}

// Session is a live login session for a single user. A user has at most one.
type Session struct {
	ID        string
	ClientIP  string
	ExpiresAt time.Time
}

type resetToken struct {
	token     string
	userID    int64
	expiresAt time.Time
	sweepAt   time.Time
}

// Store keeps all three credential maps behind one mutex. Expiry is enforced
// on every read; Start runs a background sweeper that evicts entries whose
// retention horizon has passed, so abandoned credentials do not accumulate.
type Store struct {
	mu          sync.Mutex
	otps        map[string]*oneTimeCode
	sessions    map[int64]*Session
	resetTokens map[string]*resetToken

	nowTime    func() time.Time
	sweepEvery time.Duration
	done       chan struct{}
	stopOnce   sync.Once
}

type Option func(*Store)

// WithNowTime injects the clock, used by tests to step time.
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

// WithSweepInterval changes how often the background sweeper runs.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		s.sweepEvery = d
	}
}

func NewStore(options ...Option) *Store {
	s := &Store{
		otps:        make(map[string]*oneTimeCode),
		sessions:    make(map[int64]*Session),
		resetTokens: make(map[string]*resetToken),
		nowTime:     time.Now,
		sweepEvery:  30 * time.Second,
		done:        make(chan struct{}),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Start launches the sweep goroutine. Close stops it.
func (s *Store) Start() {
	go func() {
		ticker := time.NewTicker(s.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.done:
				return
			}
		}
	}()
}

func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Store) sweep() {
	now := s.nowTime()
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, otp := range s.otps {
		if !now.Before(otp.sweepAt) {
			delete(s.otps, email)
		}
	}
	for email, rt := range s.resetTokens {
		if !now.Before(rt.sweepAt) {
			delete(s.resetTokens, email)
		}
	}
}

// IssueOTP generates a six digit code for the email and stores it, replacing
// any previous code for the same address. The code verifies for two minutes.
func (s *Store) IssueOTP(email string) (string, error) {
	code, err := sixDigitCode()
	if err != nil {
		return "", errors.Wrap(err, "[IssueOTP]")
	}

	now := s.nowTime()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otps[email] = &oneTimeCode{
		code:      code,
		state:     codeIssued,
		expiresAt: now.Add(otpTTL),
		sweepAt:   now.Add(otpRetention),
	}
	return code, nil
}

// VerifyOTP checks the submitted code and, on success, marks the entry
// verified. Verification can be repeated while the entry lives; only
// registration consumes it.
func (s *Store) VerifyOTP(email, code string) error {
	now := s.nowTime()
	s.mu.Lock()
	defer s.mu.Unlock()

	otp, ok := s.otps[email]
	if !ok || otp.code != code || now.After(otp.expiresAt) {
		return CodeInvalidErr
	}
	otp.state = codeVerified
	return nil
}

// OTPVerified reports whether the email holds a verified, still valid code.
func (s *Store) OTPVerified(email string) bool {
	now := s.nowTime()
	s.mu.Lock()
	defer s.mu.Unlock()

	otp, ok := s.otps[email]
	return ok && otp.state == codeVerified && !now.After(otp.expiresAt)
}

// DeleteOTP removes the email's code entry, if any.
func (s *Store) DeleteOTP(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.otps, email)
}

// IssueSession creates a session for the user and returns its ID. Any
// previous session for the same user is replaced, so at most one token per
// user validates at a time.
func (s *Store) IssueSession(userID int64, clientIP string) string {
	sessionID := uuid.NewString()
	now := s.nowTime()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = &Session{
		ID:        sessionID,
		ClientIP:  clientIP,
		ExpiresAt: now.Add(sessionTTL),
	}
	return sessionID
}

// ValidateSession checks that the user's live session matches the given ID
// and client IP and has not expired.
func (s *Store) ValidateSession(userID int64, sessionID, clientIP string) error {
	now := s.nowTime()
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok || session.ID != sessionID || session.ClientIP != clientIP || !now.Before(session.ExpiresAt) {
		return SessionInvalidErr
	}
	return nil
}

// RevokeSession drops the user's session unconditionally.
func (s *Store) RevokeSession(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// RevokeSessionMatching drops the user's session only when the given ID is
// the live one. Logout uses this so a stale token cannot end a newer session.
func (s *Store) RevokeSessionMatching(userID int64, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[userID]
	if !ok || session.ID != sessionID {
		return SessionInvalidErr
	}
	delete(s.sessions, userID)
	return nil
}

// IssueResetToken creates a password-reset token for the email, replacing any
// previous one. Tokens verify for fifteen minutes.
func (s *Store) IssueResetToken(email string, userID int64) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "[IssueResetToken]")
	}
	token := hex.EncodeToString(buf)

	now := s.nowTime()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetTokens[email] = &resetToken{
		token:     token,
		userID:    userID,
		expiresAt: now.Add(resetTTL),
		sweepAt:   now.Add(resetRetention),
	}
	return token, nil
}

// VerifyResetToken checks the token without consuming it, so the reset form
// can be validated before the user types a new password.
func (s *Store) VerifyResetToken(email, token string) error {
	now := s.nowTime()
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.resetTokens[email]
	if !ok || rt.token != token || now.After(rt.expiresAt) {
		return ResetTokenInvalidErr
	}
	return nil
}

// ConsumeResetToken verifies the token, deletes it and returns the user it
// was issued for.
func (s *Store) ConsumeResetToken(email, token string) (int64, error) {
	now := s.nowTime()
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.resetTokens[email]
	if !ok || rt.token != token || now.After(rt.expiresAt) {
		return 0, ResetTokenInvalidErr
	}
	delete(s.resetTokens, email)
	return rt.userID, nil
}

// sixDigitCode draws a uniform code from [100000,1000000).
func sixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
