package credentials

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "a@x.com"
	testClientIP = "203.0.113.7"
	testUserID   = int64(42)
)

type testFixture struct {
	store *Store
	now   time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	f.store = NewStore(WithNowTime(func() time.Time { return f.now }))
	return f
}

func (f *testFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestIssueAndVerifyOTP(t *testing.T) {
	f := setupTestFixture(t)

	code, err := f.store.IssueOTP(testEmail)
	require.NoError(t, err)
	require.Len(t, code, 6)

	require.NoError(t, f.store.VerifyOTP(testEmail, code))
	require.True(t, f.store.OTPVerified(testEmail))
}

func TestVerifyOTPWrongCode(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.store.IssueOTP(testEmail)
	require.NoError(t, err)

	require.ErrorIs(t, f.store.VerifyOTP(testEmail, "000000"), CodeInvalidErr)
	require.False(t, f.store.OTPVerified(testEmail))
}

func TestVerifyOTPUnknownEmail(t *testing.T) {
	f := setupTestFixture(t)
	require.ErrorIs(t, f.store.VerifyOTP("nobody@x.com", "123456"), CodeInvalidErr)
}

func TestVerifyOTPExpiresAfterTwoMinutes(t *testing.T) {
	f := setupTestFixture(t)

	code, err := f.store.IssueOTP(testEmail)
	require.NoError(t, err)

	f.advance(2 * time.Minute)
	require.NoError(t, f.store.VerifyOTP(testEmail, code), "code still valid at exactly two minutes")

	f.advance(time.Second)
	require.ErrorIs(t, f.store.VerifyOTP(testEmail, code), CodeInvalidErr)
}

func TestReissueOverwritesPreviousOTP(t *testing.T) {
	f := setupTestFixture(t)

	first, err := f.store.IssueOTP(testEmail)
	require.NoError(t, err)
	second, err := f.store.IssueOTP(testEmail)
	require.NoError(t, err)

	if first != second {
		require.ErrorIs(t, f.store.VerifyOTP(testEmail, first), CodeInvalidErr)
	}
	require.NoError(t, f.store.VerifyOTP(testEmail, second))
}

func TestSweepEvictsRetainedOTP(t *testing.T) {
	f := setupTestFixture(t)

	code, err := f.store.IssueOTP(testEmail)
	require.NoError(t, err)
	require.NoError(t, f.store.VerifyOTP(testEmail, code))

	f.advance(5 * time.Minute)
	f.store.sweep()

	require.False(t, f.store.OTPVerified(testEmail))
	require.ErrorIs(t, f.store.VerifyOTP(testEmail, code), CodeInvalidErr)
}

func TestDeleteOTPConsumesEntry(t *testing.T) {
	f := setupTestFixture(t)

	code, err := f.store.IssueOTP(testEmail)
	require.NoError(t, err)
	require.NoError(t, f.store.VerifyOTP(testEmail, code))

	f.store.DeleteOTP(testEmail)
	require.False(t, f.store.OTPVerified(testEmail))
}

func TestSessionLifecycle(t *testing.T) {
	f := setupTestFixture(t)

	sessionID := f.store.IssueSession(testUserID, testClientIP)
	require.NotEmpty(t, sessionID)
	require.NoError(t, f.store.ValidateSession(testUserID, sessionID, testClientIP))

	f.store.RevokeSession(testUserID)
	require.ErrorIs(t, f.store.ValidateSession(testUserID, sessionID, testClientIP), SessionInvalidErr)
}

func TestSessionRejectsWrongIP(t *testing.T) {
	f := setupTestFixture(t)

	sessionID := f.store.IssueSession(testUserID, testClientIP)
	require.ErrorIs(t, f.store.ValidateSession(testUserID, sessionID, "198.51.100.9"), SessionInvalidErr)
}

func TestSessionExpiresAfterAnHour(t *testing.T) {
	f := setupTestFixture(t)

	sessionID := f.store.IssueSession(testUserID, testClientIP)

	f.advance(time.Hour - time.Second)
	require.NoError(t, f.store.ValidateSession(testUserID, sessionID, testClientIP))

	f.advance(time.Second)
	require.ErrorIs(t, f.store.ValidateSession(testUserID, sessionID, testClientIP), SessionInvalidErr)
}

func TestNewSessionReplacesOld(t *testing.T) {
	f := setupTestFixture(t)

	first := f.store.IssueSession(testUserID, testClientIP)
	second := f.store.IssueSession(testUserID, testClientIP)

	require.ErrorIs(t, f.store.ValidateSession(testUserID, first, testClientIP), SessionInvalidErr)
	require.NoError(t, f.store.ValidateSession(testUserID, second, testClientIP))
}

func TestRevokeSessionMatching(t *testing.T) {
	f := setupTestFixture(t)

	stale := f.store.IssueSession(testUserID, testClientIP)
	live := f.store.IssueSession(testUserID, testClientIP)

	require.ErrorIs(t, f.store.RevokeSessionMatching(testUserID, stale), SessionInvalidErr)
	require.NoError(t, f.store.ValidateSession(testUserID, live, testClientIP), "mismatched logout must not end the live session")

	require.NoError(t, f.store.RevokeSessionMatching(testUserID, live))
	require.ErrorIs(t, f.store.ValidateSession(testUserID, live, testClientIP), SessionInvalidErr)
}

func TestResetTokenLifecycle(t *testing.T) {
	f := setupTestFixture(t)

	token, err := f.store.IssueResetToken(testEmail, testUserID)
	require.NoError(t, err)
	require.Len(t, token, 64)

	require.NoError(t, f.store.VerifyResetToken(testEmail, token))
	require.NoError(t, f.store.VerifyResetToken(testEmail, token), "verify does not consume")

	userID, err := f.store.ConsumeResetToken(testEmail, token)
	require.NoError(t, err)
	require.Equal(t, testUserID, userID)

	require.ErrorIs(t, f.store.VerifyResetToken(testEmail, token), ResetTokenInvalidErr)
	_, err = f.store.ConsumeResetToken(testEmail, token)
	require.ErrorIs(t, err, ResetTokenInvalidErr)
}

func TestResetTokenExpiry(t *testing.T) {
	f := setupTestFixture(t)

	token, err := f.store.IssueResetToken(testEmail, testUserID)
	require.NoError(t, err)

	f.advance(15*time.Minute + time.Second)
	require.ErrorIs(t, f.store.VerifyResetToken(testEmail, token), ResetTokenInvalidErr)
	_, err = f.store.ConsumeResetToken(testEmail, token)
	require.ErrorIs(t, err, ResetTokenInvalidErr)
}

func TestResetTokenReissueOverwrites(t *testing.T) {
	f := setupTestFixture(t)

	first, err := f.store.IssueResetToken(testEmail, testUserID)
	require.NoError(t, err)
	second, err := f.store.IssueResetToken(testEmail, testUserID)
	require.NoError(t, err)

	require.ErrorIs(t, f.store.VerifyResetToken(testEmail, first), ResetTokenInvalidErr)
	require.NoError(t, f.store.VerifyResetToken(testEmail, second))
}
