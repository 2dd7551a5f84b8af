package session_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jalpatel9108-creator/library-management-system/session"
	"github.com/jalpatel9108-creator/library-management-system/testutil/helper"
)

func newVault(t *testing.T, options ...session.Option) *session.Vault {
	t.Helper()

	path := filepath.Join(t.TempDir(), session.DefaultFileName)

	return session.New(path, append([]session.Option{session.WithCost(bcrypt.MinCost)}, options...)...)
}

func Test_Vault_Verify_CreatesDefaultPasswordFile(t *testing.T) {
	// arrange
	v := newVault(t)

	// act
	ok, err := v.Verify(session.DefaultPassword)

	// assert
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(v.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), session.DefaultPassword)
	cost, err := bcrypt.Cost(data)
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}

func Test_Vault_Verify_WrongPassword(t *testing.T) {
	v := newVault(t)

	ok, err := v.Verify("admin1234")

	require.NoError(t, err)
	assert.False(t, ok)
}

func Test_Vault_Verify_LegacyPlaintextFile(t *testing.T) {
	// arrange
	v := newVault(t)
	require.NoError(t, os.WriteFile(v.Path(), []byte("letmein\n"), 0o600))

	// act
	okRight, errRight := v.Verify("letmein")
	okWrong, errWrong := v.Verify("letme")

	// assert
	require.NoError(t, errRight)
	require.NoError(t, errWrong)
	assert.True(t, okRight)
	assert.False(t, okWrong)
}

func Test_Vault_Change(t *testing.T) {
	// arrange
	v := newVault(t)
	require.NoError(t, os.WriteFile(v.Path(), []byte("letmein"), 0o600))

	// act
	err := v.Change("s3cret", "s3cret")

	// assert
	require.NoError(t, err)

	okNew, err := v.Verify("s3cret")
	require.NoError(t, err)
	okOld, err := v.Verify("letmein")
	require.NoError(t, err)
	assert.True(t, okNew)
	assert.False(t, okOld)

	data, err := os.ReadFile(v.Path())
	require.NoError(t, err)
	_, err = bcrypt.Cost(data)
	assert.NoError(t, err, "legacy file is upgraded to a hash")

	info, err := os.Stat(v.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func Test_Vault_Change_Rejections(t *testing.T) {
	v := newVault(t)

	errMismatch := v.Change("one", "two")
	errEmpty := v.Change("", "")

	assert.ErrorIs(t, errMismatch, session.ErrPasswordMismatch)
	assert.ErrorIs(t, errEmpty, session.ErrInvalidPassword)

	ok, err := v.Verify(session.DefaultPassword)
	require.NoError(t, err)
	assert.True(t, ok)
}

func Test_Vault_ResetToDefault(t *testing.T) {
	v := newVault(t)
	require.NoError(t, v.Change("s3cret", "s3cret"))

	require.NoError(t, v.ResetToDefault())

	ok, err := v.Verify(session.DefaultPassword)
	require.NoError(t, err)
	assert.True(t, ok)
}

func Test_Vault_Login(t *testing.T) {
	testCases := []struct {
		name         string
		answers      []string
		wantErr      error
		wantAttempts int
		wantWarnings int
	}{
		{name: "first attempt", answers: []string{"admin123"}, wantAttempts: 1},
		{name: "third attempt", answers: []string{"a", "b", "admin123"}, wantAttempts: 3, wantWarnings: 2},
		{name: "three wrong", answers: []string{"a", "b", "c", "admin123"}, wantErr: session.ErrAccessDenied, wantAttempts: 3, wantWarnings: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			spy := helper.NewLogHandlerSpy(false)
			v := newVault(t, session.WithLogger(spy.Logger()))
			attempts := 0

			// act
			err := v.Login(func(attempt int) (string, error) {
				attempts++
				assert.Equal(t, attempts, attempt)
				return tc.answers[attempt-1], nil
			})

			// assert
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantAttempts, attempts)
			assert.Equal(t, tc.wantWarnings, spy.CountLogs(slog.LevelWarn, "admin login failed"))
		})
	}
}

func Test_Vault_Login_PromptError(t *testing.T) {
	v := newVault(t)
	eof := errors.New("eof")

	err := v.Login(func(int) (string, error) { return "", eof })

	assert.ErrorIs(t, err, eof)
}

func Test_Vault_UnreadableFile(t *testing.T) {
	dir := t.TempDir()
	v := session.New(dir)

	_, err := v.Verify("x")

	assert.ErrorIs(t, err, session.ErrPasswordFileUnavailable)
}
