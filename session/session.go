// Package session guards admin mode with a password kept in a small config file.
//
// The file holds a bcrypt hash. A file written by older versions holds the password
// in plain text; it still verifies and is replaced by a hash on the next change or reset.
package session

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

const (
	// DefaultPassword is stored when no password file exists and on reset.
	DefaultPassword = "admin123"

	// DefaultFileName is the name of the password file.
	DefaultFileName = "admin.cfg"

	// MaxLoginAttempts is the number of passwords Login asks for before denying access.
	MaxLoginAttempts = 3
)

var (
	// ErrAccessDenied is returned by Login after MaxLoginAttempts wrong passwords.
	ErrAccessDenied = errors.New("access denied")

	// ErrPasswordMismatch is returned when a new password and its confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrInvalidPassword is returned for an empty password or one bcrypt cannot hash.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrPasswordFileUnavailable is returned when the password file cannot be read or written.
	ErrPasswordFileUnavailable = errors.New("password file unavailable")
)

// Vault reads and writes the admin password file.
type Vault struct {
	mu     sync.Mutex
	path   string
	cost   int
	logger recordstore.Logger
}

// Option defines a functional option for configuring a Vault.
type Option func(*Vault)

// WithCost sets the bcrypt cost. Values outside bcrypt's range fall back to bcrypt.DefaultCost.
func WithCost(cost int) Option {
	return func(v *Vault) {
		v.cost = cost
	}
}

// WithLogger sets the logger for password changes and failed logins.
func WithLogger(logger recordstore.Logger) Option {
	return func(v *Vault) {
		v.logger = logger
	}
}

// New creates a Vault for the file at path.
func New(path string, options ...Option) *Vault {
	v := &Vault{path: path, cost: bcrypt.DefaultCost}

	for _, option := range options {
		option(v)
	}

	if v.cost < bcrypt.MinCost || v.cost > bcrypt.MaxCost {
		v.cost = bcrypt.DefaultCost
	}

	return v
}

// Path returns the password file location.
func (v *Vault) Path() string {
	return v.path
}

// Verify reports whether password matches the stored one. A missing file is created
// with the default password first.
func (v *Vault) Verify(password string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	stored, err := v.load()
	if err != nil {
		return false, err
	}

	if isHash(stored) {
		err = bcrypt.CompareHashAndPassword(stored, []byte(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, errors.Join(ErrPasswordFileUnavailable, err)
		}
	}

	return subtle.ConstantTimeCompare(stored, []byte(password)) == 1, nil
}

// Login asks for the password up to MaxLoginAttempts times and returns ErrAccessDenied
// when none matched. ask receives the 1-based attempt number.
func (v *Vault) Login(ask func(attempt int) (string, error)) error {
	for attempt := 1; attempt <= MaxLoginAttempts; attempt++ {
		password, err := ask(attempt)
		if err != nil {
			return err
		}

		ok, err := v.Verify(password)
		if err != nil {
			return err
		}
		if ok {
			v.log("admin login succeeded", "attempt", attempt)
			return nil
		}

		if v.logger != nil {
			v.logger.Warn("admin login failed", "attempt", attempt)
		}
	}

	return ErrAccessDenied
}

// Change stores a new password after checking it against its confirmation.
func (v *Vault) Change(password string, confirmation string) error {
	if password != confirmation {
		return ErrPasswordMismatch
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.store(password); err != nil {
		return err
	}

	v.log("admin password changed")

	return nil
}

// ResetToDefault stores DefaultPassword.
func (v *Vault) ResetToDefault() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.store(DefaultPassword); err != nil {
		return err
	}

	v.log("admin password reset to default")

	return nil
}

// load must be called with v.mu held.
func (v *Vault) load() ([]byte, error) {
	data, err := os.ReadFile(v.path)
	if errors.Is(err, os.ErrNotExist) {
		if err = v.store(DefaultPassword); err != nil {
			return nil, err
		}
		data, err = os.ReadFile(v.path)
	}
	if err != nil {
		return nil, errors.Join(ErrPasswordFileUnavailable, err)
	}

	return bytes.TrimRight(data, "\r\n"), nil
}

// store must be called with v.mu held.
func (v *Vault) store(password string) error {
	if password == "" {
		return fmt.Errorf("%w: must not be empty", ErrInvalidPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return errors.Join(ErrInvalidPassword, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(v.path), "."+filepath.Base(v.path)+".tmp-*")
	if err != nil {
		return errors.Join(ErrPasswordFileUnavailable, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	_, err = tmp.Write(hash)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), 0o600)
	}
	if err == nil {
		err = os.Rename(tmp.Name(), v.path)
	}
	if err != nil {
		return errors.Join(ErrPasswordFileUnavailable, err)
	}

	return nil
}

func (v *Vault) log(msg string, args ...any) {
	if v.logger != nil {
		v.logger.Info(msg, append([]any{"file", v.path}, args...)...)
	}
}

func isHash(stored []byte) bool {
	_, err := bcrypt.Cost(stored)
	return err == nil
}
