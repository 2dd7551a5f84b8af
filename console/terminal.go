package console

import (
	"golang.org/x/term"
)

// TerminalPasswordReader reads passwords from a terminal with echo turned off.
type TerminalPasswordReader struct {
	fd int
}

// NewTerminalPasswordReader returns a reader for fd and whether fd is a terminal at all.
func NewTerminalPasswordReader(fd int) (TerminalPasswordReader, bool) {
	return TerminalPasswordReader{fd: fd}, term.IsTerminal(fd)
}

// ReadPassword implements PasswordReader.
func (r TerminalPasswordReader) ReadPassword() (string, error) {
	password, err := term.ReadPassword(r.fd)
	if err != nil {
		return "", err
	}

	return string(password), nil
}
