package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jalpatel9108-creator/library-management-system/catalog"
	"github.com/jalpatel9108-creator/library-management-system/ledger"
	"github.com/jalpatel9108-creator/library-management-system/recordstore"
	"github.com/jalpatel9108-creator/library-management-system/reporting"
	"github.com/jalpatel9108-creator/library-management-system/session"
)

// Lending is the part of the ledger the menus drive. *ledger.Ledger implements it.
type Lending interface {
	IssueBook(ctx context.Context, studentID recordstore.ID, bookID recordstore.ID, dueDays int) (recordstore.Issue, error)
	ReturnBook(ctx context.Context, studentID recordstore.ID, bookID recordstore.ID) (ledger.ReturnResult, error)
	Reconcile(ctx context.Context) ([]recordstore.ID, error)
	Exclusive(ctx context.Context, fn func(ctx context.Context) error) error
	DefaultDueDays() int
	Now() time.Time
}

// PasswordReader reads a password without echoing it.
type PasswordReader interface {
	ReadPassword() (string, error)
}

// Services are the components the menus call into.
type Services struct {
	Ledger  Lending
	Catalog *catalog.Catalog
	Reports *reporting.Reporter
	Vault   *session.Vault
	Store   recordstore.Store
}

// Console reads menu choices from in and writes to out.
type Console struct {
	in       *bufio.Reader
	out      io.Writer
	svc      Services
	password PasswordReader
	logger   recordstore.Logger
	dataPath func(name string) string
}

// Option defines a functional option for configuring a Console.
type Option func(*Console)

// WithPasswordReader reads passwords through reader instead of the input stream.
func WithPasswordReader(reader PasswordReader) Option {
	return func(c *Console) {
		c.password = reader
	}
}

// WithLogger sets the logger receiving every error shown to the user.
func WithLogger(logger recordstore.Logger) Option {
	return func(c *Console) {
		c.logger = logger
	}
}

// WithDataPath resolves the file names of the backup and report exports.
// By default they are written to the working directory.
func WithDataPath(resolve func(name string) string) Option {
	return func(c *Console) {
		if resolve != nil {
			c.dataPath = resolve
		}
	}
}

// New creates a Console.
func New(in io.Reader, out io.Writer, services Services, options ...Option) *Console {
	c := &Console{
		in:       bufio.NewReader(in),
		out:      out,
		svc:      services,
		dataPath: func(name string) string { return name },
	}

	for _, option := range options {
		option(c)
	}

	return c
}

// errQuit ends the menu loops when the input is exhausted.
var errQuit = errors.New("input closed")

// Run shows the main menu until Exit is chosen or the input ends.
func (c *Console) Run(ctx context.Context) error {
	err := c.mainMenu(ctx)
	if errors.Is(err, errQuit) {
		return nil
	}

	return err
}

func (c *Console) mainMenu(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		choice, ok, err := c.readInt("\n--- Library System ---\n1. Student Mode\n2. Admin Mode\n3. Exit\nEnter choice: ")
		if err != nil {
			return err
		}
		if !ok {
			c.println("Invalid choice.")
			continue
		}

		switch choice {
		case 1:
			err = c.enterStudentMode(ctx)
		case 2:
			err = c.enterAdminMode(ctx)
		case 3:
			c.println("Exiting.")
			return nil
		default:
			c.println("Invalid choice.")
		}

		if err != nil {
			return err
		}
	}
}

func (c *Console) enterStudentMode(ctx context.Context) error {
	id, ok, err := c.readInt("Enter Student ID: ")
	if err != nil {
		return err
	}
	if !ok {
		c.println("Invalid ID.")
		return nil
	}

	name, err := c.svc.Catalog.StudentName(ctx, id)
	if errors.Is(err, ledger.ErrStudentNotFound) {
		c.println("Student not found. Please contact admin.")
		return nil
	}
	if err != nil {
		c.fail(err, nil)
		return nil
	}

	c.printf("Welcome %s (ID %d)\n", name, id)

	return c.studentMenu(ctx, id, name)
}

func (c *Console) enterAdminMode(ctx context.Context) error {
	err := c.svc.Vault.Login(func(attempt int) (string, error) {
		if attempt > 1 {
			c.println("Incorrect password.")
		}
		return c.readPassword(fmt.Sprintf("Enter admin password (Attempt %d/%d): ", attempt, session.MaxLoginAttempts))
	})

	switch {
	case err == nil:
		return c.adminMenu(ctx)
	case errors.Is(err, session.ErrAccessDenied):
		c.println("Incorrect password.")
		c.println("Access denied.")
		return nil
	case errors.Is(err, errQuit):
		return err
	default:
		c.println("Error reading admin password.")
		c.logError(err)
		return nil
	}
}

// readLine prints prompt and returns the next input line without its line break.
func (c *Console) readLine(prompt string) (string, error) {
	c.printf("%s", prompt)

	line, err := c.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		if errors.Is(err, io.EOF) {
			return "", errQuit
		}
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// readInt returns ok=false when the line is not a whole number.
func (c *Console) readInt(prompt string) (int64, bool, error) {
	line, err := c.readLine(prompt)
	if err != nil {
		return 0, false, err
	}

	n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return 0, false, nil
	}

	return n, true, nil
}

func (c *Console) readPassword(prompt string) (string, error) {
	if c.password == nil {
		return c.readLine(prompt)
	}

	c.printf("%s", prompt)
	password, err := c.password.ReadPassword()
	c.println("")
	if errors.Is(err, io.EOF) {
		return "", errQuit
	}

	return password, err
}

func (c *Console) confirm(prompt string) (bool, error) {
	answer, err := c.readLine(prompt)
	if err != nil {
		return false, err
	}

	answer = strings.TrimSpace(answer)

	return strings.HasPrefix(answer, "y") || strings.HasPrefix(answer, "Y"), nil
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func (c *Console) println(line string) {
	_, _ = fmt.Fprintln(c.out, line)
}
