package console

import (
	"context"

	"github.com/jalpatel9108-creator/library-management-system/ledger"
	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

const studentMenuText = "1. View All Books\n2. View Available Books\n3. Search Book (keyword)\n4. Issue Book\n" +
	"5. Return Book\n6. View My Issued Books\n7. My History\n8. Back\nEnter choice: "

func (c *Console) studentMenu(ctx context.Context, studentID recordstore.ID, name string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.printf("\n--- Student Menu (ID %d) ---\n", studentID)
		choice, ok, err := c.readInt(studentMenuText)
		if err != nil {
			return err
		}
		if !ok {
			c.println("Invalid.")
			continue
		}

		switch choice {
		case 1:
			err = c.viewBooksSorted(ctx)
		case 2:
			c.viewAvailableBooks(ctx)
		case 3:
			err = c.searchBooks(ctx)
		case 4:
			err = c.issueBook(ctx, studentID, name)
		case 5:
			err = c.returnBook(ctx, studentID, name)
		case 6:
			c.viewOpenLoans(ctx, studentID)
		case 7:
			c.viewHistory(ctx, studentID)
		case 8:
			return nil
		default:
			c.println("Invalid.")
		}

		if err != nil {
			return err
		}
	}
}

func (c *Console) issueBook(ctx context.Context, studentID recordstore.ID, name string) error {
	bookID, ok, err := c.readInt("Enter Book ID to issue: ")
	if err != nil {
		return err
	}
	if !ok {
		c.println("Invalid input.")
		return nil
	}

	book, err := c.svc.Catalog.Book(ctx, bookID)
	if err != nil {
		c.fail(err, nil)
		return nil
	}
	if !book.Available {
		c.fail(ledger.ErrBookUnavailable, nil)
		return nil
	}

	defaultDays := c.svc.Ledger.DefaultDueDays()
	dueDays, ok, err := c.readInt("Enter due days (e.g., 14): ")
	if err != nil {
		return err
	}
	if !ok || dueDays <= 0 {
		c.printf("Invalid input. Using default %d.\n", defaultDays)
		dueDays = int64(defaultDays)
	}
	if dueDays > recordstore.MaxDueDays {
		c.printf("Due days must not exceed %d.\n", recordstore.MaxDueDays)
		return nil
	}

	issue, err := c.svc.Ledger.IssueBook(ctx, studentID, bookID, int(dueDays))
	if err != nil {
		c.fail(err, nil)
		return nil
	}

	c.printf("Book issued to %s (ID %d). Due in %d days.\n", name, studentID, issue.DueDays)

	return nil
}

func (c *Console) returnBook(ctx context.Context, studentID recordstore.ID, name string) error {
	bookID, ok, err := c.readInt("Enter Book ID to return: ")
	if err != nil {
		return err
	}
	if !ok {
		c.println("Invalid input.")
		return nil
	}

	result, err := c.svc.Ledger.ReturnBook(ctx, studentID, bookID)
	if err != nil {
		c.fail(err, nil)
		return nil
	}

	c.printf("Book returned by %s (ID %d).\n", name, studentID)
	if result.DaysLate > 0 {
		c.printf("Late by %d day(s). Fine: %d\n", result.DaysLate, result.Fine)
	} else {
		c.println("Returned on time. No fine.")
	}

	return nil
}

func (c *Console) viewOpenLoans(ctx context.Context, studentID recordstore.ID) {
	rows, err := c.svc.Reports.OpenLoans(ctx, studentID)
	if err != nil {
		c.fail(err, nil)
		return
	}

	if err = c.svc.Reports.WriteOpenLoans(c.out, rows); err != nil {
		c.logError(err)
	}
}

func (c *Console) viewHistory(ctx context.Context, studentID recordstore.ID) {
	rows, err := c.svc.Reports.History(ctx, studentID)
	if err != nil {
		c.fail(err, nil)
		return
	}

	c.printf("History for student ID %d:\n", studentID)
	if err = c.svc.Reports.WriteHistory(c.out, rows); err != nil {
		c.logError(err)
	}
}
