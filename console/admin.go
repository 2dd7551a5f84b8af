package console

import (
	"context"
	"errors"
	"io"

	"github.com/jalpatel9108-creator/library-management-system/catalog"
	"github.com/jalpatel9108-creator/library-management-system/ledger"
	"github.com/jalpatel9108-creator/library-management-system/recordstore"
	"github.com/jalpatel9108-creator/library-management-system/reporting"
	"github.com/jalpatel9108-creator/library-management-system/session"
)

// OverdueJSONFile is written next to the overdue CSV export.
const OverdueJSONFile = "overdue_report.json"

const adminMenuText = "1. Add Book\n2. Update Book\n3. Delete Book\n4. View All Books (sorted)\n" +
	"5. View Issued Report\n6. Check Overdue Books\n7. Add Student\n8. Remove Student\n" +
	"9. Backup (all)\n10. Restore (all)\n11. Change Admin Password\n12. Reset Admin Password to Default\n" +
	"13. Search Student by Name\n14. View Student History\n15. Export Overdue Report CSV\n16. Back\nEnter choice: "

func (c *Console) adminMenu(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.println("\n--- Admin Menu ---")
		choice, ok, err := c.readInt(adminMenuText)
		if err != nil {
			return err
		}
		if !ok {
			c.println("Invalid.")
			continue
		}

		switch choice {
		case 1:
			err = c.addBook(ctx)
		case 2:
			err = c.updateBook(ctx)
		case 3:
			err = c.deleteBook(ctx)
		case 4:
			err = c.viewBooksSorted(ctx)
		case 5:
			err = c.issuedReport(ctx)
		case 6:
			err = c.overdueReport(ctx)
		case 7:
			err = c.addStudent(ctx)
		case 8:
			err = c.removeStudent(ctx)
		case 9:
			c.backup(ctx)
		case 10:
			c.restore(ctx)
		case 11:
			err = c.changePassword()
		case 12:
			c.resetPassword()
		case 13:
			err = c.searchStudents(ctx)
		case 14:
			err = c.studentHistory(ctx)
		case 15:
			c.exportOverdue(ctx)
		case 16:
			return nil
		default:
			c.println("Invalid.")
		}

		if err != nil {
			return err
		}
	}
}

// readNewID reads an id for a new record; ok is false when the id was rejected.
func (c *Console) readNewID(prompt string) (recordstore.ID, bool, error) {
	id, ok, err := c.readInt(prompt)
	if err != nil || !ok {
		if err == nil {
			c.println("Invalid ID.")
		}
		return 0, false, err
	}
	if id <= 0 {
		c.println("ID must be positive.")
		return 0, false, nil
	}

	return id, true, nil
}

func (c *Console) addBook(ctx context.Context) error {
	id, ok, err := c.readNewID("Enter Book ID: ")
	if err != nil || !ok {
		return err
	}

	title, err := c.readLine("Enter Title: ")
	if err != nil {
		return err
	}
	author, err := c.readLine("Enter Author: ")
	if err != nil {
		return err
	}

	if _, err = c.svc.Catalog.AddBook(ctx, id, title, author); err != nil {
		c.fail(err, []message{{kind: catalog.ErrDuplicateID, text: "Book ID already exists."}})
		return nil
	}

	c.println("Book added.")

	return nil
}

func (c *Console) updateBook(ctx context.Context) error {
	id, ok, err := c.readInt("Enter Book ID to update: ")
	if err != nil {
		return err
	}
	if !ok {
		c.println("Invalid input.")
		return nil
	}

	if _, err = c.svc.Catalog.Book(ctx, id); err != nil {
		c.fail(err, nil)
		return nil
	}

	title, err := c.readLine("Enter new Title: ")
	if err != nil {
		return err
	}
	author, err := c.readLine("Enter new Author: ")
	if err != nil {
		return err
	}

	if _, err = c.svc.Catalog.UpdateBook(ctx, id, title, author); err != nil {
		c.fail(err, nil)
		return nil
	}

	c.println("Book updated.")

	return nil
}

func (c *Console) deleteBook(ctx context.Context) error {
	id, ok, err := c.readInt("Enter Book ID to delete: ")
	if err != nil {
		return err
	}
	if !ok {
		c.println("Invalid input.")
		return nil
	}

	if err = c.svc.Catalog.DeleteBook(ctx, id); err != nil {
		c.fail(err, []message{{kind: ledger.ErrReferencedByOpenLoan, text: "Book currently issued - cannot delete."}})
		return nil
	}

	c.println("Book deleted.")

	return nil
}

func (c *Console) addStudent(ctx context.Context) error {
	id, ok, err := c.readNewID("Enter Student ID: ")
	if err != nil || !ok {
		return err
	}

	name, err := c.readLine("Enter Student Name: ")
	if err != nil {
		return err
	}

	if _, err = c.svc.Catalog.AddStudent(ctx, id, name); err != nil {
		c.fail(err, []message{{kind: catalog.ErrDuplicateID, text: "Student ID already exists."}})
		return nil
	}

	c.println("Student added.")

	return nil
}

func (c *Console) removeStudent(ctx context.Context) error {
	id, ok, err := c.readInt("Enter Student ID to remove: ")
	if err != nil {
		return err
	}
	if !ok {
		c.println("Invalid input.")
		return nil
	}

	if err = c.svc.Catalog.RemoveStudent(ctx, id); err != nil {
		c.fail(err, []message{{kind: ledger.ErrReferencedByOpenLoan, text: "Student has unreturned books. Cannot remove."}})
		return nil
	}

	c.println("Student removed.")

	return nil
}

func (c *Console) searchStudents(ctx context.Context) error {
	keyword, err := c.readLine("Enter name keyword: ")
	if err != nil {
		return err
	}

	students, err := c.svc.Catalog.SearchStudents(ctx, keyword)
	if errors.Is(err, ledger.ErrInvalidInput) {
		c.println("Empty.")
		return nil
	}
	if err != nil {
		c.fail(err, nil)
		return nil
	}
	if len(students) == 0 {
		c.println("No matching students.")
		return nil
	}

	for _, s := range students {
		c.printf("ID: %d | Name: %s\n", s.ID, s.Name)
	}

	return nil
}

func (c *Console) studentHistory(ctx context.Context) error {
	id, ok, err := c.readInt("Enter Student ID: ")
	if err != nil {
		return err
	}
	if !ok {
		c.println("Invalid.")
		return nil
	}

	c.viewHistory(ctx, id)

	return nil
}

func (c *Console) issuedReport(ctx context.Context) error {
	rows, err := c.svc.Reports.Issued(ctx)
	if err != nil {
		c.fail(err, nil)
		return nil
	}

	c.println("")
	if err = c.svc.Reports.WriteIssuedTable(c.out, rows); err != nil {
		c.logError(err)
	}
	if len(rows) == 0 {
		return nil
	}

	export, err := c.confirm("\nExport issued report to CSV? (y/n): ")
	if err != nil || !export {
		return err
	}

	c.export(reporting.IssuedCSVFile, func(w io.Writer) error { return c.svc.Reports.WriteIssuedCSV(w, rows) })

	return nil
}

func (c *Console) overdueReport(ctx context.Context) error {
	rows, err := c.svc.Reports.OverdueNow(ctx)
	if err != nil {
		c.fail(err, nil)
		return nil
	}

	if err = c.svc.Reports.WriteOverdueList(c.out, rows); err != nil {
		c.logError(err)
	}
	if len(rows) == 0 {
		return nil
	}

	export, err := c.confirm("\nExport overdue report to CSV? (y/n): ")
	if err != nil || !export {
		return err
	}

	c.export(reporting.OverdueCSVFile, func(w io.Writer) error { return c.svc.Reports.WriteOverdueCSV(w, rows) })

	return nil
}

func (c *Console) exportOverdue(ctx context.Context) {
	rows, err := c.svc.Reports.OverdueNow(ctx)
	if err != nil {
		c.fail(err, nil)
		return
	}

	if len(rows) == 0 {
		c.println("No overdue books.")
		return
	}

	c.export(reporting.OverdueCSVFile, func(w io.Writer) error { return c.svc.Reports.WriteOverdueCSV(w, rows) })
	c.export(OverdueJSONFile, func(w io.Writer) error { return c.svc.Reports.WriteOverdueJSON(w, rows) })
}

func (c *Console) export(name string, write func(io.Writer) error) {
	if err := reporting.ExportFile(c.dataPath(name), write); err != nil {
		c.fail(err, nil)
		return
	}

	c.printf("Exported to %s\n", name)
}

func (c *Console) backup(ctx context.Context) {
	var snapshot recordstore.Snapshot
	err := c.svc.Ledger.Exclusive(ctx, func(ctx context.Context) error {
		var err error
		snapshot, err = recordstore.TakeSnapshot(ctx, c.svc.Store, c.svc.Ledger.Now())
		return err
	})
	if err == nil {
		err = recordstore.WriteSnapshotFile(c.dataPath(recordstore.DefaultSnapshotFileName), snapshot)
	}
	if err != nil {
		c.fail(err, []message{{kind: recordstore.ErrTakingSnapshotFailed, text: "Nothing to backup or failed."}})
		return
	}

	c.println("Backup completed.")
}

func (c *Console) restore(ctx context.Context) {
	snapshot, err := recordstore.ReadSnapshotFile(c.dataPath(recordstore.DefaultSnapshotFileName))
	if err == nil {
		err = c.svc.Ledger.Exclusive(ctx, func(ctx context.Context) error {
			return recordstore.RestoreSnapshot(ctx, c.svc.Store, snapshot)
		})
	}
	if err != nil {
		c.fail(err, []message{{kind: recordstore.ErrRestoringSnapshotFailed, text: "Restore failed; data may be partially restored."}})
		return
	}

	corrected, err := c.svc.Ledger.Reconcile(ctx)
	if err != nil {
		c.fail(err, nil)
		return
	}

	c.println("Restore completed.")
	if len(corrected) > 0 {
		c.printf("Availability corrected for %d book(s).\n", len(corrected))
	}
}

func (c *Console) changePassword() error {
	password, err := c.readPassword("Enter new password: ")
	if err != nil {
		return err
	}
	confirmation, err := c.readPassword("Confirm new password: ")
	if err != nil {
		return err
	}

	if err = c.svc.Vault.Change(password, confirmation); err != nil {
		c.fail(err, nil)
		return nil
	}

	c.println("Admin password changed.")

	return nil
}

func (c *Console) resetPassword() {
	if err := c.svc.Vault.ResetToDefault(); err != nil {
		c.fail(err, []message{{kind: session.ErrPasswordFileUnavailable, text: "Unable to reset admin password."}})
		return
	}

	c.printf("Admin password reset to default '%s'.\n", session.DefaultPassword)
}
