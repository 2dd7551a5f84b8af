package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// DateLayout is the ISO date format of every report.
const DateLayout = "2006-01-02"

const (
	// IssuedCSVFile is the default file name of the issued report export.
	IssuedCSVFile = "issued_report.csv"

	// OverdueCSVFile is the default file name of the overdue report export.
	OverdueCSVFile = "overdue_report.csv"
)

var (
	issuedCSVHeader  = []string{"BookID", "StudentID", "IssueDate", "DueDate", "Returned", "ReturnDate"}
	overdueCSVHeader = []string{"BookID", "StudentID", "IssueDate", "DueDate", "DaysOverdue", "Fine"}
)

// Date formats t in the reporter's time zone.
func (r *Reporter) Date(t time.Time) string {
	return t.In(r.location).Format(DateLayout)
}

func (r *Reporter) returnDate(row IssuedRow) string {
	if !row.Returned {
		return "-"
	}

	return r.Date(row.ReturnTime)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}

	return "No"
}

// WriteIssuedTable prints the issued report as a fixed-width table.
func (r *Reporter) WriteIssuedTable(w io.Writer, rows []IssuedRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No issue records.")
		return err
	}

	if _, err := fmt.Fprintf(w, "%-6s %-9s %-10s %-10s %-8s %s\n",
		"BookID", "StudentID", "IssueDate", "DueDate", "Returned", "ReturnDate"); err != nil {
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%-6d %-9d %-10s %-10s %-8s %s\n",
			row.BookID, row.StudentID, r.Date(row.IssueTime), r.Date(row.DueTime),
			yesNo(row.Returned), r.returnDate(row)); err != nil {
			return err
		}
	}

	return nil
}

// WriteOverdueList prints one line per overdue loan.
func (r *Reporter) WriteOverdueList(w io.Writer, rows []OverdueRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No overdue books.")
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "Overdue -> BookID %d | StudentID %d | Issued: %s | Due: %s | Days: %d | Fine: %d\n",
			row.BookID, row.StudentID, r.Date(row.IssueTime), r.Date(row.DueTime),
			row.DaysOverdue, row.Fine); err != nil {
			return err
		}
	}

	return nil
}

// WriteHistory prints the loan history of one student.
func (r *Reporter) WriteHistory(w io.Writer, rows []IssuedRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No history for this student.")
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "Book %d | Issued %s | Due %d days | Returned %s\n",
			row.BookID, r.Date(row.IssueTime), row.DueDays, r.returnDate(row)); err != nil {
			return err
		}
	}

	return nil
}

// WriteOpenLoans prints the books a student currently holds.
func (r *Reporter) WriteOpenLoans(w io.Writer, rows []IssuedRow) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No issued books for this student.")
		return err
	}

	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "Book ID: %d | Issued: %s | Due: %s\n",
			row.BookID, r.Date(row.IssueTime), r.Date(row.DueTime)); err != nil {
			return err
		}
	}

	return nil
}

// WriteIssuedCSV writes the issued report with a header line.
func (r *Reporter) WriteIssuedCSV(w io.Writer, rows []IssuedRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(issuedCSVHeader); err != nil {
		return err
	}

	for _, row := range rows {
		if err := cw.Write([]string{
			strconv.FormatInt(row.BookID, 10),
			strconv.FormatInt(row.StudentID, 10),
			r.Date(row.IssueTime),
			r.Date(row.DueTime),
			yesNo(row.Returned),
			r.returnDate(row),
		}); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteOverdueCSV writes the overdue report with a header line.
func (r *Reporter) WriteOverdueCSV(w io.Writer, rows []OverdueRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(overdueCSVHeader); err != nil {
		return err
	}

	for _, row := range rows {
		if err := cw.Write([]string{
			strconv.FormatInt(row.BookID, 10),
			strconv.FormatInt(row.StudentID, 10),
			r.Date(row.IssueTime),
			r.Date(row.DueTime),
			strconv.FormatInt(row.DaysOverdue, 10),
			strconv.FormatInt(row.Fine, 10),
		}); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

type issuedJSON struct {
	BookID     int64  `json:"book_id"`
	StudentID  int64  `json:"student_id"`
	IssueDate  string `json:"issue_date"`
	DueDate    string `json:"due_date"`
	DueDays    int    `json:"due_days"`
	Returned   bool   `json:"returned"`
	ReturnDate string `json:"return_date,omitempty"`
}

type overdueJSON struct {
	BookID      int64  `json:"book_id"`
	StudentID   int64  `json:"student_id"`
	IssueDate   string `json:"issue_date"`
	DueDate     string `json:"due_date"`
	DaysOverdue int64  `json:"days_overdue"`
	Fine        int64  `json:"fine"`
}

// WriteIssuedJSON writes the issued report as a JSON array.
func (r *Reporter) WriteIssuedJSON(w io.Writer, rows []IssuedRow) error {
	doc := make([]issuedJSON, 0, len(rows))
	for _, row := range rows {
		item := issuedJSON{
			BookID:    row.BookID,
			StudentID: row.StudentID,
			IssueDate: r.Date(row.IssueTime),
			DueDate:   r.Date(row.DueTime),
			DueDays:   row.DueDays,
			Returned:  row.Returned,
		}
		if row.Returned {
			item.ReturnDate = r.Date(row.ReturnTime)
		}
		doc = append(doc, item)
	}

	return writeJSON(w, doc)
}

// WriteOverdueJSON writes the overdue report as a JSON array.
func (r *Reporter) WriteOverdueJSON(w io.Writer, rows []OverdueRow) error {
	doc := make([]overdueJSON, 0, len(rows))
	for _, row := range rows {
		doc = append(doc, overdueJSON{
			BookID:      row.BookID,
			StudentID:   row.StudentID,
			IssueDate:   r.Date(row.IssueTime),
			DueDate:     r.Date(row.DueTime),
			DaysOverdue: row.DaysOverdue,
			Fine:        row.Fine,
		})
	}

	return writeJSON(w, doc)
}

func writeJSON(w io.Writer, doc any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(doc)
}
