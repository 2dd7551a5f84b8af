package console

import (
	"context"
	"strings"

	"github.com/jalpatel9108-creator/library-management-system/catalog"
	"github.com/jalpatel9108-creator/library-management-system/recordstore"
)

func status(b recordstore.Book) string {
	if b.Available {
		return "Available"
	}

	return "Issued"
}

func (c *Console) writeBookTable(books []recordstore.Book) {
	c.printf("\n%-5s %-30s %-20s %-10s\n", "ID", "Title", "Author", "Status")
	c.println(strings.Repeat("-", 64))
	for _, b := range books {
		c.printf("%-5d %-30s %-20s %-10s\n", b.ID, b.Title, b.Author, status(b))
	}
}

func (c *Console) viewBooksSorted(ctx context.Context) error {
	books, err := c.svc.Catalog.ListBooks(ctx, catalog.SortByID)
	if err != nil {
		c.fail(err, nil)
		return nil
	}
	if len(books) == 0 {
		c.println("No books.")
		return nil
	}

	choice, ok, err := c.readInt("Sort by 1-ID 2-Title (enter choice): ")
	if err != nil {
		return err
	}
	if !ok {
		c.println("Invalid choice.")
		return nil
	}

	if choice != 1 {
		if books, err = c.svc.Catalog.ListBooks(ctx, catalog.SortByTitle); err != nil {
			c.fail(err, nil)
			return nil
		}
	}

	c.writeBookTable(books)

	return nil
}

func (c *Console) viewAvailableBooks(ctx context.Context) {
	books, err := c.svc.Catalog.ListAvailableBooks(ctx)
	if err != nil {
		c.fail(err, nil)
		return
	}

	c.printf("\n%-5s %-30s %-20s\n", "ID", "Title", "Author")
	c.println(strings.Repeat("-", 49))
	for _, b := range books {
		c.printf("%-5d %-30s %-20s\n", b.ID, b.Title, b.Author)
	}
}

func (c *Console) searchBooks(ctx context.Context) error {
	keyword, err := c.readLine("Enter keyword (title or author): ")
	if err != nil {
		return err
	}
	if strings.TrimSpace(keyword) == "" {
		c.println("Empty keyword.")
		return nil
	}

	books, err := c.svc.Catalog.SearchBooks(ctx, keyword)
	if err != nil {
		c.fail(err, nil)
		return nil
	}
	if len(books) == 0 {
		c.println("No matching books.")
		return nil
	}

	c.writeBookTable(books)

	return nil
}
