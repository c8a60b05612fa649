package handlers

import (
	"bufio"
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/kontaktio/kontakt/internal/contactcsv"
	"github.com/kontaktio/kontakt/internal/database"
	"github.com/kontaktio/kontakt/internal/models"
	"github.com/kontaktio/kontakt/internal/realtime"
)

// importInsertQuery skips rows whose email already belongs to a live contact,
// relying on the partial unique index over lower(email).
const importInsertQuery = `
	INSERT INTO contact (first_name, last_name, email, phone, company, title,
	                     source, industry, region, segment, score, notes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (lower(email)) WHERE deleted_at IS NULL DO NOTHING`

// HandleImportContacts ingests a multipart CSV upload. Valid rows are
// inserted, duplicate emails are skipped, and invalid rows are reported
// per line without failing the rest of the file.
func HandleImportContacts(c fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Missing CSV file upload"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Failed to open uploaded file"})
	}
	defer func() { _ = file.Close() }()

	inputs, rowErrs, err := contactcsv.Read(file, nil)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	report := ImportReport{Errors: make([]string, 0, len(rowErrs))}
	for _, re := range rowErrs {
		report.Skipped++
		report.Errors = append(report.Errors, re.String())
	}

	for _, input := range inputs {
		result, err := database.DB.Exec(importInsertQuery,
			input.FirstName, input.LastName, input.Email, input.Phone, input.Company,
			input.Title, input.Source, input.Industry, input.Region, input.Segment,
			input.Score, input.Notes,
		)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, "failed to insert "+input.Email)
			continue
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			report.Skipped++
			report.Errors = append(report.Errors, "duplicate email: "+input.Email)
			continue
		}
		report.Imported++
	}

	if report.Imported > 0 {
		realtime.NotifyContact(context.Background(), "contacts_imported", uuid.Nil)
	}

	return c.JSON(report)
}

// HandleExportContacts streams the contact table as CSV, honoring the same
// filters as the list view. Rows are written to the response as they are
// scanned so large exports never materialize in memory.
func HandleExportContacts(c fiber.Ctx) error {
	filterClause, filterArgs := buildContactFilter(c, nil)

	query := strings.TrimSpace(`
		SELECT ` + contactColumns + `
		FROM contact
		WHERE deleted_at IS NULL` + filterClause + `
		ORDER BY created_at DESC`)

	rows, err := database.DB.Query(query, filterArgs...)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to query contacts"})
	}

	c.Set("Content-Type", "text/csv; charset=utf-8")
	c.Set("Content-Disposition", `attachment; filename="contacts.csv"`)
	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer func() { _ = rows.Close() }()

		writer, err := contactcsv.NewWriter(w)
		if err != nil {
			return
		}

		for rows.Next() {
			var contact models.Contact
			if err := scanContact(rows, &contact); err != nil {
				continue
			}
			if err := writer.WriteContact(&contact); err != nil {
				return
			}
		}

		_ = writer.Flush()
	})
}
