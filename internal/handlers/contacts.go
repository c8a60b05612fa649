package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kontaktio/kontakt/internal/database"
	"github.com/kontaktio/kontakt/internal/models"
	"github.com/kontaktio/kontakt/internal/realtime"
)

const contactColumns = `contact_id, first_name, last_name, email, phone, company, title,
		source, industry, region, segment, score, notes, created_at, updated_at`

func scanContact(row interface{ Scan(...interface{}) error }, c *models.Contact) error {
	return row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Company, &c.Title,
		&c.Source, &c.Industry, &c.Region, &c.Segment, &c.Score, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt,
	)
}

// HandleListContacts returns the paginated, filterable contact table.
func HandleListContacts(c fiber.Ctx) error {
	pagination := ParsePaginationParamsWithValidation(c, "contacts")
	filterClause, filterArgs := buildContactFilter(c, nil)

	filterArgs = append(filterArgs, pagination.Per, pagination.Offset)
	limitParam := fmt.Sprintf("$%d", len(filterArgs)-1)
	offsetParam := fmt.Sprintf("$%d", len(filterArgs))

	query := `
		SELECT ` + contactColumns + `,
		       COUNT(*) OVER () AS total_count
		FROM contact
		WHERE deleted_at IS NULL` + filterClause + `
		ORDER BY ` + pagination.SortBy + ` ` + strings.ToUpper(string(pagination.SortOrder)) + `
		LIMIT ` + limitParam + ` OFFSET ` + offsetParam

	rows, err := database.DB.Query(query, filterArgs...)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to query contacts"})
	}
	defer func() { _ = rows.Close() }()

	contacts := make([]models.Contact, 0)
	var totalCount int64
	for rows.Next() {
		var contact models.Contact
		if err := rows.Scan(
			&contact.ID, &contact.FirstName, &contact.LastName, &contact.Email,
			&contact.Phone, &contact.Company, &contact.Title, &contact.Source,
			&contact.Industry, &contact.Region, &contact.Segment, &contact.Score,
			&contact.Notes, &contact.CreatedAt, &contact.UpdatedAt, &totalCount,
		); err != nil {
			continue
		}
		contacts = append(contacts, contact)
	}

	return c.JSON(NewPaginatedResponse(contacts, pagination, totalCount))
}

// HandleGetContact returns a single contact by ID.
func HandleGetContact(c fiber.Ctx) error {
	contactID, err := uuid.Parse(c.Params("contact_id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid contact ID"})
	}

	var contact models.Contact
	query := `SELECT ` + contactColumns + ` FROM contact WHERE contact_id = $1 AND deleted_at IS NULL`
	err = scanContact(database.DB.QueryRow(query, contactID), &contact)
	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(404).JSON(fiber.Map{"error": "Contact not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to query contact"})
	}

	return c.JSON(contact)
}

// HandleCreateContact inserts a new contact.
func HandleCreateContact(c fiber.Ctx) error {
	var input models.ContactInput
	if err := c.Bind().JSON(&input); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON payload"})
	}
	if err := input.Validate(); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	var contact models.Contact
	query := `
		INSERT INTO contact (first_name, last_name, email, phone, company, title,
		                     source, industry, region, segment, score, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + contactColumns

	err := scanContact(database.DB.QueryRow(query,
		input.FirstName, input.LastName, input.Email, input.Phone, input.Company,
		input.Title, input.Source, input.Industry, input.Region, input.Segment,
		input.Score, input.Notes,
	), &contact)

	if isUniqueViolation(err) {
		return c.Status(409).JSON(fiber.Map{"error": "A contact with this email already exists"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to create contact"})
	}

	realtime.NotifyContact(context.Background(), "contact_created", contact.ID)

	return c.Status(201).JSON(contact)
}

// HandleUpdateContact replaces a contact's fields.
func HandleUpdateContact(c fiber.Ctx) error {
	contactID, err := uuid.Parse(c.Params("contact_id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid contact ID"})
	}

	var input models.ContactInput
	if err := c.Bind().JSON(&input); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON payload"})
	}
	if err := input.Validate(); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	var contact models.Contact
	query := `
		UPDATE contact
		SET first_name = $2, last_name = $3, email = $4, phone = $5, company = $6,
		    title = $7, source = $8, industry = $9, region = $10, segment = $11,
		    score = $12, notes = $13, updated_at = NOW()
		WHERE contact_id = $1 AND deleted_at IS NULL
		RETURNING ` + contactColumns

	err = scanContact(database.DB.QueryRow(query,
		contactID, input.FirstName, input.LastName, input.Email, input.Phone,
		input.Company, input.Title, input.Source, input.Industry, input.Region,
		input.Segment, input.Score, input.Notes,
	), &contact)

	if errors.Is(err, sql.ErrNoRows) {
		return c.Status(404).JSON(fiber.Map{"error": "Contact not found"})
	}
	if isUniqueViolation(err) {
		return c.Status(409).JSON(fiber.Map{"error": "A contact with this email already exists"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to update contact"})
	}

	realtime.NotifyContact(context.Background(), "contact_updated", contact.ID)

	return c.JSON(contact)
}

// HandleDeleteContact soft-deletes a single contact.
func HandleDeleteContact(c fiber.Ctx) error {
	contactID, err := uuid.Parse(c.Params("contact_id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid contact ID"})
	}

	result, err := database.DB.Exec(
		`UPDATE contact SET deleted_at = NOW() WHERE contact_id = $1 AND deleted_at IS NULL`,
		contactID,
	)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete contact"})
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "Contact not found"})
	}

	realtime.NotifyContact(context.Background(), "contact_deleted", contactID)

	return c.SendStatus(204)
}

// HandleBulkDelete soft-deletes every contact whose ID is in the request set.
// Unknown IDs are skipped; the response carries the count actually removed.
func HandleBulkDelete(c fiber.Ctx) error {
	var req BulkDeleteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON payload"})
	}
	if len(req.IDs) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "No contact IDs provided"})
	}

	ids := make([]interface{}, 0, len(req.IDs))
	placeholders := make([]string, 0, len(req.IDs))
	for i, raw := range req.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": fmt.Sprintf("Invalid contact ID: %s", raw)})
		}
		ids = append(ids, id)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	query := `UPDATE contact SET deleted_at = NOW()
		WHERE deleted_at IS NULL AND contact_id IN (` + strings.Join(placeholders, ", ") + `)`

	result, err := database.DB.Exec(query, ids...)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to delete contacts"})
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		realtime.NotifyContact(context.Background(), "contacts_bulk_deleted", uuid.Nil)
	}

	return c.JSON(BulkDeleteResponse{Deleted: deleted})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
