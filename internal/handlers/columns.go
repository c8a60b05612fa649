package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"slices"

	"github.com/gofiber/fiber/v3"

	"github.com/kontaktio/kontakt/internal/database"
)

// KnownViews lists the views whose column layout can be customized.
var KnownViews = []string{"contacts"}

// KnownColumns is the full set of displayable contact-table columns.
var KnownColumns = []string{
	"name", "email", "phone", "company", "title",
	"source", "industry", "region", "segment", "score", "created_at",
}

// DefaultColumns is the layout served before any customization is stored.
var DefaultColumns = []string{
	"name", "email", "company", "source", "segment", "score",
}

// HandleGetColumns returns the stored column selection for a view, falling
// back to the default layout when nothing has been customized.
func HandleGetColumns(c fiber.Ctx) error {
	view := c.Params("view_name")
	if !slices.Contains(KnownViews, view) {
		return c.Status(404).JSON(fiber.Map{"error": "Unknown view"})
	}

	var raw []byte
	err := database.DB.QueryRow(
		`SELECT columns FROM view_preference WHERE view_name = $1`, view,
	).Scan(&raw)

	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(ColumnsResponse{View: view, Columns: DefaultColumns})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to query column preferences"})
	}

	var columns []string
	if err := json.Unmarshal(raw, &columns); err != nil {
		// A corrupt stored value falls back to defaults instead of breaking the view.
		return c.JSON(ColumnsResponse{View: view, Columns: DefaultColumns})
	}

	return c.JSON(ColumnsResponse{View: view, Columns: columns})
}

// HandlePutColumns stores a new column selection for a view.
func HandlePutColumns(c fiber.Ctx) error {
	view := c.Params("view_name")
	if !slices.Contains(KnownViews, view) {
		return c.Status(404).JSON(fiber.Map{"error": "Unknown view"})
	}

	var req ColumnsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON payload"})
	}
	if len(req.Columns) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "At least one column is required"})
	}

	seen := make(map[string]struct{}, len(req.Columns))
	for _, col := range req.Columns {
		if !slices.Contains(KnownColumns, col) {
			return c.Status(400).JSON(fiber.Map{"error": "Unknown column: " + col})
		}
		if _, dup := seen[col]; dup {
			return c.Status(400).JSON(fiber.Map{"error": "Duplicate column: " + col})
		}
		seen[col] = struct{}{}
	}

	raw, err := json.Marshal(req.Columns)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to encode column preferences"})
	}

	_, err = database.DB.Exec(`
		INSERT INTO view_preference (view_name, columns)
		VALUES ($1, $2)
		ON CONFLICT (view_name) DO UPDATE SET columns = $2, updated_at = NOW()
	`, view, raw)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to store column preferences"})
	}

	return c.JSON(ColumnsResponse{View: view, Columns: req.Columns})
}
