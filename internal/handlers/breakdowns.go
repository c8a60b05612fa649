package handlers

import (
	"slices"

	"github.com/gofiber/fiber/v3"

	"github.com/kontaktio/kontakt/internal/database"
	"github.com/kontaktio/kontakt/internal/models"
)

// BreakdownDimensions are the contact attributes that can be grouped into
// frequency breakdowns. Matches the whitelist inside get_contact_breakdown().
var BreakdownDimensions = []string{"source", "industry", "segment", "region", "company"}

// HandleBreakdown serves /api/analytics/breakdown/:dimension.
func HandleBreakdown(c fiber.Ctx) error {
	dimension := c.Params("dimension")
	if !slices.Contains(BreakdownDimensions, dimension) {
		return c.Status(404).JSON(fiber.Map{"error": "Unknown breakdown dimension"})
	}
	return handleBreakdown(c, dimension)
}

// handleBreakdown is a generic handler for all breakdown dimensions.
// Uses the PostgreSQL function get_contact_breakdown() so the grouping,
// filtering, and bucket pagination live in one place.
func handleBreakdown(c fiber.Ctx, dimension string) error {
	pagination := ParsePaginationParams(c)

	source := c.Query("source")
	industry := c.Query("industry")
	segment := c.Query("segment")
	region := c.Query("region")

	// Convert empty strings to NULL for SQL
	var sourceParam, industryParam, segmentParam, regionParam interface{}
	if source != "" {
		sourceParam = source
	}
	if industry != "" {
		industryParam = industry
	}
	if segment != "" {
		segmentParam = segment
	}
	if region != "" {
		regionParam = region
	}

	query := `SELECT * FROM get_contact_breakdown($1, $2, $3, $4, $5, $6, $7)`
	rows, err := database.DB.Query(
		query,
		dimension,
		pagination.Per,
		pagination.Offset,
		sourceParam,
		industryParam,
		segmentParam,
		regionParam,
	)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to query " + dimension + " breakdown"})
	}
	defer func() { _ = rows.Close() }()

	items := make([]BreakdownItem, 0)
	var totalCount int64
	for rows.Next() {
		var item BreakdownItem
		var rowTotal int64
		if err := rows.Scan(&item.Name, &item.Count, &rowTotal); err != nil {
			continue
		}
		totalCount = rowTotal

		// Region buckets are stored as alpha-2; resolve a display name and
		// keep the code for clients that render flags.
		if dimension == "region" && item.Name != "(none)" {
			item.Code = item.Name
			item.Name = models.RegionName(item.Name)
		}

		items = append(items, item)
	}

	return c.JSON(NewPaginatedResponse(items, pagination, totalCount))
}

