package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/kontaktio/kontakt/internal/database"
)

// HandleSummary returns the analytics summary cards. Values come from the
// contact_summary_stats materialized view, refreshed by the summary scheduler.
func HandleSummary(c fiber.Ctx) error {
	var stats SummaryStats
	err := database.DB.QueryRow(`
		SELECT total_contacts, avg_score, companies, new_this_month
		FROM contact_summary_stats
	`).Scan(&stats.TotalContacts, &stats.AvgScore, &stats.Companies, &stats.NewThisMonth)

	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to query summary stats"})
	}

	return c.JSON(stats)
}

// HandleScoreDistribution returns the fixed five-band score histogram.
// Bands always appear, including empty ones, so charts keep a stable axis.
func HandleScoreDistribution(c fiber.Ctx) error {
	rows, err := database.DB.Query(`SELECT band, count FROM get_score_distribution()`)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to query score distribution"})
	}
	defer func() { _ = rows.Close() }()

	bands := make([]ScoreBand, 0, 5)
	for rows.Next() {
		var band ScoreBand
		if err := rows.Scan(&band.Band, &band.Count); err != nil {
			continue
		}
		bands = append(bands, band)
	}

	return c.JSON(bands)
}
