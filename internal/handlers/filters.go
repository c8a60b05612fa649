package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// buildContactFilter creates SQL WHERE conditions and args from query params.
// The returned clause starts with " AND" so it can be appended to a WHERE that
// already excludes soft-deleted rows.
func buildContactFilter(c fiber.Ctx, baseArgs []interface{}) (string, []interface{}) {
	var conditions []string
	args := baseArgs

	addFilter := func(columnName, value string) {
		if value != "" {
			argNum := len(args) + 1
			conditions = append(conditions, fmt.Sprintf("%s = $%d", columnName, argNum))
			args = append(args, value)
		}
	}

	addFilter("source", c.Query("source"))
	addFilter("industry", c.Query("industry"))
	addFilter("segment", c.Query("segment"))
	addFilter("region", c.Query("region"))
	addFilter("company", c.Query("company"))

	// Free-text search over name, email, and company
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		argNum := len(args) + 1
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)",
			argNum, argNum, argNum, argNum))
		args = append(args, "%"+q+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " AND " + strings.Join(conditions, " AND ")
	}

	return clause, args
}
