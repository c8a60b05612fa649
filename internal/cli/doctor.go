package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/kontaktio/kontakt/internal/config"
	"github.com/kontaktio/kontakt/internal/database"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on Kontakt installation",
	Long: `Run comprehensive health checks on Kontakt installation.

Checks performed:
  - Database connection
  - PostgreSQL version ≥15
  - Database migrations completed
  - PostgreSQL functions exist
  - Materialized views exist

Example:
  kontakt doctor
  kontakt doctor --json`,
	RunE: runDoctor,
}

type CheckResult struct {
	Name       string `json:"name"`
	Pass       bool   `json:"pass"`
	Error      string `json:"error,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Details    string `json:"details,omitempty"`
}

var requiredFunctions = []string{
	"get_contact_breakdown",
	"get_score_distribution",
}

var requiredMatViews = []string{
	"contact_summary_stats",
}

// expectedMigrationVersion is the newest migration shipped with this build.
const expectedMigrationVersion = uint(4)

func checkDatabaseConnection(db *sql.DB) CheckResult {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return CheckResult{
			Name:       "Database Connection",
			Pass:       false,
			Error:      err.Error(),
			Suggestion: "Verify DATABASE_URL and ensure PostgreSQL is running",
		}
	}
	return CheckResult{Name: "Database Connection", Pass: true}
}

func checkPostgreSQLVersion(db *sql.DB) CheckResult {
	var version string
	err := db.QueryRow("SHOW server_version").Scan(&version)
	if err != nil {
		return CheckResult{Name: "PostgreSQL Version", Pass: false, Error: err.Error()}
	}

	// Parse version (e.g., "15.4 (Debian 15.4-1)")
	parts := strings.Split(version, " ")
	versionNum := strings.Split(parts[0], ".")
	major, _ := strconv.Atoi(versionNum[0])

	if major < 15 {
		return CheckResult{
			Name:       "PostgreSQL Version",
			Pass:       false,
			Error:      fmt.Sprintf("Version %s found, need ≥15", parts[0]),
			Suggestion: "Upgrade PostgreSQL to version 15 or higher",
		}
	}
	return CheckResult{Name: "PostgreSQL Version", Pass: true, Details: parts[0]}
}

func checkMigrations(cfg *config.Config) CheckResult {
	version, dirty, err := database.GetMigrationVersion(cfg.DatabaseURL)
	if err != nil {
		return CheckResult{
			Name:       "Database Migrations",
			Pass:       false,
			Error:      err.Error(),
			Suggestion: "Migrations run automatically with: kontakt serve",
		}
	}

	if version != expectedMigrationVersion {
		return CheckResult{
			Name:       "Database Migrations",
			Pass:       false,
			Error:      fmt.Sprintf("Migration version %d, expected %d", version, expectedMigrationVersion),
			Suggestion: "Migrations run automatically with: kontakt serve",
		}
	}

	if dirty {
		return CheckResult{
			Name:       "Database Migrations",
			Pass:       false,
			Error:      "Migration state is dirty",
			Suggestion: "Fix dirty migration state, may need manual intervention",
		}
	}

	return CheckResult{Name: "Database Migrations", Pass: true, Details: fmt.Sprintf("v%d", version)}
}

func checkPostgreSQLFunctions(db *sql.DB) CheckResult {
	query := `
		SELECT proname
		FROM pg_proc
		JOIN pg_namespace ON pg_proc.pronamespace = pg_namespace.oid
		WHERE nspname = 'public' AND proname = ANY($1)
	`

	rows, err := db.Query(query, pq.Array(requiredFunctions))
	if err != nil {
		return CheckResult{Name: "PostgreSQL Functions", Pass: false, Error: err.Error()}
	}
	defer func() { _ = rows.Close() }()

	foundFunctions := make(map[string]bool)
	for rows.Next() {
		var name string
		_ = rows.Scan(&name)
		foundFunctions[name] = true
	}

	var missing []string
	for _, fn := range requiredFunctions {
		if !foundFunctions[fn] {
			missing = append(missing, fn)
		}
	}

	if len(missing) > 0 {
		return CheckResult{
			Name:       "PostgreSQL Functions",
			Pass:       false,
			Error:      fmt.Sprintf("Missing %d functions: %s", len(missing), strings.Join(missing, ", ")),
			Suggestion: "Run migrations to create missing functions",
		}
	}

	return CheckResult{
		Name:    "PostgreSQL Functions",
		Pass:    true,
		Details: fmt.Sprintf("%d/%d functions found", len(requiredFunctions), len(requiredFunctions)),
	}
}

func checkMaterializedViews(db *sql.DB) CheckResult {
	query := `
		SELECT matviewname
		FROM pg_matviews
		WHERE schemaname = 'public' AND matviewname = ANY($1)
	`

	rows, err := db.Query(query, pq.Array(requiredMatViews))
	if err != nil {
		return CheckResult{Name: "Materialized Views", Pass: false, Error: err.Error()}
	}
	defer func() { _ = rows.Close() }()

	foundViews := make(map[string]bool)
	for rows.Next() {
		var name string
		_ = rows.Scan(&name)
		foundViews[name] = true
	}

	var missing []string
	for _, view := range requiredMatViews {
		if !foundViews[view] {
			missing = append(missing, view)
		}
	}

	if len(missing) > 0 {
		return CheckResult{
			Name:       "Materialized Views",
			Pass:       false,
			Error:      fmt.Sprintf("Missing views: %s", strings.Join(missing, ", ")),
			Suggestion: "Run migrations to create missing materialized views",
		}
	}

	return CheckResult{
		Name:    "Materialized Views",
		Pass:    true,
		Details: fmt.Sprintf("%d/%d views found", len(requiredMatViews), len(requiredMatViews)),
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("✗ Configuration Error: %v\n", err)
		return err
	}

	results := []CheckResult{}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		results = append(results, CheckResult{
			Name:       "Database Connection",
			Pass:       false,
			Error:      err.Error(),
			Suggestion: "Verify DATABASE_URL is valid",
		})
	} else {
		defer func() { _ = db.Close() }()

		results = append(results, checkDatabaseConnection(db))
		results = append(results, checkPostgreSQLVersion(db))
		results = append(results, checkMigrations(cfg))
		results = append(results, checkPostgreSQLFunctions(db))
		results = append(results, checkMaterializedViews(db))
	}

	if jsonOutput {
		outputDoctorJSON(results)
	} else {
		outputDoctorHuman(results)
	}

	allPassed := true
	for _, r := range results {
		if !r.Pass {
			allPassed = false
			break
		}
	}

	if !allPassed {
		os.Exit(1)
	}

	return nil
}

func outputDoctorHuman(results []CheckResult) {
	fmt.Println("\n🏥 Kontakt Health Check")

	for _, r := range results {
		icon := "✓"
		if !r.Pass {
			icon = "✗"
		}

		fmt.Printf("%s %s", icon, r.Name)
		if r.Details != "" {
			fmt.Printf(" (%s)", r.Details)
		}
		fmt.Println()

		if !r.Pass {
			if r.Error != "" {
				fmt.Printf("  Error: %s\n", r.Error)
			}
			if r.Suggestion != "" {
				fmt.Printf("  💡 %s\n", r.Suggestion)
			}
		}
	}

	passed := 0
	for _, r := range results {
		if r.Pass {
			passed++
		}
	}

	fmt.Printf("\n%d/%d checks passed\n\n", passed, len(results))
}

func outputDoctorJSON(results []CheckResult) {
	data, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(data))
}

func init() {
	doctorCmd.Flags().Bool("json", false, "Output results as JSON")
}
