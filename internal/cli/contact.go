package cli

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kontaktio/kontakt/internal/contactcsv"
	"github.com/kontaktio/kontakt/internal/database"
	"github.com/kontaktio/kontakt/internal/models"
)

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Manage contacts",
	Long: `Manage the contact database from the command line.

Contact commands cover listing, inspection, creation, deletion, and
CSV import/export without going through the HTTP API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// List command flags
var (
	contactListFormat  string
	contactListSource  string
	contactListSegment string
	contactListSearch  string
	contactListLimit   int
)

var contactListCmd = &cobra.Command{
	Use:   "list [--format table|json|csv]",
	Short: "List contacts",
	Long: `Display contacts from the database.

Supported formats:
  table  - Human-readable table (default on a terminal)
  json   - JSON array format
  csv    - Comma-separated values (default when piped)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runContactList(contactListFormat)
	},
}

var contactShowFormat string

var contactShowCmd = &cobra.Command{
	Use:   "show <email-or-id>",
	Short: "Show detailed contact information",
	Long: `Display all stored fields of a single contact.

Looks up by email first, then by contact ID.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runContactShow(args[0], contactShowFormat)
	},
}

// Create command flags
var createInput models.ContactInput

var contactCreateCmd = &cobra.Command{
	Use:   "create <email> --first-name <name> [flags]",
	Short: "Create a new contact",
	Long: `Create a contact record.

Arguments:
  email               Email address (required, unique among live contacts)

Examples:
  kontakt contact create ada@example.com --first-name Ada --last-name Lovelace
  kontakt contact create ada@example.com --first-name Ada --company "Analytical Engines" --score 88`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		createInput.Email = args[0]
		return runContactCreate(&createInput)
	},
}

var contactDeleteForce bool

var contactDeleteCmd = &cobra.Command{
	Use:   "delete <email-or-id> [--force]",
	Short: "Delete a contact (soft delete)",
	Long: `Soft delete a contact (sets deleted_at timestamp).

The row is preserved in the database but disappears from listings,
exports, and analytics. Use --force to skip the confirmation prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runContactDelete(args[0], contactDeleteForce)
	},
}

var contactImportMapping string

var contactImportCmd = &cobra.Command{
	Use:   "import <file.csv> [--mapping mapping.yaml]",
	Short: "Import contacts from a CSV file",
	Long: `Import contacts from a CSV file.

The first row must be a header. Columns are matched to contact fields by
name; a YAML mapping file can rename non-standard headers, e.g.:

  e-mail: email
  given name: first_name

Rows with validation errors are reported and skipped; duplicate emails
are skipped. The rest of the file imports normally.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runContactImport(args[0], contactImportMapping)
	},
}

var contactExportOutput string

var contactExportCmd = &cobra.Command{
	Use:   "export [--output file.csv]",
	Short: "Export contacts as CSV",
	Long:  `Export all live contacts as CSV to stdout or a file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runContactExport(contactExportOutput)
	},
}

const contactSelectColumns = `contact_id, first_name, last_name, email, phone, company, title,
	source, industry, region, segment, score, notes, created_at, updated_at`

// withDatabase connects if needed and runs fn with a bounded context.
func withDatabase(fn func(ctx context.Context) error) error {
	if database.DB == nil {
		if err := database.Connect(); err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		defer func() { _ = database.Close() }()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return fn(ctx)
}

// resolveListFormat picks an output format when none was requested:
// a table for terminals, CSV when piped.
func resolveListFormat(requested string) string {
	if requested != "" {
		return requested
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return "table"
	}
	return "csv"
}

func runContactList(format string) error {
	format = resolveListFormat(format)

	return withDatabase(func(ctx context.Context) error {
		contacts, err := queryContacts(ctx, contactListSource, contactListSegment, contactListSearch, contactListLimit)
		if err != nil {
			return err
		}

		switch format {
		case "json":
			return outputContactsJSON(contacts)
		case "csv":
			return contactcsv.Write(os.Stdout, contacts)
		case "table":
			return outputContactsTable(contacts)
		default:
			return fmt.Errorf("invalid format: %s", format)
		}
	})
}

func runContactShow(identifier, format string) error {
	if format == "" {
		format = "table"
	}

	return withDatabase(func(ctx context.Context) error {
		contact, err := findContact(ctx, identifier)
		if err != nil {
			return err
		}

		switch format {
		case "json":
			return outputContactsJSON([]models.Contact{*contact})
		case "table":
			return outputContactTable(contact)
		default:
			return fmt.Errorf("invalid format: %s", format)
		}
	})
}

func runContactCreate(input *models.ContactInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	return withDatabase(func(ctx context.Context) error {
		var contact models.Contact
		query := `
			INSERT INTO contact (first_name, last_name, email, phone, company, title,
			                     source, industry, region, segment, score, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING ` + contactSelectColumns

		err := database.DB.QueryRowContext(ctx, query,
			input.FirstName, input.LastName, input.Email, input.Phone, input.Company,
			input.Title, input.Source, input.Industry, input.Region, input.Segment,
			input.Score, input.Notes,
		).Scan(
			&contact.ID, &contact.FirstName, &contact.LastName, &contact.Email,
			&contact.Phone, &contact.Company, &contact.Title, &contact.Source,
			&contact.Industry, &contact.Region, &contact.Segment, &contact.Score,
			&contact.Notes, &contact.CreatedAt, &contact.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create contact: %w", err)
		}

		fmt.Println("Contact created successfully!")
		fmt.Println()
		return outputContactTable(&contact)
	})
}

func runContactDelete(identifier string, force bool) error {
	return withDatabase(func(ctx context.Context) error {
		contact, err := findContact(ctx, identifier)
		if err != nil {
			return err
		}

		if !force {
			fmt.Printf("Are you sure you want to delete contact '%s'? (yes/no): ", contact.Email)
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Scan()
			response := strings.TrimSpace(strings.ToLower(scanner.Text()))
			if response != "yes" && response != "y" {
				fmt.Println("Deletion cancelled")
				return nil
			}
		}

		_, err = database.DB.ExecContext(ctx,
			`UPDATE contact SET deleted_at = NOW() WHERE contact_id = $1 AND deleted_at IS NULL`,
			contact.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete contact: %w", err)
		}

		fmt.Printf("Contact '%s' deleted successfully\n", contact.Email)
		return nil
	})
}

func runContactImport(path, mappingPath string) error {
	var mapping contactcsv.Mapping
	if mappingPath != "" {
		mf, err := os.Open(mappingPath)
		if err != nil {
			return fmt.Errorf("failed to open mapping file: %w", err)
		}
		mapping, err = contactcsv.LoadMapping(mf)
		_ = mf.Close()
		if err != nil {
			return err
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	inputs, rowErrs, err := contactcsv.Read(file, mapping)
	if err != nil {
		return err
	}

	return withDatabase(func(ctx context.Context) error {
		query := `
			INSERT INTO contact (first_name, last_name, email, phone, company, title,
			                     source, industry, region, segment, score, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (lower(email)) WHERE deleted_at IS NULL DO NOTHING`

		imported, skipped := 0, len(rowErrs)
		for _, input := range inputs {
			result, err := database.DB.ExecContext(ctx, query,
				input.FirstName, input.LastName, input.Email, input.Phone, input.Company,
				input.Title, input.Source, input.Industry, input.Region, input.Segment,
				input.Score, input.Notes,
			)
			if err != nil {
				skipped++
				fmt.Fprintf(os.Stderr, "failed to insert %s: %v\n", input.Email, err)
				continue
			}
			if affected, _ := result.RowsAffected(); affected == 0 {
				skipped++
				fmt.Fprintf(os.Stderr, "duplicate email: %s\n", input.Email)
				continue
			}
			imported++
		}

		for _, re := range rowErrs {
			fmt.Fprintln(os.Stderr, re.String())
		}

		fmt.Printf("Imported %d contacts, skipped %d\n", imported, skipped)
		return nil
	})
}

func runContactExport(outputPath string) error {
	return withDatabase(func(ctx context.Context) error {
		contacts, err := queryContacts(ctx, "", "", "", 0)
		if err != nil {
			return err
		}

		out := os.Stdout
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer func() { _ = f.Close() }()
			out = f
		}

		if err := contactcsv.Write(out, contacts); err != nil {
			return err
		}

		if outputPath != "" {
			fmt.Printf("Exported %d contacts to %s\n", len(contacts), outputPath)
		}
		return nil
	})
}

// Query helpers

func queryContacts(ctx context.Context, source, segment, search string, limit int) ([]models.Contact, error) {
	query := `SELECT ` + contactSelectColumns + ` FROM contact WHERE deleted_at IS NULL`
	args := []interface{}{}

	if source != "" {
		args = append(args, source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	if segment != "" {
		args = append(args, segment)
		query += fmt.Sprintf(" AND segment = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		query += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)", n, n, n, n)
	}

	query += " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := database.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	contacts := make([]models.Contact, 0)
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(
			&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Company,
			&c.Title, &c.Source, &c.Industry, &c.Region, &c.Segment, &c.Score,
			&c.Notes, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

func findContact(ctx context.Context, identifier string) (*models.Contact, error) {
	query := `SELECT ` + contactSelectColumns + ` FROM contact
		WHERE (lower(email) = lower($1) OR contact_id::text = $1) AND deleted_at IS NULL`

	var c models.Contact
	err := database.DB.QueryRowContext(ctx, query, identifier).Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Company,
		&c.Title, &c.Source, &c.Industry, &c.Region, &c.Segment, &c.Score,
		&c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("contact '%s' not found", identifier)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query contact: %w", err)
	}

	return &c, nil
}

// Output formatting functions

func outputContactsJSON(contacts []models.Contact) error {
	data, err := json.MarshalIndent(contacts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func outputContactsTable(contacts []models.Contact) error {
	if len(contacts) == 0 {
		fmt.Println("No contacts found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tCOMPANY\tSOURCE\tSEGMENT\tSCORE")
	_, _ = fmt.Fprintln(w, "----\t-----\t-------\t------\t-------\t-----")

	for i := range contacts {
		c := &contacts[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			c.FullName(), c.Email, c.Company, c.Source, c.Segment, c.Score)
	}

	return nil
}

func outputContactTable(c *models.Contact) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	_, _ = fmt.Fprintf(w, "ID:\t%s\n", c.ID)
	_, _ = fmt.Fprintf(w, "Name:\t%s\n", c.FullName())
	_, _ = fmt.Fprintf(w, "Email:\t%s\n", c.Email)
	_, _ = fmt.Fprintf(w, "Phone:\t%s\n", valueOrNone(c.Phone))
	_, _ = fmt.Fprintf(w, "Company:\t%s\n", valueOrNone(c.Company))
	_, _ = fmt.Fprintf(w, "Title:\t%s\n", valueOrNone(c.Title))
	_, _ = fmt.Fprintf(w, "Source:\t%s\n", valueOrNone(c.Source))
	_, _ = fmt.Fprintf(w, "Industry:\t%s\n", valueOrNone(c.Industry))
	_, _ = fmt.Fprintf(w, "Region:\t%s\n", valueOrNone(models.RegionName(c.Region)))
	_, _ = fmt.Fprintf(w, "Segment:\t%s\n", valueOrNone(c.Segment))
	_, _ = fmt.Fprintf(w, "Score:\t%d\n", c.Score)
	_, _ = fmt.Fprintf(w, "Created:\t%s\n", c.CreatedAt.Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "Updated:\t%s\n", c.UpdatedAt.Format(time.RFC3339))

	if c.Notes != "" {
		_, _ = fmt.Fprintf(w, "Notes:\t%s\n", c.Notes)
	}

	return nil
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func init() {
	contactCmd.AddCommand(contactListCmd)
	contactCmd.AddCommand(contactShowCmd)
	contactCmd.AddCommand(contactCreateCmd)
	contactCmd.AddCommand(contactDeleteCmd)
	contactCmd.AddCommand(contactImportCmd)
	contactCmd.AddCommand(contactExportCmd)

	contactListCmd.Flags().StringVarP(&contactListFormat, "format", "f", "", "Output format (table, json, csv)")
	contactListCmd.Flags().StringVar(&contactListSource, "source", "", "Filter by acquisition source")
	contactListCmd.Flags().StringVar(&contactListSegment, "segment", "", "Filter by segment")
	contactListCmd.Flags().StringVar(&contactListSearch, "search", "", "Free-text search over name, email, and company")
	contactListCmd.Flags().IntVar(&contactListLimit, "limit", 0, "Maximum number of contacts to list (0 = all)")

	contactShowCmd.Flags().StringVarP(&contactShowFormat, "format", "f", "table", "Output format (table, json)")

	contactCreateCmd.Flags().StringVar(&createInput.FirstName, "first-name", "", "First name (required)")
	contactCreateCmd.Flags().StringVar(&createInput.LastName, "last-name", "", "Last name")
	contactCreateCmd.Flags().StringVar(&createInput.Phone, "phone", "", "Phone number")
	contactCreateCmd.Flags().StringVar(&createInput.Company, "company", "", "Company name")
	contactCreateCmd.Flags().StringVar(&createInput.Title, "title", "", "Job title")
	contactCreateCmd.Flags().StringVar(&createInput.Source, "source", "", "Acquisition source")
	contactCreateCmd.Flags().StringVar(&createInput.Industry, "industry", "", "Industry")
	contactCreateCmd.Flags().StringVar(&createInput.Region, "region", "", "Country name or ISO code")
	contactCreateCmd.Flags().StringVar(&createInput.Segment, "segment", "", "Segment")
	contactCreateCmd.Flags().IntVar(&createInput.Score, "score", 0, "Lead score (0-100)")
	contactCreateCmd.Flags().StringVar(&createInput.Notes, "notes", "", "Free-form notes")

	contactDeleteCmd.Flags().BoolVarP(&contactDeleteForce, "force", "f", false, "Skip confirmation prompt")

	contactImportCmd.Flags().StringVarP(&contactImportMapping, "mapping", "m", "", "YAML file mapping CSV headers to contact fields")

	contactExportCmd.Flags().StringVarP(&contactExportOutput, "output", "o", "", "Write CSV to a file instead of stdout")
}
