package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/biter777/countries"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Contact is a row of the contact table.
type Contact struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	Industry  string    `json:"industry"`
	Region    string    `json:"region"`
	Segment   string    `json:"segment"`
	Score     int       `json:"score"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins first and last name for display output.
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// ContactInput is the payload for creating or replacing a contact.
type ContactInput struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone" validate:"max=50"`
	Company   string `json:"company" validate:"max=200"`
	Title     string `json:"title" validate:"max=200"`
	Source    string `json:"source" validate:"max=100"`
	Industry  string `json:"industry" validate:"max=100"`
	Region    string `json:"region"`
	Segment   string `json:"segment" validate:"max=100"`
	Score     int    `json:"score" validate:"gte=0,lte=100"`
	Notes     string `json:"notes"`
}

var validate = validator.New()

// Validate checks field constraints and normalizes the region to ISO 3166-1
// alpha-2. Returns the first violation as a plain error suitable for a 400 body.
func (in *ContactInput) Validate() error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q constraint", jsonFieldName(fe.Field()), fe.Tag())
		}
		return err
	}

	region, err := NormalizeRegion(in.Region)
	if err != nil {
		return err
	}
	in.Region = region

	return nil
}

// jsonFieldName maps the Go field name reported by the validator onto the
// snake_case name API clients see.
func jsonFieldName(goName string) string {
	var b strings.Builder
	for i, r := range goName {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// NormalizeRegion resolves a country name, alpha-2, or alpha-3 value to ISO
// 3166-1 alpha-2. Empty input stays empty.
func NormalizeRegion(raw string) (string, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return "", nil
	}

	country := countries.ByName(cleaned)
	if country == countries.Unknown {
		return "", fmt.Errorf("unknown region: %q", raw)
	}
	return country.Alpha2(), nil
}

// RegionName returns the human-readable country name for an alpha-2 region,
// or the raw value when it cannot be resolved.
func RegionName(alpha2 string) string {
	if alpha2 == "" {
		return ""
	}
	country := countries.ByName(alpha2)
	if country == countries.Unknown {
		return alpha2
	}
	return country.String()
}
