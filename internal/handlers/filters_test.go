package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildFilterForURL(t *testing.T, url string) (string, []interface{}) {
	t.Helper()

	var clause string
	var args []interface{}
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error {
		clause, args = buildContactFilter(c, nil)
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, url, nil))
	require.NoError(t, err)
	_ = resp.Body.Close()

	return clause, args
}

func TestBuildContactFilter_NoParams(t *testing.T) {
	clause, args := buildFilterForURL(t, "/")
	assert.Empty(t, clause)
	assert.Empty(t, args)
}

func TestBuildContactFilter_SingleParam(t *testing.T) {
	clause, args := buildFilterForURL(t, "/?source=referral")
	assert.Equal(t, " AND source = $1", clause)
	assert.Equal(t, []interface{}{"referral"}, args)
}

func TestBuildContactFilter_MultipleParams(t *testing.T) {
	clause, args := buildFilterForURL(t, "/?source=referral&segment=enterprise&region=DE")
	assert.Equal(t, " AND source = $1 AND segment = $2 AND region = $3", clause)
	assert.Equal(t, []interface{}{"referral", "enterprise", "DE"}, args)
}

func TestBuildContactFilter_FreeTextSearch(t *testing.T) {
	clause, args := buildFilterForURL(t, "/?q=ada")
	assert.Contains(t, clause, "first_name ILIKE $1")
	assert.Contains(t, clause, "email ILIKE $1")
	assert.Equal(t, []interface{}{"%ada%"}, args)
}

func TestBuildContactFilter_BaseArgsOffsetPlaceholders(t *testing.T) {
	var clause string
	var args []interface{}
	app := fiber.New()
	app.Get("/", func(c fiber.Ctx) error {
		clause, args = buildContactFilter(c, []interface{}{"existing"})
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/?company=Acme", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, " AND company = $2", clause)
	assert.Equal(t, []interface{}{"existing", "Acme"}, args)
}

func TestBuildContactFilter_IgnoresBlankSearch(t *testing.T) {
	clause, args := buildFilterForURL(t, "/?q=%20%20")
	assert.Empty(t, clause)
	assert.Empty(t, args)
}
