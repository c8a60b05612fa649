package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBreakdownItems(t *testing.T, resp PaginatedResponse) []BreakdownItem {
	t.Helper()
	itemsJSON, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var items []BreakdownItem
	require.NoError(t, json.Unmarshal(itemsJSON, &items))
	return items
}

func TestHandleBreakdown_Source(t *testing.T) {
	responses := []mockResponse{
		{
			match:   "SELECT * FROM get_contact_breakdown(",
			columns: []string{"name", "count", "total_count"},
			rows: [][]interface{}{
				{"referral", int64(42), int64(3)},
				{"webinar", int64(17), int64(3)},
				{"(none)", int64(5), int64(3)},
			},
			args: []interface{}{"source", 25, 0, nil, nil, nil, nil},
		},
	}

	app, queue, cleanup := setupFiberTest(t, "/api/analytics/breakdown/:dimension", HandleBreakdown, responses)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/breakdown/source", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var paginatedResp PaginatedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&paginatedResp))

	items := decodeBreakdownItems(t, paginatedResp)
	require.Len(t, items, 3)
	assert.Equal(t, "referral", items[0].Name)
	assert.Equal(t, int64(42), items[0].Count)
	assert.Equal(t, "(none)", items[2].Name)
	assert.Equal(t, int64(3), paginatedResp.Pagination.Total)

	require.NoError(t, queue.expectationsMet())
}

func TestHandleBreakdown_Filtered(t *testing.T) {
	responses := []mockResponse{
		{
			match:   "SELECT * FROM get_contact_breakdown(",
			columns: []string{"name", "count", "total_count"},
			rows:    [][]interface{}{{"referral", int64(9), int64(1)}},
			args:    []interface{}{"source", 5, 0, nil, "software", "enterprise", nil},
		},
	}

	app, queue, cleanup := setupFiberTest(t, "/api/analytics/breakdown/:dimension", HandleBreakdown, responses)
	defer cleanup()

	url := "/api/analytics/breakdown/source?per=5&industry=software&segment=enterprise"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, queue.expectationsMet())
}

func TestHandleBreakdown_Industry(t *testing.T) {
	responses := []mockResponse{
		{
			match:   "SELECT * FROM get_contact_breakdown(",
			columns: []string{"name", "count", "total_count"},
			rows:    [][]interface{}{{"software", int64(20), int64(1)}},
			args:    []interface{}{"industry", 25, 0, nil, nil, nil, nil},
		},
	}

	app, queue, cleanup := setupFiberTest(t, "/api/analytics/breakdown/:dimension", HandleBreakdown, responses)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/breakdown/industry", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, queue.expectationsMet())
}

func TestHandleBreakdown_Pagination(t *testing.T) {
	responses := []mockResponse{
		{
			match:   "SELECT * FROM get_contact_breakdown(",
			columns: []string{"name", "count", "total_count"},
			rows:    [][]interface{}{{"smb", int64(8), int64(12)}},
			args:    []interface{}{"segment", 10, 10, nil, nil, nil, nil},
		},
	}

	app, queue, cleanup := setupFiberTest(t, "/api/analytics/breakdown/:dimension", HandleBreakdown, responses)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/breakdown/segment?page=2&per=10", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var paginatedResp PaginatedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&paginatedResp))
	assert.Equal(t, 2, paginatedResp.Pagination.Page)
	assert.Equal(t, 2, paginatedResp.Pagination.TotalPages)
	assert.False(t, paginatedResp.Pagination.HasMore)

	require.NoError(t, queue.expectationsMet())
}

func TestHandleBreakdown_RegionResolvesCountryNames(t *testing.T) {
	responses := []mockResponse{
		{
			match:   "SELECT * FROM get_contact_breakdown(",
			columns: []string{"name", "count", "total_count"},
			rows: [][]interface{}{
				{"DE", int64(14), int64(2)},
				{"(none)", int64(3), int64(2)},
			},
			args: []interface{}{"region", 25, 0, nil, nil, nil, nil},
		},
	}

	app, queue, cleanup := setupFiberTest(t, "/api/analytics/breakdown/:dimension", HandleBreakdown, responses)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/breakdown/region", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var paginatedResp PaginatedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&paginatedResp))

	items := decodeBreakdownItems(t, paginatedResp)
	require.Len(t, items, 2)
	assert.Equal(t, "DE", items[0].Code)
	assert.NotEqual(t, "DE", items[0].Name)
	assert.NotEmpty(t, items[0].Name)

	// The unknown bucket keeps its sentinel name and no code.
	assert.Equal(t, "(none)", items[1].Name)
	assert.Empty(t, items[1].Code)

	require.NoError(t, queue.expectationsMet())
}

func TestHandleBreakdown_UnknownDimension(t *testing.T) {
	app, queue, cleanup := setupFiberTest(t, "/api/analytics/breakdown/:dimension", HandleBreakdown, nil)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/breakdown/shoe_size", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.NoError(t, queue.expectationsMet())
}

func TestHandleBreakdown_QueryError(t *testing.T) {
	responses := []mockResponse{
		{
			match: "SELECT * FROM get_contact_breakdown(",
			err:   assert.AnError,
		},
	}

	app, queue, cleanup := setupFiberTest(t, "/api/analytics/breakdown/:dimension", HandleBreakdown, responses)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/analytics/breakdown/source", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.NoError(t, queue.expectationsMet())
}
