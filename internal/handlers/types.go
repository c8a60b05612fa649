package handlers

// SummaryStats holds the analytics summary cards.
type SummaryStats struct {
	TotalContacts int64   `json:"total_contacts"`
	AvgScore      float64 `json:"avg_score"`
	Companies     int64   `json:"companies"`
	NewThisMonth  int64   `json:"new_this_month"`
}

// BreakdownItem represents one bucket of a grouped-frequency breakdown.
type BreakdownItem struct {
	Name  string `json:"name"`
	Code  string `json:"code,omitempty"` // ISO 3166-1 alpha-2, region breakdowns only
	Count int64  `json:"count"`
}

// ScoreBand represents one band of the score histogram.
type ScoreBand struct {
	Band  string `json:"band"`
	Count int64  `json:"count"`
}

// BulkDeleteRequest is the payload for deleting multiple contacts at once.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDeleteResponse reports how many rows the bulk delete removed.
type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// ImportReport summarizes a CSV import run.
type ImportReport struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// ColumnsResponse carries the persisted column selection for a view.
type ColumnsResponse struct {
	View    string   `json:"view"`
	Columns []string `json:"columns"`
}

// ColumnsRequest is the payload for updating a view's column selection.
type ColumnsRequest struct {
	Columns []string `json:"columns"`
}
