package ingest

import "strings"

// Column-name reconciliation. Each logical field has an ordered list of
// accepted header variants; the first variant present in the row with a
// non-empty value wins. Empty cells fall through to the next variant and
// finally to the field default, matching how the source spreadsheets were
// exported by different teams.

var (
	dateColumns     = []string{"date", "Date", "DATE", "timestamp"}
	providerColumns = []string{"cloud_provider", "Cloud_Provider"}
	serviceColumns  = []string{"service", "Service", "product"}
	teamColumns     = []string{"team", "Team"}
	envColumns      = []string{"env", "Env"}
	costColumns     = []string{"cost_usd", "Cost_USD", "cost"}
	accountColumns  = []string{"account_id", "Account_ID", "accountId"}
	projectColumns  = []string{"project_id", "Project_ID", "projectId"}
)

const (
	defaultTeam      = "Unknown"
	defaultAccountID = "imported_account"
	defaultProjectID = "imported_project"
)

// Row is one raw spreadsheet row keyed by header cell.
type Row map[string]string

// lookup returns the first non-empty value among the accepted header
// variants, or "" when none is present.
func (r Row) lookup(variants []string) string {
	for _, name := range variants {
		if v, ok := r[name]; ok && v != "" {
			return v
		}
	}
	return ""
}

// lookupOr is lookup with a field default.
func (r Row) lookupOr(variants []string, fallback string) string {
	if v := r.lookup(variants); v != "" {
		return v
	}
	return fallback
}

// zipRow pairs header cells with row cells. Header names are trimmed; rows
// shorter than the header (trailing empty cells) simply omit those keys.
func zipRow(header, cells []string) Row {
	row := make(Row, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" || i >= len(cells) {
			continue
		}
		row[name] = cells[i]
	}
	return row
}

// emptyCells reports whether every cell in the row is blank. Such rows are
// skipped without counting as rejections; they are spreadsheet padding, not
// data.
func emptyCells(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
