package ingest

import (
	"errors"
	"testing"

	"cloudspend/internal/core"
)

func TestBuildRecordNormalizesFields(t *testing.T) {
	row := Row{
		"Date":      "15-03-2024",
		"Service":   "BigQuery",
		"Env":       "Staging",
		"Cost_USD":  "$1,234.50",
		"projectId": "proj-42",
	}
	ctx := rowContext{SheetIndex: 1, DetectedProvider: core.GCP, BatchToken: "abc123"}

	rec, err := buildRecord(row, 7, ctx)
	if err != nil {
		t.Fatalf("buildRecord: %v", err)
	}
	if rec.ID != "rec-1-7-abc123" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.Date.String() != "2024-03-15" {
		t.Errorf("Date = %s", rec.Date)
	}
	if rec.Provider != core.GCP {
		t.Errorf("Provider = %q, want GCP (detected)", rec.Provider)
	}
	if rec.Service != "BigQuery" {
		t.Errorf("Service = %q", rec.Service)
	}
	if rec.Team != "Unknown" {
		t.Errorf("Team = %q, want default Unknown", rec.Team)
	}
	if rec.Env != core.EnvStaging {
		t.Errorf("Env = %q", rec.Env)
	}
	if rec.CostUSD != 1234.5 {
		t.Errorf("CostUSD = %v, want 1234.5", rec.CostUSD)
	}
	if rec.AccountID != "imported_account" || rec.ProjectID != "proj-42" {
		t.Errorf("provenance = %q/%q", rec.AccountID, rec.ProjectID)
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("built record fails validation: %v", err)
	}
}

func TestBuildRecordExplicitProviderWins(t *testing.T) {
	row := Row{
		"date":           "2024-01-02",
		"cloud_provider": "Amazon AWS",
		"service":        "EC2",
		"cost_usd":       "10",
	}
	rec, err := buildRecord(row, 0, rowContext{DetectedProvider: core.GCP, BatchToken: "t"})
	if err != nil {
		t.Fatalf("buildRecord: %v", err)
	}
	if rec.Provider != core.AWS {
		t.Fatalf("Provider = %q, explicit column must take precedence", rec.Provider)
	}
}

func TestBuildRecordRejections(t *testing.T) {
	base := Row{
		"date":     "2024-01-02",
		"service":  "EC2",
		"cost_usd": "10",
	}
	ctx := rowContext{DetectedProvider: core.AWS, BatchToken: "t"}

	cases := []struct {
		name   string
		mutate func(Row)
		ctx    rowContext
		want   error
	}{
		{
			name:   "unparseable date",
			mutate: func(r Row) { r["date"] = "not-a-date" },
			ctx:    ctx,
			want:   ErrUnparseableDate,
		},
		{
			name:   "no provider column, no inference",
			mutate: func(r Row) {},
			ctx:    rowContext{BatchToken: "t"},
			want:   ErrMissingProvider,
		},
		{
			// An explicit but unrecognized provider rejects the row even
			// when context inference would have supplied one.
			name:   "unknown provider",
			mutate: func(r Row) { r["cloud_provider"] = "Azure" },
			ctx:    ctx,
			want:   ErrUnknownProvider,
		},
		{
			name:   "missing service",
			mutate: func(r Row) { delete(r, "service") },
			ctx:    ctx,
			want:   ErrMissingService,
		},
		{
			name:   "non-numeric cost",
			mutate: func(r Row) { r["cost_usd"] = "abc" },
			ctx:    ctx,
			want:   ErrBadCost,
		},
		{
			name:   "empty cost",
			mutate: func(r Row) { delete(r, "cost_usd") },
			ctx:    ctx,
			want:   ErrBadCost,
		},
		{
			name:   "negative cost",
			mutate: func(r Row) { r["cost_usd"] = "-3.50" },
			ctx:    ctx,
			want:   ErrBadCost,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			row := Row{}
			for k, v := range base {
				row[k] = v
			}
			tc.mutate(row)
			_, err := buildRecord(row, 0, tc.ctx)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestColumnVariantFallthrough(t *testing.T) {
	// An empty cell in an earlier variant falls through to a later one.
	row := Row{
		"date":     "",
		"DATE":     "2024-06-01",
		"service":  "",
		"product":  "Cloud Run",
		"cost":     "5",
		"team":     "",
		"Team":     "Data",
		"Env":      "development",
	}
	rec, err := buildRecord(row, 3, rowContext{DetectedProvider: core.GCP, BatchToken: "t"})
	if err != nil {
		t.Fatalf("buildRecord: %v", err)
	}
	if rec.Date.String() != "2024-06-01" || rec.Service != "Cloud Run" || rec.Team != "Data" {
		t.Fatalf("fallthrough failed: %+v", rec)
	}
	if rec.Env != core.EnvDev {
		t.Fatalf("Env = %q, want dev", rec.Env)
	}
	if rec.CostUSD != 5 {
		t.Fatalf("CostUSD = %v, want 5", rec.CostUSD)
	}
}
