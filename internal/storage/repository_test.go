package storage

import (
	"context"
	"path/filepath"
	"testing"

	"cloudspend/internal/core"
)

func newTestMirror(t *testing.T) *SQLiteMirror {
	t.Helper()
	m, err := NewSQLiteMirror(filepath.Join(t.TempDir(), "spend.db"))
	if err != nil {
		t.Fatalf("NewSQLiteMirror: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestMirrorRoundTrip(t *testing.T) {
	m := newTestMirror(t)
	ctx := context.Background()

	records := []core.SpendRecord{
		{
			ID:        "rec-0-2-abc",
			Date:      core.NewDate(2024, 1, 15),
			Provider:  core.AWS,
			Service:   "EC2",
			Team:      "Platform",
			Env:       core.EnvProd,
			CostUSD:   123.45,
			AccountID: "acct-1",
			ProjectID: "imported_project",
		},
		{
			ID:        "rec-1-2-abc",
			Date:      core.NewDate(2024, 2, 1),
			Provider:  core.GCP,
			Service:   "BigQuery",
			Team:      "Data",
			Env:       core.EnvDev,
			CostUSD:   50,
			AccountID: "imported_account",
			ProjectID: "proj-1",
		},
	}
	if err := m.SaveSet(ctx, records); err != nil {
		t.Fatalf("SaveSet: %v", err)
	}

	got, err := m.LoadSet(ctx)
	if err != nil {
		t.Fatalf("LoadSet: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("loaded %d records, want %d", len(got), len(records))
	}
	for i := range records {
		if got[i] != records[i] {
			t.Errorf("record %d round trip: got %+v, want %+v", i, got[i], records[i])
		}
	}
}

func TestMirrorSaveSetReplacesPreviousSet(t *testing.T) {
	m := newTestMirror(t)
	ctx := context.Background()

	first := []core.SpendRecord{{
		ID: "rec-0-2-aaa", Date: core.NewDate(2024, 1, 1), Provider: core.AWS,
		Service: "EC2", Team: "Platform", Env: core.EnvProd, CostUSD: 1,
		AccountID: "a", ProjectID: "p",
	}}
	second := []core.SpendRecord{{
		ID: "rec-0-2-bbb", Date: core.NewDate(2024, 2, 1), Provider: core.GCP,
		Service: "GKE", Team: "Data", Env: core.EnvDev, CostUSD: 2,
		AccountID: "a", ProjectID: "p",
	}}

	if err := m.SaveSet(ctx, first); err != nil {
		t.Fatalf("first SaveSet: %v", err)
	}
	if err := m.SaveSet(ctx, second); err != nil {
		t.Fatalf("second SaveSet: %v", err)
	}

	got, err := m.LoadSet(ctx)
	if err != nil {
		t.Fatalf("LoadSet: %v", err)
	}
	if len(got) != 1 || got[0].ID != "rec-0-2-bbb" {
		t.Fatalf("mirror kept stale records: %+v", got)
	}
}

func TestMirrorClear(t *testing.T) {
	m := newTestMirror(t)
	ctx := context.Background()

	records := []core.SpendRecord{{
		ID: "rec-0-2-ccc", Date: core.NewDate(2024, 1, 1), Provider: core.AWS,
		Service: "S3", Team: "Data", Env: core.EnvStaging, CostUSD: 3,
		AccountID: "a", ProjectID: "p",
	}}
	if err := m.SaveSet(ctx, records); err != nil {
		t.Fatalf("SaveSet: %v", err)
	}
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err := m.LoadSet(ctx)
	if err != nil {
		t.Fatalf("LoadSet: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("mirror not cleared: %+v", got)
	}
}
